package services

import (
	"errors"
	"fmt"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

const maxActivityPageSize = 100

var (
	ErrInvalidUserID   = errors.New("invalid user ID")
	ErrInvalidAuditLog = errors.New("invalid audit log")
)

var validAuditActions = map[string]bool{
	models.AuditActionLogin:                true,
	models.AuditActionLogout:               true,
	models.AuditActionRegister:             true,
	models.AuditActionFailedLogin:          true,
	models.AuditActionMFAChallenge:         true,
	models.AuditActionAccountLocked:        true,
	models.AuditActionPasswordResetRequest: true,
	models.AuditActionPasswordReset:        true,
	models.AuditActionTransactionCreated:   true,
	models.AuditActionTransactionDeleted:   true,
	models.AuditActionOccurrenceCreated:    true,
}

// ValidateActivityType validates that the activity type is one of the allowed types
func ValidateActivityType(action string) error {
	if !validAuditActions[action] {
		return fmt.Errorf("invalid activity type: %s", action)
	}
	return nil
}

// AuditService records transaction activity
type AuditService struct {
	repo repositories.AuditLogRepositoryInterface
}

func NewAuditService(repo repositories.AuditLogRepositoryInterface) AuditServiceInterface {
	return &AuditService{repo: repo}
}

func (s *AuditService) CreateAuditLog(log *models.AuditLog) error {
	if log == nil {
		return ErrInvalidAuditLog
	}
	if err := ValidateActivityType(log.Action); err != nil {
		return err
	}
	if err := s.repo.Create(log); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// GetUserActivity returns a page of the user's audit trail, newest first
func (s *AuditService) GetUserActivity(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, ErrInvalidUserID
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxActivityPageSize {
		limit = maxActivityPageSize
	}
	return s.repo.GetByUserID(userID, offset, limit)
}

func (s *AuditService) LogTransactionCreated(userID, transactionID uuid.UUID, ipAddress, userAgent string) error {
	return s.CreateAuditLog(transactionLog(userID, transactionID, models.AuditActionTransactionCreated, ipAddress, userAgent))
}

func (s *AuditService) LogTransactionDeleted(userID, transactionID uuid.UUID, ipAddress, userAgent string) error {
	return s.CreateAuditLog(transactionLog(userID, transactionID, models.AuditActionTransactionDeleted, ipAddress, userAgent))
}

// LogOccurrenceCreated records an occurrence materialized from a recurring
// template. The worker passes empty request details.
func (s *AuditService) LogOccurrenceCreated(userID, parentID, occurrenceID uuid.UUID, ipAddress, userAgent string) error {
	log := transactionLog(userID, occurrenceID, models.AuditActionOccurrenceCreated, ipAddress, userAgent)
	log.SetMetadata("parent_id", parentID.String())
	return s.CreateAuditLog(log)
}

func transactionLog(userID, transactionID uuid.UUID, action, ipAddress, userAgent string) *models.AuditLog {
	return &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   models.AuditResourceTransaction,
		ResourceID: transactionID.String(),
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	}
}
