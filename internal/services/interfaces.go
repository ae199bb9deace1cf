package services

import (
	"context"
	"io"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
)

type AuthServiceInterface interface {
	Register(req *dto.RegisterRequest, ipAddress, userAgent string) (*dto.AuthResponse, error)
	// Login returns ErrMFARequired when the account has MFA enabled and no code was supplied.
	Login(req *dto.LoginRequest, ipAddress, userAgent string) (*dto.AuthResponse, error)
	Logout(accessToken, ipAddress, userAgent string) error
	RequestPasswordReset(ctx context.Context, req *dto.PasswordResetRequest, ipAddress, userAgent string) error
	ResetPassword(req *dto.ResetPasswordRequest, ipAddress, userAgent string) error
}

type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
	GetJTI(tokenString string) (string, error)
	GetTokenExpiry(tokenString string) (time.Time, error)
}

type PasswordServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
	PasswordStrength(password string) int
	GenerateResetToken() (string, error)
}

// MFAServiceInterface enrolls and verifies time-based one-time passwords.
// Secrets leave the service sealed and are only opened to verify a code.
type MFAServiceInterface interface {
	Enroll(accountName string) (*dto.MFAEnrollment, error)
	Verify(sealedSecret, code string) (bool, error)
}

// AuditServiceInterface defines the contract for audit logging operations
type AuditServiceInterface interface {
	CreateAuditLog(log *models.AuditLog) error
	GetUserActivity(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
	LogTransactionCreated(userID, transactionID uuid.UUID, ipAddress, userAgent string) error
	LogTransactionDeleted(userID, transactionID uuid.UUID, ipAddress, userAgent string) error
	LogOccurrenceCreated(userID, parentID, occurrenceID uuid.UUID, ipAddress, userAgent string) error
}

type TransactionServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, query dto.TransactionQuery) ([]ledger.Transaction, error)
	Create(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest, ipAddress, userAgent string) (ledger.Transaction, error)
	Delete(ctx context.Context, userID, transactionID uuid.UUID, ipAddress, userAgent string) error
	Summary(ctx context.Context, userID uuid.UUID, query dto.TransactionQuery) (*dto.SummaryResponse, error)
	Export(ctx context.Context, userID uuid.UUID, query dto.TransactionQuery, w io.Writer) error
}

// RecurrenceServiceInterface materializes due occurrences of recurring templates
type RecurrenceServiceInterface interface {
	ProcessDue(ctx context.Context, today ledger.Date) (ledger.Report, error)
	Run(ctx context.Context, interval time.Duration) error
}

// NotifierInterface delivers user-facing notifications. Delivery failures are
// reported but never undo the operation that triggered them.
type NotifierInterface interface {
	TransactionCreated(ctx context.Context, userID uuid.UUID, tx ledger.Transaction) error
	OccurrencesCreated(ctx context.Context, created []ledger.Materialized) error
	PasswordResetRequested(ctx context.Context, email, token string, expiresAt time.Time) error
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

type CircuitBreakerInterface interface {
	IsOpen() bool
	RecordSuccess()
	RecordFailure()
	GetState() models.CircuitBreakerState
	Reset()
	GetFailureCount() int
}

// SampleDataGeneratorInterface produces realistic ledger data for development databases
type SampleDataGeneratorInterface interface {
	GenerateHistory(userID uuid.UUID, today ledger.Date, days, count int) []*models.Transaction
	GenerateTemplates(userID uuid.UUID, today ledger.Date) []*models.Transaction
	GenerateAmount(t ledger.Type, category string) ledger.Amount
	GenerateDate(start, end ledger.Date) ledger.Date
}
