package repositories

import (
	"context"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UpdatePasswordHash(userID uuid.UUID, passwordHash string) error
	UpdateFailedLoginAttempts(user *models.User) error
	UpdateLastLogin(userID uuid.UUID, at time.Time) error
}

// TransactionRepositoryInterface defines the contract for transaction repository operations.
// Every read and write is scoped to the owning user.
type TransactionRepositoryInterface interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// CreateOccurrence inserts an occurrence of a recurring template and moves
	// the template's next due date forward in one database transaction. It
	// fails with ErrAlreadyMaterialized when the template is no longer due on
	// expectedDue.
	CreateOccurrence(ctx context.Context, occurrence *models.Transaction, expectedDue, nextDue time.Time) error
	ListDueRecurring(ctx context.Context, today time.Time, limit int) ([]models.Transaction, error)
}

// PasswordResetTokenRepositoryInterface defines the contract for password reset token operations
type PasswordResetTokenRepositoryInterface interface {
	Create(token *models.PasswordResetToken) error
	GetByTokenHash(tokenHash string) (*models.PasswordResetToken, error)
	MarkUsed(tokenID uuid.UUID, at time.Time) error
	RevokeAllForUser(userID uuid.UUID, at time.Time) error
	DeleteExpired() (int64, error)
}

// BlacklistedTokenRepositoryInterface defines the contract for blacklisted token repository operations
type BlacklistedTokenRepositoryInterface interface {
	Create(token *models.BlacklistedToken) error
	GetByJTI(jti string) (*models.BlacklistedToken, error)
	DeleteExpired() (int64, error)
}

// AuditLogRepositoryInterface defines the contract for audit log repository operations
type AuditLogRepositoryInterface interface {
	Create(log *models.AuditLog) error
	GetByUserID(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
}
