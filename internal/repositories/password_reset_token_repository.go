package repositories

import (
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrResetTokenNotFound = errors.New("password reset token not found")
)

// PasswordResetTokenRepository handles database operations for password reset tokens
type PasswordResetTokenRepository struct {
	db *gorm.DB
}

// NewPasswordResetTokenRepository creates a new password reset token repository
func NewPasswordResetTokenRepository(db *gorm.DB) PasswordResetTokenRepositoryInterface {
	return &PasswordResetTokenRepository{
		db: db,
	}
}

// Create stores a new reset token
func (r *PasswordResetTokenRepository) Create(token *models.PasswordResetToken) error {
	if token == nil {
		return errors.New("reset token cannot be nil")
	}

	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves a reset token by the hash of its delivered value
func (r *PasswordResetTokenRepository) GetByTokenHash(tokenHash string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken

	if err := r.db.Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return &token, nil
}

// MarkUsed consumes a token. A token that was already used is reported as not found.
func (r *PasswordResetTokenRepository) MarkUsed(tokenID uuid.UUID, at time.Time) error {
	result := r.db.Model(&models.PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", tokenID).
		Update("used_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to mark reset token used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrResetTokenNotFound
	}

	return nil
}

// RevokeAllForUser consumes every outstanding token of the user
func (r *PasswordResetTokenRepository) RevokeAllForUser(userID uuid.UUID, at time.Time) error {
	if err := r.db.Model(&models.PasswordResetToken{}).
		Where("user_id = ? AND used_at IS NULL", userID).
		Update("used_at", at).Error; err != nil {
		return fmt.Errorf("failed to revoke reset tokens: %w", err)
	}

	return nil
}

// DeleteExpired removes tokens past their expiry
func (r *PasswordResetTokenRepository) DeleteExpired() (int64, error) {
	result := r.db.Where("expires_at < ?", time.Now()).Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}
