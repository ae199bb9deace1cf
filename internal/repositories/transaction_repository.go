package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotRecurringParent  = errors.New("parent is not a recurring transaction")
	ErrAlreadyMaterialized = errors.New("occurrence already materialized")
)

// transactionRepository implements TransactionRepositoryInterface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &transactionRepository{
		db: db,
	}
}

// Create creates a new transaction
func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's transactions
func (r *transactionRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}

// ListByUser returns all of the user's transactions, newest first
func (r *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// Delete removes one of the user's transactions. Occurrences of a deleted
// template keep their parent reference.
func (r *transactionRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Transaction{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// CreateOccurrence inserts the occurrence and advances its template from
// expectedDue to nextDue atomically.
func (r *transactionRepository) CreateOccurrence(ctx context.Context, occurrence *models.Transaction, expectedDue, nextDue time.Time) error {
	if occurrence.ParentID == nil {
		return ErrNotRecurringParent
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Transaction
		err := tx.Where("id = ? AND user_id = ?", *occurrence.ParentID, occurrence.UserID).
			First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return fmt.Errorf("failed to load parent transaction: %w", err)
		}
		if !parent.IsTemplate() {
			return ErrNotRecurringParent
		}

		result := tx.Model(&models.Transaction{}).
			Where("id = ? AND next_due_date = ?", parent.ID, expectedDue).
			Updates(map[string]interface{}{
				"next_due_date": nextDue,
				"updated_at":    time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to advance parent transaction: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyMaterialized
		}

		if err := tx.Create(occurrence).Error; err != nil {
			return fmt.Errorf("failed to create occurrence: %w", err)
		}
		return nil
	})
}

// ListDueRecurring returns up to limit templates of any user whose next due
// date is on or before today, or missing.
func (r *transactionRepository) ListDueRecurring(ctx context.Context, today time.Time, limit int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	query := r.db.WithContext(ctx).
		Where("is_recurring = ? AND parent_id IS NULL", true).
		Where("(next_due_date IS NULL OR next_due_date <= ?)", today).
		Order("next_due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list due recurring transactions: %w", err)
	}
	return transactions, nil
}
