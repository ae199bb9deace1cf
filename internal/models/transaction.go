package models

import (
	"errors"
	"time"

	"finance-tracker/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAmount          = errors.New("transaction amount must not be negative")
	ErrInvalidRecurrence      = errors.New("recurring transaction requires a valid recurrence type")
)

// Transaction is the stored form of a ledger transaction. Dates are kept as
// calendar dates (midnight UTC).
type Transaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Type           string          `gorm:"type:varchar(10);not null" json:"type"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Category       string          `gorm:"type:varchar(50);not null;index" json:"category"`
	Date           time.Time       `gorm:"type:date;not null;index" json:"date"`
	Description    string          `gorm:"type:text" json:"description"`
	IsRecurring    bool            `gorm:"not null;default:false" json:"is_recurring"`
	RecurrenceType string          `gorm:"type:varchar(10)" json:"recurrence_type,omitempty"`
	NextDueDate    *time.Time      `gorm:"type:date;index" json:"next_due_date,omitempty"`
	ParentID       *uuid.UUID      `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	// Set timestamps if not already set (for tests)
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return t.Validate()
}

func (t *Transaction) Validate() error {
	if !ledger.Type(t.Type).Valid() {
		return ErrInvalidTransactionType
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if t.IsRecurring && !ledger.RecurrenceType(t.RecurrenceType).Valid() {
		return ErrInvalidRecurrence
	}
	return nil
}

func (t *Transaction) TableName() string {
	return "transactions"
}

// IsTemplate reports whether the row is a recurring transaction that spawns occurrences
func (t *Transaction) IsTemplate() bool {
	return t.IsRecurring && t.ParentID == nil
}

// ToLedger converts the row into the domain type served to clients
func (t *Transaction) ToLedger() ledger.Transaction {
	out := ledger.Transaction{
		ID:          t.ID.String(),
		Type:        ledger.Type(t.Type),
		Amount:      ledger.NewAmount(t.Amount),
		Category:    t.Category,
		Date:        ledger.DateOf(t.Date.UTC()),
		Description: t.Description,
	}
	if t.IsRecurring {
		r := &ledger.Recurrence{Type: ledger.RecurrenceType(t.RecurrenceType)}
		if t.NextDueDate != nil {
			r.NextDueDate = ledger.DateOf(t.NextDueDate.UTC())
		}
		out.Recurrence = r
	}
	if t.ParentID != nil {
		out.ParentID = t.ParentID.String()
	}
	return out
}

// TransactionFromLedger builds a row from a validated ledger transaction
func TransactionFromLedger(userID uuid.UUID, lt ledger.Transaction) (*Transaction, error) {
	amount, ok := lt.Amount.Decimal()
	if !ok {
		return nil, ErrInvalidAmount
	}
	if !lt.Date.Valid() {
		return nil, ledger.ErrInvalidDate
	}

	t := &Transaction{
		UserID:      userID,
		Type:        string(lt.Type),
		Amount:      amount,
		Category:    lt.Category,
		Date:        lt.Date.Time(),
		Description: lt.Description,
	}
	if lt.ID != "" {
		id, err := uuid.Parse(lt.ID)
		if err != nil {
			return nil, err
		}
		t.ID = id
	}
	if lt.Recurrence != nil {
		t.IsRecurring = true
		t.RecurrenceType = string(lt.Recurrence.Type)
		if lt.Recurrence.NextDueDate.Valid() {
			due := lt.Recurrence.NextDueDate.Time()
			t.NextDueDate = &due
		}
	}
	if lt.ParentID != "" {
		parent, err := uuid.Parse(lt.ParentID)
		if err != nil {
			return nil, err
		}
		t.ParentID = &parent
	}
	return t, t.Validate()
}

// TransactionsToLedger converts a slice of rows
func TransactionsToLedger(rows []Transaction) []ledger.Transaction {
	out := make([]ledger.Transaction, len(rows))
	for i := range rows {
		out[i] = rows[i].ToLedger()
	}
	return out
}
