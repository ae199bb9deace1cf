package ledger

import (
	"encoding/json"
	"slices"
)

type Type string

const (
	Income  Type = "income"
	Expense Type = "expense"
)

func (t Type) Valid() bool {
	return t == Income || t == Expense
}

func (t Type) Label() string {
	switch t {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	default:
		return string(t)
	}
}

// AllCategories is the filter sentinel matching every category.
const AllCategories = "All"

// OtherCategory is the catch-all present in both category lists.
const OtherCategory = "Other"

var (
	IncomeCategories = []string{"Salary", "Freelance", "Investments", "Gifts", OtherCategory}

	ExpenseCategories = []string{
		"Housing", "Food", "Transportation", "Utilities", "Healthcare",
		"Entertainment", "Shopping", "Education", OtherCategory,
	}
)

// CategoriesFor returns the closed category list bound to a transaction type.
func CategoriesFor(t Type) []string {
	switch t {
	case Income:
		return slices.Clone(IncomeCategories)
	case Expense:
		return slices.Clone(ExpenseCategories)
	default:
		return nil
	}
}

func IsValidCategory(t Type, category string) bool {
	return slices.Contains(CategoriesFor(t), category)
}

type RecurrenceType string

const (
	Weekly    RecurrenceType = "weekly"
	Monthly   RecurrenceType = "monthly"
	Quarterly RecurrenceType = "quarterly"
	Yearly    RecurrenceType = "yearly"
)

var RecurrenceTypes = []RecurrenceType{Weekly, Monthly, Quarterly, Yearly}

func (r RecurrenceType) Valid() bool {
	return slices.Contains(RecurrenceTypes, r)
}

// Recurrence is the schedule of a recurring transaction. A nil *Recurrence
// means the transaction is a one-off.
type Recurrence struct {
	Type        RecurrenceType
	NextDueDate Date
}

type Transaction struct {
	ID          string
	Type        Type
	Amount      Amount
	Category    string
	Date        Date
	Description string
	Recurrence  *Recurrence
	// ParentID links an occurrence to the recurring template it was materialized from.
	ParentID string
}

func (t Transaction) IsRecurring() bool {
	return t.Recurrence != nil
}

// IsTemplate reports whether t is a persisted recurring transaction that
// spawns occurrences.
func (t Transaction) IsTemplate() bool {
	return t.Recurrence != nil && t.ID != "" && t.ParentID == ""
}

// Clone returns a copy that shares no pointers with t.
func (t Transaction) Clone() Transaction {
	if t.Recurrence != nil {
		r := *t.Recurrence
		t.Recurrence = &r
	}
	return t
}

type wireTransaction struct {
	ID             string         `json:"id,omitempty"`
	Type           Type           `json:"type"`
	Amount         Amount         `json:"amount"`
	Category       string         `json:"category"`
	Date           Date           `json:"date"`
	Description    string         `json:"description"`
	IsRecurring    bool           `json:"isRecurring"`
	RecurrenceType RecurrenceType `json:"recurrenceType,omitempty"`
	NextDueDate    *Date          `json:"nextDueDate,omitempty"`
	ParentID       string         `json:"parentId,omitempty"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	w := wireTransaction{
		ID:          t.ID,
		Type:        t.Type,
		Amount:      t.Amount,
		Category:    t.Category,
		Date:        t.Date,
		Description: t.Description,
		ParentID:    t.ParentID,
	}
	if t.Recurrence != nil {
		w.IsRecurring = true
		w.RecurrenceType = t.Recurrence.Type
		if !t.Recurrence.NextDueDate.IsZero() {
			next := t.Recurrence.NextDueDate
			w.NextDueDate = &next
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON maps the flat isRecurring/recurrenceType/nextDueDate wire
// fields onto Recurrence. Schedule fields are ignored when isRecurring is false.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	var w wireTransaction
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*t = Transaction{
		ID:          w.ID,
		Type:        w.Type,
		Amount:      w.Amount,
		Category:    w.Category,
		Date:        w.Date,
		Description: w.Description,
		ParentID:    w.ParentID,
	}
	if w.IsRecurring {
		r := &Recurrence{Type: w.RecurrenceType}
		if w.NextDueDate != nil {
			r.NextDueDate = *w.NextDueDate
		}
		t.Recurrence = r
	}
	return nil
}
