package dto

import (
	"finance-tracker/internal/ledger"

	"github.com/shopspring/decimal"
)

// TransactionQuery contains the optional filter and sort parameters of a listing
type TransactionQuery struct {
	Category  string `query:"category"`
	Period    string `query:"period"`
	Start     string `query:"start"`
	End       string `query:"end"`
	Sort      string `query:"sort"`
	Direction string `query:"direction"`
}

// IsZero reports whether no parameter was supplied
func (q TransactionQuery) IsZero() bool {
	return q == TransactionQuery{}
}

// Filter converts the query into ledger filter and sort states
func (q TransactionQuery) Filter() (ledger.FilterState, ledger.SortState, error) {
	period, err := ledger.ParsePeriod(q.Period, q.Start, q.End)
	if err != nil {
		return ledger.FilterState{}, ledger.SortState{}, err
	}
	sort, err := ledger.ParseSort(q.Sort, q.Direction)
	if err != nil {
		return ledger.FilterState{}, ledger.SortState{}, err
	}
	return ledger.FilterState{Category: q.Category, Period: period}, sort, nil
}

// CreateTransactionRequest contains the data for a new transaction. ParentID
// marks an occurrence materialized from a recurring template.
type CreateTransactionRequest struct {
	Type           string          `json:"type" validate:"required,transaction_type"`
	Amount         decimal.Decimal `json:"amount"`
	Category       string          `json:"category" validate:"required,max=50"`
	Date           string          `json:"date" validate:"required,calendar_date,not_future"`
	Description    string          `json:"description" validate:"max=500"`
	IsRecurring    bool            `json:"isRecurring"`
	RecurrenceType string          `json:"recurrenceType" validate:"omitempty,recurrence_type"`
	NextDueDate    string          `json:"nextDueDate" validate:"omitempty,calendar_date"`
	ParentID       string          `json:"parentId" validate:"omitempty,uuid"`
}

// DeleteTransactionResponse confirms a deletion
type DeleteTransactionResponse struct {
	Message string `json:"message"`
}

// SummaryResponse contains the aggregates of a filtered transaction view
type SummaryResponse struct {
	ledger.Summary
	Count int `json:"count"`
}
