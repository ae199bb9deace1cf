package ledger

import "github.com/shopspring/decimal"

// DefaultBudgetThreshold is the single-expense amount above which a budget
// notice is raised.
var DefaultBudgetThreshold = decimal.NewFromInt(500)

// ExceedsBudget reports whether an expense is larger than the threshold.
func ExceedsBudget(t Transaction, threshold decimal.Decimal) bool {
	return t.Type == Expense && t.Amount.Valid() && t.Amount.Magnitude().GreaterThan(threshold)
}
