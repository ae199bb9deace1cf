package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrDataQuality marks results computed while skipping malformed records.
var ErrDataQuality = errors.New("data quality issue")

type DataIssue struct {
	TransactionID string `json:"transactionId"`
	Field         string `json:"field"`
	Value         string `json:"value"`
}

func (i DataIssue) String() string {
	return fmt.Sprintf("transaction %q has invalid %s %q", i.TransactionID, i.Field, i.Value)
}

// DataQualityError lists the records that were excluded from or flagged in a
// computation. The accompanying result is still usable.
type DataQualityError struct {
	Issues []DataIssue
}

func (e *DataQualityError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		parts = append(parts, i.String())
	}
	return fmt.Sprintf("%v: %s", ErrDataQuality, strings.Join(parts, "; "))
}

func (e *DataQualityError) Is(target error) bool {
	return target == ErrDataQuality
}

type issues []DataIssue

func (is *issues) amount(t Transaction) {
	*is = append(*is, DataIssue{TransactionID: t.ID, Field: "amount", Value: t.Amount.Raw()})
}

func (is *issues) date(t Transaction) {
	*is = append(*is, DataIssue{TransactionID: t.ID, Field: "date", Value: t.Date.Raw()})
}

func (is issues) err() error {
	if len(is) == 0 {
		return nil
	}
	return &DataQualityError{Issues: is}
}

type Totals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// ComputeTotals sums income and expense magnitudes. Transactions with an
// invalid amount are left out and reported through a *DataQualityError.
func ComputeTotals(txs []Transaction) (Totals, error) {
	var bad issues
	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range txs {
		if !t.Amount.Valid() {
			bad.amount(t)
			continue
		}
		switch t.Type {
		case Income:
			income = income.Add(t.Amount.Magnitude())
		case Expense:
			expenses = expenses.Add(t.Amount.Magnitude())
		}
	}
	return Totals{Income: income, Expenses: expenses, Balance: income.Sub(expenses)}, bad.err()
}

type SeriesPoint struct {
	Date              Date            `json:"date"`
	Label             string          `json:"label"`
	InvalidDate       bool            `json:"invalidDate,omitempty"`
	CumulativeIncome  decimal.Decimal `json:"cumulativeIncome"`
	CumulativeExpense decimal.Decimal `json:"cumulativeExpense"`
}

// CumulativeSeries groups transactions by date and returns running income and
// expense sums in ascending date order. Groups with an unparseable date are
// kept, labelled InvalidDateLabel, and placed after every valid date, so their
// amounts only show up in those tail points and never in a valid date's sums.
func CumulativeSeries(txs []Transaction) ([]SeriesPoint, error) {
	type group struct {
		date     Date
		income   decimal.Decimal
		expenses decimal.Decimal
	}

	var bad issues
	index := make(map[Date]int)
	groups := make([]group, 0)
	for _, t := range txs {
		key := t.Date
		if !key.Valid() {
			bad.date(t)
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{date: key, income: decimal.Zero, expenses: decimal.Zero})
		}
		if !t.Amount.Valid() {
			bad.amount(t)
			continue
		}
		switch t.Type {
		case Income:
			groups[i].income = groups[i].income.Add(t.Amount.Magnitude())
		case Expense:
			groups[i].expenses = groups[i].expenses.Add(t.Amount.Magnitude())
		}
	}

	slices.SortStableFunc(groups, func(a, b group) int {
		if !a.date.Valid() && !b.date.Valid() {
			return 0
		}
		return a.date.Compare(b.date)
	})

	points := make([]SeriesPoint, 0, len(groups))
	income, expenses := decimal.Zero, decimal.Zero
	for _, g := range groups {
		income = income.Add(g.income)
		expenses = expenses.Add(g.expenses)
		points = append(points, SeriesPoint{
			Date:              g.date,
			Label:             g.date.Label(),
			InvalidDate:       !g.date.Valid(),
			CumulativeIncome:  income,
			CumulativeExpense: expenses,
		})
	}
	return points, bad.err()
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// CategoryBreakdown sums magnitudes per category, largest total first.
func CategoryBreakdown(txs []Transaction) ([]CategoryTotal, error) {
	var bad issues
	index := make(map[string]int)
	out := make([]CategoryTotal, 0)
	for _, t := range txs {
		if !t.Amount.Valid() {
			bad.amount(t)
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryTotal{
				Category: t.Category,
				Income:   decimal.Zero,
				Expense:  decimal.Zero,
				Total:    decimal.Zero,
			})
		}
		m := t.Amount.Magnitude()
		switch t.Type {
		case Income:
			out[i].Income = out[i].Income.Add(m)
		case Expense:
			out[i].Expense = out[i].Expense.Add(m)
		}
		out[i].Total = out[i].Total.Add(m)
		out[i].Count++
	}
	slices.SortStableFunc(out, func(a, b CategoryTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out, bad.err()
}

// Summary bundles every aggregate of a transaction view.
type Summary struct {
	Totals     Totals          `json:"totals"`
	Series     []SeriesPoint   `json:"series"`
	Categories []CategoryTotal `json:"categories"`
	Issues     []DataIssue     `json:"issues,omitempty"`
}

// Summarize computes totals, series and category breakdown together. Data
// issues are deduplicated into Summary.Issues and also returned as an error.
func Summarize(txs []Transaction) (Summary, error) {
	var s Summary
	var errs []error
	var err error

	s.Totals, err = ComputeTotals(txs)
	errs = append(errs, err)
	s.Series, err = CumulativeSeries(txs)
	errs = append(errs, err)
	s.Categories, err = CategoryBreakdown(txs)
	errs = append(errs, err)

	seen := make(map[DataIssue]struct{})
	for _, e := range errs {
		var dq *DataQualityError
		if !errors.As(e, &dq) {
			continue
		}
		for _, i := range dq.Issues {
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			s.Issues = append(s.Issues, i)
		}
	}
	if len(s.Issues) > 0 {
		return s, &DataQualityError{Issues: s.Issues}
	}
	return s, nil
}
