package ledger

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownRecurrence = errors.New("unknown recurrence type")
	ErrInvalidDueDate    = errors.New("invalid next due date")
)

// NextDueDate advances from by one period of the recurrence type. Month based
// periods clamp to the last valid day of the target month. It returns false
// for an unknown recurrence type or an invalid date.
func NextDueDate(from Date, rt RecurrenceType) (Date, bool) {
	if !from.Valid() {
		return Date{}, false
	}
	switch rt {
	case Weekly:
		return from.AddDays(7), true
	case Monthly:
		return from.AddMonths(1), true
	case Quarterly:
		return from.AddMonths(3), true
	case Yearly:
		return from.AddMonths(12), true
	default:
		return Date{}, false
	}
}

// Persister stores a newly materialized occurrence and returns the persisted record.
type Persister interface {
	Persist(ctx context.Context, occurrence Transaction) (Transaction, error)
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, occurrence Transaction) (Transaction, error)

func (f PersisterFunc) Persist(ctx context.Context, occurrence Transaction) (Transaction, error) {
	return f(ctx, occurrence)
}

// Materialized is one occurrence created for a template.
type Materialized struct {
	ParentID    string
	Occurrence  Transaction
	NextDueDate Date
}

// ScheduleError describes a template whose schedule cannot be advanced.
type ScheduleError struct {
	TransactionID string
	Err           error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.TransactionID, e.Err)
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}

// Failure is a template whose occurrence could not be persisted.
type Failure struct {
	ParentID string
	Err      error
}

type Report struct {
	Created []Materialized
	Failed  []Failure
	Invalid []*ScheduleError
}

// Err joins every failure and schedule error, or returns nil.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Failed)+len(r.Invalid))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("materialize %s: %w", f.ParentID, f.Err))
	}
	for _, e := range r.Invalid {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// Occurrence builds the occurrence a template produces for its current due date.
func Occurrence(parent Transaction) (Transaction, error) {
	if parent.Recurrence == nil {
		return Transaction{}, &ScheduleError{TransactionID: parent.ID, Err: ErrUnknownRecurrence}
	}
	due := parent.Recurrence.NextDueDate
	if !due.Valid() {
		return Transaction{}, &ScheduleError{TransactionID: parent.ID, Err: ErrInvalidDueDate}
	}
	next, ok := NextDueDate(due, parent.Recurrence.Type)
	if !ok {
		return Transaction{}, &ScheduleError{
			TransactionID: parent.ID,
			Err:           fmt.Errorf("%w: %q", ErrUnknownRecurrence, parent.Recurrence.Type),
		}
	}
	return Transaction{
		Type:        parent.Type,
		Amount:      parent.Amount,
		Category:    parent.Category,
		Date:        due,
		Description: parent.Description,
		Recurrence:  &Recurrence{Type: parent.Recurrence.Type, NextDueDate: next},
		ParentID:    parent.ID,
	}, nil
}

// IsDue reports whether a template's next occurrence falls on or before today.
func IsDue(t Transaction, today Date) bool {
	if !t.IsTemplate() {
		return false
	}
	due := t.Recurrence.NextDueDate
	return !due.Valid() || due.Compare(today) <= 0
}

// MaterializeDue creates at most one occurrence for every template due on or
// before today. A failure for one template never stops the others.
func MaterializeDue(ctx context.Context, txs []Transaction, today Date, p Persister) Report {
	var report Report
	for _, t := range txs {
		if !IsDue(t, today) {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Failed = append(report.Failed, Failure{ParentID: t.ID, Err: err})
			continue
		}

		occ, err := Occurrence(t)
		if err != nil {
			var se *ScheduleError
			if errors.As(err, &se) {
				report.Invalid = append(report.Invalid, se)
			}
			continue
		}

		saved, err := p.Persist(ctx, occ)
		if err != nil {
			report.Failed = append(report.Failed, Failure{ParentID: t.ID, Err: err})
			continue
		}

		report.Created = append(report.Created, Materialized{
			ParentID:    t.ID,
			Occurrence:  saved,
			NextDueDate: occ.Recurrence.NextDueDate,
		})
	}
	return report
}
