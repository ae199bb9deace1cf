package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidType      = errors.New("type must be income or expense")
	ErrInvalidAmount    = errors.New("amount must be a non-negative number")
	ErrMissingCategory  = errors.New("category is required")
	ErrCategoryMismatch = errors.New("category does not belong to the transaction type")
	ErrInvalidDate      = errors.New("date must be a valid YYYY-MM-DD date")
	ErrFutureDate       = errors.New("date cannot be in the future")
	ErrMissingSchedule  = errors.New("recurring transactions need a recurrence type")
)

// FieldError ties a validation failure to the input field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e FieldError) Unwrap() error {
	return e.Err
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "invalid transaction: " + strings.Join(msgs, ", ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		errs = append(errs, f.Err)
	}
	return errs
}

// Validate checks a new transaction before it is submitted. A recurring
// transaction without a next due date gets one computed from its date.
func Validate(t *Transaction, today Date) error {
	var fields []FieldError
	add := func(field string, err error) {
		fields = append(fields, FieldError{Field: field, Err: err})
	}

	if !t.Type.Valid() {
		add("type", ErrInvalidType)
	}
	if !t.Amount.Valid() || t.Amount.IsNegative() {
		add("amount", ErrInvalidAmount)
	}
	switch {
	case strings.TrimSpace(t.Category) == "":
		add("category", ErrMissingCategory)
	case t.Type.Valid() && !IsValidCategory(t.Type, t.Category):
		add("category", fmt.Errorf("%w: %s is not a %s category", ErrCategoryMismatch, t.Category, t.Type))
	}
	switch {
	case !t.Date.Valid():
		add("date", ErrInvalidDate)
	case today.Valid() && t.Date.After(today):
		add("date", ErrFutureDate)
	}

	if r := t.Recurrence; r != nil {
		if !r.Type.Valid() {
			add("recurrenceType", fmt.Errorf("%w: %q", ErrMissingSchedule, r.Type))
		} else if r.NextDueDate.IsZero() && t.Date.Valid() {
			r.NextDueDate, _ = NextDueDate(t.Date, r.Type)
		} else if !r.NextDueDate.Valid() {
			add("nextDueDate", ErrInvalidDate)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
