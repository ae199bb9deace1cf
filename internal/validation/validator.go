package validation

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/ledger"

	"github.com/go-playground/validator/v10"
)

// FutureDateTolerance allows a client whose local date is ahead of the
// server's UTC date to record "today".
const FutureDateTolerance = 24 * time.Hour

// Validator wraps the go-playground validator with the finance tracker rules
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

var (
	instance *Validator
	once     sync.Once
	now      = time.Now
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	once.Do(func() { instance = NewValidator() })
	return instance
}

// NewValidator creates a validator with the custom tags and struct rules registered
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("password_policy", validatePasswordPolicy)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("recurrence_type", validateRecurrenceType)
	_ = v.RegisterValidation("calendar_date", validateCalendarDate)
	_ = v.RegisterValidation("not_future", validateNotFuture)

	v.RegisterStructValidation(validateCreateTransaction, dto.CreateTransactionRequest{})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

func validatePasswordPolicy(fl validator.FieldLevel) bool {
	return ValidatePassword(fl.Field().String()) == nil
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return ledger.Type(fl.Field().String()).Valid()
}

func validateRecurrenceType(fl validator.FieldLevel) bool {
	return ledger.RecurrenceType(fl.Field().String()).Valid()
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	return ledger.ParseDate(fl.Field().String()).Valid()
}

func validateNotFuture(fl validator.FieldLevel) bool {
	d := ledger.ParseDate(fl.Field().String())
	if !d.Valid() {
		// calendar_date reports the format problem.
		return true
	}
	latest := ledger.DateOf(now().UTC().Add(FutureDateTolerance))
	return !d.After(latest)
}

// validateCreateTransaction enforces the rules spanning several fields: the
// category belongs to the type, the amount is non-negative and recurrence
// fields are present exactly when the transaction recurs.
func validateCreateTransaction(sl validator.StructLevel) {
	req := sl.Current().Interface().(dto.CreateTransactionRequest)

	if req.Amount.IsNegative() {
		sl.ReportError(req.Amount, "amount", "Amount", "non_negative", "")
	}

	t := ledger.Type(req.Type)
	if t.Valid() && req.Category != "" && !ledger.IsValidCategory(t, req.Category) {
		sl.ReportError(req.Category, "category", "Category", "category_for_type", req.Type)
	}

	if req.IsRecurring && req.RecurrenceType == "" {
		sl.ReportError(req.RecurrenceType, "recurrenceType", "RecurrenceType", "required_if_recurring", "")
	}
	if !req.IsRecurring && (req.RecurrenceType != "" || req.NextDueDate != "") {
		sl.ReportError(req.RecurrenceType, "recurrenceType", "RecurrenceType", "excluded_unless_recurring", "")
	}
	if req.ParentID != "" && !req.IsRecurring {
		sl.ReportError(req.ParentID, "parentId", "ParentID", "parent_requires_recurrence", "")
	}
}
