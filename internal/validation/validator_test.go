package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"finance-tracker/internal/dto"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ValidatorTestSuite struct {
	suite.Suite
	v *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}

func (s *ValidatorTestSuite) SetupTest() {
	s.v = NewValidator()
	now = func() time.Time { return time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC) }
}

func (s *ValidatorTestSuite) TearDownTest() {
	now = time.Now
}

func validRequest() dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{
		Type:        "expense",
		Amount:      decimal.RequireFromString("42.50"),
		Category:    "Food",
		Date:        "2024-03-15",
		Description: "weekly shop",
	}
}

func (s *ValidatorTestSuite) failedTags(err error) map[string]string {
	var verrs validator.ValidationErrors
	s.Require().True(errors.As(err, &verrs), "expected validation errors, got %v", err)
	tags := make(map[string]string)
	for _, fe := range verrs {
		tags[fe.Field()] = fe.Tag()
	}
	return tags
}

func (s *ValidatorTestSuite) TestCreateTransaction_Valid() {
	s.NoError(s.v.GetValidate().Struct(validRequest()))

	req := validRequest()
	req.Type = "income"
	req.Category = "Salary"
	req.IsRecurring = true
	req.RecurrenceType = "monthly"
	req.NextDueDate = "2024-04-15"
	s.NoError(s.v.GetValidate().Struct(req))
}

func (s *ValidatorTestSuite) TestCreateTransaction_FieldRules() {
	testCases := []struct {
		name   string
		mutate func(*dto.CreateTransactionRequest)
		field  string
		tag    string
	}{
		{"unknown type", func(r *dto.CreateTransactionRequest) { r.Type = "transfer" }, "type", "transaction_type"},
		{"missing category", func(r *dto.CreateTransactionRequest) { r.Category = "" }, "category", "required"},
		{"malformed date", func(r *dto.CreateTransactionRequest) { r.Date = "15/03/2024" }, "date", "calendar_date"},
		{"impossible date", func(r *dto.CreateTransactionRequest) { r.Date = "2024-02-30" }, "date", "calendar_date"},
		{"future date", func(r *dto.CreateTransactionRequest) { r.Date = "2024-03-20" }, "date", "not_future"},
		{"negative amount", func(r *dto.CreateTransactionRequest) { r.Amount = decimal.NewFromInt(-5) }, "amount", "non_negative"},
		{"wrong category", func(r *dto.CreateTransactionRequest) { r.Category = "Salary" }, "category", "category_for_type"},
		{"recurring without type", func(r *dto.CreateTransactionRequest) { r.IsRecurring = true }, "recurrenceType", "required_if_recurring"},
		{"schedule without recurrence", func(r *dto.CreateTransactionRequest) { r.RecurrenceType = "weekly" }, "recurrenceType", "excluded_unless_recurring"},
		{"unknown schedule", func(r *dto.CreateTransactionRequest) {
			r.IsRecurring = true
			r.RecurrenceType = "daily"
		}, "recurrenceType", "recurrence_type"},
		{"malformed parent", func(r *dto.CreateTransactionRequest) {
			r.IsRecurring = true
			r.RecurrenceType = "weekly"
			r.ParentID = "not-a-uuid"
		}, "parentId", "uuid"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			req := validRequest()
			tc.mutate(&req)
			tags := s.failedTags(s.v.GetValidate().Struct(req))
			s.Equal(tc.tag, tags[tc.field], "failed tags: %v", tags)
		})
	}
}

func (s *ValidatorTestSuite) TestNotFuture_ToleratesOneDay() {
	req := validRequest()
	req.Date = "2024-03-16"
	s.NoError(s.v.GetValidate().Struct(req), "a client a timezone ahead may record its today")

	req.Date = "2024-03-17"
	s.Error(s.v.GetValidate().Struct(req))
}

func (s *ValidatorTestSuite) TestPasswordPolicyTag() {
	s.NoError(s.v.GetValidate().Struct(dto.RegisterRequest{Email: "a@example.com", Password: "Secure1!x"}))

	tags := s.failedTags(s.v.GetValidate().Struct(dto.RegisterRequest{Email: "a@example.com", Password: "weakpass"}))
	s.Equal("password_policy", tags["password"])
}

func (s *ValidatorTestSuite) TestValidatePassword() {
	testCases := []struct {
		password string
		expected error
	}{
		{"Secure1!x", nil},
		{"", ErrPasswordEmpty},
		{"Sh0rt!", ErrPasswordTooShort},
		{"Aa1!" + strings.Repeat("x", 70), ErrPasswordTooLong},
		{"secure1!x", ErrPasswordNoUppercase},
		{"SECURE1!X", ErrPasswordNoLowercase},
		{"Secure!!x", ErrPasswordNoNumber},
		{"Secure12x", ErrPasswordNoSpecial},
	}

	for _, tc := range testCases {
		s.Run(tc.password, func() {
			err := ValidatePassword(tc.password)
			if tc.expected == nil {
				s.NoError(err)
				return
			}
			s.ErrorIs(err, tc.expected)
		})
	}
}

func (s *ValidatorTestSuite) TestGetValidator_Singleton() {
	s.Same(GetValidator(), GetValidator())
}
