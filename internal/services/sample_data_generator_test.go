package services

import (
	"testing"
	"time"

	"finance-tracker/internal/ledger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type SampleDataGeneratorTestSuite struct {
	suite.Suite
	generator SampleDataGeneratorInterface
	userID    uuid.UUID
	today     ledger.Date
}

func (s *SampleDataGeneratorTestSuite) SetupTest() {
	s.generator = NewSampleDataGenerator(42)
	s.userID = uuid.New()
	s.today = ledger.NewDate(2024, time.March, 15)
}

func TestSampleDataGeneratorSuite(t *testing.T) {
	suite.Run(t, new(SampleDataGeneratorTestSuite))
}

func (s *SampleDataGeneratorTestSuite) TestGenerateHistory() {
	rows := s.generator.GenerateHistory(s.userID, s.today, 90, 200)

	s.Require().Len(rows, 200)
	start := s.today.AddDays(-90)
	for i, row := range rows {
		lt := row.ToLedger()
		s.Equal(s.userID, row.UserID)
		s.True(ledger.IsValidCategory(lt.Type, lt.Category), "category %s for %s", lt.Category, lt.Type)
		s.False(lt.Date.After(s.today))
		s.False(lt.Date.Before(start))
		s.False(row.Amount.IsNegative())
		s.False(row.IsRecurring)
		s.NoError(ledger.Validate(&lt, s.today))
		if i > 0 {
			s.False(lt.Date.Before(rows[i-1].ToLedger().Date), "history is oldest first")
		}
	}
}

func (s *SampleDataGeneratorTestSuite) TestGenerateHistory_MostlyExpenses() {
	rows := s.generator.GenerateHistory(s.userID, s.today, 30, 500)

	expenses := 0
	for _, row := range rows {
		if row.Type == string(ledger.Expense) {
			expenses++
		}
	}
	s.Greater(expenses, 300)
	s.Less(expenses, 500)
}

func (s *SampleDataGeneratorTestSuite) TestGenerateHistory_ZeroCount() {
	s.Empty(s.generator.GenerateHistory(s.userID, s.today, 30, 0))
}

func (s *SampleDataGeneratorTestSuite) TestGenerateHistory_SingleDay() {
	rows := s.generator.GenerateHistory(s.userID, s.today, 0, 10)

	for _, row := range rows {
		s.True(s.today.Equal(row.ToLedger().Date))
	}
}

func (s *SampleDataGeneratorTestSuite) TestGenerateTemplates() {
	rows := s.generator.GenerateTemplates(s.userID, s.today)

	s.Require().Len(rows, 3)
	for _, row := range rows {
		lt := row.ToLedger()
		s.True(lt.IsTemplate())
		s.Require().NotNil(lt.Recurrence)
		s.False(lt.Date.After(s.today))
		s.False(lt.Recurrence.NextDueDate.Before(s.today), "templates are not overdue")
		s.True(ledger.IsValidCategory(lt.Type, lt.Category))
	}
}

func (s *SampleDataGeneratorTestSuite) TestGenerateAmount_CategoryRanges() {
	tests := []struct {
		txType   ledger.Type
		category string
		min, max float64
	}{
		{ledger.Income, "Salary", 2500, 5500},
		{ledger.Expense, "Food", 8, 180},
		{ledger.Expense, "Housing", 600, 2200},
		{ledger.Expense, "Other", 5, 200},
	}

	for _, tc := range tests {
		s.Run(tc.category, func() {
			for i := 0; i < 50; i++ {
				amount, ok := s.generator.GenerateAmount(tc.txType, tc.category).Decimal()
				s.Require().True(ok)
				f, _ := amount.Float64()
				s.GreaterOrEqual(f, tc.min)
				s.LessOrEqual(f, tc.max)
				s.LessOrEqual(-amount.Exponent(), int32(2))
			}
		})
	}
}

func (s *SampleDataGeneratorTestSuite) TestGenerateDate() {
	start := ledger.NewDate(2024, time.January, 1)
	end := ledger.NewDate(2024, time.January, 10)

	for i := 0; i < 50; i++ {
		d := s.generator.GenerateDate(start, end)
		s.False(d.Before(start))
		s.False(d.After(end))
	}

	s.True(start.Equal(s.generator.GenerateDate(start, start)))

	swapped := s.generator.GenerateDate(end, start)
	s.False(swapped.Before(start))
	s.False(swapped.After(end))
}

func (s *SampleDataGeneratorTestSuite) TestSeededGeneratorsAgree() {
	a := NewSampleDataGenerator(7)
	b := NewSampleDataGenerator(7)

	s.Equal(a.GenerateAmount(ledger.Expense, "Food").String(), b.GenerateAmount(ledger.Expense, "Food").String())
}
