package services

import (
	"sort"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// expenseShare is the percentage of generated history that is spending
const expenseShare = 80

type amountRange struct {
	min, max float64
}

var categoryAmountRanges = map[string]amountRange{
	"Salary":         {2500, 5500},
	"Freelance":      {150, 1800},
	"Investments":    {20, 900},
	"Gifts":          {20, 300},
	"Housing":        {600, 2200},
	"Food":           {8, 180},
	"Transportation": {5, 120},
	"Utilities":      {40, 260},
	"Healthcare":     {15, 400},
	"Entertainment":  {8, 150},
	"Shopping":       {12, 450},
	"Education":      {15, 600},
}

var defaultAmountRange = amountRange{5, 200}

// merchantsByCategory names plausible payees. Categories without an entry get
// a generated company name.
var merchantsByCategory = map[string][]string{
	"Food":           {"Whole Foods Market", "Trader Joe's", "Kroger", "Chipotle Mexican Grill", "Starbucks", "Panera Bread"},
	"Transportation": {"Uber", "Lyft", "Shell", "Chevron", "Metro Transit", "Amtrak"},
	"Utilities":      {"PG&E", "Duke Energy", "Comcast Xfinity", "Verizon Wireless", "Water Department"},
	"Healthcare":     {"CVS Pharmacy", "Walgreens", "Kaiser Permanente", "LabCorp"},
	"Entertainment":  {"Netflix", "Spotify", "AMC Theaters", "Disney+"},
	"Shopping":       {"Amazon.com", "Best Buy", "IKEA", "Target", "Home Depot"},
	"Education":      {"Udemy", "Coursera", "Barnes & Noble"},
	"Housing":        {"Maple Street Apartments", "Greenview Property Management"},
}

type sampleDataGenerator struct {
	faker *gofakeit.Faker
}

// NewSampleDataGenerator returns a generator seeded from seed. A zero seed
// draws a random one.
func NewSampleDataGenerator(seed uint64) SampleDataGeneratorInterface {
	return &sampleDataGenerator{faker: gofakeit.New(seed)}
}

// GenerateHistory returns count one-off transactions dated within the last
// days days up to and including today, oldest first.
func (g *sampleDataGenerator) GenerateHistory(userID uuid.UUID, today ledger.Date, days, count int) []*models.Transaction {
	if count <= 0 || !today.Valid() {
		return []*models.Transaction{}
	}
	if days < 0 {
		days = 0
	}

	start := today.AddDays(-days)
	txs := make([]ledger.Transaction, 0, count)
	for i := 0; i < count; i++ {
		txType := ledger.Expense
		if g.faker.Number(1, 100) > expenseShare {
			txType = ledger.Income
		}
		category := g.faker.RandomString(ledger.CategoriesFor(txType))

		txs = append(txs, ledger.Transaction{
			ID:          uuid.NewString(),
			Type:        txType,
			Amount:      g.GenerateAmount(txType, category),
			Category:    category,
			Date:        g.GenerateDate(start, today),
			Description: g.description(txType, category),
		})
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})

	return g.toRows(userID, txs)
}

// GenerateTemplates returns a monthly salary, monthly rent and a weekly
// grocery run. Each template started in the past and is due on or after today.
func (g *sampleDataGenerator) GenerateTemplates(userID uuid.UUID, today ledger.Date) []*models.Transaction {
	if !today.Valid() {
		return []*models.Transaction{}
	}

	templates := []struct {
		txType      ledger.Type
		category    string
		recurrence  ledger.RecurrenceType
		description string
		start       ledger.Date
	}{
		{ledger.Income, "Salary", ledger.Monthly, "Monthly salary - " + g.faker.Company(), today.AddMonths(-1)},
		{ledger.Expense, "Housing", ledger.Monthly, "Rent - " + g.merchant("Housing"), today.AddMonths(-1).AddDays(g.faker.Number(0, 10))},
		{ledger.Expense, "Food", ledger.Weekly, "Weekly groceries - " + g.merchant("Food"), today.AddDays(-g.faker.Number(1, 6))},
	}

	txs := make([]ledger.Transaction, 0, len(templates))
	for _, tpl := range templates {
		next := tpl.start
		for next.Before(today) {
			next, _ = ledger.NextDueDate(next, tpl.recurrence)
		}
		txs = append(txs, ledger.Transaction{
			ID:          uuid.NewString(),
			Type:        tpl.txType,
			Amount:      g.GenerateAmount(tpl.txType, tpl.category),
			Category:    tpl.category,
			Date:        tpl.start,
			Description: tpl.description,
			Recurrence:  &ledger.Recurrence{Type: tpl.recurrence, NextDueDate: next},
		})
	}

	return g.toRows(userID, txs)
}

// GenerateAmount draws a two-decimal amount from the range typical for the category
func (g *sampleDataGenerator) GenerateAmount(t ledger.Type, category string) ledger.Amount {
	r, ok := categoryAmountRanges[category]
	if !ok || !ledger.IsValidCategory(t, category) {
		r = defaultAmountRange
	}
	return ledger.NewAmount(decimal.NewFromFloat(g.faker.Price(r.min, r.max)).Round(2))
}

// GenerateDate returns a date in [start, end]. Reversed bounds are swapped.
func (g *sampleDataGenerator) GenerateDate(start, end ledger.Date) ledger.Date {
	if end.Before(start) {
		start, end = end, start
	}
	span := end.DaysSince(start)
	if span <= 0 {
		return start
	}
	return start.AddDays(g.faker.Number(0, span))
}

func (g *sampleDataGenerator) description(t ledger.Type, category string) string {
	if t == ledger.Income {
		switch category {
		case "Salary":
			return "Payroll deposit - " + g.faker.Company()
		case "Freelance":
			return "Invoice paid - " + g.faker.Company()
		default:
			return category + " - " + g.faker.Sentence(3)
		}
	}
	return g.merchant(category)
}

func (g *sampleDataGenerator) merchant(category string) string {
	if names, ok := merchantsByCategory[category]; ok {
		return g.faker.RandomString(names)
	}
	return g.faker.Company()
}

func (g *sampleDataGenerator) toRows(userID uuid.UUID, txs []ledger.Transaction) []*models.Transaction {
	rows := make([]*models.Transaction, 0, len(txs))
	for _, lt := range txs {
		row, err := models.TransactionFromLedger(userID, lt)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
