package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dated(id, category string, d Date) Transaction {
	return Transaction{ID: id, Type: Expense, Amount: AmountFromInt(10), Category: category, Date: d}
}

func ids(txs []Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestFilter_LastDays(t *testing.T) {
	now := time.Date(2024, 3, 31, 18, 30, 0, 0, time.UTC)
	txs := []Transaction{
		dated("today", "Food", NewDate(2024, 3, 31)),
		dated("edge", "Food", NewDate(2024, 3, 24)),
		dated("outside", "Food", NewDate(2024, 3, 23)),
		dated("future", "Food", NewDate(2024, 4, 2)),
		dated("broken", "Food", ParseDate("garbage")),
	}

	got := Filter(txs, FilterState{Period: LastDays(7)}, now)

	assert.Equal(t, []string{"today", "edge", "future"}, ids(got))
}

func TestFilter_CustomRange(t *testing.T) {
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	start, end := NewDate(2024, 3, 1), NewDate(2024, 3, 15)
	txs := []Transaction{
		dated("before", "Food", NewDate(2024, 2, 29)),
		dated("start", "Food", start),
		dated("end", "Food", end),
		dated("after", "Food", NewDate(2024, 3, 16)),
	}

	got := Filter(txs, FilterState{Period: CustomRange(&start, &end)}, now)
	assert.Equal(t, []string{"start", "end"}, ids(got))

	// A custom range with a missing bound does not restrict anything.
	got = Filter(txs, FilterState{Period: CustomRange(&start, nil)}, now)
	assert.Len(t, got, len(txs))
}

func TestFilter_Category(t *testing.T) {
	now := time.Now()
	txs := []Transaction{
		dated("a", "Food", DateOf(now)),
		dated("b", "Housing", DateOf(now)),
		dated("c", "Food", DateOf(now)),
	}

	assert.Equal(t, []string{"a", "c"}, ids(Filter(txs, FilterState{Category: "Food"}, now)))
	assert.Len(t, Filter(txs, FilterState{Category: AllCategories}, now), 3)
	assert.Len(t, Filter(txs, FilterState{}, now), 3)
	assert.Empty(t, Filter(txs, FilterState{Category: "Salary"}, now))
}

func TestFilter_CombinesPredicates(t *testing.T) {
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		dated("recent-food", "Food", NewDate(2024, 3, 30)),
		dated("old-food", "Food", NewDate(2023, 3, 30)),
		dated("recent-rent", "Housing", NewDate(2024, 3, 30)),
	}

	f := FilterState{Category: "Food", Period: LastDays(30)}
	got := Filter(txs, f, now)

	assert.Equal(t, []string{"recent-food"}, ids(got))
	assert.Equal(t, ids(got), ids(Filter(got, f, now)), "filter is idempotent")
	assert.Equal(t, "old-food", txs[1].ID, "input is untouched")
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("", "", "")
	require.NoError(t, err)
	assert.True(t, p.IsZero())

	p, err = ParsePeriod("90", "", "")
	require.NoError(t, err)
	assert.Equal(t, 90, p.Days())

	p, err = ParsePeriod("custom", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.True(t, p.IsCustom())
	assert.True(t, p.Match(NewDate(2024, 1, 15), NewDate(2024, 6, 1)))
	assert.False(t, p.Match(NewDate(2024, 2, 1), NewDate(2024, 6, 1)))

	_, err = ParsePeriod("14", "", "")
	assert.Error(t, err)
}

func TestParsePeriod_CustomBounds(t *testing.T) {
	p, err := ParsePeriod("custom", "2024-01-01", "")
	require.NoError(t, err)
	assert.True(t, p.Match(NewDate(2023, 6, 1), NewDate(2024, 6, 1)), "one missing bound keeps the range inert")

	_, err = ParsePeriod("custom", "2024-13-01", "2024-01-31")
	assert.ErrorContains(t, err, "start")

	_, err = ParsePeriod("custom", "2024-01-01", "31/01/2024")
	assert.ErrorContains(t, err, "end")
}
