package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSort_ByDate(t *testing.T) {
	txs := []Transaction{
		dated("b", "Food", NewDate(2024, 2, 1)),
		dated("a", "Food", NewDate(2024, 1, 1)),
		dated("x", "Food", ParseDate("nope")),
		dated("c", "Food", NewDate(2024, 3, 1)),
	}

	asc := Sort(txs, SortState{Key: SortByDate, Direction: Ascending})
	assert.Equal(t, []string{"a", "b", "c", "x"}, ids(asc))

	desc := Sort(txs, SortState{Key: SortByDate, Direction: Descending})
	assert.Equal(t, []string{"x", "c", "b", "a"}, ids(desc))

	assert.Equal(t, []string{"b", "a", "x", "c"}, ids(txs), "input is untouched")
}

func TestSort_StableOnEqualKeys(t *testing.T) {
	same := NewDate(2024, 1, 1)
	txs := []Transaction{
		dated("first", "Food", same),
		dated("second", "Food", same),
		dated("third", "Food", same),
	}

	for _, dir := range []Direction{Ascending, Descending} {
		got := Sort(txs, SortState{Key: SortByDate, Direction: dir})
		assert.Equal(t, []string{"first", "second", "third"}, ids(got), string(dir))
	}
}

func TestSort_ByAmount(t *testing.T) {
	txs := []Transaction{
		{ID: "ten", Amount: MustAmount("10")},
		{ID: "nine", Amount: MustAmount("9.99")},
		{ID: "hundred", Amount: MustAmount("100")},
		{ID: "bad", Amount: ParseAmount("abc")},
	}

	got := Sort(txs, SortState{Key: SortByAmount, Direction: Ascending})
	assert.Equal(t, []string{"nine", "ten", "hundred", "bad"}, ids(got), "numeric, not lexicographic")
}

func TestSort_ByType(t *testing.T) {
	txs := []Transaction{
		{ID: "i1", Type: Income},
		{ID: "e1", Type: Expense},
		{ID: "i2", Type: Income},
		{ID: "e2", Type: Expense},
	}

	got := Sort(txs, SortState{Key: SortByType, Direction: Ascending})
	assert.Equal(t, []string{"e1", "e2", "i1", "i2"}, ids(got))

	got = Sort(txs, SortState{Key: SortByType, Direction: Descending})
	assert.Equal(t, []string{"i1", "i2", "e1", "e2"}, ids(got))
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSort, s)

	s, err = ParseSort("Amount", "ASC")
	require.NoError(t, err)
	assert.Equal(t, SortState{Key: SortByAmount, Direction: Ascending}, s)

	_, err = ParseSort("category", "")
	assert.Error(t, err)
	_, err = ParseSort("date", "sideways")
	assert.Error(t, err)
}
