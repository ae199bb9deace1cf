package ledger

import (
	"fmt"
	"slices"
	"strings"
)

type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByAmount SortKey = "amount"
	SortByType   SortKey = "type"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

type SortState struct {
	Key       SortKey
	Direction Direction
}

// DefaultSort shows the newest transactions first.
var DefaultSort = SortState{Key: SortByDate, Direction: Descending}

func ParseSort(key, direction string) (SortState, error) {
	s := DefaultSort
	if key != "" {
		s.Key = SortKey(strings.ToLower(key))
	}
	if direction != "" {
		s.Direction = Direction(strings.ToLower(direction))
	}
	switch s.Key {
	case SortByDate, SortByAmount, SortByType:
	default:
		return SortState{}, fmt.Errorf("unsupported sort key %q", key)
	}
	if s.Direction != Ascending && s.Direction != Descending {
		return SortState{}, fmt.Errorf("unsupported sort direction %q", direction)
	}
	return s, nil
}

func (s SortState) compare(a, b Transaction) int {
	var c int
	switch s.Key {
	case SortByAmount:
		c = a.Amount.Compare(b.Amount)
	case SortByType:
		c = strings.Compare(string(a.Type), string(b.Type))
	default:
		c = a.Date.Compare(b.Date)
	}
	if s.Direction == Descending {
		return -c
	}
	return c
}

// Sort returns a stably sorted copy of txs. Records with equal keys keep
// their input order in both directions.
func Sort(txs []Transaction, s SortState) []Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, s.compare)
	return out
}
