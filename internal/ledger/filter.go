package ledger

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// PeriodDays are the fixed "last N days" windows offered to users.
var PeriodDays = []int{7, 30, 90, 365}

const PeriodCustom = "custom"

// Period restricts transactions by date. The zero Period matches everything.
type Period struct {
	days   int
	custom bool
	start  *Date
	end    *Date
}

// LastDays keeps transactions dated within n days before today, inclusive.
func LastDays(n int) Period {
	return Period{days: n}
}

// CustomRange keeps transactions between start and end inclusive. The range
// is inert until both bounds are set.
func CustomRange(start, end *Date) Period {
	return Period{custom: true, start: start, end: end}
}

// ParsePeriod reads the query form of a period: "", "7", "30", "90", "365" or
// "custom" with YYYY-MM-DD bounds. A missing bound leaves the custom range
// inert; a malformed one is an error.
func ParsePeriod(value, start, end string) (Period, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "", "all":
		return Period{}, nil
	case PeriodCustom:
		from, err := optionalDate("start", start)
		if err != nil {
			return Period{}, err
		}
		to, err := optionalDate("end", end)
		if err != nil {
			return Period{}, err
		}
		return CustomRange(from, to), nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || !slices.Contains(PeriodDays, n) {
		return Period{}, fmt.Errorf("unsupported period %q", value)
	}
	return LastDays(n), nil
}

// optionalDate returns nil for a missing bound and an error for one that is
// present but not a calendar date.
func optionalDate(name, s string) (*Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d := ParseDate(s)
	if !d.Valid() {
		return nil, fmt.Errorf("invalid %s date %q", name, s)
	}
	return &d, nil
}

func (p Period) IsZero() bool {
	return p.days == 0 && !p.custom
}

func (p Period) Days() int { return p.days }

func (p Period) IsCustom() bool { return p.custom }

func (p Period) String() string {
	switch {
	case p.custom:
		return PeriodCustom
	case p.days > 0:
		return strconv.Itoa(p.days)
	default:
		return ""
	}
}

// Match reports whether a transaction date falls inside the period.
// Invalid dates never match an active period.
func (p Period) Match(d Date, today Date) bool {
	switch {
	case p.custom:
		if p.start == nil || p.end == nil {
			return true
		}
		if !d.Valid() {
			return false
		}
		return d.Compare(*p.start) >= 0 && d.Compare(*p.end) <= 0
	case p.days > 0:
		if !d.Valid() {
			return false
		}
		return today.DaysSince(d) <= p.days
	default:
		return true
	}
}

type FilterState struct {
	Category string
	Period   Period
}

func (f FilterState) matchCategory(t Transaction) bool {
	return f.Category == "" || f.Category == AllCategories || t.Category == f.Category
}

// Filter returns the transactions matching both the period and the category
// predicates. The input slice is never modified.
func Filter(txs []Transaction, f FilterState, now time.Time) []Transaction {
	today := DateOf(now)
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Period.Match(t.Date, today) && f.matchCategory(t) {
			out = append(out, t)
		}
	}
	return out
}
