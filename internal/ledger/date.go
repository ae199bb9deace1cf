package ledger

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// InvalidDateLabel is shown in place of a date that could not be parsed.
const InvalidDateLabel = "Invalid Date"

// Date is a calendar date without time of day. A Date that failed to parse
// keeps its raw text so it can be echoed back and reported.
type Date struct {
	year  int
	month time.Month
	day   int
	raw   string
}

// NewDate builds a valid calendar date. Out of range values are normalized
// the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// ParseDate parses a YYYY-MM-DD string. Unparseable input yields an invalid
// Date carrying the original text.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{raw: s}
	}
	return DateOf(t)
}

func (d Date) Valid() bool {
	return d.year != 0
}

// IsZero reports whether the date is absent (neither valid nor carrying raw text).
func (d Date) IsZero() bool {
	return !d.Valid() && d.raw == ""
}

func (d Date) Raw() string {
	return d.raw
}

// Time returns midnight UTC of the date. The zero time is returned for invalid dates.
func (d Date) Time() time.Time {
	if !d.Valid() {
		return time.Time{}
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	if !d.Valid() {
		return d.raw
	}
	return d.Time().Format(DateLayout)
}

// Label is the display text used by charts and exports.
func (d Date) Label() string {
	if !d.Valid() {
		return InvalidDateLabel
	}
	return d.String()
}

// Compare orders valid dates chronologically. Invalid dates sort after every
// valid date and compare by raw text among themselves.
func (d Date) Compare(o Date) int {
	switch {
	case d.Valid() && o.Valid():
		return d.Time().Compare(o.Time())
	case d.Valid():
		return -1
	case o.Valid():
		return 1
	default:
		return strings.Compare(d.raw, o.raw)
	}
}

func (d Date) Before(o Date) bool { return d.Valid() && o.Valid() && d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Valid() && o.Valid() && d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d.Valid() && o.Valid() && d.Compare(o) == 0 }

func (d Date) AddDays(n int) Date {
	if !d.Valid() {
		return d
	}
	return DateOf(d.Time().AddDate(0, 0, n))
}

// AddMonths moves the date by n months, clamping the day to the last day of
// the target month (Jan 31 + 1 month is Feb 28 or Feb 29).
func (d Date) AddMonths(n int) Date {
	if !d.Valid() {
		return d
	}
	first := time.Date(d.year, d.month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := daysIn(first.Year(), first.Month())
	day := d.day
	if day > last {
		day = last
	}
	return NewDate(first.Year(), first.Month(), day)
}

// DaysSince returns the whole number of days from o to d.
func (d Date) DaysSince(o Date) int {
	return int(d.Time().Sub(o.Time()).Hours() / 24)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails on malformed text; the value becomes an invalid Date.
// Timestamps with a time component are truncated to their date part.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*d = Date{raw: strings.Trim(string(b), `"`)}
		return nil
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			*d = NewDate(t.Date())
			return nil
		}
	}
	*d = ParseDate(s)
	return nil
}
