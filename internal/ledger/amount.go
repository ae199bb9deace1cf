package ledger

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary magnitude. Values received from the backend that do
// not parse as numbers are kept as raw text and reported as data quality issues.
type Amount struct {
	value decimal.Decimal
	raw   string
	valid bool
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{value: d, valid: true}
}

func AmountFromInt(v int64) Amount {
	return NewAmount(decimal.NewFromInt(v))
}

func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{raw: s}
	}
	return NewAmount(d)
}

// MustAmount parses s and panics on failure. Intended for fixtures.
func MustAmount(s string) Amount {
	a := ParseAmount(s)
	if !a.Valid() {
		panic("ledger: invalid amount " + s)
	}
	return a
}

func (a Amount) Valid() bool {
	return a.valid
}

// Decimal returns the numeric value and whether it is valid.
func (a Amount) Decimal() (decimal.Decimal, bool) {
	return a.value, a.valid
}

// Magnitude is the absolute value, zero for invalid amounts.
func (a Amount) Magnitude() decimal.Decimal {
	if !a.valid {
		return decimal.Zero
	}
	return a.value.Abs()
}

func (a Amount) IsNegative() bool {
	return a.valid && a.value.IsNegative()
}

func (a Amount) Raw() string {
	return a.raw
}

func (a Amount) String() string {
	if !a.valid {
		return a.raw
	}
	return a.value.StringFixed(2)
}

// Compare orders valid amounts numerically; invalid amounts sort after valid ones.
func (a Amount) Compare(o Amount) int {
	switch {
	case a.valid && o.valid:
		return a.value.Cmp(o.value)
	case a.valid:
		return -1
	case o.valid:
		return 1
	default:
		return strings.Compare(a.raw, o.raw)
	}
}

// MarshalJSON writes valid amounts as JSON numbers and echoes raw text otherwise.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return json.Marshal(a.raw)
	}
	return []byte(a.value.String()), nil
}

// UnmarshalJSON accepts numbers and numeric strings. It never fails: anything
// else becomes an invalid Amount.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = Amount{}
		return nil
	}
	if unquoted, err := unquote(b); err == nil {
		s = unquoted
	}
	*a = ParseAmount(s)
	return nil
}

func unquote(b []byte) (string, error) {
	var s string
	err := json.Unmarshal(b, &s)
	return s, err
}
