package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"finance-tracker/internal/ledger"
)

var csvHeader = []string{"Date", "Type", "Category", "Description", "Amount", "Recurring"}

// WriteCSV writes txs in the given order. Expense amounts are written as
// negative numbers; malformed amounts are copied through as-is.
func WriteCSV(w io.Writer, txs []ledger.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range txs {
		recurring := ""
		if t.Recurrence != nil {
			recurring = string(t.Recurrence.Type)
		}
		row := []string{
			t.Date.String(),
			t.Type.Label(),
			t.Category,
			t.Description,
			signedAmount(t),
			recurring,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction %s: %w", t.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func signedAmount(t ledger.Transaction) string {
	if !t.Amount.Valid() {
		return t.Amount.Raw()
	}
	m := t.Amount.Magnitude()
	if t.Type == ledger.Expense {
		m = m.Neg()
	}
	return m.StringFixed(2)
}

// Filename returns the download name of an export generated at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("transactions-%s.csv", now.Format(ledger.DateLayout))
}
