// internal/app/system/csvutil/csvutil.go

// Package csvutil renders contribution and expense ledgers as CSV for the
// report export endpoints.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dalemusser/dueshub/internal/domain/models"
)

// Cents formats an amount in cents as a decimal string ("1234" → "12.34").
func Cents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// WriteContributions writes a contribution ledger as CSV. memberNames maps
// member ID hex to display name; missing entries render as the raw ID so
// rows referencing deleted members still export.
func WriteContributions(w io.Writer, rows []models.Contribution, memberNames map[string]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"receipt_no", "member", "period", "amount", "method", "status", "recorded_at"}); err != nil {
		return err
	}
	for _, c := range rows {
		name := memberNames[c.MemberID.Hex()]
		if name == "" {
			name = c.MemberID.Hex()
		}
		rec := []string{
			c.ReceiptNo,
			name,
			c.Period,
			Cents(c.AmountCents),
			c.Method,
			c.Status,
			c.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExpenses writes an expense ledger as CSV.
func WriteExpenses(w io.Writer, rows []models.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ref_no", "category", "period", "amount", "description", "recorded_at"}); err != nil {
		return err
	}
	for _, e := range rows {
		rec := []string{
			e.RefNo,
			e.Category,
			e.Period,
			Cents(e.AmountCents),
			e.Description,
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
