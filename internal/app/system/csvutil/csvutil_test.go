package csvutil_test

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/dueshub/internal/app/system/csvutil"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCents(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1234, "12.34"},
		{100000, "1000.00"},
		{-250, "-2.50"},
	}
	for _, c := range cases {
		if got := csvutil.Cents(c.in); got != c.want {
			t.Errorf("Cents(%d): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestWriteContributions(t *testing.T) {
	memberID := primitive.NewObjectID()
	rows := []models.Contribution{
		{
			ReceiptNo:   "rcpt-1",
			MemberID:    memberID,
			AmountCents: 2500,
			Period:      "2026-08",
			Method:      models.PayMethodCash,
			Status:      models.ContributionRecorded,
			CreatedAt:   time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
		},
	}
	names := map[string]string{memberID.Hex(): "Ada Lovelace"}

	var sb strings.Builder
	if err := csvutil.WriteContributions(&sb, rows, names); err != nil {
		t.Fatalf("WriteContributions failed: %v", err)
	}

	out := sb.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if lines[0] != "receipt_no,member,period,amount,method,status,recorded_at" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "rcpt-1,Ada Lovelace,2026-08,25.00,cash,recorded,2026-08-15 10:30:00" {
		t.Errorf("unexpected row: %q", lines[1])
	}
}

func TestWriteContributions_UnknownMember(t *testing.T) {
	memberID := primitive.NewObjectID()
	rows := []models.Contribution{{
		ReceiptNo: "rcpt-2",
		MemberID:  memberID,
		Period:    "2026-08",
		Status:    models.ContributionRecorded,
	}}

	var sb strings.Builder
	if err := csvutil.WriteContributions(&sb, rows, nil); err != nil {
		t.Fatalf("WriteContributions failed: %v", err)
	}
	if !strings.Contains(sb.String(), memberID.Hex()) {
		t.Error("expected raw member ID for unknown member")
	}
}

func TestWriteExpenses(t *testing.T) {
	rows := []models.Expense{{
		RefNo:       "exp-1",
		Category:    "venue",
		AmountCents: 15000,
		Period:      "2026-08",
		Description: "hall rental",
		CreatedAt:   time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}}

	var sb strings.Builder
	if err := csvutil.WriteExpenses(&sb, rows); err != nil {
		t.Fatalf("WriteExpenses failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if lines[1] != "exp-1,venue,2026-08,150.00,hall rental,2026-08-01 09:00:00" {
		t.Errorf("unexpected row: %q", lines[1])
	}
}
