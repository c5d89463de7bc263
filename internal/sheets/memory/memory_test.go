package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
)

func TestLedgerUpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	l := New()
	tx := core.Transaction{
		ID: "a", UserID: "u", Type: core.Expense, Amount: decimal.RequireFromString("12.50"),
		Currency: "INR", Category: "Food", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := l.Upsert(ctx, tx); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	tx.Description = "edited"
	if err := l.Upsert(ctx, tx); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := l.Upsert(ctx, core.Transaction{ID: "b", Amount: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rows := l.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "a" || rows[0][5] != "12.5" || rows[0][7] != "edited" {
		t.Fatalf("unexpected row: %v", rows[0])
	}

	if err := l.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := l.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove missing: %v", err)
	}
	if _, ok := l.Row("a"); ok {
		t.Fatal("row a should be gone")
	}
	if rows := l.Rows(); len(rows) != 1 || rows[0][0] != "b" {
		t.Fatalf("unexpected rows after remove: %v", rows)
	}
}
