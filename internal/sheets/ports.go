// Package sheets exports transactions to an append-only style ledger, one
// row per transaction keyed by its id.
package sheets

import (
	"context"
	"time"

	"tracker/internal/core"
)

// LedgerExporter mirrors transactions into an external ledger.
type LedgerExporter interface {
	// Upsert writes t, replacing any existing row for t.ID.
	Upsert(ctx context.Context, t core.Transaction) error
	// Remove deletes the row for id. Removing an absent row is not an error.
	Remove(ctx context.Context, id string) error
}

// Header is the first row of an exported ledger.
var Header = []string{"ID", "Owner", "Date", "Type", "Category", "Amount", "Currency", "Description", "Updated"}

// Row renders t in Header column order. Amounts keep their exact decimal text.
func Row(t core.Transaction) []string {
	return []string{
		t.ID,
		t.UserID,
		t.Date.UTC().Format(time.RFC3339),
		string(t.Type),
		t.Category,
		core.FormatAmount(t.Amount),
		t.Currency,
		t.Description,
		t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
