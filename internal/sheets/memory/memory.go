// Package memory keeps an exported ledger in process. It backs the export
// worker when no spreadsheet is configured and in tests.
package memory

import (
	"context"
	"sync"

	"tracker/internal/core"
	"tracker/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	ids  []string
	rows map[string][]string
}

func New() *Ledger {
	return &Ledger{rows: make(map[string][]string)}
}

func (l *Ledger) Upsert(_ context.Context, t core.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[t.ID]; !ok {
		l.ids = append(l.ids, t.ID)
	}
	l.rows[t.ID] = sheets.Row(t)
	return nil
}

func (l *Ledger) Remove(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[id]; !ok {
		return nil
	}
	delete(l.rows, id)
	for i, v := range l.ids {
		if v == id {
			l.ids = append(l.ids[:i], l.ids[i+1:]...)
			break
		}
	}
	return nil
}

// Rows returns a copy of the ledger in insertion order.
func (l *Ledger) Rows() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]string, 0, len(l.ids))
	for _, id := range l.ids {
		out = append(out, append([]string(nil), l.rows[id]...))
	}
	return out
}

// Row returns the row for id.
func (l *Ledger) Row(id string) ([]string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.rows[id]
	return append([]string(nil), r...), ok
}

var _ sheets.LedgerExporter = (*Ledger)(nil)
