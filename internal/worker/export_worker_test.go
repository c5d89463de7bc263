package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/log"
	sheetsmem "tracker/internal/sheets/memory"
	"tracker/internal/storage/memory"
)

func seed(t *testing.T, store *memory.Store) (owner string, tx *core.Transaction) {
	t.Helper()
	ctx := context.Background()
	u, err := store.InsertUser(ctx, core.User{Email: "w@example.com", HashedPassword: "h", CreatedAt: time.Now()})
	require.NoError(t, err)
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	tx, err = store.InsertTransaction(ctx, core.Transaction{
		UserID: u.ID, Type: core.Income, Amount: decimal.RequireFromString("250.75"),
		Currency: "INR", Category: "Freelance", Date: now, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return u.ID, tx
}

func TestHandleEventUpsertsCurrentRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ledger := sheetsmem.New()
	w := NewExportWorker(store, ledger, log.Discard())
	owner, tx := seed(t, store)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(tx.ID, owner, amqp.OpCreated)))
	row, ok := ledger.Row(tx.ID)
	require.True(t, ok)
	require.Equal(t, "250.75", row[5])

	desc := "invoice 42"
	_, err := store.UpdateTransactionFields(ctx, owner, tx.ID, core.TransactionPatch{Description: &desc}, time.Now())
	require.NoError(t, err)
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(tx.ID, owner, amqp.OpUpdated)))

	rows := ledger.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, "invoice 42", rows[0][7])
}

func TestHandleEventDeleted(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ledger := sheetsmem.New()
	w := NewExportWorker(store, ledger, nil)
	owner, tx := seed(t, store)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(tx.ID, owner, amqp.OpCreated)))
	require.NoError(t, store.DeleteTransaction(ctx, owner, tx.ID))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(tx.ID, owner, amqp.OpDeleted)))
	require.Empty(t, ledger.Rows())
}

func TestHandleEventStaleUpdateRemoves(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ledger := sheetsmem.New()
	w := NewExportWorker(store, ledger, nil)
	owner, tx := seed(t, store)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(tx.ID, owner, amqp.OpCreated)))
	require.NoError(t, store.DeleteTransaction(ctx, owner, tx.ID))

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(tx.ID, owner, amqp.OpUpdated)))
	require.Empty(t, ledger.Rows())
}

func TestHandleEventForeignOwnerIsNotExported(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ledger := sheetsmem.New()
	w := NewExportWorker(store, ledger, nil)
	_, tx := seed(t, store)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(tx.ID, "someone-else", amqp.OpCreated)))
	require.Empty(t, ledger.Rows())
}

type failingExporter struct{}

func (failingExporter) Upsert(context.Context, core.Transaction) error { return errors.New("quota exceeded") }
func (failingExporter) Remove(context.Context, string) error           { return errors.New("quota exceeded") }

func TestHandleEventExporterErrorRequeues(t *testing.T) {
	store := memory.New()
	w := NewExportWorker(store, failingExporter{}, nil)
	owner, tx := seed(t, store)

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(tx.ID, owner, amqp.OpCreated))
	require.ErrorContains(t, err, "quota exceeded")
}

type stubSource struct {
	events []*amqp.TransactionEvent
	errs   []error
}

func (s *stubSource) ConsumeTransactionEvents(ctx context.Context, handler amqp.Handler) error {
	for _, e := range s.events {
		s.errs = append(s.errs, handler(ctx, e))
	}
	return context.Canceled
}

func TestRunDrainsSource(t *testing.T) {
	store := memory.New()
	ledger := sheetsmem.New()
	w := NewExportWorker(store, ledger, nil)
	owner, tx := seed(t, store)

	src := &stubSource{events: []*amqp.TransactionEvent{amqp.NewTransactionEvent(tx.ID, owner, amqp.OpCreated)}}
	require.NoError(t, w.Run(context.Background(), src))
	require.Equal(t, []error{nil}, src.errs)
	require.Len(t, ledger.Rows(), 1)
}
