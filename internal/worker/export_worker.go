// Package worker mirrors transaction changes into the exported ledger.
package worker

import (
	"context"
	"errors"
	"fmt"

	"tracker/internal/amqp"
	"tracker/internal/log"
	"tracker/internal/sheets"
	"tracker/internal/storage"
)

// ExportWorker applies transaction events to a ledger exporter. Events only
// carry ids, so the current record is always re-read from the store.
type ExportWorker struct {
	store    storage.TransactionStore
	exporter sheets.LedgerExporter
	logger   *log.Logger
}

func NewExportWorker(store storage.TransactionStore, exporter sheets.LedgerExporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent satisfies amqp.Handler. A returned error requeues the event.
func (w *ExportWorker) HandleEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	if evt.Op == amqp.OpDeleted {
		return w.remove(ctx, evt)
	}

	t, err := w.store.FindTransaction(ctx, evt.OwnerID, evt.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// deleted after the event was published
		return w.remove(ctx, evt)
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", evt.ID, err)
	}

	if err := w.exporter.Upsert(ctx, *t); err != nil {
		return fmt.Errorf("export transaction %s: %w", evt.ID, err)
	}
	w.logger.InfoContext(ctx, "Transaction exported",
		log.FieldTransactionID, evt.ID,
		log.FieldUserID, evt.OwnerID,
		log.FieldOperation, log.OpExport)
	return nil
}

func (w *ExportWorker) remove(ctx context.Context, evt *amqp.TransactionEvent) error {
	if err := w.exporter.Remove(ctx, evt.ID); err != nil {
		return fmt.Errorf("remove transaction %s: %w", evt.ID, err)
	}
	w.logger.InfoContext(ctx, "Transaction removed from ledger",
		log.FieldTransactionID, evt.ID,
		log.FieldUserID, evt.OwnerID,
		log.FieldOperation, log.OpDelete)
	return nil
}

// Run consumes events from source until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, source EventSource) error {
	w.logger.InfoContext(ctx, "Export worker started")
	err := source.ConsumeTransactionEvents(ctx, w.HandleEvent)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Export worker stopped")
		return nil
	}
	return err
}

// EventSource is satisfied by *amqp.Client.
type EventSource interface {
	ConsumeTransactionEvents(ctx context.Context, handler amqp.Handler) error
}
