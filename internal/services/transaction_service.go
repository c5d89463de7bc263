package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/storage"
)

// EventPublisher announces transaction writes. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error
}

// TransactionService implements the owner-scoped transaction operations.
// Every method takes the authenticated user's id explicitly.
type TransactionService struct {
	store      storage.TransactionStore
	publisher  EventPublisher
	logger     *log.Logger
	structured *log.StructuredLogger
	now        func() time.Time
}

// NewTransactionService wires the store and an optional publisher. A nil
// publisher disables events.
func NewTransactionService(store storage.TransactionStore, publisher EventPublisher, logger *log.Logger) *TransactionService {
	l := logger.WithComponent(log.ComponentTransaction)
	return &TransactionService{
		store:      store,
		publisher:  publisher,
		logger:     l,
		structured: log.NewStructuredLogger(l),
		now:        time.Now,
	}
}

// Categories returns the fixed category list.
func (s *TransactionService) Categories() []string {
	return core.CategoryList()
}

// List returns the owner's transactions, newest date first, restricted to
// month when it is not nil.
func (s *TransactionService) List(ctx context.Context, ownerID string, month *core.Month) ([]core.Transaction, error) {
	items, err := s.store.FindTransactions(ctx, storage.ForMonth(ownerID, month), storage.DateDesc)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

func (s *TransactionService) Create(ctx context.Context, ownerID string, req core.NewTransaction) (*core.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	t, err := s.store.InsertTransaction(ctx, req.Build(ownerID, s.now()))
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	s.logWrite(ctx, log.OpCreate, t)
	s.publish(ctx, t.ID, ownerID, amqp.OpCreated)
	return t, nil
}

// Get returns core.ErrNotFound when id is unknown, malformed or owned by
// someone else.
func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (*core.Transaction, error) {
	t, err := s.store.FindTransaction(ctx, ownerID, id)
	if err != nil {
		return nil, notFound(err, "get transaction")
	}
	return t, nil
}

// Update applies only the supplied fields. Validation happens before any
// lookup, so an invalid patch on a foreign id still reports the field.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, patch core.TransactionPatch) (*core.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	t, err := s.store.UpdateTransactionFields(ctx, ownerID, id, patch.Normalize(), core.Timestamp(s.now()))
	if err != nil {
		return nil, notFound(err, "update transaction")
	}
	s.logWrite(ctx, log.OpUpdate, t)
	s.publish(ctx, t.ID, ownerID, amqp.OpUpdated)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return notFound(err, "delete transaction")
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, id,
		log.FieldUserID, ownerID,
		log.FieldOperation, log.OpDelete)
	s.publish(ctx, id, ownerID, amqp.OpDeleted)
	return nil
}

func notFound(err error, op string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return core.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *TransactionService) logWrite(ctx context.Context, op string, t *core.Transaction) {
	s.structured.LogTransaction(ctx, op, t.ID, t.UserID, string(t.Type), core.FormatAmount(t.Amount), t.Category)
}

func (s *TransactionService) publish(ctx context.Context, id, ownerID string, op amqp.Op) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(id, ownerID, op)); err != nil {
		s.structured.LogError(ctx, "Failed to publish transaction event", err, log.OpPublish,
			log.NewFields().WithTransaction(id, ownerID, "", "", ""))
		// Don't fail the request - the write is already stored
	}
}
