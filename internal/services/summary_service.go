package services

import (
	"context"
	"fmt"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/storage"
)

// SummaryService aggregates one owner's transactions.
type SummaryService struct {
	store  storage.TransactionStore
	logger *log.Logger
}

func NewSummaryService(store storage.TransactionStore, logger *log.Logger) *SummaryService {
	return &SummaryService{store: store, logger: logger.WithComponent(log.ComponentSummary)}
}

// Summary totals the owner's transactions within month, or all of them
// when month is nil.
func (s *SummaryService) Summary(ctx context.Context, ownerID string, month *core.Month) (core.Summary, error) {
	items, err := s.store.FindTransactions(ctx, storage.ForMonth(ownerID, month), storage.Unsorted)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary: %w", err)
	}
	s.logger.DebugContext(ctx, "Summary computed",
		log.FieldUserID, ownerID,
		log.FieldOperation, log.OpSummary,
		log.FieldCount, len(items))
	return core.Summarize(items), nil
}
