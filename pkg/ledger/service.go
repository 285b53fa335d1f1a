package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// ReportCache is invalidated whenever a company's transactions change, so a
// stale P&L never survives a write.
type ReportCache interface {
	EvictCompany(ctx context.Context, companyID string) error
}

// EventPublisher fans out domain events for downstream consumers (C11).
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// EventTransactionsNew is published after one or more transactions are
// persisted, to the routing key the anomaly-detection worker consumes.
const EventTransactionsNew = "transactions.new"

// TransactionBatchEvent is the payload published to EventTransactionsNew: a
// company id and the ids of the transactions just written, batched so a
// future bulk-import path can publish one event instead of one per row.
type TransactionBatchEvent struct {
	CompanyID string   `json:"companyId"`
	TxnIDs    []string `json:"txnIds"`
}

// Service implements the transaction write path (C10): persist, invalidate
// the report cache, and publish an event, in that order. Cache eviction and
// publication are best-effort: a failure there is logged, not surfaced to
// the caller, since the write itself already succeeded.
type Service struct {
	store  *Store
	cache  ReportCache
	events EventPublisher
	logger *slog.Logger
}

// NewService creates a ledger Service.
func NewService(store *Store, cache ReportCache, events EventPublisher, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, events: events, logger: logger}
}

// Create records a new transaction, evicts the company's cached P&L report,
// and publishes it to the anomaly-detection worker's input queue.
func (s *Service) Create(ctx context.Context, companyID string, amount decimal.Decimal, category Category, description string, occurredAt time.Time) (*Transaction, error) {
	tx, err := s.store.Create(ctx, companyID, amount, category, description, occurredAt)
	if err != nil {
		return nil, err
	}

	s.evictCache(ctx, companyID)
	s.publishNew(ctx, companyID, []string{tx.ID})

	return tx, nil
}

// Delete removes a transaction and evicts the company's cached P&L report.
func (s *Service) Delete(ctx context.Context, companyID, transactionID string) error {
	if err := s.store.Delete(ctx, companyID, transactionID); err != nil {
		return err
	}

	s.evictCache(ctx, companyID)
	return nil
}

// List returns a company's transactions matching filter.
func (s *Service) List(ctx context.Context, companyID string, filter ListFilter) ([]Transaction, error) {
	return s.store.List(ctx, companyID, filter)
}

// evictCache invalidates a company's cached report without blocking the
// caller on failure.
func (s *Service) evictCache(ctx context.Context, companyID string) {
	if err := s.cache.EvictCompany(ctx, companyID); err != nil {
		s.logger.Warn("evicting report cache after ledger write", "error", err, "company_id", companyID)
	}
}

// publishNew announces newly written transactions to the anomaly-detection
// worker without blocking the caller on failure.
func (s *Service) publishNew(ctx context.Context, companyID string, txnIDs []string) {
	payload := TransactionBatchEvent{CompanyID: companyID, TxnIDs: txnIDs}
	if err := s.events.Publish(ctx, EventTransactionsNew, payload); err != nil {
		s.logger.Warn("publishing ledger event", "error", err, "routing_key", EventTransactionsNew)
	}
}
