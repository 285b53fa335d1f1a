package report

import (
	"context"
	"log/slog"

	"github.com/ledgerpulse/ledgerpulse/internal/clock"
)

// ReportCache is the subset of Cache the service depends on, kept narrow
// for testability.
type ReportCache interface {
	Get(ctx context.Context, companyID, periodKey string) (*PnLReport, bool)
	Set(ctx context.Context, companyID, periodKey string, report *PnLReport)
}

// Service serves the cached P&L read path.
type Service struct {
	ledger clock.Clock
	reader LedgerReader
	cache  ReportCache
	logger *slog.Logger
}

// NewService creates a reporting Service.
func NewService(clk clock.Clock, reader LedgerReader, cache ReportCache, logger *slog.Logger) *Service {
	return &Service{ledger: clk, reader: reader, cache: cache, logger: logger}
}

// PnL returns the P&L report for companyID over the given period spec,
// serving from cache when available and populating it on a miss.
func (s *Service) PnL(ctx context.Context, companyID, periodSpec string) (*PnLReport, error) {
	period := ResolvePeriod(periodSpec, s.ledger.Now(), s.logger)

	if cached, ok := s.cache.Get(ctx, companyID, period.Key); ok {
		return cached, nil
	}

	report, err := Compute(ctx, s.reader, companyID, period)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, companyID, period.Key, report)
	return report, nil
}
