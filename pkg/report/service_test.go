package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerpulse/ledgerpulse/internal/clock"
)

type fakeReportCache struct {
	entries map[string]*PnLReport
	sets    int
}

func newFakeReportCache() *fakeReportCache {
	return &fakeReportCache{entries: map[string]*PnLReport{}}
}

func (c *fakeReportCache) Get(_ context.Context, companyID, periodKey string) (*PnLReport, bool) {
	r, ok := c.entries[companyID+":"+periodKey]
	return r, ok
}

func (c *fakeReportCache) Set(_ context.Context, companyID, periodKey string, report *PnLReport) {
	c.sets++
	c.entries[companyID+":"+periodKey] = report
}

func TestService_PnL_CacheMissComputesAndPopulates(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	reader := &fakeLedgerReader{income: decimal.RequireFromString("500"), expense: decimal.Zero}
	cache := newFakeReportCache()
	svc := NewService(clock.NewFixed(now), reader, cache, discardLogger())

	report, err := svc.PnL(context.Background(), "company-1", "month")
	if err != nil {
		t.Fatalf("PnL() error = %v", err)
	}
	if !report.TotalIncome.Equal(decimal.RequireFromString("500")) {
		t.Errorf("TotalIncome = %s, want 500", report.TotalIncome)
	}
	if cache.sets != 1 {
		t.Errorf("expected cache to be populated on miss, sets = %d", cache.sets)
	}
}

func TestService_PnL_CacheHitSkipsCompute(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	reader := &fakeLedgerReader{err: context.DeadlineExceeded} // would fail if Compute were called
	cache := newFakeReportCache()
	cached := &PnLReport{Period: "month", TotalIncome: decimal.RequireFromString("999")}
	cache.entries["company-1:month"] = cached

	svc := NewService(clock.NewFixed(now), reader, cache, discardLogger())

	report, err := svc.PnL(context.Background(), "company-1", "month")
	if err != nil {
		t.Fatalf("PnL() error = %v", err)
	}
	if report != cached {
		t.Error("expected cached report to be returned verbatim on a hit")
	}
}
