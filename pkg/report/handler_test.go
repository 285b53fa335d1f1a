package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerpulse/ledgerpulse/internal/clock"
)

func TestHandlePnL_ServesComputedReport(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	reader := &fakeLedgerReader{income: decimal.RequireFromString("1000"), expense: decimal.RequireFromString("400")}
	cache := newFakeReportCache()
	svc := NewService(clock.NewFixed(now), reader, cache, discardLogger())
	h := NewHandler(svc, discardLogger())

	router := chi.NewRouter()
	router.Mount("/{companyId}/reports", h.Routes())

	req := httptest.NewRequest(http.MethodGet, "/company-1/reports/pnl?period=month", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if cache.sets != 1 {
		t.Errorf("expected report to be cached after a miss, sets = %d", cache.sets)
	}
}

func TestHandlePnL_CacheHitAvoidsRecompute(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	reader := &fakeLedgerReader{err: context.DeadlineExceeded}
	cache := newFakeReportCache()
	cache.entries["company-1:month"] = &PnLReport{Period: "month", TotalIncome: decimal.RequireFromString("999")}
	svc := NewService(clock.NewFixed(now), reader, cache, discardLogger())
	h := NewHandler(svc, discardLogger())

	router := chi.NewRouter()
	router.Mount("/{companyId}/reports", h.Routes())

	req := httptest.NewRequest(http.MethodGet, "/company-1/reports/pnl?period=month", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}
