package ledger

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestToTransactionView(t *testing.T) {
	occurred := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("categorized transaction carries a category name", func(t *testing.T) {
		tx := Transaction{
			ID:          "tx_1",
			Amount:      decimal.NewFromInt(1000),
			Category:    "Software",
			Description: "SaaS subscription",
			OccurredAt:  occurred,
		}

		view := toTransactionView(tx)

		if view.Date != "2026-03-14" {
			t.Errorf("Date = %q, want 2026-03-14", view.Date)
		}
		if view.CategoryName == nil || *view.CategoryName != "Software" {
			t.Errorf("CategoryName = %v, want pointer to \"Software\"", view.CategoryName)
		}
	})

	t.Run("uncategorized transaction has a nil category name", func(t *testing.T) {
		tx := Transaction{ID: "tx_2", Amount: decimal.NewFromInt(500), OccurredAt: occurred}

		view := toTransactionView(tx)

		if view.CategoryName != nil {
			t.Errorf("CategoryName = %v, want nil", view.CategoryName)
		}
	})
}

func TestHandleCreate_ValidationFailures(t *testing.T) {
	h := NewHandler(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing amount", `{"date":"2026-03-14","description":"rent"}`, http.StatusUnprocessableEntity},
		{"missing description", `{"date":"2026-03-14","amount":"100"}`, http.StatusUnprocessableEntity},
		{"invalid date format", `{"date":"03/14/2026","amount":"100","description":"rent"}`, http.StatusUnprocessableEntity},
		{"malformed JSON", `{bad`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/7/transactions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.handleCreate(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}
