package subscription

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleStartTrial_RequiresIdentity(t *testing.T) {
	h := NewHandler(nil, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodPost, "/subscription/start-trial", nil)
	rec := httptest.NewRecorder()

	h.handleStartTrial(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d, body = %s", rec.Code, http.StatusUnauthorized, rec.Body.String())
	}
}

func TestHandleStatus_RequiresIdentity(t *testing.T) {
	h := NewHandler(nil, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/subscription/status", nil)
	rec := httptest.NewRecorder()

	h.handleStatus(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d, body = %s", rec.Code, http.StatusUnauthorized, rec.Body.String())
	}
}
