package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ledgerpulse/ledgerpulse/internal/apierr"
)

// ErrorEnvelope is the canonical JSON shape for every error response (C15).
type ErrorEnvelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Respond writes v as a JSON body with the given status code.
func Respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encoding response body", "error", err)
	}
}

// RespondError writes a canonical error envelope with the given status,
// error kind, and human-readable message.
func RespondError(w http.ResponseWriter, status int, kind, message string) {
	Respond(w, status, ErrorEnvelope{
		Error:     kind,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// RespondErr translates a domain error from the apierr taxonomy into the
// canonical envelope and status code. This is the single place HTTP
// handlers convert a pkg/ service error into a response.
func RespondErr(w http.ResponseWriter, err error) {
	status := apierr.StatusFor(err)
	RespondError(w, status, string(apierr.KindFor(err)), apierr.MessageFor(err))
}
