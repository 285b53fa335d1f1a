package report

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerpulse/ledgerpulse/internal/httpserver"
)

// Handler serves the reporting endpoint (C9): the cached P&L read path.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a reporting Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes returns the tenant-scoped, premium-gated report router, meant to be
// mounted inside the pipeline at /api/v1/{companyId}/reports.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/pnl", h.handlePnL)
	return r
}

func (h *Handler) handlePnL(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	periodSpec := r.URL.Query().Get("period")

	pnl, err := h.service.PnL(r.Context(), companyID, periodSpec)
	if err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, pnl)
}
