package anomaly

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerpulse/ledgerpulse/internal/httpserver"
)

// AnomalyView is the JSON shape returned for a single flagged transaction.
// TransactionID is omitted for an orphaned anomaly whose transaction was
// deleted after detection.
type AnomalyView struct {
	ID            string          `json:"id"`
	TransactionID *string         `json:"transactionId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DetectedAt    time.Time       `json:"detectedAt"`
}

func toAnomalyView(a Anomaly) AnomalyView {
	return AnomalyView{
		ID:            a.ID,
		TransactionID: a.TransactionID,
		Amount:        a.Amount,
		DetectedAt:    a.DetectedAt,
	}
}

// Handler serves the anomaly review endpoints (C4): list and dismiss.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates an anomaly Handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Routes returns the tenant-scoped anomaly router, meant to be mounted
// inside the pipeline at /api/v1/{companyId}/anomalies.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Delete("/{id}", h.handleDismiss)
	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")

	anomalies, err := h.store.ListByCompany(r.Context(), companyID)
	if err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	views := make([]AnomalyView, 0, len(anomalies))
	for _, a := range anomalies {
		views = append(views, toAnomalyView(a))
	}

	httpserver.Respond(w, http.StatusOK, views)
}

func (h *Handler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	anomalyID := chi.URLParam(r, "id")

	if err := h.store.Delete(r.Context(), companyID, anomalyID); err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusNoContent, nil)
}
