package subscription

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerpulse/ledgerpulse/internal/httpserver"
	"github.com/ledgerpulse/ledgerpulse/internal/pipeline"
)

// StatusResponse is the JSON shape returned by GET /subscription/status.
type StatusResponse struct {
	State              State `json:"status"`
	Tier               Tier  `json:"tier"`
	TrialDaysRemaining int   `json:"trialDaysRemaining"`
	HasPremiumAccess   bool  `json:"hasPremiumAccess"`
	TrialAlreadyUsed   bool  `json:"trialAlreadyUsed"`
	AIChatsUsed        int   `json:"aiChatsUsed"`
	AIChatDailyLimit   int   `json:"aiChatDailyLimit"`
	AIChatsRemaining   int   `json:"aiChatsRemaining"`
}

// Handler serves the subscription lifecycle endpoints (C8): trial start and
// current status.
type Handler struct {
	store       *Store
	trialWindow time.Duration
	logger      *slog.Logger
}

// NewHandler creates a subscription Handler. trialWindow is the duration
// granted by StartTrial.
func NewHandler(store *Store, trialWindow time.Duration, logger *slog.Logger) *Handler {
	return &Handler{store: store, trialWindow: trialWindow, logger: logger}
}

// Routes returns the bearer-scoped subscription router, meant to be mounted
// inside the pipeline at /api/v1/subscription.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/start-trial", h.handleStartTrial)
	r.Get("/status", h.handleStatus)
	return r
}

func (h *Handler) handleStartTrial(w http.ResponseWriter, r *http.Request) {
	identity := pipeline.FromContext(r.Context())
	if identity == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	if err := h.store.StartTrial(r.Context(), identity.CompanyID, h.trialWindow); err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	h.respondStatus(w, r, identity.CompanyID, http.StatusOK)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	identity := pipeline.FromContext(r.Context())
	if identity == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	h.respondStatus(w, r, identity.CompanyID, http.StatusOK)
}

func (h *Handler) respondStatus(w http.ResponseWriter, r *http.Request, companyID string, status int) {
	view, err := h.store.Status(r.Context(), companyID)
	if err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	httpserver.Respond(w, status, StatusResponse{
		State:              view.State,
		Tier:               view.Tier,
		TrialDaysRemaining: view.TrialDaysRemaining,
		HasPremiumAccess:   view.HasPremiumAccess,
		TrialAlreadyUsed:   view.TrialAlreadyUsed,
		AIChatsUsed:        view.AIChatsUsed,
		AIChatDailyLimit:   view.AIChatDailyLimit,
		AIChatsRemaining:   view.AIChatsRemaining,
	})
}
