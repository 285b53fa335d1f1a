package user

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerpulse/ledgerpulse/internal/authtoken"
	"github.com/ledgerpulse/ledgerpulse/internal/httpserver"
)

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	CompanyName string `json:"companyName" validate:"required,min=1,max=200"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionView is the response shape shared by register and login, carrying
// enough subscription state for the client to render its upgrade prompts
// without a second round trip.
type SessionView struct {
	Token               string `json:"token"`
	CompanyID           string `json:"companyId"`
	Email               string `json:"email"`
	SubscriptionStatus  string `json:"subscriptionStatus"`
	TrialDaysRemaining  int    `json:"trialDaysRemaining"`
	AIChatsRemaining    int    `json:"aiChatsRemaining"`
}

// Handler serves the authentication endpoints (C7): register, login,
// logout, and the current-session lookup.
type Handler struct {
	service    *Service
	store      *Store
	tokens     *authtoken.Service
	revocation authtoken.RevocationStore
	logger     *slog.Logger
}

// NewHandler creates an auth Handler.
func NewHandler(service *Service, store *Store, tokens *authtoken.Service, revocation authtoken.RevocationStore, logger *slog.Logger) *Handler {
	return &Handler{service: service, store: store, tokens: tokens, revocation: revocation, logger: logger}
}

// Routes returns the public (unauthenticated) auth router, meant to be
// mounted outside the three-stage pipeline at /api/v1/auth.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	return r
}

// AuthenticatedRoutes returns the bearer-scoped auth router (/me, /logout),
// meant to be mounted inside the pipeline at /api/v1/auth.
func (h *Handler) AuthenticatedRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.handleMe)
	r.Post("/logout", h.handleLogout)
	return r
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	if !isStrongPassword(req.Password) {
		httpserver.RespondValidationError(w, []httpserver.ValidationError{
			{Field: "password", Message: "must contain at least one lowercase letter, one uppercase letter, and one digit"},
		})
		return
	}

	result, err := h.service.Register(r.Context(), clientIP(r), req.Email, req.Password, req.CompanyName)
	if err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusCreated, SessionView{
		Token:              result.Token,
		CompanyID:          result.CompanyID,
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		SubscriptionStatus: string(result.Status.State),
		TrialDaysRemaining: result.Status.TrialDaysRemaining,
		AIChatsRemaining:   result.Status.AIChatsRemaining,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), clientIP(r), req.Email, req.Password)
	if err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, SessionView{
		Token:              result.Token,
		CompanyID:          result.CompanyID,
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		SubscriptionStatus: string(result.Status.State),
		TrialDaysRemaining: result.Status.TrialDaysRemaining,
		AIChatsRemaining:   result.Status.AIChatsRemaining,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.parseBearer(r)
	if !ok {
		httpserver.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid bearer token")
		return
	}

	foundUser, err := h.store.FindByID(r.Context(), claims.Subject)
	if err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]string{
		"email":     foundUser.Email,
		"companyId": claims.CompanyID,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.parseBearer(r)
	if !ok {
		// Malformed tokens silently succeed at logout.
		httpserver.Respond(w, http.StatusOK, map[string]string{"message": "logged out"})
		return
	}

	remaining := time.Until(claims.ExpiresAt)
	if err := h.service.Logout(r.Context(), h.revocation, claims.ID, remaining); err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) parseBearer(r *http.Request) (*authtoken.Claims, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	claims, err := h.tokens.Parse(raw)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// clientIP returns the request's originating address for rate limiting,
// preferring X-Forwarded-For's first hop when present.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	return r.RemoteAddr
}

// isStrongPassword enforces the password policy validator tags alone can't
// express: at least one lowercase letter, one uppercase letter, and one digit.
func isStrongPassword(password string) bool {
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}
