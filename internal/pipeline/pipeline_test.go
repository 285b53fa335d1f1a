package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerpulse/ledgerpulse/internal/authtoken"
)

type fakeTokenValidator struct {
	claims *authtoken.Claims
	err    error
}

func (f fakeTokenValidator) Parse(string) (*authtoken.Claims, error) { return f.claims, f.err }

type fakeRevocationChecker struct{ revoked bool }

func (f fakeRevocationChecker) IsRevoked(context.Context, string) (bool, error) {
	return f.revoked, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestTokenValidation(t *testing.T) {
	validClaims := &authtoken.Claims{Subject: "user-1", CompanyID: "company-1", ID: "jti-1", Type: "access"}

	tests := []struct {
		name       string
		authHeader string
		validator  fakeTokenValidator
		revoked    bool
		wantStatus int
	}{
		{"missing header rejected", "", fakeTokenValidator{}, false, http.StatusUnauthorized},
		{"malformed header rejected", "Token abc", fakeTokenValidator{}, false, http.StatusUnauthorized},
		{"invalid token rejected", "Bearer bad", fakeTokenValidator{err: errParse}, false, http.StatusUnauthorized},
		{"valid token accepted", "Bearer good", fakeTokenValidator{claims: validClaims}, false, http.StatusOK},
		{"revoked token rejected", "Bearer good", fakeTokenValidator{claims: validClaims}, true, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := TokenValidation(tt.validator, fakeRevocationChecker{revoked: tt.revoked})
			handler := mw(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

type fakePremiumChecker struct {
	hasAccess bool
	err       error
}

func (f fakePremiumChecker) HasPremiumAccess(context.Context, string) (bool, error) {
	return f.hasAccess, f.err
}

func (f fakePremiumChecker) TierLabel(context.Context, string) (string, error) {
	if f.hasAccess {
		return "ACTIVE", nil
	}
	return "FREE", nil
}

func TestSubscriptionGate(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		exemptPrefixes []string
		identity       *Identity
		checker        fakePremiumChecker
		wantStatus     int
	}{
		{"exempt path bypasses gate", "/api/v1/billing", []string{"/api/v1/billing"}, nil, fakePremiumChecker{}, http.StatusOK},
		{"no identity rejected", "/api/v1/reports", nil, nil, fakePremiumChecker{}, http.StatusUnauthorized},
		{"premium access allowed", "/api/v1/reports", nil, &Identity{CompanyID: "c1"}, fakePremiumChecker{hasAccess: true}, http.StatusOK},
		{"no premium access locked", "/api/v1/reports", nil, &Identity{CompanyID: "c1"}, fakePremiumChecker{hasAccess: false}, http.StatusPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := SubscriptionGate(tt.checker, tt.exemptPrefixes, "https://ledgerpulse.example.com/upgrade")
			handler := mw(okHandler())

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.identity != nil {
				req = req.WithContext(NewContext(req.Context(), tt.identity))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

type fakeOwnershipChecker struct {
	owns bool
	err  error
}

func (f fakeOwnershipChecker) OwnsCompany(context.Context, string, string) (bool, error) {
	return f.owns, f.err
}

func TestTenantOwnership(t *testing.T) {
	tests := []struct {
		name       string
		hasParam   bool
		identity   *Identity
		checker    fakeOwnershipChecker
		wantStatus int
	}{
		{"no company param passes through", false, nil, fakeOwnershipChecker{}, http.StatusOK},
		{"no identity rejected", true, nil, fakeOwnershipChecker{}, http.StatusUnauthorized},
		{"owner allowed", true, &Identity{UserID: "u1"}, fakeOwnershipChecker{owns: true}, http.StatusOK},
		{"non-owner forbidden", true, &Identity{UserID: "u1"}, fakeOwnershipChecker{owns: false}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := TenantOwnership(tt.checker)
			handler := mw(okHandler())

			r := chi.NewRouter()
			if tt.hasParam {
				r.Get("/api/v1/companies/{companyId}/ledger", func(w http.ResponseWriter, r *http.Request) {
					mw(okHandler()).ServeHTTP(w, r)
				})
			} else {
				r.Get("/api/v1/me", func(w http.ResponseWriter, r *http.Request) {
					handler.ServeHTTP(w, r)
				})
			}

			path := "/api/v1/me"
			if tt.hasParam {
				path = "/api/v1/companies/company-1/ledger"
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.identity != nil {
				req = req.WithContext(NewContext(req.Context(), tt.identity))
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

var errParse = &parseError{}

type parseError struct{}

func (*parseError) Error() string { return "parse error" }
