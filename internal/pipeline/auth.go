package pipeline

import (
	"context"
	"net/http"
	"strings"

	"github.com/ledgerpulse/ledgerpulse/internal/authtoken"
	"github.com/ledgerpulse/ledgerpulse/internal/httpserver"
)

// TokenValidator is the subset of authtoken.Service that this stage needs.
type TokenValidator interface {
	Parse(raw string) (*authtoken.Claims, error)
}

// RevocationChecker is the subset of authtoken.RevocationStore this stage needs.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenValidation is pipeline stage 1: it requires a valid, non-revoked
// Bearer access token and attaches the resulting Identity to the request
// context. Requests without one are rejected with 401 before reaching any
// later stage or domain handler.
func TokenValidation(tokens TokenValidator, revocations RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				httpserver.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			claims, err := tokens.Parse(raw)
			if err != nil {
				httpserver.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			if revoked, _ := revocations.IsRevoked(r.Context(), claims.ID); revoked {
				httpserver.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token has been revoked")
				return
			}

			identity := &Identity{UserID: claims.Subject, CompanyID: claims.CompanyID}
			ctx := NewContext(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
