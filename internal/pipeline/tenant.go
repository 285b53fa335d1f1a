package pipeline

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerpulse/ledgerpulse/internal/httpserver"
)

// CompanyOwnershipChecker reports whether userID owns (or otherwise has
// access to) companyID.
type CompanyOwnershipChecker interface {
	OwnsCompany(ctx context.Context, userID, companyID string) (bool, error)
}

// companyIDParam is the chi URL parameter name carrying the target company
// id on tenant-scoped routes, e.g. /api/v1/{companyId}/...
const companyIDParam = "companyId"

// TenantOwnership is pipeline stage 3: on routes that path-scope a company
// id, it verifies the authenticated user actually owns that company before
// letting the request reach a handler. Routes with no {companyId} segment
// pass through unchanged — they operate on the caller's own identity only.
func TenantOwnership(companies CompanyOwnershipChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			targetCompanyID := chi.URLParam(r, companyIDParam)
			if targetCompanyID == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity := FromContext(r.Context())
			if identity == nil {
				httpserver.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no authenticated identity")
				return
			}

			owns, err := companies.OwnsCompany(r.Context(), identity.UserID, targetCompanyID)
			if err != nil {
				httpserver.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to verify company ownership")
				return
			}

			if !owns {
				httpserver.RespondError(w, http.StatusForbidden, "FORBIDDEN", "you do not have access to this company")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
