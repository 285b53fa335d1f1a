package pipeline

import (
	"context"
	"net/http"
	"strings"

	"github.com/ledgerpulse/ledgerpulse/internal/httpserver"
)

// PremiumAccessChecker reports whether a company currently has premium
// access (ACTIVE or TRIAL subscription state), and its effective tier label.
type PremiumAccessChecker interface {
	HasPremiumAccess(ctx context.Context, companyID string) (bool, error)
	TierLabel(ctx context.Context, companyID string) (string, error)
}

// featureLockedBody is the machine-readable 402 shape: the locked feature's
// error code, the caller's current tier, and where to go upgrade it.
type featureLockedBody struct {
	Error      string `json:"error"`
	Tier       string `json:"tier"`
	UpgradeURL string `json:"upgradeUrl"`
}

// SubscriptionGate is pipeline stage 2: it blocks access to premium-only
// routes for companies without an active trial or paid subscription.
// exemptPrefixes lists route prefixes (matched against r.URL.Path) that are
// available regardless of subscription state, e.g. account and billing
// self-service endpoints a locked-out company still needs to reach.
// upgradeURL is echoed in the 402 body so a locked-out client can route the
// caller straight to checkout.
func SubscriptionGate(subscriptions PremiumAccessChecker, exemptPrefixes []string, upgradeURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range exemptPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identity := FromContext(r.Context())
			if identity == nil {
				httpserver.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no authenticated identity")
				return
			}

			tier, err := subscriptions.TierLabel(r.Context(), identity.CompanyID)
			if err != nil {
				httpserver.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to evaluate subscription state")
				return
			}
			w.Header().Set("X-Subscription-Tier", tier)

			hasAccess, err := subscriptions.HasPremiumAccess(r.Context(), identity.CompanyID)
			if err != nil {
				httpserver.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to evaluate subscription state")
				return
			}

			if !hasAccess {
				httpserver.Respond(w, http.StatusPaymentRequired, featureLockedBody{
					Error:      "FEATURE_LOCKED",
					Tier:       tier,
					UpgradeURL: upgradeURL,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
