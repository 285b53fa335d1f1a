// Package pipeline implements the three-stage request pipeline (C14) as
// ordinary chi middleware: token validation (every authenticated API route),
// subscription gating (premium routes only), and tenant-ownership enforcement
// (routes scoped by {companyId}).
package pipeline

import "context"

// Identity is the authenticated caller, attached to the request context by
// the TokenValidation stage and read by every later stage and handler.
type Identity struct {
	UserID    string
	CompanyID string
}

type ctxKey string

const identityKey ctxKey = "pipeline_identity"

// NewContext returns a context carrying id.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the Identity set by TokenValidation. Returns nil if
// no identity is present (the stage did not run or rejected the request).
func FromContext(ctx context.Context) *Identity {
	v, _ := ctx.Value(identityKey).(*Identity)
	return v
}
