// Package clock abstracts wall-clock time so that trial-window expiry,
// quota resets, and token TTLs can be tested deterministically.
package clock

import "time"

// Clock returns the current time. Production code takes a Clock instead of
// calling time.Now() directly so tests can control the passage of time.
type Clock interface {
	Now() time.Time
}

// Real is the production Clock backed by time.Now.
type Real struct{}

// Now returns the current wall-clock time in UTC.
func (Real) Now() time.Time { return time.Now().UTC() }

// New returns the production Clock.
func New() Clock { return Real{} }

// Fixed is a Clock that always returns the same instant, for tests that
// need exact control over "now" (e.g. trial-boundary math at ±1 second).
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return f.At }

// NewFixed returns a Clock fixed at t.
func NewFixed(t time.Time) Clock { return Fixed{At: t} }
