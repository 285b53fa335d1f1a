// Package subscription implements the subscription state machine (C8):
// trial/paid lifecycle transitions, derived access views, and the daily
// AI-chat quota each tier enforces.
package subscription

import "time"

// State is a node in the subscription lifecycle.
type State string

const (
	StateFree      State = "FREE"
	StateTrial     State = "TRIAL"
	StateActive    State = "ACTIVE"
	StateExpired   State = "EXPIRED"
	StateCancelled State = "CANCELLED"
)

// Tier is the billing tier a state maps to for quota and access purposes.
type Tier string

const (
	TierFree    Tier = "FREE"
	TierTrial   Tier = "TRIAL"
	TierPremium Tier = "ACTIVE"
)

// Quotas holds the daily AI-chat quota for each tier.
type Quotas struct {
	Active int
	Trial  int
	Free   int
}

// Subscription is a company's current subscription record.
type Subscription struct {
	CompanyID      string
	State          State
	TrialStartedAt *time.Time
	TrialEndsAt    *time.Time
	SubscriptionEndsAt *time.Time
	CancelledAt    *time.Time
	AIChatsUsed    int
	AIChatsResetAt time.Time
}

// CanStartTrial reports whether a company in this state is eligible to
// start a trial. The trial-once invariant: a company that has already
// consumed TrialStartedAt may never trial again, even after expiring or
// cancelling.
func (s *Subscription) CanStartTrial() bool {
	return s.State == StateFree && s.TrialStartedAt == nil
}

// StartTrial transitions FREE -> TRIAL, recording the trial window.
func (s *Subscription) StartTrial(now time.Time, window time.Duration) error {
	if !s.CanStartTrial() {
		return errAlreadyTrialed
	}
	ends := now.Add(window)
	s.State = StateTrial
	s.TrialStartedAt = &now
	s.TrialEndsAt = &ends
	return nil
}

// Activate transitions TRIAL or EXPIRED -> ACTIVE, extending the
// subscription by duration from now.
func (s *Subscription) Activate(now time.Time, duration time.Duration) error {
	if s.State != StateTrial && s.State != StateExpired {
		return errInvalidTransition
	}
	ends := now.Add(duration)
	s.State = StateActive
	s.SubscriptionEndsAt = &ends
	return nil
}

// Renew extends an ACTIVE subscription by duration, from the later of now
// or the current expiry (so renewing early doesn't lose unused time).
func (s *Subscription) Renew(now time.Time, duration time.Duration) error {
	if s.State != StateActive {
		return errInvalidTransition
	}
	base := now
	if s.SubscriptionEndsAt != nil && s.SubscriptionEndsAt.After(base) {
		base = *s.SubscriptionEndsAt
	}
	ends := base.Add(duration)
	s.SubscriptionEndsAt = &ends
	return nil
}

// Cancel transitions ACTIVE or TRIAL -> CANCELLED.
func (s *Subscription) Cancel(now time.Time) error {
	if s.State != StateActive && s.State != StateTrial {
		return errInvalidTransition
	}
	s.State = StateCancelled
	s.CancelledAt = &now
	return nil
}

// ExpireIfDue transitions TRIAL -> EXPIRED or ACTIVE -> EXPIRED once the
// relevant end timestamp has passed. Call before evaluating access or tier
// so stale rows reflect reality without a background sweep.
func (s *Subscription) ExpireIfDue(now time.Time) {
	switch s.State {
	case StateTrial:
		if s.TrialEndsAt != nil && now.After(*s.TrialEndsAt) {
			s.State = StateExpired
		}
	case StateActive:
		if s.SubscriptionEndsAt != nil && now.After(*s.SubscriptionEndsAt) {
			s.State = StateExpired
		}
	}
}

// HasPremiumAccess reports whether the company currently has premium
// feature access: an unexpired trial or an active paid subscription.
func (s *Subscription) HasPremiumAccess(now time.Time) bool {
	s.ExpireIfDue(now)
	return s.State == StateActive || s.State == StateTrial
}

// EffectiveTier returns the billing tier this state currently maps to.
func (s *Subscription) EffectiveTier(now time.Time) Tier {
	s.ExpireIfDue(now)
	switch s.State {
	case StateActive:
		return TierPremium
	case StateTrial:
		return TierTrial
	default:
		return TierFree
	}
}

// TrialDaysRemaining returns the number of days left in an active trial,
// with a partial day rounded up to a whole day, or 0 if the company is not
// currently trialing.
func (s *Subscription) TrialDaysRemaining(now time.Time) int {
	if s.State != StateTrial || s.TrialEndsAt == nil {
		return 0
	}
	remaining := s.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// QuotaFor returns the daily AI-chat quota for the company's current tier.
func (s *Subscription) QuotaFor(now time.Time, quotas Quotas) int {
	switch s.EffectiveTier(now) {
	case TierPremium:
		return quotas.Active
	case TierTrial:
		return quotas.Trial
	default:
		return quotas.Free
	}
}

// ConsumeAIChat attempts to consume one unit of the daily AI-chat quota. It
// resets the counter if the reset window has elapsed. Returns false without
// mutating state if the quota is already exhausted.
func (s *Subscription) ConsumeAIChat(now time.Time, quotas Quotas) bool {
	if now.After(s.AIChatsResetAt) {
		s.AIChatsUsed = 0
		s.AIChatsResetAt = nextMidnightUTC(now)
	}

	if s.AIChatsUsed >= s.QuotaFor(now, quotas) {
		return false
	}

	s.AIChatsUsed++
	return true
}

// nextMidnightUTC returns the next UTC midnight strictly after now.
func nextMidnightUTC(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

var (
	errAlreadyTrialed    = stateError("company has already used its trial")
	errInvalidTransition = stateError("invalid subscription state transition")
)

type stateError string

func (e stateError) Error() string { return string(e) }
