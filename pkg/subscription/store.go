package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerpulse/ledgerpulse/internal/apierr"
	"github.com/ledgerpulse/ledgerpulse/internal/clock"
)

// Store persists subscription state and mediates every transition through
// an explicit row lock so concurrent requests for the same company (e.g. two
// AI-chat calls racing) serialize instead of losing an update.
type Store struct {
	pool   *pgxpool.Pool
	clock  clock.Clock
	quotas Quotas
}

// NewStore creates a subscription Store.
func NewStore(pool *pgxpool.Pool, c clock.Clock, quotas Quotas) *Store {
	return &Store{pool: pool, clock: c, quotas: quotas}
}

// EnsureExists creates a FREE subscription row for a newly registered
// company if one does not already exist.
func (s *Store) EnsureExists(ctx context.Context, companyID string) error {
	now := s.clock.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (company_id, state, ai_chats_used, ai_chats_reset_at)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (company_id) DO NOTHING
	`, companyID, StateFree, nextMidnightUTC(now))
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to initialize subscription", err)
	}
	return nil
}

// withLocked loads a company's subscription row FOR UPDATE, runs mutate
// against it, and persists the result in the same transaction. mutate's
// error (if any) aborts the transaction and is returned unchanged.
func (s *Store) withLocked(ctx context.Context, companyID string, mutate func(sub *Subscription) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sub, err := scanSubscription(tx.QueryRow(ctx, `
		SELECT company_id, state, trial_started_at, trial_ends_at, subscription_ends_at,
		       cancelled_at, ai_chats_used, ai_chats_reset_at
		FROM subscriptions WHERE company_id = $1
		FOR UPDATE
	`, companyID))
	if err != nil {
		return err
	}

	if err := mutate(sub); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE subscriptions SET
			state = $2, trial_started_at = $3, trial_ends_at = $4,
			subscription_ends_at = $5, cancelled_at = $6,
			ai_chats_used = $7, ai_chats_reset_at = $8
		WHERE company_id = $1
	`, sub.CompanyID, sub.State, sub.TrialStartedAt, sub.TrialEndsAt,
		sub.SubscriptionEndsAt, sub.CancelledAt, sub.AIChatsUsed, sub.AIChatsResetAt); err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to persist subscription", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to commit subscription update", err)
	}
	return nil
}

// StartTrial starts a company's trial. Returns a CONFLICT error if the
// company has already used its trial.
func (s *Store) StartTrial(ctx context.Context, companyID string, window time.Duration) error {
	return s.withLocked(ctx, companyID, func(sub *Subscription) error {
		if err := sub.StartTrial(s.clock.Now(), window); err != nil {
			return apierr.New(apierr.KindConflict, err.Error())
		}
		return nil
	})
}

// Activate activates a company's subscription.
func (s *Store) Activate(ctx context.Context, companyID string, duration time.Duration) error {
	return s.withLocked(ctx, companyID, func(sub *Subscription) error {
		if err := sub.Activate(s.clock.Now(), duration); err != nil {
			return apierr.New(apierr.KindConflict, err.Error())
		}
		return nil
	})
}

// Renew extends a company's active subscription.
func (s *Store) Renew(ctx context.Context, companyID string, duration time.Duration) error {
	return s.withLocked(ctx, companyID, func(sub *Subscription) error {
		if err := sub.Renew(s.clock.Now(), duration); err != nil {
			return apierr.New(apierr.KindConflict, err.Error())
		}
		return nil
	})
}

// Cancel cancels a company's subscription.
func (s *Store) Cancel(ctx context.Context, companyID string) error {
	return s.withLocked(ctx, companyID, func(sub *Subscription) error {
		if err := sub.Cancel(s.clock.Now()); err != nil {
			return apierr.New(apierr.KindConflict, err.Error())
		}
		return nil
	})
}

// ConsumeAIChat atomically consumes one unit of the company's daily AI-chat
// quota. Returns a QUOTA_EXCEEDED error if none remain.
func (s *Store) ConsumeAIChat(ctx context.Context, companyID string) error {
	return s.withLocked(ctx, companyID, func(sub *Subscription) error {
		if !sub.ConsumeAIChat(s.clock.Now(), s.quotas) {
			return apierr.New(apierr.KindQuotaExceeded, "daily AI chat quota exceeded")
		}
		return nil
	})
}

// HasPremiumAccess satisfies internal/pipeline.PremiumAccessChecker.
func (s *Store) HasPremiumAccess(ctx context.Context, companyID string) (bool, error) {
	sub, err := s.load(ctx, companyID)
	if err != nil {
		return false, err
	}
	return sub.HasPremiumAccess(s.clock.Now()), nil
}

// EffectiveTier returns the company's current billing tier.
func (s *Store) EffectiveTier(ctx context.Context, companyID string) (Tier, error) {
	sub, err := s.load(ctx, companyID)
	if err != nil {
		return "", err
	}
	return sub.EffectiveTier(s.clock.Now()), nil
}

// TierLabel returns the company's effective billing tier as a plain string,
// satisfying internal/pipeline.PremiumAccessChecker without that package
// depending on this one's Tier type.
func (s *Store) TierLabel(ctx context.Context, companyID string) (string, error) {
	tier, err := s.EffectiveTier(ctx, companyID)
	if err != nil {
		return "", err
	}
	return string(tier), nil
}

// TrialDaysRemaining returns the number of days left in a company's trial.
func (s *Store) TrialDaysRemaining(ctx context.Context, companyID string) (int, error) {
	sub, err := s.load(ctx, companyID)
	if err != nil {
		return 0, err
	}
	return sub.TrialDaysRemaining(s.clock.Now()), nil
}

// StatusView is the full set of subscription fields a status endpoint needs
// to render, computed as of the moment Status is called.
type StatusView struct {
	State              State
	Tier               Tier
	TrialDaysRemaining int
	HasPremiumAccess   bool
	TrialAlreadyUsed   bool
	AIChatsUsed        int
	AIChatDailyLimit   int
	AIChatsRemaining   int
}

// Status loads a company's subscription and evaluates every derived field a
// status view needs in one round trip.
func (s *Store) Status(ctx context.Context, companyID string) (*StatusView, error) {
	sub, err := s.load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	sub.ExpireIfDue(now)
	limit := sub.QuotaFor(now, s.quotas)

	used := sub.AIChatsUsed
	if now.After(sub.AIChatsResetAt) {
		used = 0
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &StatusView{
		State:              sub.State,
		Tier:               sub.EffectiveTier(now),
		TrialDaysRemaining: sub.TrialDaysRemaining(now),
		HasPremiumAccess:   sub.HasPremiumAccess(now),
		TrialAlreadyUsed:   sub.TrialStartedAt != nil,
		AIChatsUsed:        used,
		AIChatDailyLimit:   limit,
		AIChatsRemaining:   remaining,
	}, nil
}

func (s *Store) load(ctx context.Context, companyID string) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT company_id, state, trial_started_at, trial_ends_at, subscription_ends_at,
		       cancelled_at, ai_chats_used, ai_chats_reset_at
		FROM subscriptions WHERE company_id = $1
	`, companyID)
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	if err := row.Scan(&sub.CompanyID, &sub.State, &sub.TrialStartedAt, &sub.TrialEndsAt,
		&sub.SubscriptionEndsAt, &sub.CancelledAt, &sub.AIChatsUsed, &sub.AIChatsResetAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.New(apierr.KindNotFound, "subscription not found")
		}
		return nil, apierr.Wrap(apierr.KindInternal, "failed to read subscription", err)
	}
	return &sub, nil
}
