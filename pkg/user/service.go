package user

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerpulse/ledgerpulse/internal/apierr"
	"github.com/ledgerpulse/ledgerpulse/pkg/subscription"
)

const bcryptCost = 12

// dummyPasswordHash is compared against on an unknown-email login so that
// path costs the same bcrypt work as a wrong-password rejection — timing
// must not reveal whether an account exists.
var dummyPasswordHash = mustHashDummyPassword()

func mustHashDummyPassword() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("ledgerpulse-account-enumeration-guard"), bcryptCost)
	if err != nil {
		panic(err)
	}
	return hash
}

// CredentialStore is the subset of Store the Service depends on.
type CredentialStore interface {
	Create(ctx context.Context, email, passwordHash string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// CompanyProvisioner creates and looks up the companies users own.
type CompanyProvisioner interface {
	Create(ctx context.Context, name, ownerUserID, currency string) (CompanyRef, error)
	FindFirstByOwner(ctx context.Context, ownerUserID string) (CompanyRef, error)
}

// CompanyRef is the subset of company.Company the Service needs without
// importing pkg/company, avoiding an import cycle between the two packages.
type CompanyRef struct {
	ID string
}

// TokenIssuer issues bearer access tokens.
type TokenIssuer interface {
	Issue(userID, companyID string) (string, error)
}

// Revoker revokes a token by jti for the remainder of its lifetime.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// RateLimiter is the subset of ratelimiter.Limiter the Service needs.
type RateLimiter interface {
	TryConsume(ctx context.Context, ip, bucket string) bool
}

// SubscriptionInitializer creates the FREE subscription row a newly
// registered company starts with, and reports the current status view a
// session response renders alongside its access token.
type SubscriptionInitializer interface {
	EnsureExists(ctx context.Context, companyID string) error
	Status(ctx context.Context, companyID string) (*subscription.StatusView, error)
}

// Service implements registration, login, and logout (C7).
type Service struct {
	credentials   CredentialStore
	companies     CompanyProvisioner
	tokens        TokenIssuer
	limiter       RateLimiter
	subscriptions SubscriptionInitializer
	currency      string
	logger        *slog.Logger
}

// NewService creates an auth Service. defaultCurrency is assigned to every
// company created at registration time.
func NewService(credentials CredentialStore, companies CompanyProvisioner, tokens TokenIssuer, limiter RateLimiter, subscriptions SubscriptionInitializer, defaultCurrency string, logger *slog.Logger) *Service {
	return &Service{
		credentials:   credentials,
		companies:     companies,
		tokens:        tokens,
		limiter:       limiter,
		subscriptions: subscriptions,
		currency:      defaultCurrency,
		logger:        logger,
	}
}

// RegisterResult is returned by Register on success.
type RegisterResult struct {
	UserID    string
	CompanyID string
	Token     string
	Status    *subscription.StatusView
}

// Register creates a new user and an owned company, then issues an access
// token for the new session. ip is used for registration rate limiting.
func (s *Service) Register(ctx context.Context, ip, email, password, companyName string) (*RegisterResult, error) {
	if !s.limiter.TryConsume(ctx, ip, "register") {
		return nil, apierr.New(apierr.KindRateLimited, "too many registration attempts, please try again later")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to hash password", err)
	}

	createdUser, err := s.credentials.Create(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}

	createdCompany, err := s.companies.Create(ctx, companyName, createdUser.ID, s.currency)
	if err != nil {
		return nil, err
	}

	if err := s.subscriptions.EnsureExists(ctx, createdCompany.ID); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(createdUser.ID, createdCompany.ID)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to issue access token", err)
	}

	status, err := s.subscriptions.Status(ctx, createdCompany.ID)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{UserID: createdUser.ID, CompanyID: createdCompany.ID, Token: token, Status: status}, nil
}

// LoginResult is returned by Login on success.
type LoginResult struct {
	UserID    string
	CompanyID string
	Token     string
	Status    *subscription.StatusView
}

// Login verifies credentials and issues an access token. Unknown emails and
// wrong passwords return the identical BAD_CREDENTIALS error so the
// response never reveals whether an account exists.
func (s *Service) Login(ctx context.Context, ip, email, password string) (*LoginResult, error) {
	if !s.limiter.TryConsume(ctx, ip, "login") {
		return nil, apierr.New(apierr.KindRateLimited, "too many login attempts, please try again later")
	}

	foundUser, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(foundUser.PasswordHash), []byte(password)); err != nil {
		return nil, apierr.New(apierr.KindBadCredentials, "invalid email or password")
	}

	company, err := s.companies.FindFirstByOwner(ctx, foundUser.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(foundUser.ID, company.ID)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to issue access token", err)
	}

	status, err := s.subscriptions.Status(ctx, company.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{UserID: foundUser.ID, CompanyID: company.ID, Token: token, Status: status}, nil
}

// Logout revokes the given token id for the remainder of its natural
// lifetime so it can no longer authenticate requests.
func (s *Service) Logout(ctx context.Context, revoker Revoker, jti string, remainingTTL time.Duration) error {
	if err := revoker.Revoke(ctx, jti, remainingTTL); err != nil {
		s.logger.Error("revoking token on logout", "error", err)
		return apierr.Wrap(apierr.KindInternal, "failed to log out", err)
	}
	return nil
}
