// Package authtoken issues and validates the bearer tokens used to
// authenticate API requests (C5). Tokens are self-signed HMAC-SHA256 JWTs
// carrying the subject user id, company id, and token type.
package authtoken

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/ledgerpulse/ledgerpulse/internal/clock"
)

// issuer is embedded in every token's registered claims and checked on parse.
const issuer = "ledgerpulse"

// Claims are the claims embedded in an access token.
type Claims struct {
	Subject   string `json:"sub"`
	CompanyID string `json:"companyId"`
	Type      string `json:"type"`
	ID        string `json:"jti"`

	// ExpiresAt is populated by Parse from the registered claims so callers
	// can compute a revocation TTL without re-parsing the token.
	ExpiresAt time.Time `json:"-"`
}

// Service issues and validates signed bearer tokens.
type Service struct {
	signingKey []byte
	ttl        time.Duration
	clock      clock.Clock
}

// NewService creates a token service. secret must be base64-standard-encoded
// and decode to at least 32 bytes; anything less fails initialization since
// a short HMAC key is brute-forceable.
func NewService(secret string, ttl time.Duration, clk clock.Clock) (*Service, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("token secret must be base64-encoded: %w", err)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("token secret must decode to at least 32 bytes, got %d", len(key))
	}
	return &Service{signingKey: key, ttl: ttl, clock: clk}, nil
}

// Issue creates a signed access token for the given user and company.
func (s *Service) Issue(userID, companyID string) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: s.signingKey},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("creating signer: %w", err)
	}

	now := s.clock.Now()
	jti := uuid.New().String()
	registered := jwt.Claims{
		Subject:   userID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(s.ttl)),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
	}
	custom := Claims{Subject: userID, CompanyID: companyID, Type: "access", ID: jti}

	token, err := jwt.Signed(signer).Claims(registered).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// Parse verifies the token's signature and expiry and returns its claims.
func (s *Service) Parse(raw string) (*Claims, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	var registered jwt.Claims
	var custom Claims
	if err := tok.Claims(s.signingKey, &registered, &custom); err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}

	if err := registered.ValidateWithLeeway(jwt.Expected{
		Issuer: issuer,
		Time:   s.clock.Now(),
	}, 5*time.Second); err != nil {
		return nil, fmt.Errorf("validating claims: %w", err)
	}

	if custom.Type != "access" {
		return nil, fmt.Errorf("unexpected token type %q", custom.Type)
	}

	if registered.Expiry != nil {
		custom.ExpiresAt = registered.Expiry.Time()
	}

	return &custom, nil
}
