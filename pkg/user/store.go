// Package user implements the credential store (C1) and authentication
// service (C7): registration, login, logout, and the password hashing and
// lookup semantics that back them.
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerpulse/ledgerpulse/internal/apierr"
)

const uniqueViolation = "23505"

// User is a registered credential holder.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Store provides database operations for user credentials.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a user Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// normalizeEmail lowercases and trims an email so lookups and inserts treat
// "User@Example.com" and "user@example.com" as the same identity.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user with the given email and bcrypt password hash.
// Returns a CONFLICT error if the normalized email is already registered.
func (s *Store) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	normalized := normalizeEmail(email)
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, normalized, passwordHash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apierr.New(apierr.KindConflict, "an account with this email already exists")
		}
		return nil, apierr.Wrap(apierr.KindInternal, "failed to create user", err)
	}

	return &User{ID: id, Email: normalized, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// FindByEmail returns the user with the given email (case-insensitive), or a
// BAD_CREDENTIALS error if none exists. Unknown-email and wrong-password
// failures must be indistinguishable to callers, so this returns the same
// error kind a failed password comparison would.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE email = $1
	`, normalizeEmail(email))
	return scanUser(row)
}

// FindByID returns the user with the given id, or a NOT_FOUND error.
func (s *Store) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE id = $1
	`, id)
	user, err := scanUser(row)
	if err != nil {
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) && apiErr.Kind == apierr.KindBadCredentials {
			return nil, apierr.New(apierr.KindNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.New(apierr.KindBadCredentials, "invalid email or password")
		}
		return nil, apierr.Wrap(apierr.KindInternal, "failed to read user", err)
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
