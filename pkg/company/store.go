// Package company implements the tenant store (C2): the companies owned by
// registered users, and the ownership checks the request pipeline depends on.
package company

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerpulse/ledgerpulse/internal/apierr"
)

// Company is a tenant: the unit every ledger transaction, subscription, and
// report is scoped to.
type Company struct {
	ID          string
	Name        string
	OwnerUserID string
	Currency    string
	CreatedAt   time.Time
}

// Store provides database operations for companies.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a company Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a new company owned by ownerUserID.
func (s *Store) Create(ctx context.Context, name, ownerUserID, currency string) (*Company, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO companies (id, name, owner_user_id, currency, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, name, ownerUserID, currency, now)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to create company", err)
	}

	return &Company{ID: id, Name: name, OwnerUserID: ownerUserID, Currency: currency, CreatedAt: now}, nil
}

// FindByID returns the company with the given id, or a NOT_FOUND error.
func (s *Store) FindByID(ctx context.Context, id string) (*Company, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, owner_user_id, currency, created_at
		FROM companies WHERE id = $1
	`, id)
	return scanCompany(row)
}

// FindFirstByOwner returns the earliest-created company owned by ownerUserID,
// or a NOT_FOUND error if the owner has none.
func (s *Store) FindFirstByOwner(ctx context.Context, ownerUserID string) (*Company, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, owner_user_id, currency, created_at
		FROM companies WHERE owner_user_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, ownerUserID)
	return scanCompany(row)
}

// ExistsWithOwner reports whether ownerUserID owns at least one company.
func (s *Store) ExistsWithOwner(ctx context.Context, ownerUserID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM companies WHERE owner_user_id = $1)
	`, ownerUserID).Scan(&exists)
	if err != nil {
		return false, apierr.Wrap(apierr.KindInternal, "failed to check company ownership", err)
	}
	return exists, nil
}

// OwnsCompany reports whether userID owns companyID. It satisfies
// internal/pipeline.CompanyOwnershipChecker.
func (s *Store) OwnsCompany(ctx context.Context, userID, companyID string) (bool, error) {
	company, err := s.FindByID(ctx, companyID)
	if err != nil {
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) && apiErr.Kind == apierr.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return company.OwnerUserID == userID, nil
}

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	if err := row.Scan(&c.ID, &c.Name, &c.OwnerUserID, &c.Currency, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.New(apierr.KindNotFound, "company not found")
		}
		return nil, apierr.Wrap(apierr.KindInternal, "failed to read company", err)
	}
	return &c, nil
}
