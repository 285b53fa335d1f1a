package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerpulse/ledgerpulse/internal/apierr"
)

// Store provides database operations for ledger transactions.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a ledger Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a new transaction.
func (s *Store) Create(ctx context.Context, companyID string, amount decimal.Decimal, category Category, description string, occurredAt time.Time) (*Transaction, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (id, company_id, amount, category, description, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, companyID, amount, string(category), description, occurredAt, now)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to create transaction", err)
	}

	return &Transaction{
		ID: id, CompanyID: companyID, Amount: amount, Category: category,
		Description: description, OccurredAt: occurredAt, CreatedAt: now,
	}, nil
}

// Delete removes a transaction scoped to companyID, returning NOT_FOUND if
// it does not exist or belongs to a different company.
func (s *Store) Delete(ctx context.Context, companyID, transactionID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM transactions WHERE id = $1 AND company_id = $2
	`, transactionID, companyID)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to delete transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return apierr.New(apierr.KindNotFound, "transaction not found")
	}
	return nil
}

// ListFilter narrows a List query to a time range and/or category.
type ListFilter struct {
	From     *time.Time
	To       *time.Time
	Category *Category
}

// List returns a company's transactions within filter, newest first.
func (s *Store) List(ctx context.Context, companyID string, filter ListFilter) ([]Transaction, error) {
	query := `
		SELECT id, company_id, amount, category, description, occurred_at, created_at
		FROM transactions WHERE company_id = $1
	`
	args := []any{companyID}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND occurred_at <= $%d", len(args))
	}
	if filter.Category != nil {
		args = append(args, string(*filter.Category))
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY occurred_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to list transactions", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to read transaction rows", err)
	}
	return out, nil
}

// SumPositive returns the sum of all income (positive-amount) transactions
// in [from, to].
func (s *Store) SumPositive(ctx context.Context, companyID string, from, to time.Time) (decimal.Decimal, error) {
	return s.sumWhere(ctx, companyID, from, to, "amount > 0")
}

// SumNegative returns the sum of all expense (negative-amount) transactions
// in [from, to]. The result is negative or zero.
func (s *Store) SumNegative(ctx context.Context, companyID string, from, to time.Time) (decimal.Decimal, error) {
	return s.sumWhere(ctx, companyID, from, to, "amount < 0")
}

func (s *Store) sumWhere(ctx context.Context, companyID string, from, to time.Time, predicate string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE company_id = $1 AND occurred_at >= $2 AND occurred_at <= $3 AND `+predicate,
		companyID, from, to,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, apierr.Wrap(apierr.KindInternal, "failed to sum transactions", err)
	}
	return sum, nil
}

// CategorySum pairs a category with its aggregate amount.
type CategorySum struct {
	Category Category
	Sum      decimal.Decimal
}

// SumByCategory returns the per-category sum of all transactions in
// [from, to].
func (s *Store) SumByCategory(ctx context.Context, companyID string, from, to time.Time) ([]CategorySum, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, COALESCE(SUM(amount), 0) FROM transactions
		WHERE company_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		GROUP BY category
		ORDER BY SUM(amount) DESC
	`, companyID, from, to)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to sum transactions by category", err)
	}
	defer rows.Close()

	var out []CategorySum
	for rows.Next() {
		var cs CategorySum
		var category string
		if err := rows.Scan(&category, &cs.Sum); err != nil {
			return nil, apierr.Wrap(apierr.KindInternal, "failed to read category sum row", err)
		}
		cs.Category = Category(category)
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to read category sum rows", err)
	}
	return out, nil
}

// Count returns the number of transactions recorded for companyID in
// [from, to].
func (s *Store) Count(ctx context.Context, companyID string, from, to time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE company_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
	`, companyID, from, to).Scan(&count)
	if err != nil {
		return 0, apierr.Wrap(apierr.KindInternal, "failed to count transactions", err)
	}
	return count, nil
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	var category string
	if err := row.Scan(&t.ID, &t.CompanyID, &t.Amount, &category, &t.Description, &t.OccurredAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.New(apierr.KindNotFound, "transaction not found")
		}
		return nil, apierr.Wrap(apierr.KindInternal, "failed to read transaction", err)
	}
	t.Category = Category(category)
	return &t, nil
}
