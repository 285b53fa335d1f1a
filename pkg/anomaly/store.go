package anomaly

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerpulse/ledgerpulse/internal/apierr"
)

// Store persists detected anomalies.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates an anomaly Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertBatch persists every entry in a Result as its own anomaly row,
// scoped to companyID. Returns the persisted rows.
func (s *Store) InsertBatch(ctx context.Context, companyID string, entries []ResultEntry) ([]Anomaly, error) {
	now := time.Now().UTC()
	out := make([]Anomaly, 0, len(entries))

	batch := &pgx.Batch{}
	for _, entry := range entries {
		id := uuid.New().String()
		out = append(out, Anomaly{
			ID: id, CompanyID: companyID, TransactionID: entry.ID,
			Amount: entry.Amount, DetectedAt: now,
		})
		batch.Queue(`
			INSERT INTO anomalies (id, company_id, transaction_id, amount, detected_at)
			VALUES ($1, $2, $3, $4, $5)
		`, id, companyID, entry.ID, entry.Amount, now)
	}
	// entry.ID scans to NULL in transaction_id when nil: pgx encodes a nil
	// *string as SQL NULL directly, no separate branch needed.

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return nil, apierr.Wrap(apierr.KindInternal, "failed to persist anomalies", err)
		}
	}

	return out, nil
}

// Delete removes an anomaly scoped to companyID, letting an owner dismiss a
// flagged transaction once reviewed. Returns NOT_FOUND if it does not exist
// or belongs to a different company.
func (s *Store) Delete(ctx context.Context, companyID, anomalyID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM anomalies WHERE id = $1 AND company_id = $2
	`, anomalyID, companyID)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to delete anomaly", err)
	}
	if tag.RowsAffected() == 0 {
		return apierr.New(apierr.KindNotFound, "anomaly not found")
	}
	return nil
}

// ListByCompany returns every anomaly recorded for companyID, newest first.
func (s *Store) ListByCompany(ctx context.Context, companyID string) ([]Anomaly, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, transaction_id, amount, detected_at
		FROM anomalies WHERE company_id = $1
		ORDER BY detected_at DESC
	`, companyID)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to list anomalies", err)
	}
	defer rows.Close()

	var out []Anomaly
	for rows.Next() {
		var a Anomaly
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.TransactionID, &a.Amount, &a.DetectedAt); err != nil {
			return nil, apierr.Wrap(apierr.KindInternal, "failed to read anomaly row", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to read anomaly rows", err)
	}
	return out, nil
}
