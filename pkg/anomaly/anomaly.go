// Package anomaly implements the anomaly store (C4) and the async anomaly
// pipeline (C12): a consumer that ingests detection results from the
// anomaly-results Redis stream, persists them, and triggers a single batched
// notification.
package anomaly

import (
	"time"

	"github.com/shopspring/decimal"
)

// Anomaly is a single flagged transaction. TransactionID is nil when the
// upstream detection job flags an amount that no longer matches any live
// transaction (the row it pointed to was deleted by its owner between
// detection and ingestion) — an orphaned anomaly, not a malformed one.
type Anomaly struct {
	ID            string
	CompanyID     string
	TransactionID *string
	Amount        decimal.Decimal
	DetectedAt    time.Time
}

// Result is the shape published to the anomaly-results stream by the
// upstream detection job: a batch of flagged transaction ids and amounts
// for one company.
type Result struct {
	CompanyID string        `json:"companyId"`
	Anomalies []ResultEntry `json:"anomalies"`
}

// ResultEntry is one flagged transaction within a Result batch. ID is
// nullable for the same reason Anomaly.TransactionID is.
type ResultEntry struct {
	ID     *string         `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}
