package notify

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// OwnerLookup resolves the email address to notify for a company.
type OwnerLookup interface {
	OwnerEmail(ctx context.Context, companyID string) (string, error)
}

// AnomalySummary is the minimal shape the anomaly pipeline needs to render a
// notification, decoupling this package from pkg/anomaly's row type.
type AnomalySummary struct {
	CompanyID string
	Count     int
	Largest   decimal.Decimal
}

// Service renders and dispatches anomaly notifications.
type Service struct {
	owners   OwnerLookup
	notifier Notifier
}

// NewService creates a notification Service.
func NewService(owners OwnerLookup, notifier Notifier) *Service {
	return &Service{owners: owners, notifier: notifier}
}

// NotifyAnomalies renders a templated subject/body for a batch of detected
// anomalies and dispatches it once per batch — never once per anomaly, to
// avoid flooding the owner's channel when a single analysis run flags many
// transactions at once.
func (s *Service) NotifyAnomalies(ctx context.Context, summary AnomalySummary) {
	email, err := s.owners.OwnerEmail(ctx, summary.CompanyID)
	if err != nil {
		// Lookup failure must never propagate into the anomaly consumer's
		// ack/retry decision — this notification is dropped, without logging.
		return
	}

	noun := "anomaly"
	if summary.Count != 1 {
		noun = "anomalies"
	}
	transactionNoun := "transaction"
	if summary.Count != 1 {
		transactionNoun = "transactions"
	}

	subject := fmt.Sprintf("%d new %s detected", summary.Count, noun)
	body := fmt.Sprintf(
		"%d anomalous %s flagged for company %s. Largest amount: %s. Notified: %s",
		summary.Count, transactionNoun, summary.CompanyID, summary.Largest.StringFixed(2), email,
	)

	s.notifier.Notify(ctx, subject, body)
}
