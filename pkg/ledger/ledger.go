// Package ledger implements the ledger store (C3) and transaction write
// path (C10): transaction CRUD, aggregate queries, cache invalidation on
// every mutation, and event publication on create (deletes publish no event).
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a user-facing spending/income classification.
type Category string

// Transaction is a single ledger entry. Positive amounts are income,
// negative amounts are expenses.
type Transaction struct {
	ID          string
	CompanyID   string
	Amount      decimal.Decimal
	Category    Category
	Description string
	OccurredAt  time.Time
	CreatedAt   time.Time
}

// IsIncome reports whether the transaction is a positive (income) entry.
func (t Transaction) IsIncome() bool { return t.Amount.Sign() > 0 }

// IsExpense reports whether the transaction is a negative (expense) entry.
func (t Transaction) IsExpense() bool { return t.Amount.Sign() < 0 }
