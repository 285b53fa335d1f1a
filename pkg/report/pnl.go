package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerpulse/ledgerpulse/pkg/ledger"
)

const uncategorized = "Uncategorized"

// LedgerReader is the subset of ledger.Store the reporting engine depends
// on, kept narrow so this package never needs to know about pgx.
type LedgerReader interface {
	SumPositive(ctx context.Context, companyID string, from, to time.Time) (decimal.Decimal, error)
	SumNegative(ctx context.Context, companyID string, from, to time.Time) (decimal.Decimal, error)
	SumByCategory(ctx context.Context, companyID string, from, to time.Time) ([]ledger.CategorySum, error)
	Count(ctx context.Context, companyID string, from, to time.Time) (int, error)
}

// BreakdownType classifies a category row as net income or net expense.
type BreakdownType string

const (
	BreakdownIncome  BreakdownType = "INCOME"
	BreakdownExpense BreakdownType = "EXPENSE"
)

// BreakdownRow is one category's net contribution within a period.
type BreakdownRow struct {
	CategoryName string
	Amount       decimal.Decimal
	Type         BreakdownType
}

// PnLReport is the computed profit-and-loss statement for one company and
// period.
type PnLReport struct {
	Period       string
	StartDate    string
	EndDate      string
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetProfit    decimal.Decimal
	Breakdown    []BreakdownRow
	TxnCount     int
}

const dateLayout = "2006-01-02"

// Compute builds a PnLReport for companyID over period by aggregating the
// ledger directly — callers wanting the cached read path should go through
// Service.PnL instead.
func Compute(ctx context.Context, reader LedgerReader, companyID string, period Period) (*PnLReport, error) {
	income, err := reader.SumPositive(ctx, companyID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	rawExpense, err := reader.SumNegative(ctx, companyID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	expense := rawExpense.Abs()

	sums, err := reader.SumByCategory(ctx, companyID, period.Start, period.End)
	if err != nil {
		return nil, err
	}

	count, err := reader.Count(ctx, companyID, period.Start, period.End)
	if err != nil {
		return nil, err
	}

	breakdown := make([]BreakdownRow, 0, len(sums))
	for _, cs := range sums {
		name := string(cs.Category)
		if name == "" {
			name = uncategorized
		}
		rowType := BreakdownIncome
		if cs.Sum.Sign() < 0 {
			rowType = BreakdownExpense
		}
		breakdown = append(breakdown, BreakdownRow{
			CategoryName: name,
			Amount:       cs.Sum.Abs(),
			Type:         rowType,
		})
	}

	return &PnLReport{
		Period:       period.Key,
		StartDate:    period.Start.Format(dateLayout),
		EndDate:      period.End.Format(dateLayout),
		TotalIncome:  income,
		TotalExpense: expense,
		NetProfit:    income.Sub(expense),
		Breakdown:    breakdown,
		TxnCount:     count,
	}, nil
}
