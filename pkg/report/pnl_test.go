package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerpulse/ledgerpulse/pkg/ledger"
)

type fakeLedgerReader struct {
	income  decimal.Decimal
	expense decimal.Decimal
	sums    []ledger.CategorySum
	count   int
	err     error
}

func (f *fakeLedgerReader) SumPositive(context.Context, string, time.Time, time.Time) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.income, nil
}

func (f *fakeLedgerReader) SumNegative(context.Context, string, time.Time, time.Time) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.expense, nil
}

func (f *fakeLedgerReader) SumByCategory(context.Context, string, time.Time, time.Time) ([]ledger.CategorySum, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sums, nil
}

func (f *fakeLedgerReader) Count(context.Context, string, time.Time, time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func TestCompute_IncomeExpenseNet(t *testing.T) {
	reader := &fakeLedgerReader{
		income:  decimal.RequireFromString("50000"),
		expense: decimal.RequireFromString("-12000"),
		sums: []ledger.CategorySum{
			{Category: "Sales", Sum: decimal.RequireFromString("50000")},
			{Category: "Rent", Sum: decimal.RequireFromString("-12000")},
		},
		count: 2,
	}
	period := Period{Key: "month", Start: time.Now(), End: time.Now()}

	report, err := Compute(context.Background(), reader, "company-1", period)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if !report.TotalIncome.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("TotalIncome = %s, want 50000", report.TotalIncome)
	}
	if !report.TotalExpense.Equal(decimal.RequireFromString("12000")) {
		t.Errorf("TotalExpense = %s, want 12000 (absolute value)", report.TotalExpense)
	}
	if !report.NetProfit.Equal(decimal.RequireFromString("38000")) {
		t.Errorf("NetProfit = %s, want 38000", report.NetProfit)
	}
	if len(report.Breakdown) != 2 {
		t.Fatalf("expected 2 breakdown rows, got %d", len(report.Breakdown))
	}
	if report.Breakdown[0].Type != BreakdownIncome {
		t.Errorf("Sales row type = %s, want INCOME", report.Breakdown[0].Type)
	}
	if report.Breakdown[1].Type != BreakdownExpense {
		t.Errorf("Rent row type = %s, want EXPENSE", report.Breakdown[1].Type)
	}
	if !report.Breakdown[1].Amount.Equal(decimal.RequireFromString("12000")) {
		t.Errorf("Rent amount = %s, want absolute 12000", report.Breakdown[1].Amount)
	}
	if report.TxnCount != 2 {
		t.Errorf("TxnCount = %d, want 2", report.TxnCount)
	}
}

func TestCompute_EmptyLedgerProducesZeroAggregates(t *testing.T) {
	reader := &fakeLedgerReader{income: decimal.Zero, expense: decimal.Zero}
	period := Period{Key: "month", Start: time.Now(), End: time.Now()}

	report, err := Compute(context.Background(), reader, "company-1", period)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if !report.TotalIncome.IsZero() || !report.TotalExpense.IsZero() || !report.NetProfit.IsZero() {
		t.Errorf("expected all-zero aggregates on an empty ledger, got income=%s expense=%s net=%s",
			report.TotalIncome, report.TotalExpense, report.NetProfit)
	}
	if len(report.Breakdown) != 0 {
		t.Errorf("expected empty breakdown, got %d rows", len(report.Breakdown))
	}
}

func TestCompute_UncategorizedFallback(t *testing.T) {
	reader := &fakeLedgerReader{
		income: decimal.RequireFromString("100"),
		sums: []ledger.CategorySum{
			{Category: "", Sum: decimal.RequireFromString("100")},
		},
	}
	period := Period{Key: "month", Start: time.Now(), End: time.Now()}

	report, err := Compute(context.Background(), reader, "company-1", period)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if report.Breakdown[0].CategoryName != uncategorized {
		t.Errorf("expected fallback category name %q, got %q", uncategorized, report.Breakdown[0].CategoryName)
	}
}

func TestCompute_PropagatesReaderError(t *testing.T) {
	reader := &fakeLedgerReader{err: context.DeadlineExceeded}
	period := Period{Key: "month", Start: time.Now(), End: time.Now()}

	if _, err := Compute(context.Background(), reader, "company-1", period); err == nil {
		t.Error("expected Compute to propagate reader error")
	}
}
