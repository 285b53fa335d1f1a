package report

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolvePeriod_Month(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	p := ResolvePeriod("month", now, discardLogger())

	if p.Key != "month" {
		t.Errorf("expected key %q, got %q", "month", p.Key)
	}
	wantStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	if !p.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", p.Start, wantStart)
	}
	if !p.End.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", p.End, wantEnd)
	}
}

func TestResolvePeriod_Quarter(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "Q1 from January",
			now:       time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "Q2 from May",
			now:       time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "Q4 from December",
			now:       time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ResolvePeriod("quarter", tt.now, discardLogger())
			if !p.Start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", p.Start, tt.wantStart)
			}
			if !p.End.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", p.End, tt.wantEnd)
			}
		})
	}
}

func TestResolvePeriod_Year(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	p := ResolvePeriod("year", now, discardLogger())

	wantStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	if !p.Start.Equal(wantStart) || !p.End.Equal(wantEnd) {
		t.Errorf("got [%v, %v], want [%v, %v]", p.Start, p.End, wantStart, wantEnd)
	}
}

func TestResolvePeriod_ExplicitMonth(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	p := ResolvePeriod("2025-11", now, discardLogger())

	if p.Key != "2025-11" {
		t.Errorf("expected key to preserve literal spec, got %q", p.Key)
	}
	wantStart := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 11, 30, 23, 59, 59, 0, time.UTC)
	if !p.Start.Equal(wantStart) || !p.End.Equal(wantEnd) {
		t.Errorf("got [%v, %v], want [%v, %v]", p.Start, p.End, wantStart, wantEnd)
	}
}

func TestResolvePeriod_UnrecognizedDefaultsToCurrentMonth(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	p := ResolvePeriod("fortnight", now, discardLogger())

	if p.Key != "month" {
		t.Errorf("expected fallback key %q, got %q", "month", p.Key)
	}
	wantStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if !p.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", p.Start, wantStart)
	}
}

func TestResolvePeriod_InvalidExplicitMonthDefaults(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	p := ResolvePeriod("2025-13", now, discardLogger())

	if p.Key != "month" {
		t.Errorf("expected invalid YYYY-MM to fall back to current month, got key %q", p.Key)
	}
}
