// Package report implements the P&L reporting engine (C9): period
// resolution, income/expense/category aggregation over the ledger, and a
// per-tenant read-through cache.
package report

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"
)

// Period is a resolved, inclusive calendar date range plus the literal
// spec string it was resolved from (the cache key).
type Period struct {
	Key   string
	Start time.Time
	End   time.Time
}

var yyyymmPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ResolvePeriod turns a period spec ("month", "quarter", "year", or
// "YYYY-MM") into an inclusive date range anchored at now. An unrecognized
// spec is logged and silently defaults to the current month, per spec.
func ResolvePeriod(spec string, now time.Time, logger *slog.Logger) Period {
	now = now.UTC()

	switch spec {
	case "month":
		return monthPeriod(spec, now.Year(), int(now.Month()))
	case "quarter":
		return quarterPeriod(spec, now)
	case "year":
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(now.Year(), time.December, 31, 23, 59, 59, 0, time.UTC)
		return Period{Key: spec, Start: start, End: end}
	}

	if yyyymmPattern.MatchString(spec) {
		var year, month int
		if _, err := fmt.Sscanf(spec, "%4d-%2d", &year, &month); err == nil && month >= 1 && month <= 12 {
			return monthPeriod(spec, year, month)
		}
	}

	if logger != nil {
		logger.Warn("unrecognized report period, defaulting to current month", "period", spec)
	}
	return monthPeriod("month", now.Year(), int(now.Month()))
}

func monthPeriod(key string, year, month int) Period {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return Period{Key: key, Start: start, End: end}
}

func quarterPeriod(key string, now time.Time) Period {
	quarterStartMonth := ((int(now.Month())-1)/3)*3 + 1
	start := time.Date(now.Year(), time.Month(quarterStartMonth), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0).Add(-time.Second)
	return Period{Key: key, Start: start, End: end}
}
