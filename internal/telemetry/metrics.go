package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency across every route.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "ledgerpulse",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// RateLimitRejectedTotal counts requests rejected by the rate limiter (C6).
var RateLimitRejectedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ledgerpulse",
		Subsystem: "auth",
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter, by bucket.",
	},
	[]string{"bucket"},
)

// QuotaExceededTotal counts AI-chat quota rejections (C8).
var QuotaExceededTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "ledgerpulse",
		Subsystem: "subscription",
		Name:      "ai_chat_quota_exceeded_total",
		Help:      "Total number of AI-chat requests rejected by the daily quota.",
	},
)

// AnomaliesPersistedTotal counts anomalies written by the anomaly loop (C12).
var AnomaliesPersistedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ledgerpulse",
		Subsystem: "anomaly",
		Name:      "persisted_total",
		Help:      "Total number of anomaly rows persisted by the anomaly loop.",
	},
	[]string{"company_id"},
)

// EventsPublishedTotal counts event-bus publishes, by routing key and outcome (C11).
var EventsPublishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ledgerpulse",
		Subsystem: "eventbus",
		Name:      "published_total",
		Help:      "Total number of event bus publish attempts, by routing key and outcome.",
	},
	[]string{"routing_key", "outcome"},
)

// ReportCacheTotal counts P&L cache hits/misses (C9).
var ReportCacheTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ledgerpulse",
		Subsystem: "report",
		Name:      "cache_total",
		Help:      "Total number of P&L report cache lookups, by outcome (hit/miss).",
	},
	[]string{"outcome"},
)

// All returns every LedgerPulse-specific metric for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		RateLimitRejectedTotal,
		QuotaExceededTotal,
		AnomaliesPersistedTotal,
		EventsPublishedTotal,
		ReportCacheTotal,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors,
// the shared HTTPRequestDuration metric, and any additional service-specific
// collectors passed as arguments.
func NewMetricsRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
	)
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return reg
}
