package anomaly

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerpulse/ledgerpulse/internal/telemetry"
	"github.com/ledgerpulse/ledgerpulse/pkg/notify"
)

// resultStream is the Redis Stream the upstream anomaly-detection job
// publishes to. It is a separate stream from eventbus's own
// "ledgerpulse:events", modeling the anomaly pipeline as an external
// producer this service only consumes from.
const resultStream = "ledgerpulse:anomaly-results"

const consumerGroup = "anomaly-loop"
const consumerName = "anomaly-loop-1"

// Notifier is the subset of notify.Service this loop depends on.
type Notifier interface {
	NotifyAnomalies(ctx context.Context, summary notify.AnomalySummary)
}

// Inserter is the subset of Store this loop depends on.
type Inserter interface {
	InsertBatch(ctx context.Context, companyID string, entries []ResultEntry) ([]Anomaly, error)
}

// Loop consumes anomaly detection results from Redis Streams, persists
// them, and triggers one batched notification per message.
type Loop struct {
	client   *redis.Client
	store    Inserter
	notifier Notifier
	logger   *slog.Logger
}

// NewLoop creates an anomaly Loop.
func NewLoop(client *redis.Client, store Inserter, notifier Notifier, logger *slog.Logger) *Loop {
	return &Loop{client: client, store: store, notifier: notifier, logger: logger}
}

// EnsureConsumerGroup idempotently declares the anomaly-results consumer
// group, creating the stream if needed. Call once at worker startup.
func (l *Loop) EnsureConsumerGroup(ctx context.Context) error {
	err := l.client.XGroupCreateMkStream(ctx, resultStream, consumerGroup, "$").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}
	return nil
}

// Run blocks, consuming anomaly results until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("anomaly loop started", "stream", resultStream, "group", consumerGroup)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("anomaly loop stopped")
			return nil
		default:
		}

		streams, err := l.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: consumerName,
			Streams:  []string{resultStream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			l.logger.Error("reading anomaly result stream", "error", err)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				l.process(ctx, msg)
			}
		}
	}
}

// process handles a single stream message: parse, persist, notify, ack.
// A malformed or failed message is acked and dropped rather than retried
// indefinitely — this loop has no dead-letter stream yet.
// TODO: route unparseable or repeatedly-failing messages to a dead-letter
// stream instead of silently dropping them.
func (l *Loop) process(ctx context.Context, msg redis.XMessage) {
	defer func() {
		if err := l.client.XAck(ctx, resultStream, consumerGroup, msg.ID).Err(); err != nil {
			l.logger.Error("acking anomaly result message", "error", err, "message_id", msg.ID)
		}
	}()

	raw, ok := msg.Values["payload"].(string)
	if !ok {
		l.logger.Warn("anomaly result message missing payload field", "message_id", msg.ID)
		return
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		l.logger.Warn("anomaly result message has invalid JSON, dropping", "error", err, "message_id", msg.ID)
		return
	}

	if len(result.Anomalies) == 0 {
		return
	}

	persisted, err := l.store.InsertBatch(ctx, result.CompanyID, result.Anomalies)
	if err != nil {
		l.logger.Error("persisting anomaly batch, dropping message", "error", err, "company_id", result.CompanyID)
		return
	}

	telemetry.AnomaliesPersistedTotal.WithLabelValues(result.CompanyID).Add(float64(len(persisted)))

	largest := result.Anomalies[0]
	for _, entry := range result.Anomalies[1:] {
		if entry.Amount.Abs().GreaterThan(largest.Amount.Abs()) {
			largest = entry
		}
	}

	l.notifier.NotifyAnomalies(ctx, notify.AnomalySummary{
		CompanyID: result.CompanyID,
		Count:     len(result.Anomalies),
		Largest:   largest.Amount,
	})
}

func isBusyGroup(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}
