// Package eventbus implements the event bus adapter (C11): at-least-once
// publication of domain events, backed by Redis Streams so consumers (the
// anomaly pipeline, and any future subscriber) can resume from where they
// left off rather than losing events across restarts.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerpulse/ledgerpulse/internal/telemetry"
)

// streamKey is the single Redis Stream every routing key is appended to.
// Routing key is carried as a field on each entry so one stream can serve
// every event type without provisioning a topology per key.
const streamKey = "ledgerpulse:events"

// Bus publishes domain events to a Redis Stream. Publication degrades to a
// logged no-op on broker unavailability rather than blocking or panicking —
// callers treat every publish as best-effort (see pkg/ledger.Service).
type Bus struct {
	client *redis.Client
	logger *slog.Logger
}

// NewBus creates a Redis Streams-backed event bus.
func NewBus(client *redis.Client, logger *slog.Logger) *Bus {
	return &Bus{client: client, logger: logger}
}

// Publish appends an event to the stream. Marshaling failures are returned
// to the caller (a programmer error); broker unavailability is logged and
// swallowed so a downed Redis never blocks the write path that produced the
// event.
func (b *Bus) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling event payload: %w", err)
	}

	outcome := "ok"
	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]any{
			"routing_key": routingKey,
			"payload":     body,
		},
	}).Err()
	if err != nil {
		outcome = "error"
		b.logger.Error("publishing event, degrading to no-op", "error", err, "routing_key", routingKey)
	}
	telemetry.EventsPublishedTotal.WithLabelValues(routingKey, outcome).Inc()

	// Swallow the broker error: publication is best-effort from the
	// perspective of every caller in this codebase.
	return nil
}

// EnsureConsumerGroup idempotently declares a consumer group at the current
// end of the stream, creating the stream itself if it does not exist yet.
// Safe to call on every worker startup.
func (b *Bus) EnsureConsumerGroup(ctx context.Context, group string) error {
	err := b.client.XGroupCreateMkStream(ctx, streamKey, group, "$").Err()
	if err != nil && !isBusyGroupErr(err) {
		return fmt.Errorf("creating consumer group %q: %w", group, err)
	}
	return nil
}

// isBusyGroupErr reports whether err is Redis's BUSYGROUP error, returned
// when the group already exists — the expected case on every startup after
// the first.
func isBusyGroupErr(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}

// NoopBus discards every event. Used when Redis is not configured, so the
// rest of the application can depend on the same EventPublisher interface
// regardless of whether a broker is wired up.
type NoopBus struct {
	logger *slog.Logger
}

// NewNoopBus creates a Bus stand-in that logs and discards every publish.
func NewNoopBus(logger *slog.Logger) *NoopBus {
	return &NoopBus{logger: logger}
}

// Publish logs the event at debug level and discards it.
func (b *NoopBus) Publish(_ context.Context, routingKey string, _ any) error {
	b.logger.Debug("event bus disabled, discarding event", "routing_key", routingKey)
	telemetry.EventsPublishedTotal.WithLabelValues(routingKey, "discarded").Inc()
	return nil
}
