// Package notify implements the outbound notification side channel (C13):
// templated anomaly alerts delivered to a company's owner, with Slack wired
// as the real channel and a no-op mailer satisfying the same interface when
// no channel is configured.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	goslack "github.com/slack-go/slack"
)

// Notifier sends a rendered notification. Implementations must never return
// an error that should block the caller — failures are logged internally
// and swallowed, since notification is always a best-effort side channel
// off the anomaly consumption path (C12).
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
}

// SlackNotifier posts anomaly notifications to a configured Slack channel.
type SlackNotifier struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger
}

// NewSlackNotifier creates a SlackNotifier. If botToken is empty, IsEnabled
// reports false and Notify becomes a logged no-op.
func NewSlackNotifier(botToken, channel string, logger *slog.Logger) *SlackNotifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &SlackNotifier{client: client, channel: channel, logger: logger}
}

// IsEnabled reports whether this notifier has a usable Slack client.
func (n *SlackNotifier) IsEnabled() bool {
	return n.client != nil && n.channel != ""
}

// Notify posts subject and body as a Slack message. On failure (or when
// disabled) it logs and returns without error, per the Notifier contract.
func (n *SlackNotifier) Notify(ctx context.Context, subject, body string) {
	if !n.IsEnabled() {
		n.logger.Debug("slack notifier disabled, skipping notification", "subject", subject)
		return
	}

	text := fmt.Sprintf("*%s*\n%s", subject, body)
	if _, _, err := n.client.PostMessageContext(ctx, n.channel, goslack.MsgOptionText(text, false)); err != nil {
		n.logger.Error("posting anomaly notification to slack", "error", err, "subject", subject)
	}
}

// NoopNotifier discards every notification. Used when no outbound channel
// is configured, so downstream callers can depend on the same interface
// regardless of deployment configuration.
type NoopNotifier struct {
	logger *slog.Logger
}

// NewNoopNotifier creates a NoopNotifier.
func NewNoopNotifier(logger *slog.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

// Notify logs the notification at debug level and discards it.
func (n *NoopNotifier) Notify(_ context.Context, subject, _ string) {
	n.logger.Debug("no notification channel configured, discarding", "subject", subject)
}
