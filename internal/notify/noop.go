package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded alerts. It is the
// demo host's default when no real delivery backend (Telegram bot, webhook)
// is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards alerts with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendAlert logs and discards a single alert.
func (n *NoOpNotifier) SendAlert(_ context.Context, alert AlertPayload) error {
	n.log.Debug("notification discarded (no backend configured)",
		"watch_id", alert.WatchID,
		"product", alert.ProductTitle,
		"kind", alert.Kind,
	)
	return nil
}

// SendBatchAlert logs and discards a batch of alerts.
func (n *NoOpNotifier) SendBatchAlert(_ context.Context, alerts []AlertPayload, watchID string) error {
	n.log.Debug("batch notification discarded (no backend configured)",
		"watch_id", watchID,
		"count", len(alerts),
	)
	return nil
}

var _ Notifier = (*NoOpNotifier)(nil)
