// Package notify defines the notification interface for watch alerts.
// Alert dispatch is a concern of the demo host, not the core: spec.md's
// WatchEvaluator only decides whether an alert exists (internal/watcheval)
// and records it via WatchRepo; delivering it to a user is out of scope.
package notify

import (
	"context"

	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// AlertPayload is the data a Notifier needs to deliver one watch alert.
type AlertPayload struct {
	WatchID         string
	Keywords        string
	ProductTitle    string
	ProductURL      string
	ImageURL        string
	Kind            domain.AlertKind
	PreviousPrice   int
	CurrentPrice    int
	DiscountPercent int
	QualityScore    int
}

// Notifier delivers watch alerts to an external channel.
type Notifier interface {
	SendAlert(ctx context.Context, alert AlertPayload) error
	SendBatchAlert(ctx context.Context, alerts []AlertPayload, watchID string) error
}
