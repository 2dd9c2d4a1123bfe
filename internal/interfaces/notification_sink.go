package interfaces

import (
	"context"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models/events"
)

// NotificationSink receives state transitions that need owner attention.
// Delivery and retry belong to the sink.
type NotificationSink interface {
	Notify(ctx context.Context, event events.RecordEvent) error
}
