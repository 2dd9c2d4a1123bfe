// Package logsink writes record events to a structured logger. It is the
// notification sink used when no broker is configured.
package logsink

import (
	"context"
	"log/slog"

	interfaces "github.com/sheikh-saqib/bookkeeping-approvals/internal/interfaces"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models/events"
)

type Sink struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

func (s *Sink) Notify(ctx context.Context, ev events.RecordEvent) error {
	s.logger.InfoContext(ctx, "notification",
		"organization_key", ev.OrganizationKey,
		"kind", string(ev.Kind),
		"record_id", ev.RecordID,
		"event", string(ev.Type),
		"actor_id", ev.ActorID,
	)
	return nil
}

var _ interfaces.NotificationSink = (*Sink)(nil)
