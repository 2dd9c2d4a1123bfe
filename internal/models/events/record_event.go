package events

import (
	"time"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

type RecordEventType string

const (
	RecordPending     RecordEventType = "record_pending"
	DeletionRequested RecordEventType = "deletion_requested"
	RecordDeclined    RecordEventType = "record_declined"
)

// RecordEvent tells the owner of an organization that a record needs attention.
type RecordEvent struct {
	OrganizationKey string          `json:"organization_key"`
	Kind            models.Kind     `json:"kind"`
	RecordID        string          `json:"record_id"`
	Type            RecordEventType `json:"type"`
	ActorID         string          `json:"actor_id,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
}
