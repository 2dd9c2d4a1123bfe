package interfaces

import (
	"context"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

// RoleStore holds explicit role assignments and the delegate roster.
// Lookups that find nothing return models.ErrNotFound.
type RoleStore interface {
	GetRole(ctx context.Context, actorID string) (models.RoleRecord, error)
	SaveRole(ctx context.Context, rec models.RoleRecord) error
	RosterEntry(ctx context.Context, delegateID string) (models.RosterEntry, error)
	SaveRosterEntry(ctx context.Context, entry models.RosterEntry) error
	DeleteRosterEntry(ctx context.Context, delegateID string) error
	ListRoster(ctx context.Context, ownerID string) ([]models.RosterEntry, error)
}
