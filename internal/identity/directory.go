package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

// Onboard explicitly provisions actorID as the owner of a new organization.
// It refuses actors that already hold a role or appear on a roster; a
// delegate removed from its roster may start its own organization.
func (r *Resolver) Onboard(ctx context.Context, actorID, displayName string) (models.Actor, error) {
	if actorID == "" {
		return models.Actor{}, models.ErrUnresolvedIdentity
	}
	if rec, err := r.roles.GetRole(ctx, actorID); err == nil && rec.Source != models.RoleSourceRemoved {
		if rec.Role == models.RoleOwner {
			return rec.Actor(), nil
		}
		return models.Actor{}, fmt.Errorf("%w: %s already holds role %s", models.ErrForbidden, actorID, rec.Role)
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Actor{}, err
	}
	if _, err := r.roles.RosterEntry(ctx, actorID); err == nil {
		return models.Actor{}, fmt.Errorf("%w: %s is on a delegate roster", models.ErrForbidden, actorID)
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.Actor{}, err
	}
	return r.provisionOwner(ctx, actorID, displayName, models.RoleSourceExplicit)
}

// AddDelegate puts delegateID on owner's roster and records an explicit
// delegate role for it.
func (r *Resolver) AddDelegate(ctx context.Context, owner models.Actor, delegateID, displayName string) (models.Actor, error) {
	if !owner.IsOwner() {
		return models.Actor{}, fmt.Errorf("%w: only owners manage delegates", models.ErrForbidden)
	}
	if delegateID == "" || delegateID == owner.ID {
		return models.Actor{}, fmt.Errorf("%w: invalid delegate id", models.ErrInvalidPayload)
	}

	if rec, err := r.roles.GetRole(ctx, delegateID); err == nil {
		removed := rec.Source == models.RoleSourceRemoved
		if !removed && (rec.Role != models.RoleDelegate || rec.OrganizationKey != owner.ID) {
			return models.Actor{}, fmt.Errorf("%w: %s belongs to another organization", models.ErrForbidden, delegateID)
		}
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.Actor{}, err
	}

	now := r.now().UTC()
	entry := models.RosterEntry{DelegateID: delegateID, OwnerID: owner.ID, DisplayName: displayName, AddedAt: now}
	if err := r.roles.SaveRosterEntry(ctx, entry); err != nil {
		return models.Actor{}, err
	}
	rec := models.RoleRecord{
		ActorID:         delegateID,
		Role:            models.RoleDelegate,
		DisplayName:     displayName,
		OrganizationKey: owner.ID,
		Source:          models.RoleSourceRoster,
		AssignedAt:      now,
	}
	if err := r.roles.SaveRole(ctx, rec); err != nil {
		return models.Actor{}, err
	}
	r.logger.InfoContext(ctx, "identity: delegate added", "owner_id", owner.ID, "delegate_id", delegateID)
	return rec.Actor(), nil
}

// RemoveDelegate takes delegateID off the roster and leaves a removed role
// record behind, so the actor resolves to nothing rather than falling through
// to auto-provisioning. Records it authored keep their captured author
// display.
func (r *Resolver) RemoveDelegate(ctx context.Context, owner models.Actor, delegateID string) error {
	if !owner.IsOwner() {
		return fmt.Errorf("%w: only owners manage delegates", models.ErrForbidden)
	}
	entry, err := r.roles.RosterEntry(ctx, delegateID)
	if errors.Is(err, models.ErrNotFound) || (err == nil && entry.OwnerID != owner.ID) {
		return models.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := r.roles.DeleteRosterEntry(ctx, delegateID); err != nil {
		return err
	}
	tombstone := models.RoleRecord{
		ActorID:         delegateID,
		Role:            models.RoleDelegate,
		DisplayName:     entry.DisplayName,
		OrganizationKey: owner.ID,
		Source:          models.RoleSourceRemoved,
		AssignedAt:      r.now().UTC(),
	}
	if err := r.roles.SaveRole(ctx, tombstone); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "identity: delegate removed", "owner_id", owner.ID, "delegate_id", delegateID)
	return nil
}

func (r *Resolver) Roster(ctx context.Context, owner models.Actor) ([]models.RosterEntry, error) {
	if !owner.IsOwner() {
		return nil, fmt.Errorf("%w: only owners list delegates", models.ErrForbidden)
	}
	return r.roles.ListRoster(ctx, owner.ID)
}
