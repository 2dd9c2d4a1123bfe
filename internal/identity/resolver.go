// Package identity resolves actors to roles and organizations and manages
// the delegate roster.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	interfaces "github.com/sheikh-saqib/bookkeeping-approvals/internal/interfaces"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/session"
)

// Resolver derives an actor's role and organization key.
type Resolver struct {
	roles              interfaces.RoleStore
	autoProvisionOwner bool
	logger             *slog.Logger
	now                func() time.Time
}

type Option func(*Resolver)

// WithAutoProvisionOwner makes the resolver assign an explicit owner role to
// actors nothing else resolves. The assignment is persisted and logged.
func WithAutoProvisionOwner(enabled bool) Option {
	return func(r *Resolver) { r.autoProvisionOwner = enabled }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(roles interfaces.RoleStore, opts ...Option) *Resolver {
	r := &Resolver{
		roles:  roles,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve checks, in order: the explicit role record, the role claim in the
// session on ctx, the delegate roster, and finally the auto-provisioning
// policy. Anything else is models.ErrUnresolvedIdentity.
func (r *Resolver) Resolve(ctx context.Context, actorID string) (models.Actor, error) {
	if actorID == "" {
		return models.Actor{}, models.ErrUnresolvedIdentity
	}

	rec, err := r.roles.GetRole(ctx, actorID)
	switch {
	case err == nil:
		if !rec.Role.Valid() {
			return models.Actor{}, fmt.Errorf("%w: stored role %q", models.ErrUnresolvedIdentity, rec.Role)
		}
		if rec.Source == models.RoleSourceRemoved {
			return models.Actor{}, fmt.Errorf("%w: %s was removed from its roster", models.ErrUnresolvedIdentity, actorID)
		}
		return rec.Actor(), nil
	case !errors.Is(err, models.ErrNotFound):
		return models.Actor{}, fmt.Errorf("resolve %s: %w", actorID, err)
	}

	if actor, ok := fromClaims(ctx, actorID); ok {
		return actor, nil
	}

	entry, err := r.roles.RosterEntry(ctx, actorID)
	switch {
	case err == nil:
		return models.Actor{
			ID:              actorID,
			Role:            models.RoleDelegate,
			DisplayName:     entry.DisplayName,
			OrganizationKey: entry.OwnerID,
		}, nil
	case !errors.Is(err, models.ErrNotFound):
		return models.Actor{}, fmt.Errorf("resolve %s: %w", actorID, err)
	}

	if !r.autoProvisionOwner {
		return models.Actor{}, models.ErrUnresolvedIdentity
	}
	return r.provisionOwner(ctx, actorID, displayNameFromClaims(ctx, actorID), models.RoleSourceAutoProvisioned)
}

func (r *Resolver) provisionOwner(ctx context.Context, actorID, displayName string, source models.RoleSource) (models.Actor, error) {
	rec := models.RoleRecord{
		ActorID:         actorID,
		Role:            models.RoleOwner,
		DisplayName:     displayName,
		OrganizationKey: actorID,
		Source:          source,
		AssignedAt:      r.now().UTC(),
	}
	if err := r.roles.SaveRole(ctx, rec); err != nil {
		return models.Actor{}, fmt.Errorf("provision owner %s: %w", actorID, err)
	}
	level := slog.LevelInfo
	if source == models.RoleSourceAutoProvisioned {
		level = slog.LevelWarn
	}
	r.logger.Log(ctx, level, "identity: owner role assigned",
		"actor_id", actorID,
		"source", string(source),
	)
	return rec.Actor(), nil
}

func fromClaims(ctx context.Context, actorID string) (models.Actor, bool) {
	c, ok := session.ClaimsFrom(ctx)
	if !ok || c.Subject != actorID || !c.Role.Valid() {
		return models.Actor{}, false
	}
	actor := models.Actor{ID: actorID, Role: c.Role, DisplayName: c.DisplayName, OrganizationKey: c.OrganizationKey}
	if c.Role == models.RoleOwner {
		actor.OrganizationKey = actorID
	}
	if actor.OrganizationKey == "" {
		return models.Actor{}, false
	}
	return actor, true
}

func displayNameFromClaims(ctx context.Context, actorID string) string {
	if c, ok := session.ClaimsFrom(ctx); ok && c.Subject == actorID {
		return c.DisplayName
	}
	return ""
}
