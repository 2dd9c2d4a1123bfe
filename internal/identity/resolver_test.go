package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/session"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/storage/memory"
)

var fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newResolver(opts ...Option) (*Resolver, *memory.MemoryRoleStore) {
	roles := memory.NewMemoryRoleStore()
	opts = append([]Option{WithClock(func() time.Time { return fixed })}, opts...)
	return NewResolver(roles, opts...), roles
}

func TestResolveExplicitRoleWins(t *testing.T) {
	r, roles := newResolver()
	ctx := context.Background()
	require.NoError(t, roles.SaveRole(ctx, models.RoleRecord{ActorID: "o1", Role: models.RoleOwner, DisplayName: "Ada"}))
	require.NoError(t, roles.SaveRosterEntry(ctx, models.RosterEntry{DelegateID: "o1", OwnerID: "o9"}))

	ctx = session.WithClaims(ctx, &session.Claims{Role: models.RoleDelegate, OrganizationKey: "o9"})
	actor, err := r.Resolve(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, actor.Role)
	assert.Equal(t, "o1", actor.OrganizationKey)
}

func TestResolveSessionClaim(t *testing.T) {
	r, _ := newResolver()
	claims := &session.Claims{Role: models.RoleDelegate, OrganizationKey: "o1", DisplayName: "Bo"}
	claims.Subject = "d1"
	ctx := session.WithClaims(context.Background(), claims)

	actor, err := r.Resolve(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.Actor{ID: "d1", Role: models.RoleDelegate, DisplayName: "Bo", OrganizationKey: "o1"}, actor)

	_, err = r.Resolve(ctx, "someone-else")
	assert.ErrorIs(t, err, models.ErrUnresolvedIdentity, "claims only describe their own subject")
}

func TestResolveRoster(t *testing.T) {
	r, roles := newResolver()
	ctx := context.Background()
	require.NoError(t, roles.SaveRosterEntry(ctx, models.RosterEntry{DelegateID: "d1", OwnerID: "o1", DisplayName: "Bo"}))

	actor, err := r.Resolve(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDelegate, actor.Role)
	assert.Equal(t, "o1", actor.OrganizationKey)
}

func TestResolveUnresolved(t *testing.T) {
	r, roles := newResolver()
	ctx := context.Background()

	_, err := r.Resolve(ctx, "stranger")
	assert.ErrorIs(t, err, models.ErrUnresolvedIdentity)
	_, err = roles.GetRole(ctx, "stranger")
	assert.ErrorIs(t, err, models.ErrNotFound, "nothing is written when provisioning is off")

	_, err = r.Resolve(ctx, "")
	assert.ErrorIs(t, err, models.ErrUnresolvedIdentity)
}

func TestResolveAutoProvisionIsPersisted(t *testing.T) {
	r, roles := newResolver(WithAutoProvisionOwner(true))
	ctx := context.Background()

	actor, err := r.Resolve(ctx, "newcomer")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, actor.Role)
	assert.Equal(t, "newcomer", actor.OrganizationKey)

	rec, err := roles.GetRole(ctx, "newcomer")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSourceAutoProvisioned, rec.Source)
	assert.Equal(t, fixed, rec.AssignedAt)
}

func TestOnboard(t *testing.T) {
	r, roles := newResolver()
	ctx := context.Background()

	actor, err := r.Onboard(ctx, "o1", "Ada")
	require.NoError(t, err)
	assert.True(t, actor.IsOwner())

	again, err := r.Onboard(ctx, "o1", "Ada")
	require.NoError(t, err)
	assert.Equal(t, actor, again)

	require.NoError(t, roles.SaveRosterEntry(ctx, models.RosterEntry{DelegateID: "d1", OwnerID: "o1"}))
	_, err = r.Onboard(ctx, "d1", "Bo")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestDelegateRoster(t *testing.T) {
	r, _ := newResolver()
	ctx := context.Background()
	owner, err := r.Onboard(ctx, "o1", "Ada")
	require.NoError(t, err)
	other, err := r.Onboard(ctx, "o2", "Di")
	require.NoError(t, err)

	d, err := r.AddDelegate(ctx, owner, "d1", "Bo")
	require.NoError(t, err)
	assert.Equal(t, "o1", d.OrganizationKey)

	resolved, err := r.Resolve(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDelegate, resolved.Role)

	_, err = r.AddDelegate(ctx, other, "d1", "Bo")
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = r.AddDelegate(ctx, d, "d2", "Cy")
	assert.ErrorIs(t, err, models.ErrForbidden)

	roster, err := r.Roster(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, roster, 1)

	assert.ErrorIs(t, r.RemoveDelegate(ctx, other, "d1"), models.ErrNotFound)
	require.NoError(t, r.RemoveDelegate(ctx, owner, "d1"))
	_, err = r.Resolve(ctx, "d1")
	assert.ErrorIs(t, err, models.ErrUnresolvedIdentity)
}

func TestRemovedDelegateIsNotAutoProvisioned(t *testing.T) {
	r, roles := newResolver(WithAutoProvisionOwner(true))
	ctx := context.Background()
	owner, err := r.Onboard(ctx, "o1", "Ada")
	require.NoError(t, err)
	_, err = r.AddDelegate(ctx, owner, "d1", "Bo")
	require.NoError(t, err)
	require.NoError(t, r.RemoveDelegate(ctx, owner, "d1"))

	_, err = r.Resolve(ctx, "d1")
	assert.ErrorIs(t, err, models.ErrUnresolvedIdentity)
	rec, err := roles.GetRole(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSourceRemoved, rec.Source)
	assert.Equal(t, models.RoleDelegate, rec.Role, "never promoted to owner")

	claims := &session.Claims{Role: models.RoleDelegate, OrganizationKey: "o1"}
	claims.Subject = "d1"
	_, err = r.Resolve(session.WithClaims(ctx, claims), "d1")
	assert.ErrorIs(t, err, models.ErrUnresolvedIdentity, "an old session claim does not revive the role")

	other, err := r.Onboard(ctx, "o2", "Di")
	require.NoError(t, err)
	readded, err := r.AddDelegate(ctx, other, "d1", "Bo")
	require.NoError(t, err)
	assert.Equal(t, "o2", readded.OrganizationKey)
	resolved, err := r.Resolve(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDelegate, resolved.Role)
}
