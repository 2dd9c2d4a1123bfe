// Package access holds the calling-layer role rules: which records an actor
// sees and which mutations it may attempt. Stores enforce their own copy of
// the organization predicate; nothing here replaces that.
package access

import (
	"fmt"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

// ScopeFor derives the store scope for a resolved actor.
func ScopeFor(a models.Actor) models.Scope {
	return models.Scope{
		ActorID:         a.ID,
		OrganizationKey: a.OrganizationKey,
		Owner:           a.IsOwner(),
	}
}

// Query builds the role-scoped store query for a listing. Filters only ever
// narrow the set the role allows.
func Query(a models.Actor, view models.View, f models.Filter) (models.RecordQuery, error) {
	if view == "" {
		view = models.ViewAll
	}
	if !view.Valid() {
		return models.RecordQuery{}, fmt.Errorf("%w: view %q", models.ErrInvalidPayload, view)
	}
	if f.Kind != "" && !f.Kind.Valid() {
		return models.RecordQuery{}, fmt.Errorf("%w: kind %q", models.ErrInvalidPayload, f.Kind)
	}

	q := models.RecordQuery{Scope: ScopeFor(a), Filter: f}
	if !a.IsOwner() {
		q.AuthorID = a.ID
	}

	switch view {
	case models.ViewDashboard:
		q.States = []models.ApprovalState{models.StateApproved}
	case models.ViewMySubmissions:
		q.AuthorID = a.ID
	case models.ViewPendingApprovals:
		q.States = []models.ApprovalState{models.StatePending}
	case models.ViewDeletionRequests:
		flagged := true
		q.DeletionRequested = &flagged
	}
	return q, nil
}

// CanRead reports whether the actor may see rec.
func CanRead(a models.Actor, rec models.FinanceRecord) bool {
	if a.ID == "" || rec.OrganizationKey != a.OrganizationKey {
		return false
	}
	if a.IsOwner() {
		return a.OrganizationKey == a.ID
	}
	return rec.AuthorID == a.ID
}
