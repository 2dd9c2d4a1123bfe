package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Scope carries the caller's identity down to the store, which applies its
// own access predicate independently of the calling layer.
type Scope struct {
	ActorID         string
	OrganizationKey string
	Owner           bool
}

// CanRead is the store-side read predicate: organization match and either
// owner scope or self-authorship.
func (s Scope) CanRead(r FinanceRecord) bool {
	if s.ActorID == "" || r.OrganizationKey != s.OrganizationKey {
		return false
	}
	return s.Owner || r.AuthorID == s.ActorID
}

// CanInsert is the store-side create check. Non-owners may only create
// pending, unflagged rows they author.
func (s Scope) CanInsert(r FinanceRecord) bool {
	if !s.CanRead(r) {
		return false
	}
	if s.Owner {
		return true
	}
	return r.ApprovalState == StatePending && !r.DeletionRequested
}

// CanWrite is the store-side write check over the stored row and its
// replacement. A non-owner write either lands on pending, or keeps both the
// approval state and the payload (a deletion request). Non-owners may not
// clear a deletion request.
func (s Scope) CanWrite(before, after FinanceRecord) bool {
	if !s.CanRead(before) || !s.CanRead(after) {
		return false
	}
	if s.Owner {
		return true
	}
	if before.DeletionRequested && !after.DeletionRequested {
		return false
	}
	if after.ApprovalState == StatePending {
		return true
	}
	return after.ApprovalState == before.ApprovalState && samePayload(before.Payload, after.Payload)
}

func samePayload(a, b Payload) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ra, rb)
}

// CanDelete permits hard deletes only to the organization owner.
func (s Scope) CanDelete(r FinanceRecord) bool {
	return s.Owner && s.CanRead(r)
}

// Filter narrows a visible set. Zero values mean "no constraint".
type Filter struct {
	Kind     Kind       `json:"kind,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Month    int        `json:"month,omitempty"`
	Year     int        `json:"year,omitempty"`
	Category string     `json:"category,omitempty"`
	Search   string     `json:"search,omitempty"`
}

// Matches applies the filter to a single record.
func (f Filter) Matches(r FinanceRecord) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	date := r.EffectiveDate()
	day := truncateDay(date)
	if f.From != nil && day.Before(truncateDay(*f.From)) {
		return false
	}
	if f.To != nil && day.After(truncateDay(*f.To)) {
		return false
	}
	if f.Year > 0 && date.Year() != f.Year {
		return false
	}
	if f.Month > 0 && int(date.Month()) != f.Month {
		return false
	}
	var facets Facets
	if r.Payload != nil {
		facets = r.Payload.Facets()
	}
	if f.Category != "" && !strings.EqualFold(facets.Category, f.Category) {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(facets.Counterparty), q) &&
			!strings.Contains(strings.ToLower(facets.Description), q) {
			return false
		}
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// View selects which role-scoped listing a caller wants.
type View string

const (
	ViewAll              View = "all"
	ViewDashboard        View = "dashboard"
	ViewMySubmissions    View = "my_submissions"
	ViewPendingApprovals View = "pending_approvals"
	ViewDeletionRequests View = "deletion_requests"
)

func (v View) Valid() bool {
	switch v {
	case ViewAll, ViewDashboard, ViewMySubmissions, ViewPendingApprovals, ViewDeletionRequests:
		return true
	}
	return false
}

// RecordQuery is the store-level form of a visibility request.
type RecordQuery struct {
	Scope             Scope
	AuthorID          string
	States            []ApprovalState
	DeletionRequested *bool
	Filter            Filter
}

// Matches evaluates the whole query, including the scope predicate.
func (q RecordQuery) Matches(r FinanceRecord) bool {
	if !q.Scope.CanRead(r) {
		return false
	}
	if q.AuthorID != "" && r.AuthorID != q.AuthorID {
		return false
	}
	if len(q.States) > 0 {
		ok := false
		for _, s := range q.States {
			if r.ApprovalState == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if q.DeletionRequested != nil && r.DeletionRequested != *q.DeletionRequested {
		return false
	}
	return q.Filter.Matches(r)
}
