package models

import "time"

// Role is the tier an actor occupies inside an organization.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleDelegate Role = "delegate"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleDelegate
}

// Actor is a resolved identity. OrganizationKey equals ID for owners and the
// supervising owner's ID for delegates.
type Actor struct {
	ID              string `json:"id"`
	Role            Role   `json:"role"`
	DisplayName     string `json:"display_name"`
	OrganizationKey string `json:"organization_key"`
}

func (a Actor) IsOwner() bool {
	return a.Role == RoleOwner
}

// AuthorDisplay is the label captured on records at creation time.
func (a Actor) AuthorDisplay() string {
	name := a.DisplayName
	if name == "" {
		name = a.ID
	}
	return string(a.Role) + ": " + name
}

// RoleSource records where a persisted role assignment came from.
type RoleSource string

const (
	RoleSourceExplicit        RoleSource = "explicit"
	RoleSourceRoster          RoleSource = "roster"
	RoleSourceAutoProvisioned RoleSource = "auto_provisioned"
	// RoleSourceRemoved marks a delegate taken off a roster. The record stays
	// so the actor is never re-resolved through a later fallback.
	RoleSourceRemoved RoleSource = "removed"
)

// RoleRecord is an explicit role assignment.
type RoleRecord struct {
	ActorID         string     `json:"actor_id"`
	Role            Role       `json:"role"`
	DisplayName     string     `json:"display_name"`
	OrganizationKey string     `json:"organization_key"`
	Source          RoleSource `json:"source"`
	AssignedAt      time.Time  `json:"assigned_at"`
}

// Actor converts the assignment into a resolved actor.
func (r RoleRecord) Actor() Actor {
	org := r.OrganizationKey
	if r.Role == RoleOwner || org == "" {
		org = r.ActorID
	}
	return Actor{ID: r.ActorID, Role: r.Role, DisplayName: r.DisplayName, OrganizationKey: org}
}

// RosterEntry links a delegate to the owner they report to.
type RosterEntry struct {
	DelegateID  string    `json:"delegate_id"`
	OwnerID     string    `json:"owner_id"`
	DisplayName string    `json:"display_name"`
	AddedAt     time.Time `json:"added_at"`
}
