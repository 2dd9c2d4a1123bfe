// Package approval is the single state machine shared by every record kind.
//
// States move pending -> approved | declined, approved -> pending on a
// delegate edit, and declined -> pending on a re-edit. The deletion request
// flag is orthogonal to the approval state. Removal is not a state.
package approval

import (
	"fmt"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models/events"
)

type Event string

const (
	EventSubmit          Event = "submit"
	EventEdit            Event = "edit"
	EventApprove         Event = "approve"
	EventDecline         Event = "decline"
	EventRequestDeletion Event = "request_deletion"
	EventConfirmDeletion Event = "confirm_deletion"
	EventCancelDeletion  Event = "cancel_deletion"
)

// Status is the part of a record the machine reads.
type Status struct {
	State             models.ApprovalState
	DeletionRequested bool
}

// StatusOf extracts the machine status from a record.
func StatusOf(r models.FinanceRecord) Status {
	return Status{State: r.ApprovalState, DeletionRequested: r.DeletionRequested}
}

// Outcome is the next status plus the side effects the caller must apply.
type Outcome struct {
	Status
	// Remove asks the caller to hard-delete the record.
	Remove bool
	// NoOp means the record was not in the event's source state. Callers
	// write nothing and report success.
	NoOp bool
	// Notify is the event to emit once the write commits, if any.
	Notify events.RecordEventType
}

// Initial is the outcome of a submit event: owners are self-trusted.
func Initial(role models.Role) Outcome {
	if role == models.RoleOwner {
		return Outcome{Status: Status{State: models.StateApproved}}
	}
	return Outcome{Status: Status{State: models.StatePending}, Notify: events.RecordPending}
}

// Next computes the transition for ev applied by an actor holding role.
// Owner-only events return models.ErrForbidden for delegates.
func Next(cur Status, ev Event, role models.Role) (Outcome, error) {
	if !cur.State.Valid() {
		return Outcome{}, fmt.Errorf("%w: unknown state %q", models.ErrInvalidStateTransition, cur.State)
	}
	owner := role == models.RoleOwner
	noop := Outcome{Status: cur, NoOp: true}

	switch ev {
	case EventEdit:
		if owner {
			return Outcome{Status: cur}, nil
		}
		// An edit is a new proposal regardless of what was approved before.
		return Outcome{
			Status: Status{State: models.StatePending, DeletionRequested: cur.DeletionRequested},
			Notify: events.RecordPending,
		}, nil

	case EventApprove:
		if !owner {
			return Outcome{}, fmt.Errorf("%w: only the owner approves", models.ErrForbidden)
		}
		if cur.State != models.StatePending {
			return noop, nil
		}
		next := cur
		next.State = models.StateApproved
		return Outcome{Status: next}, nil

	case EventDecline:
		if !owner {
			return Outcome{}, fmt.Errorf("%w: only the owner declines", models.ErrForbidden)
		}
		if cur.State != models.StatePending {
			return noop, nil
		}
		next := cur
		next.State = models.StateDeclined
		return Outcome{Status: next, Notify: events.RecordDeclined}, nil

	case EventRequestDeletion:
		if owner {
			return Outcome{Status: cur, Remove: true}, nil
		}
		if cur.DeletionRequested {
			return noop, nil
		}
		next := cur
		next.DeletionRequested = true
		return Outcome{Status: next, Notify: events.DeletionRequested}, nil

	case EventConfirmDeletion:
		if !owner {
			return Outcome{}, fmt.Errorf("%w: only the owner confirms deletions", models.ErrForbidden)
		}
		if !cur.DeletionRequested {
			return noop, nil
		}
		return Outcome{Status: cur, Remove: true}, nil

	case EventCancelDeletion:
		if !owner {
			return Outcome{}, fmt.Errorf("%w: only the owner cancels deletions", models.ErrForbidden)
		}
		if !cur.DeletionRequested {
			return noop, nil
		}
		next := cur
		next.DeletionRequested = false
		return Outcome{Status: next}, nil
	}
	return Outcome{}, fmt.Errorf("%w: event %q", models.ErrInvalidStateTransition, ev)
}
