package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/access"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/approval"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

// Transition is the result of an owner review action.
type Transition struct {
	Record  *models.FinanceRecord `json:"record,omitempty"`
	Applied bool                  `json:"applied"`
	Removed bool                  `json:"removed"`
}

// Approve moves a pending record to approved. expectedVersion is the
// version the owner reviewed and is required; a record edited since then is
// rejected with models.ErrStaleWrite instead of being approved.
func (l *Ledger) Approve(ctx context.Context, actorID, id string, expectedVersion int64) (Transition, error) {
	if err := requireReviewedVersion(approval.EventApprove, expectedVersion); err != nil {
		return Transition{}, err
	}
	return l.review(ctx, actorID, id, approval.EventApprove, expectedVersion)
}

// Decline moves a pending record to declined. Declined records never count
// until their author edits them back to pending.
func (l *Ledger) Decline(ctx context.Context, actorID, id string, expectedVersion int64) (Transition, error) {
	if err := requireReviewedVersion(approval.EventDecline, expectedVersion); err != nil {
		return Transition{}, err
	}
	return l.review(ctx, actorID, id, approval.EventDecline, expectedVersion)
}

func requireReviewedVersion(ev approval.Event, v int64) error {
	if v < 1 {
		return fmt.Errorf("%w: %s requires the reviewed record version", models.ErrInvalidPayload, ev)
	}
	return nil
}

// ConfirmDeletion hard-deletes a record flagged for deletion. The deletion
// flag is the reviewed fact, so no version is pinned here.
func (l *Ledger) ConfirmDeletion(ctx context.Context, actorID, id string) (Transition, error) {
	return l.review(ctx, actorID, id, approval.EventConfirmDeletion, 0)
}

// CancelDeletion clears a deletion request and leaves the approval state as is.
func (l *Ledger) CancelDeletion(ctx context.Context, actorID, id string) (Transition, error) {
	return l.review(ctx, actorID, id, approval.EventCancelDeletion, 0)
}

// review applies an owner-only event. Records already past the event's source
// state are idempotent no-ops, so duplicate approvals from concurrent owner
// sessions both succeed and only the winning write has side effects.
func (l *Ledger) review(ctx context.Context, actorID, id string, ev approval.Event, expectedVersion int64) (Transition, error) {
	actor, rec, err := l.load(ctx, actorID, id)
	if errors.Is(err, models.ErrNotFound) {
		return Transition{}, fmt.Errorf("%w: %s %s: record does not exist", models.ErrInvalidStateTransition, ev, id)
	}
	if err != nil {
		return Transition{}, err
	}
	if err := access.Authorize(actor, access.OpReview, rec); err != nil {
		return Transition{}, err
	}

	out, err := approval.Next(approval.StatusOf(rec), ev, actor.Role)
	if err != nil {
		return Transition{}, err
	}
	if out.NoOp {
		return Transition{Record: &rec}, nil
	}
	// Zero is only passed for the deletion events.
	if expectedVersion != 0 && expectedVersion != rec.Version {
		return Transition{}, fmt.Errorf("%s %s: have version %d, want %d: %w",
			ev, id, rec.Version, expectedVersion, models.ErrStaleWrite)
	}

	scope := access.ScopeFor(actor)
	if out.Remove {
		err := l.store.Delete(ctx, scope, id, rec.Version)
		if err != nil {
			return l.afterConflict(ctx, actor, id, ev, err)
		}
		l.logger.InfoContext(ctx, "ledger: deletion confirmed", "record_id", id, "actor_id", actor.ID)
		return Transition{Applied: true, Removed: true}, nil
	}

	next := rec
	next.ApprovalState = out.State
	next.DeletionRequested = out.DeletionRequested
	if !next.DeletionRequested {
		next.DeletionRequestedBy = ""
	}
	next.UpdatedAt = l.now().UTC()

	updated, err := l.store.Update(ctx, scope, next, rec.Version)
	if err != nil {
		return l.afterConflict(ctx, actor, id, ev, err)
	}

	l.logger.InfoContext(ctx, "ledger: record reviewed",
		"record_id", id,
		"event", string(ev),
		"actor_id", actor.ID,
		"state", string(updated.ApprovalState),
	)
	l.notify(ctx, actor, updated, out.Notify)
	return Transition{Record: &updated, Applied: true}, nil
}

// afterConflict decides what a lost conditional write means. If a concurrent
// writer already produced the outcome this event wanted, the call is a no-op;
// any other change since the read is a stale write.
func (l *Ledger) afterConflict(ctx context.Context, actor models.Actor, id string, ev approval.Event, writeErr error) (Transition, error) {
	if !errors.Is(writeErr, models.ErrStaleWrite) && !errors.Is(writeErr, models.ErrNotFound) {
		return Transition{}, writeErr
	}

	current, err := l.store.Get(ctx, access.ScopeFor(actor), id)
	if errors.Is(err, models.ErrNotFound) {
		if ev == approval.EventConfirmDeletion {
			return Transition{Removed: true}, nil
		}
		return Transition{}, fmt.Errorf("%w: %s %s: record does not exist", models.ErrInvalidStateTransition, ev, id)
	}
	if err != nil {
		return Transition{}, err
	}

	out, err := approval.Next(approval.StatusOf(current), ev, actor.Role)
	if err != nil {
		return Transition{}, err
	}
	if out.NoOp {
		return Transition{Record: &current}, nil
	}
	return Transition{}, fmt.Errorf("%s %s: record changed during review: %w", ev, id, models.ErrStaleWrite)
}
