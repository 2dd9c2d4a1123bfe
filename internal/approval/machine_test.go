package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models/events"
)

func TestInitial(t *testing.T) {
	owner := Initial(models.RoleOwner)
	assert.Equal(t, models.StateApproved, owner.State)
	assert.Empty(t, owner.Notify)

	delegate := Initial(models.RoleDelegate)
	assert.Equal(t, models.StatePending, delegate.State)
	assert.Equal(t, events.RecordPending, delegate.Notify)
}

func TestNext(t *testing.T) {
	pending := Status{State: models.StatePending}
	approved := Status{State: models.StateApproved}
	declined := Status{State: models.StateDeclined}
	flagged := Status{State: models.StateApproved, DeletionRequested: true}

	tests := []struct {
		name   string
		cur    Status
		ev     Event
		role   models.Role
		want   Status
		noop   bool
		remove bool
		notify events.RecordEventType
	}{
		{"owner approves pending", pending, EventApprove, models.RoleOwner, approved, false, false, ""},
		{"approve approved is noop", approved, EventApprove, models.RoleOwner, approved, true, false, ""},
		{"approve declined is noop", declined, EventApprove, models.RoleOwner, declined, true, false, ""},
		{"owner declines pending", pending, EventDecline, models.RoleOwner, declined, false, false, events.RecordDeclined},
		{"decline declined is noop", declined, EventDecline, models.RoleOwner, declined, true, false, ""},
		{"delegate edit resets approved", approved, EventEdit, models.RoleDelegate, pending, false, false, events.RecordPending},
		{"delegate edit reopens declined", declined, EventEdit, models.RoleDelegate, pending, false, false, events.RecordPending},
		{"delegate edit keeps deletion flag", flagged, EventEdit, models.RoleDelegate, Status{State: models.StatePending, DeletionRequested: true}, false, false, events.RecordPending},
		{"owner edit keeps state", pending, EventEdit, models.RoleOwner, pending, false, false, ""},
		{"delegate requests deletion", approved, EventRequestDeletion, models.RoleDelegate, flagged, false, false, events.DeletionRequested},
		{"repeat deletion request is noop", flagged, EventRequestDeletion, models.RoleDelegate, flagged, true, false, ""},
		{"owner delete removes", approved, EventRequestDeletion, models.RoleOwner, approved, false, true, ""},
		{"confirm flagged removes", flagged, EventConfirmDeletion, models.RoleOwner, flagged, false, true, ""},
		{"confirm unflagged is noop", approved, EventConfirmDeletion, models.RoleOwner, approved, true, false, ""},
		{"cancel clears flag", flagged, EventCancelDeletion, models.RoleOwner, approved, false, false, ""},
		{"cancel unflagged is noop", pending, EventCancelDeletion, models.RoleOwner, pending, true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Next(tt.cur, tt.ev, tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Status)
			assert.Equal(t, tt.noop, out.NoOp)
			assert.Equal(t, tt.remove, out.Remove)
			assert.Equal(t, tt.notify, out.Notify)
		})
	}
}

func TestNextOwnerOnlyEvents(t *testing.T) {
	for _, ev := range []Event{EventApprove, EventDecline, EventConfirmDeletion, EventCancelDeletion} {
		_, err := Next(Status{State: models.StatePending, DeletionRequested: true}, ev, models.RoleDelegate)
		assert.ErrorIs(t, err, models.ErrForbidden, string(ev))
	}
}

func TestNextRejectsUnknown(t *testing.T) {
	_, err := Next(Status{State: models.StatePending}, EventSubmit, models.RoleOwner)
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)

	_, err = Next(Status{State: "archived"}, EventApprove, models.RoleOwner)
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)
}
