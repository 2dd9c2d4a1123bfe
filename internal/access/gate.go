package access

import (
	"fmt"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

type Op string

const (
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	// OpReview covers approve, decline and deletion-request resolution.
	OpReview Op = "review"
)

// OwnsOrganization reports whether a is the owner rec belongs to.
func OwnsOrganization(a models.Actor, rec models.FinanceRecord) bool {
	return a.IsOwner() && a.ID == rec.OrganizationKey
}

// Authorize checks that a may attempt op on rec. Whether the mutation applies
// directly or becomes a proposal is decided by the approval machine.
func Authorize(a models.Actor, op Op, rec models.FinanceRecord) error {
	switch op {
	case OpUpdate, OpDelete:
		if rec.AuthorID == a.ID && rec.OrganizationKey == a.OrganizationKey {
			return nil
		}
		if OwnsOrganization(a, rec) {
			return nil
		}
	case OpReview:
		if OwnsOrganization(a, rec) {
			return nil
		}
	default:
		return fmt.Errorf("%w: unknown operation %q", models.ErrInvalidStateTransition, op)
	}
	return fmt.Errorf("%w: %s %s by %s", models.ErrForbidden, op, rec.ID, a.ID)
}
