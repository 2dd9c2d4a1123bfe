package interfaces

import (
	"context"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

// RecordStore persists finance records. Every call carries the caller's scope
// and implementations enforce it themselves rather than trusting the caller.
type RecordStore interface {
	Insert(ctx context.Context, scope models.Scope, rec models.FinanceRecord) error
	// Get returns models.ErrNotFound for rows outside the scope as well as
	// for missing rows.
	Get(ctx context.Context, scope models.Scope, id string) (models.FinanceRecord, error)
	Find(ctx context.Context, q models.RecordQuery) ([]models.FinanceRecord, error)
	// Update stores rec if the stored version equals expectedVersion and
	// returns the row with its version incremented. A version mismatch
	// yields models.ErrStaleWrite.
	Update(ctx context.Context, scope models.Scope, rec models.FinanceRecord, expectedVersion int64) (models.FinanceRecord, error)
	// Delete hard-deletes the row under the same version precondition.
	Delete(ctx context.Context, scope models.Scope, id string, expectedVersion int64) error
	// FundTotals returns the approved fund totals of the scope's whole
	// organization. Any member may ask; only the aggregate leaves the store.
	FundTotals(ctx context.Context, scope models.Scope) (models.FundSnapshot, error)
	// NextSequence atomically increments a named per-organization counter.
	NextSequence(ctx context.Context, organizationKey, name string) (int64, error)
}
