package ledger

import (
	"context"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/access"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

// ListVisible returns the records actorID may read in the given view,
// narrowed by f. An actor without a resolvable role gets an empty list.
func (l *Ledger) ListVisible(ctx context.Context, actorID string, view models.View, f models.Filter) ([]models.FinanceRecord, error) {
	actor, err := l.resolver.Resolve(ctx, actorID)
	if isUnresolved(err) {
		return []models.FinanceRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return l.listFor(ctx, actor, view, f)
}

func (l *Ledger) listFor(ctx context.Context, actor models.Actor, view models.View, f models.Filter) ([]models.FinanceRecord, error) {
	q, err := access.Query(actor, view, f)
	if err != nil {
		return nil, err
	}
	found, err := l.store.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	visible := make([]models.FinanceRecord, 0, len(found))
	for _, rec := range found {
		if !access.CanRead(actor, rec) || !q.Matches(rec) {
			l.logger.WarnContext(ctx, "ledger: store returned a record outside the query",
				"record_id", rec.ID,
				"actor_id", actor.ID,
			)
			continue
		}
		visible = append(visible, rec)
	}
	return visible, nil
}

// Get returns one record visible to actorID.
func (l *Ledger) Get(ctx context.Context, actorID, id string) (models.FinanceRecord, error) {
	_, rec, err := l.load(ctx, actorID, id)
	if isUnresolved(err) {
		return models.FinanceRecord{}, models.ErrNotFound
	}
	return rec, err
}

// Whoami resolves actorID.
func (l *Ledger) Whoami(ctx context.Context, actorID string) (models.Actor, error) {
	return l.resolver.Resolve(ctx, actorID)
}
