package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/access"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/approval"
	interfaces "github.com/sheikh-saqib/bookkeeping-approvals/internal/interfaces"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models/events"
)

// Resolver turns an actor id into a resolved actor.
type Resolver interface {
	Resolve(ctx context.Context, actorID string) (models.Actor, error)
}

// Ledger is the approval and visibility engine. Each method is one
// request against the store; nothing is cached between calls.
type Ledger struct {
	store    interfaces.RecordStore
	resolver Resolver
	sink     interfaces.NotificationSink
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Ledger)

func WithNotificationSink(s interfaces.NotificationSink) Option {
	return func(l *Ledger) { l.sink = s }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger wires the engine to a record store and an identity resolver.
func NewLedger(store interfaces.RecordStore, resolver Resolver, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		resolver: resolver,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Propose creates a record. Owner records are approved on creation,
// delegate records start pending and notify the owner.
func (l *Ledger) Propose(ctx context.Context, actorID string, payload models.Payload) (models.MutationResult, error) {
	actor, err := l.resolver.Resolve(ctx, actorID)
	if err != nil {
		return models.MutationResult{}, err
	}
	if payload == nil {
		return models.MutationResult{}, fmt.Errorf("%w: payload is required", models.ErrInvalidPayload)
	}
	if err := payload.Validate(); err != nil {
		return models.MutationResult{}, err
	}

	out := approval.Initial(actor.Role)
	now := l.now().UTC()
	rec := models.FinanceRecord{
		ID:              l.newID(),
		Kind:            payload.Kind(),
		OrganizationKey: actor.OrganizationKey,
		AuthorID:        actor.ID,
		AuthorDisplay:   actor.AuthorDisplay(),
		Payload:         payload,
		ApprovalState:   out.State,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	warnings, err := l.fundWarnings(ctx, actor, rec, nil)
	if err != nil {
		return models.MutationResult{}, err
	}
	if err := l.store.Insert(ctx, access.ScopeFor(actor), rec); err != nil {
		return models.MutationResult{}, fmt.Errorf("propose %s: %w", rec.Kind, err)
	}

	l.logger.InfoContext(ctx, "ledger: record proposed",
		"record_id", rec.ID,
		"kind", string(rec.Kind),
		"actor_id", actor.ID,
		"state", string(rec.ApprovalState),
	)
	l.notify(ctx, actor, rec, out.Notify)
	return models.MutationResult{Record: rec, Warnings: warnings}, nil
}

// Update replaces a record's payload. A delegate edit always puts the record
// back to pending; an owner edit keeps its state. expectedVersion of zero
// skips the caller-side version check; the store write is conditional
// either way.
func (l *Ledger) Update(ctx context.Context, actorID, id string, payload models.Payload, expectedVersion int64) (models.MutationResult, error) {
	actor, rec, err := l.load(ctx, actorID, id)
	if err != nil {
		return models.MutationResult{}, err
	}
	if err := access.Authorize(actor, access.OpUpdate, rec); err != nil {
		return models.MutationResult{}, err
	}
	if payload == nil || payload.Kind() != rec.Kind {
		return models.MutationResult{}, fmt.Errorf("%w: payload does not match %s record", models.ErrInvalidPayload, rec.Kind)
	}
	if err := payload.Validate(); err != nil {
		return models.MutationResult{}, err
	}
	if expectedVersion != 0 && expectedVersion != rec.Version {
		return models.MutationResult{}, fmt.Errorf("update %s: have version %d, want %d: %w",
			id, rec.Version, expectedVersion, models.ErrStaleWrite)
	}

	out, err := approval.Next(approval.StatusOf(rec), approval.EventEdit, actor.Role)
	if err != nil {
		return models.MutationResult{}, err
	}

	next := rec
	next.Payload = payload
	next.ApprovalState = out.State
	next.DeletionRequested = out.DeletionRequested
	next.UpdatedAt = l.now().UTC()

	warnings, err := l.fundWarnings(ctx, actor, next, &rec)
	if err != nil {
		return models.MutationResult{}, err
	}
	updated, err := l.store.Update(ctx, access.ScopeFor(actor), next, rec.Version)
	if err != nil {
		return models.MutationResult{}, err
	}

	l.logger.InfoContext(ctx, "ledger: record updated",
		"record_id", id,
		"actor_id", actor.ID,
		"state", string(updated.ApprovalState),
		"version", updated.Version,
	)
	l.notify(ctx, actor, updated, out.Notify)
	return models.MutationResult{Record: updated, Warnings: warnings}, nil
}

// RetractOutcome reports what a delete request did.
type RetractOutcome struct {
	Deleted           bool                  `json:"deleted"`
	DeletionRequested bool                  `json:"deletion_requested"`
	Record            *models.FinanceRecord `json:"record,omitempty"`
}

// Retract deletes a record for owners and flags it for deletion for
// delegates. A flagged record keeps counting until the owner confirms.
func (l *Ledger) Retract(ctx context.Context, actorID, id string) (RetractOutcome, error) {
	actor, rec, err := l.load(ctx, actorID, id)
	if err != nil {
		return RetractOutcome{}, err
	}
	if err := access.Authorize(actor, access.OpDelete, rec); err != nil {
		return RetractOutcome{}, err
	}
	out, err := approval.Next(approval.StatusOf(rec), approval.EventRequestDeletion, actor.Role)
	if err != nil {
		return RetractOutcome{}, err
	}

	scope := access.ScopeFor(actor)
	switch {
	case out.Remove:
		if err := l.store.Delete(ctx, scope, id, rec.Version); err != nil {
			return RetractOutcome{}, err
		}
		l.logger.InfoContext(ctx, "ledger: record deleted", "record_id", id, "actor_id", actor.ID)
		return RetractOutcome{Deleted: true}, nil
	case out.NoOp:
		return RetractOutcome{DeletionRequested: true, Record: &rec}, nil
	}

	next := rec
	next.DeletionRequested = true
	next.DeletionRequestedBy = actor.ID
	next.UpdatedAt = l.now().UTC()
	updated, err := l.store.Update(ctx, scope, next, rec.Version)
	if err != nil {
		return RetractOutcome{}, err
	}
	l.logger.InfoContext(ctx, "ledger: deletion requested", "record_id", id, "actor_id", actor.ID)
	l.notify(ctx, actor, updated, out.Notify)
	return RetractOutcome{DeletionRequested: true, Record: &updated}, nil
}

// NextInvoiceNumber issues the organization's next invoice number.
func (l *Ledger) NextInvoiceNumber(ctx context.Context, actorID string) (string, error) {
	actor, err := l.resolver.Resolve(ctx, actorID)
	if err != nil {
		return "", err
	}
	n, err := l.store.NextSequence(ctx, actor.OrganizationKey, "invoice")
	if err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%06d", n), nil
}

// load resolves the actor and fetches a record it can see. Records outside
// the actor's visibility are reported as not found.
func (l *Ledger) load(ctx context.Context, actorID, id string) (models.Actor, models.FinanceRecord, error) {
	actor, err := l.resolver.Resolve(ctx, actorID)
	if err != nil {
		return models.Actor{}, models.FinanceRecord{}, err
	}
	rec, err := l.store.Get(ctx, access.ScopeFor(actor), id)
	if err != nil {
		return models.Actor{}, models.FinanceRecord{}, err
	}
	if !access.CanRead(actor, rec) {
		return models.Actor{}, models.FinanceRecord{}, models.ErrNotFound
	}
	return actor, rec, nil
}

func (l *Ledger) notify(ctx context.Context, actor models.Actor, rec models.FinanceRecord, typ events.RecordEventType) {
	if l.sink == nil || typ == "" {
		return
	}
	ev := events.RecordEvent{
		OrganizationKey: rec.OrganizationKey,
		Kind:            rec.Kind,
		RecordID:        rec.ID,
		Type:            typ,
		ActorID:         actor.ID,
		OccurredAt:      l.now().UTC(),
	}
	if err := l.sink.Notify(ctx, ev); err != nil {
		l.logger.WarnContext(ctx, "ledger: notification failed",
			"record_id", rec.ID,
			"event", string(typ),
			"error", err,
		)
	}
}

func isUnresolved(err error) bool {
	return errors.Is(err, models.ErrUnresolvedIdentity)
}
