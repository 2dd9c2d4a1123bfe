package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

var (
	ownerScope    = models.Scope{ActorID: "o1", OrganizationKey: "o1", Owner: true}
	delegateScope = models.Scope{ActorID: "d1", OrganizationKey: "o1"}
	peerScope     = models.Scope{ActorID: "d2", OrganizationKey: "o1"}
	foreignScope  = models.Scope{ActorID: "o2", OrganizationKey: "o2", Owner: true}
)

func pendingClient(id string) models.FinanceRecord {
	return models.FinanceRecord{
		ID:              id,
		Kind:            models.KindClient,
		OrganizationKey: "o1",
		AuthorID:        "d1",
		AuthorDisplay:   "delegate: Bo",
		Payload:         models.Client{Name: "Acme"},
		ApprovalState:   models.StatePending,
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMemoryRecordStoreScopes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRecordStore()
	require.NoError(t, s.Insert(ctx, delegateScope, pendingClient("c1")))

	_, err := s.Get(ctx, delegateScope, "c1")
	assert.NoError(t, err)
	_, err = s.Get(ctx, ownerScope, "c1")
	assert.NoError(t, err)
	_, err = s.Get(ctx, peerScope, "c1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.Get(ctx, foreignScope, "c1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	found, err := s.Find(ctx, models.RecordQuery{Scope: foreignScope})
	require.NoError(t, err)
	assert.Empty(t, found)

	approved := pendingClient("c2")
	approved.ApprovalState = models.StateApproved
	assert.ErrorIs(t, s.Insert(ctx, delegateScope, approved), models.ErrForbidden)
}

func TestMemoryRecordStoreUpdateIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRecordStore()
	require.NoError(t, s.Insert(ctx, delegateScope, pendingClient("c1")))

	rec, err := s.Get(ctx, ownerScope, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)

	rec.ApprovalState = models.StateApproved
	rec.OrganizationKey = "o2"
	rec.AuthorDisplay = "owner: someone else"
	updated, err := s.Update(ctx, ownerScope, rec, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "o1", updated.OrganizationKey)
	assert.Equal(t, "delegate: Bo", updated.AuthorDisplay)

	_, err = s.Update(ctx, ownerScope, rec, 1)
	assert.ErrorIs(t, err, models.ErrStaleWrite)

	assert.ErrorIs(t, s.Delete(ctx, ownerScope, "c1", 1), models.ErrStaleWrite)
	assert.ErrorIs(t, s.Delete(ctx, delegateScope, "c1", 2), models.ErrForbidden)
	require.NoError(t, s.Delete(ctx, ownerScope, "c1", 2))
	assert.ErrorIs(t, s.Delete(ctx, ownerScope, "c1", 2), models.ErrNotFound)
}

func TestMemoryRecordStoreDelegateEditOfApprovedRow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRecordStore()
	require.NoError(t, s.Insert(ctx, delegateScope, pendingClient("c1")))

	rec, err := s.Get(ctx, ownerScope, "c1")
	require.NoError(t, err)
	rec.ApprovalState = models.StateApproved
	approved, err := s.Update(ctx, ownerScope, rec, 1)
	require.NoError(t, err)

	rewritten := approved
	rewritten.Payload = models.Client{Name: "Acme Holdings"}
	_, err = s.Update(ctx, delegateScope, rewritten, approved.Version)
	assert.ErrorIs(t, err, models.ErrForbidden)

	stored, err := s.Get(ctx, ownerScope, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.Client{Name: "Acme"}, stored.Payload)
	assert.Equal(t, models.StateApproved, stored.ApprovalState)

	flagged := approved
	flagged.DeletionRequested = true
	flagged, err = s.Update(ctx, delegateScope, flagged, approved.Version)
	require.NoError(t, err)
	assert.Equal(t, models.StateApproved, flagged.ApprovalState)

	rewritten = flagged
	rewritten.Payload = models.Client{Name: "Acme Holdings"}
	rewritten.ApprovalState = models.StatePending
	updated, err := s.Update(ctx, delegateScope, rewritten, flagged.Version)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, updated.ApprovalState)
}

func TestMemoryRecordStoreConcurrentWritersOneWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRecordStore()
	require.NoError(t, s.Insert(ctx, delegateScope, pendingClient("c1")))
	rec, err := s.Get(ctx, ownerScope, "c1")
	require.NoError(t, err)
	rec.ApprovalState = models.StateApproved

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Update(ctx, ownerScope, rec, 1); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemoryRecordStoreFundTotals(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRecordStore()
	deposit := models.FinanceRecord{
		ID:              "f1",
		Kind:            models.KindFund,
		OrganizationKey: "o1",
		AuthorID:        "o1",
		Payload:         models.FundEntry{Direction: models.FundDeposit, Amount: decimal.NewFromInt(100), Date: time.Now()},
		ApprovalState:   models.StateApproved,
	}
	require.NoError(t, s.Insert(ctx, ownerScope, deposit))

	withdrawal := deposit
	withdrawal.ID = "f2"
	withdrawal.AuthorID = "d1"
	withdrawal.Payload = models.FundEntry{Direction: models.FundWithdrawal, Amount: decimal.NewFromInt(30), Date: time.Now()}
	withdrawal.ApprovalState = models.StatePending
	require.NoError(t, s.Insert(ctx, delegateScope, withdrawal))

	totals, err := s.FundTotals(ctx, peerScope)
	require.NoError(t, err)
	assert.True(t, totals.Balance.Equal(decimal.NewFromInt(100)), "pending withdrawals do not count")

	totals, err = s.FundTotals(ctx, foreignScope)
	require.NoError(t, err)
	assert.True(t, totals.Balance.IsZero())

	_, err = s.FundTotals(ctx, models.Scope{OrganizationKey: "o1"})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestMemoryRecordStoreSequence(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRecordStore()
	n, _ := s.NextSequence(ctx, "o1", "invoice")
	assert.Equal(t, int64(1), n)
	n, _ = s.NextSequence(ctx, "o1", "invoice")
	assert.Equal(t, int64(2), n)
	n, _ = s.NextSequence(ctx, "o2", "invoice")
	assert.Equal(t, int64(1), n)
}

func TestMemoryRoleStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRoleStore()

	_, err := s.GetRole(ctx, "o1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.SaveRosterEntry(ctx, models.RosterEntry{DelegateID: "d2", OwnerID: "o1"}))
	require.NoError(t, s.SaveRosterEntry(ctx, models.RosterEntry{DelegateID: "d1", OwnerID: "o1"}))
	require.NoError(t, s.SaveRosterEntry(ctx, models.RosterEntry{DelegateID: "x1", OwnerID: "o2"}))

	roster, err := s.ListRoster(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "d1", roster[0].DelegateID)

	require.NoError(t, s.DeleteRosterEntry(ctx, "d1"))
	_, err = s.RosterEntry(ctx, "d1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
