package memory

import (
	"context" // request-scoped context (timeouts, cancellation)
	"fmt"
	"sort"
	"sync"

	interfaces "github.com/sheikh-saqib/bookkeeping-approvals/internal/interfaces" // interface RecordStore
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"                // domain models: FinanceRecord
)

// MemoryRecordStore is an in-memory implementation of interfaces.RecordStore.
// Writes are compare-and-swap on the record version, so concurrent callers
// get the same optimistic behaviour as the postgres store.
type MemoryRecordStore struct {
	mu        sync.RWMutex                    // protects records and sequences
	records   map[string]models.FinanceRecord // record id -> record
	sequences map[string]int64                // organization/name -> last issued value
}

// NewMemoryRecordStore creates an empty store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records:   make(map[string]models.FinanceRecord),
		sequences: make(map[string]int64),
	}
}

// Insert adds a new record. The scope must be allowed to write it.
func (m *MemoryRecordStore) Insert(ctx context.Context, scope models.Scope, rec models.FinanceRecord) error {
	m.mu.Lock()         // lock the mutex to prevent concurrent writes
	defer m.mu.Unlock() // unlock automatically when function exits

	if _, exists := m.records[rec.ID]; exists {
		return fmt.Errorf("insert %s: duplicate id", rec.ID)
	}
	if !scope.CanInsert(rec) {
		return fmt.Errorf("insert %s: %w", rec.ID, models.ErrForbidden)
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryRecordStore) Get(ctx context.Context, scope models.Scope, id string) (models.FinanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok || !scope.CanRead(rec) {
		return models.FinanceRecord{}, models.ErrNotFound
	}
	return rec, nil
}

// Find returns every record matching q, oldest first.
func (m *MemoryRecordStore) Find(ctx context.Context, q models.RecordQuery) ([]models.FinanceRecord, error) {
	m.mu.RLock()         // lock to prevent concurrent modification while reading
	defer m.mu.RUnlock() // unlock automatically at the end

	result := make([]models.FinanceRecord, 0)
	for _, rec := range m.records {
		if q.Matches(rec) {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MemoryRecordStore) Update(ctx context.Context, scope models.Scope, rec models.FinanceRecord, expectedVersion int64) (models.FinanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[rec.ID]
	if !ok || !scope.CanRead(stored) {
		return models.FinanceRecord{}, models.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return models.FinanceRecord{}, fmt.Errorf("update %s: have version %d, want %d: %w",
			rec.ID, stored.Version, expectedVersion, models.ErrStaleWrite)
	}

	// Creation-time fields belong to the stored row, whatever the caller sent.
	rec.OrganizationKey = stored.OrganizationKey
	rec.AuthorID = stored.AuthorID
	rec.AuthorDisplay = stored.AuthorDisplay
	rec.Kind = stored.Kind
	rec.CreatedAt = stored.CreatedAt

	if !scope.CanWrite(stored, rec) {
		return models.FinanceRecord{}, fmt.Errorf("update %s: %w", rec.ID, models.ErrForbidden)
	}
	rec.Version = stored.Version + 1
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *MemoryRecordStore) Delete(ctx context.Context, scope models.Scope, id string, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[id]
	if !ok || !scope.CanRead(stored) {
		return models.ErrNotFound
	}
	if !scope.CanDelete(stored) {
		return fmt.Errorf("delete %s: %w", id, models.ErrForbidden)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("delete %s: have version %d, want %d: %w",
			id, stored.Version, expectedVersion, models.ErrStaleWrite)
	}
	delete(m.records, id)
	return nil
}

func (m *MemoryRecordStore) FundTotals(ctx context.Context, scope models.Scope) (models.FundSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := models.NewFundSnapshot()
	if scope.ActorID == "" {
		return totals, models.ErrForbidden
	}
	for _, rec := range m.records {
		if rec.OrganizationKey == scope.OrganizationKey {
			totals.Add(rec)
		}
	}
	return totals, nil
}

func (m *MemoryRecordStore) NextSequence(ctx context.Context, organizationKey, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := organizationKey + "/" + name
	m.sequences[key]++
	return m.sequences[key], nil
}

// Compile-time check: ensure MemoryRecordStore implements RecordStore
var _ interfaces.RecordStore = (*MemoryRecordStore)(nil)
