package memory

import (
	"context"
	"sort"
	"sync"

	interfaces "github.com/sheikh-saqib/bookkeeping-approvals/internal/interfaces"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

// MemoryRoleStore keeps role assignments and the delegate roster in maps.
type MemoryRoleStore struct {
	mu     sync.RWMutex
	roles  map[string]models.RoleRecord
	roster map[string]models.RosterEntry
}

func NewMemoryRoleStore() *MemoryRoleStore {
	return &MemoryRoleStore{
		roles:  make(map[string]models.RoleRecord),
		roster: make(map[string]models.RosterEntry),
	}
}

func (m *MemoryRoleStore) GetRole(ctx context.Context, actorID string) (models.RoleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.roles[actorID]
	if !ok {
		return models.RoleRecord{}, models.ErrNotFound
	}
	return rec, nil
}

func (m *MemoryRoleStore) SaveRole(ctx context.Context, rec models.RoleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[rec.ActorID] = rec
	return nil
}

func (m *MemoryRoleStore) RosterEntry(ctx context.Context, delegateID string) (models.RosterEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.roster[delegateID]
	if !ok {
		return models.RosterEntry{}, models.ErrNotFound
	}
	return e, nil
}

func (m *MemoryRoleStore) SaveRosterEntry(ctx context.Context, entry models.RosterEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roster[entry.DelegateID] = entry
	return nil
}

func (m *MemoryRoleStore) DeleteRosterEntry(ctx context.Context, delegateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roster, delegateID)
	return nil
}

func (m *MemoryRoleStore) ListRoster(ctx context.Context, ownerID string) ([]models.RosterEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.RosterEntry
	for _, e := range m.roster {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DelegateID < out[j].DelegateID })
	return out, nil
}

var _ interfaces.RoleStore = (*MemoryRoleStore)(nil)
