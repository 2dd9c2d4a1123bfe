package postgres

import (
	"context"
	"database/sql"

	interfaces "github.com/sheikh-saqib/bookkeeping-approvals/internal/interfaces"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

// PostgresRoleStore keeps role assignments and the delegate roster. These
// tables are administrative and carry no row-level policies.
type PostgresRoleStore struct {
	db *sql.DB
}

func NewPostgresRoleStore(db *sql.DB) *PostgresRoleStore {
	return &PostgresRoleStore{db: db}
}

func (p *PostgresRoleStore) GetRole(ctx context.Context, actorID string) (models.RoleRecord, error) {
	const query = `SELECT actor_id, role, display_name, organization_key, source, assigned_at
	FROM actor_roles WHERE actor_id = $1`

	var (
		rec    models.RoleRecord
		role   string
		source string
	)
	err := p.db.QueryRowContext(ctx, query, actorID).Scan(
		&rec.ActorID, &role, &rec.DisplayName, &rec.OrganizationKey, &source, &rec.AssignedAt)
	if err == sql.ErrNoRows {
		return models.RoleRecord{}, models.ErrNotFound
	}
	if err != nil {
		return models.RoleRecord{}, classify(err)
	}
	rec.Role = models.Role(role)
	rec.Source = models.RoleSource(source)
	return rec, nil
}

func (p *PostgresRoleStore) SaveRole(ctx context.Context, rec models.RoleRecord) error {
	const query = `INSERT INTO actor_roles (actor_id, role, display_name, organization_key, source, assigned_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (actor_id) DO UPDATE SET
		role = EXCLUDED.role,
		display_name = EXCLUDED.display_name,
		organization_key = EXCLUDED.organization_key,
		source = EXCLUDED.source,
		assigned_at = EXCLUDED.assigned_at`

	_, err := p.db.ExecContext(ctx, query,
		rec.ActorID, string(rec.Role), rec.DisplayName, rec.OrganizationKey, string(rec.Source), rec.AssignedAt)
	return classify(err)
}

func (p *PostgresRoleStore) RosterEntry(ctx context.Context, delegateID string) (models.RosterEntry, error) {
	const query = `SELECT delegate_id, owner_id, display_name, added_at FROM delegate_roster WHERE delegate_id = $1`

	var e models.RosterEntry
	err := p.db.QueryRowContext(ctx, query, delegateID).Scan(&e.DelegateID, &e.OwnerID, &e.DisplayName, &e.AddedAt)
	if err == sql.ErrNoRows {
		return models.RosterEntry{}, models.ErrNotFound
	}
	if err != nil {
		return models.RosterEntry{}, classify(err)
	}
	return e, nil
}

func (p *PostgresRoleStore) SaveRosterEntry(ctx context.Context, entry models.RosterEntry) error {
	const query = `INSERT INTO delegate_roster (delegate_id, owner_id, display_name, added_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (delegate_id) DO UPDATE SET
		owner_id = EXCLUDED.owner_id,
		display_name = EXCLUDED.display_name`

	_, err := p.db.ExecContext(ctx, query, entry.DelegateID, entry.OwnerID, entry.DisplayName, entry.AddedAt)
	return classify(err)
}

func (p *PostgresRoleStore) DeleteRosterEntry(ctx context.Context, delegateID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM delegate_roster WHERE delegate_id = $1`, delegateID)
	return classify(err)
}

func (p *PostgresRoleStore) ListRoster(ctx context.Context, ownerID string) ([]models.RosterEntry, error) {
	const query = `SELECT delegate_id, owner_id, display_name, added_at FROM delegate_roster
	WHERE owner_id = $1 ORDER BY delegate_id`

	rows, err := p.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var entries []models.RosterEntry
	for rows.Next() {
		var e models.RosterEntry
		if err := rows.Scan(&e.DelegateID, &e.OwnerID, &e.DisplayName, &e.AddedAt); err != nil {
			return nil, classify(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return entries, nil
}

var _ interfaces.RoleStore = (*PostgresRoleStore)(nil)
