package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	interfaces "github.com/sheikh-saqib/bookkeeping-approvals/internal/interfaces" // interface RecordStore
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

const recordColumns = `id, kind, organization_key, author_id, author_display, payload,
	approval_state, deletion_requested, deletion_requested_by, version, created_at, updated_at`

// setScope binds the caller to the transaction for the row-level security
// policies in schema.sql.
const setScope = `SELECT set_config('app.actor_id', $1, true),
	set_config('app.organization_key', $2, true),
	set_config('app.role', $3, true)`

type PostgresRecordStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{
		db:  db,
		now: time.Now,
	}
}

// inScope runs fn in a transaction carrying the scope's session settings.
func (p *PostgresRecordStore) inScope(ctx context.Context, scope models.Scope, fn func(dbTx *sql.Tx) error) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	role := models.RoleDelegate
	if scope.Owner {
		role = models.RoleOwner
	}
	if _, err = dbTx.ExecContext(ctx, setScope, scope.ActorID, scope.OrganizationKey, string(role)); err != nil {
		return classify(err)
	}
	if err = fn(dbTx); err != nil {
		return err
	}
	if err = dbTx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

func (p *PostgresRecordStore) Insert(ctx context.Context, scope models.Scope, rec models.FinanceRecord) error {
	if !scope.CanInsert(rec) {
		return fmt.Errorf("insert %s: %w", rec.ID, models.ErrForbidden)
	}
	payload, err := models.EncodePayload(rec.Payload)
	if err != nil {
		return err
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	facets := rec.Payload.Facets()

	const query = `INSERT INTO finance_records (id, kind, organization_key, author_id, author_display, payload,
	occurred_on, category, counterparty, description, approval_state, deletion_requested, deletion_requested_by,
	version, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

	return p.inScope(ctx, scope, func(dbTx *sql.Tx) error {
		_, err := dbTx.ExecContext(ctx, query,
			rec.ID, string(rec.Kind), rec.OrganizationKey, rec.AuthorID, rec.AuthorDisplay, payload,
			occurredOn(rec), facets.Category, facets.Counterparty, facets.Description,
			string(rec.ApprovalState), rec.DeletionRequested, rec.DeletionRequestedBy,
			rec.Version, rec.CreatedAt, rec.UpdatedAt)
		return classify(err)
	})
}

func (p *PostgresRecordStore) Get(ctx context.Context, scope models.Scope, id string) (models.FinanceRecord, error) {
	var rec models.FinanceRecord
	err := p.inScope(ctx, scope, func(dbTx *sql.Tx) error {
		var err error
		rec, err = p.get(ctx, dbTx, scope, id)
		return err
	})
	return rec, err
}

func (p *PostgresRecordStore) get(ctx context.Context, dbTx *sql.Tx, scope models.Scope, id string) (models.FinanceRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM finance_records
	WHERE id = $1 AND organization_key = $2 AND ($3 OR author_id = $4)`

	rec, err := scanRecord(dbTx.QueryRowContext(ctx, query, id, scope.OrganizationKey, scope.Owner, scope.ActorID))
	if err == sql.ErrNoRows {
		return models.FinanceRecord{}, models.ErrNotFound
	}
	if err != nil {
		return models.FinanceRecord{}, err
	}
	return rec, nil
}

func (p *PostgresRecordStore) Find(ctx context.Context, q models.RecordQuery) ([]models.FinanceRecord, error) {
	query, args := buildFind(q)

	var entries []models.FinanceRecord
	err := p.inScope(ctx, q.Scope, func(dbTx *sql.Tx) error {
		rows, err := dbTx.QueryContext(ctx, query, args...)
		if err != nil {
			return classify(err)
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				return err
			}
			entries = append(entries, rec)
		}
		return classify(rows.Err())
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// buildFind renders the visibility query. The organization and authorship
// predicate is always the first clause.
func buildFind(q models.RecordQuery) (string, []any) {
	where := []string{"organization_key = $1", "($2 OR author_id = $3)"}
	args := []any{q.Scope.OrganizationKey, q.Scope.Owner, q.Scope.ActorID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if q.AuthorID != "" {
		add("author_id = $%d", q.AuthorID)
	}
	if len(q.States) > 0 {
		states := make([]string, len(q.States))
		for i, s := range q.States {
			states[i] = string(s)
		}
		add("approval_state = ANY($%d)", pq.Array(states))
	}
	if q.DeletionRequested != nil {
		add("deletion_requested = $%d", *q.DeletionRequested)
	}

	f := q.Filter
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}
	if f.From != nil {
		add("occurred_on >= $%d", dateOnly(*f.From))
	}
	if f.To != nil {
		add("occurred_on <= $%d", dateOnly(*f.To))
	}
	if f.Year > 0 {
		add("EXTRACT(YEAR FROM occurred_on) = $%d", f.Year)
	}
	if f.Month > 0 {
		add("EXTRACT(MONTH FROM occurred_on) = $%d", f.Month)
	}
	if f.Category != "" {
		add("lower(category) = lower($%d)", f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("(counterparty ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+escapeLike(s)+"%")
	}

	query := `SELECT ` + recordColumns + ` FROM finance_records WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at, id`
	return query, args
}

func (p *PostgresRecordStore) Update(ctx context.Context, scope models.Scope, rec models.FinanceRecord, expectedVersion int64) (models.FinanceRecord, error) {
	payload, err := models.EncodePayload(rec.Payload)
	if err != nil {
		return models.FinanceRecord{}, err
	}
	facets := rec.Payload.Facets()

	// Non-owners either move their own rows to pending or keep both state
	// and payload, and may not clear a deletion request. Creation fields are
	// never in the SET list.
	const query = `UPDATE finance_records SET payload = $1, occurred_on = $2, category = $3, counterparty = $4,
	description = $5, approval_state = $6, deletion_requested = $7, deletion_requested_by = $8,
	version = version + 1, updated_at = $9
	WHERE id = $10 AND version = $11 AND organization_key = $12
	AND ($13 OR (author_id = $14 AND ($6 = 'pending' OR (approval_state = $6 AND payload = $1))
		AND (NOT deletion_requested OR $7)))
	RETURNING ` + recordColumns

	var updated models.FinanceRecord
	err = p.inScope(ctx, scope, func(dbTx *sql.Tx) error {
		row := dbTx.QueryRowContext(ctx, query,
			payload, occurredOn(rec), facets.Category, facets.Counterparty, facets.Description,
			string(rec.ApprovalState), rec.DeletionRequested, rec.DeletionRequestedBy, p.now().UTC(),
			rec.ID, expectedVersion, scope.OrganizationKey, scope.Owner, scope.ActorID)

		var err error
		updated, err = scanRecord(row)
		if err == sql.ErrNoRows {
			return p.explainMiss(ctx, dbTx, scope, rec.ID, expectedVersion)
		}
		return err
	})
	if err != nil {
		return models.FinanceRecord{}, fmt.Errorf("update %s: %w", rec.ID, err)
	}
	return updated, nil
}

func (p *PostgresRecordStore) Delete(ctx context.Context, scope models.Scope, id string, expectedVersion int64) error {
	const query = `DELETE FROM finance_records
	WHERE id = $1 AND version = $2 AND organization_key = $3 AND $4`

	err := p.inScope(ctx, scope, func(dbTx *sql.Tx) error {
		res, err := dbTx.ExecContext(ctx, query, id, expectedVersion, scope.OrganizationKey, scope.Owner)
		if err != nil {
			return classify(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return classify(err)
		}
		if n == 0 {
			return p.explainMiss(ctx, dbTx, scope, id, expectedVersion)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// explainMiss turns a zero-row conditional write into the matching error.
func (p *PostgresRecordStore) explainMiss(ctx context.Context, dbTx *sql.Tx, scope models.Scope, id string, expectedVersion int64) error {
	current, err := p.get(ctx, dbTx, scope, id)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("have version %d, want %d: %w", current.Version, expectedVersion, models.ErrStaleWrite)
	}
	return models.ErrForbidden
}

// FundTotals reads the organization aggregate through
// organization_fund_balance, which checks the caller's organization and is
// the only path by which a delegate scope sees other authors' amounts.
func (p *PostgresRecordStore) FundTotals(ctx context.Context, scope models.Scope) (models.FundSnapshot, error) {
	totals := models.NewFundSnapshot()
	err := p.inScope(ctx, scope, func(dbTx *sql.Tx) error {
		err := dbTx.QueryRowContext(ctx, `SELECT deposits, withdrawals FROM organization_fund_balance($1)`,
			scope.OrganizationKey).Scan(&totals.Deposits, &totals.Withdrawals)
		return classify(err)
	})
	if err != nil {
		return models.NewFundSnapshot(), err
	}
	totals.Balance = totals.Deposits.Sub(totals.Withdrawals)
	return totals, nil
}

func (p *PostgresRecordStore) NextSequence(ctx context.Context, organizationKey, name string) (int64, error) {
	const query = `INSERT INTO organization_sequences (organization_key, name, value) VALUES ($1, $2, 1)
	ON CONFLICT (organization_key, name) DO UPDATE SET value = organization_sequences.value + 1
	RETURNING value`

	var value int64
	if err := p.db.QueryRowContext(ctx, query, organizationKey, name).Scan(&value); err != nil {
		return 0, classify(err)
	}
	return value, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row. sql.ErrNoRows is returned as is and driver
// errors are classified. A payload that no longer decodes is a data error,
// not an outage.
func scanRecord(row scanner) (models.FinanceRecord, error) {
	var (
		rec     models.FinanceRecord
		kind    string
		state   string
		payload []byte
	)
	err := row.Scan(
		&rec.ID,
		&kind,
		&rec.OrganizationKey,
		&rec.AuthorID,
		&rec.AuthorDisplay,
		&payload,
		&state,
		&rec.DeletionRequested,
		&rec.DeletionRequestedBy,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.FinanceRecord{}, err
	}
	if err != nil {
		return models.FinanceRecord{}, classify(err)
	}
	rec.Kind = models.Kind(kind)
	rec.ApprovalState = models.ApprovalState(state)
	rec.Payload, err = models.DecodePayload(rec.Kind, payload)
	if err != nil {
		return models.FinanceRecord{}, fmt.Errorf("record %s: undecodable stored payload: %v", rec.ID, err)
	}
	return rec, nil
}

func occurredOn(rec models.FinanceRecord) time.Time {
	return dateOnly(rec.EffectiveDate())
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ interfaces.RecordStore = (*PostgresRecordStore)(nil)
