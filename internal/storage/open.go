// Package storage selects the record and role store backends.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	interfaces "github.com/sheikh-saqib/bookkeeping-approvals/internal/interfaces"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/storage/memory"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/storage/postgres"
)

// Stores bundles the backends the engine needs.
type Stores struct {
	Records interfaces.RecordStore
	Roles   interfaces.RoleStore
	close   func() error
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to postgres and applies the schema when databaseURL is set,
// and falls back to in-memory stores otherwise.
func Open(ctx context.Context, databaseURL string) (*Stores, error) {
	if databaseURL == "" {
		return &Stores{
			Records: memory.NewMemoryRecordStore(),
			Roles:   memory.NewMemoryRoleStore(),
		}, nil
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Stores{
		Records: postgres.NewPostgresRecordStore(db),
		Roles:   postgres.NewPostgresRoleStore(db),
		close:   db.Close,
	}, nil
}
