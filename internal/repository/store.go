package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/oktoeat/api/internal/database"
	"github.com/oktoeat/api/internal/importer"
)

// PgStore implements the importer's write contract on the pgx connection
// pool. Batches ride on pgx's batch protocol, which runs all queued
// statements inside one implicit transaction, so a batch applies atomically.
type PgStore struct {
	db *database.Database
}

// NewPgStore creates a PgStore over the given database.
func NewPgStore(db *database.Database) *PgStore {
	return &PgStore{db: db}
}

// Exec runs a single parametrized statement.
func (s *PgStore) Exec(ctx context.Context, sql string, args ...any) error {
	if _, err := s.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// Batch applies an ordered list of statements as one unit.
func (s *PgStore) Batch(ctx context.Context, stmts []importer.Statement) error {
	batch := &pgx.Batch{}
	for _, stmt := range stmts {
		batch.Queue(stmt.SQL, stmt.Args...)
	}

	results := s.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range stmts {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to execute batch statement %d of %d: %w", i+1, len(stmts), err)
		}
	}

	return nil
}
