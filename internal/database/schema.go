package database

import (
	"context"
	"fmt"
)

// schemaStatements bootstraps the tables the import pipeline writes into.
// Every statement is idempotent so both entry points can run it on startup
// against a fresh or an existing database.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS businesses (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		fhrs_id TEXT NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		address_line1 TEXT,
		address_line2 TEXT,
		address_line3 TEXT,
		address_line4 TEXT,
		postcode TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		rating SMALLINT,
		rating_key TEXT,
		rating_date TEXT,
		business_type TEXT,
		business_type_slug TEXT,
		local_authority TEXT,
		town TEXT,
		town_slug TEXT,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		business_count INTEGER NOT NULL DEFAULT 0,
		avg_rating DOUBLE PRECISION,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS business_types (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		business_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS import_metadata (
		id SMALLINT PRIMARY KEY,
		last_import_at TIMESTAMPTZ NOT NULL,
		records_imported INTEGER NOT NULL,
		source_url TEXT NOT NULL
	)`,
	// The read side (the public site) filters by town and type and searches
	// by name; these indexes exist for it, the importer itself only needs
	// the unique slug constraints above.
	`CREATE INDEX IF NOT EXISTS idx_businesses_town_slug ON businesses (town_slug)`,
	`CREATE INDEX IF NOT EXISTS idx_businesses_type_slug ON businesses (business_type_slug)`,
	`CREATE INDEX IF NOT EXISTS idx_businesses_name ON businesses (name)`,
}

// Schema returns the bootstrap DDL statements in execution order. The
// bulkimport CLI applies them through its own statement executor instead of
// the pool, so they are exposed rather than kept private to EnsureSchema.
func Schema() []string {
	stmts := make([]string, len(schemaStatements))
	copy(stmts, schemaStatements)
	return stmts
}

// EnsureSchema applies the bootstrap DDL through the connection pool.
func (db *Database) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
