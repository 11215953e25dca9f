// Package store persists simulation runs and their result series in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the run store.
const schemaV1 = `
-- One row per simulation run
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    label TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,

    -- Core parameters, denormalized for listing without a join
    seed INTEGER NOT NULL,
    n_agents INTEGER NOT NULL,
    start REAL NOT NULL,
    stop REAL NOT NULL,
    dt REAL NOT NULL,

    -- Final value of every series, as JSON {"module.name": value}
    summary TEXT NOT NULL DEFAULT '{}'
);

-- Result series values, one row per (series, timestep)
CREATE TABLE IF NOT EXISTS series (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    module TEXT NOT NULL,
    name TEXT NOT NULL,
    idx INTEGER NOT NULL,
    value REAL NOT NULL,
    PRIMARY KEY (run_id, module, name, idx)
);
CREATE INDEX IF NOT EXISTS idx_series_run ON series(run_id);

-- Schema versioning
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates the schema if needed and records the schema version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	var version int
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
			return fmt.Errorf("store: record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("store: read schema version: %w", err)
	case version > SchemaVersion:
		return fmt.Errorf("store: database schema version %d is newer than supported %d", version, SchemaVersion)
	}
	return nil
}
