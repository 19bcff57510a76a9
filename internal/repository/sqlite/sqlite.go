// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is embedded: the whole database is one file next to the binary, so a
// developer can run the API with no database server. ":memory:" gives every
// test its own throwaway database.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// modernc.org/sqlite is a pure Go translation of SQLite, so no C compiler is
// needed and cross-compilation keeps working.
//
// Production deployments use the postgres package (GORM) instead; both
// packages satisfy the same repository.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The sqlite package's init() registers the "sqlite" driver with
	// database/sql. We only need that side effect here.
	_ "modernc.org/sqlite"

	"github.com/sakif/sitebook/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/sitebook.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
//
// SINGLE CONNECTION:
// SQLite allows one writer at a time, and every connection to ":memory:"
// opens a DIFFERENT empty database. Capping the pool at one connection
// serialises writes inside database/sql and keeps in-memory tests on the
// same schema.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight (file databases only;
	// SQLite silently keeps "memory" mode for ":memory:").
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. owner_id → users(id) depends on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	// external_id is UNIQUE: the shadow-record upsert relies on ON CONFLICT(external_id).
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			external_id TEXT NOT NULL UNIQUE,
			email       TEXT NOT NULL,
			name        TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT,
			address     TEXT NOT NULL,
			budget      REAL,
			start_date  DATETIME,
			end_date    DATETIME,
			status      TEXT NOT NULL DEFAULT 'planning',
			is_public   BOOLEAN NOT NULL DEFAULT 0,
			owner_id    TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects(owner_id);
		CREATE INDEX IF NOT EXISTS idx_projects_is_public ON projects(is_public);
		CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating projects table: %w", err)
	}

	// email is UNIQUE across the whole table, not per owner.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contractors (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			email       TEXT NOT NULL UNIQUE,
			phone       TEXT,
			company     TEXT,
			trades      TEXT NOT NULL DEFAULT '[]',
			rating      REAL NOT NULL DEFAULT 0,
			owner_id    TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_contractors_owner_id ON contractors(owner_id);
		CREATE INDEX IF NOT EXISTS idx_contractors_name ON contractors(name);
	`)
	if err != nil {
		return fmt.Errorf("creating contractors table: %w", err)
	}

	return nil
}

// limitClause renders LIMIT/OFFSET for a list query. SQLite requires a LIMIT
// before OFFSET, and -1 means "no limit".
func limitClause(opts repository.ListOptions) (string, []any) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	return " LIMIT ? OFFSET ?", []any{limit, offset}
}
