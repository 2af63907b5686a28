package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens or creates the SQLite journal database and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// single writer: the recorder
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

var pragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA busy_timeout = 5000;",
	"PRAGMA synchronous = NORMAL;",
}

const schemaPanelState = `
CREATE TABLE IF NOT EXISTS panel_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    key_status TEXT NOT NULL,
    ready BOOLEAN NOT NULL,
    controllers TEXT NOT NULL,
    components TEXT NOT NULL,
    events_processed INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaPanelEvents = `
CREATE TABLE IF NOT EXISTS panel_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    source TEXT NOT NULL,
    component TEXT NOT NULL,
    action TEXT NOT NULL,
    value TEXT,
    outcome TEXT NOT NULL,
    command TEXT
);
`

const schemaPanelEventsIndex = `
CREATE INDEX IF NOT EXISTS idx_panel_events_component_time
    ON panel_events (component, occurred_at);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range []string{
		schemaPanelState,
		schemaPanelEvents,
		schemaPanelEventsIndex,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
