package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite tolerates a single writer best
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
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

const schemaStrategySettings = `
CREATE TABLE IF NOT EXISTS strategy_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    enabled BOOLEAN NOT NULL,
    champion_mode BOOLEAN NOT NULL,
    current_band_id INTEGER,
    pending_band_id INTEGER,
    hysteresis_counter INTEGER NOT NULL DEFAULT 0,
    current_champion_id TEXT,
    last_price REAL,
    last_action_at TIMESTAMP,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaPriceBands = `
CREATE TABLE IF NOT EXISTS price_bands (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    sort_order INTEGER UNIQUE NOT NULL,
    min_price REAL,
    max_price REAL,
    target_pool TEXT,
    mode_targets TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaEnrolledMiners = `
CREATE TABLE IF NOT EXISTS enrolled_miners (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    address TEXT NOT NULL,
    efficiency REAL NOT NULL DEFAULT 0,
    reachable BOOLEAN NOT NULL DEFAULT 0,
    last_seen TIMESTAMP,
    enrolled_at TIMESTAMP NOT NULL
);
`

const schemaStrategyEvents = `
CREATE TABLE IF NOT EXISTS strategy_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    miner_id TEXT,
    message TEXT NOT NULL,
    meta TEXT
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaStrategySettings,
		schemaPriceBands,
		schemaEnrolledMiners,
		schemaStrategyEvents,
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
