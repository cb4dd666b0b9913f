// Package store provides a SQLite-backed cache of issued and verified
// UCAN tokens, keyed by their CID.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Options holds configuration for opening the token cache database.
type Options struct {
	Path        string
	EnableWAL   bool
	BusyTimeout int // milliseconds
}

// Open opens a SQLite database connection with the specified options
// and initializes the schema if needed.
func Open(options Options) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", options.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if options.EnableWAL {
		if err := enableWAL(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	if options.BusyTimeout > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", options.BusyTimeout)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	return db, nil
}

// initializeSchema creates the tokens table and its indexes.
func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion sql.NullString
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check schema version: %w", err)
	}
	if currentVersion.Valid && currentVersion.String == "1.0.0" {
		return nil
	}

	// Tokens table: a cache of every UCAN this service has issued or
	// seen during verification, keyed by its CID.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tokens (
			cid TEXT PRIMARY KEY,
			iss TEXT NOT NULL,
			aud TEXT NOT NULL,
			exp INTEGER,
			representation TEXT NOT NULL,
			data BLOB NOT NULL,
			cached_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create tokens table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_tokens_iss ON tokens(iss)",
		"CREATE INDEX IF NOT EXISTS idx_tokens_aud ON tokens(aud)",
		"CREATE INDEX IF NOT EXISTS idx_tokens_exp ON tokens(exp)",
	}
	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES ('1.0.0')"); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// enableWAL enables Write-Ahead Logging mode for concurrent read/write
// access.
func enableWAL(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func Close(db *sql.DB) error {
	return db.Close()
}
