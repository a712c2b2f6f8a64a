package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stwalsh4118/listings/api/internal/config"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id            INTEGER  PRIMARY KEY AUTOINCREMENT,
		title         TEXT     NOT NULL,
		location      TEXT     NOT NULL,
		price         REAL     NOT NULL,
		sqft          REAL     NOT NULL,
		bedrooms      INTEGER  NOT NULL,
		bathrooms     REAL     NOT NULL,
		year_built    INTEGER  NOT NULL,
		description   TEXT     NOT NULL DEFAULT '',
		property_type TEXT     NOT NULL DEFAULT 'apartment',
		image_url     TEXT     NOT NULL DEFAULT '',
		contact_email TEXT     NOT NULL,
		contact_phone TEXT     NOT NULL,
		status        TEXT     NOT NULL DEFAULT 'pending',
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_status ON properties (status)`,
}

// SQLite wraps a database/sql handle on a local SQLite file.
type SQLite struct {
	DB *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path in WAL mode
// and creates the properties table if it is missing.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// Connection options go in the DSN so every pooled connection gets them;
	// busy_timeout makes concurrent writers wait instead of failing.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSQLite(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
		}
		return nil, err
	}

	return &SQLite{DB: db}, nil
}

func initSQLite(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	for i, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema (statement %d): %w", i, err)
		}
	}
	return nil
}

// Ping checks if the database file is reachable.
func (db *SQLite) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

// Close closes the underlying handle.
func (db *SQLite) Close() error {
	if db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// Driver returns config.DriverSQLite.
func (db *SQLite) Driver() string {
	return config.DriverSQLite
}
