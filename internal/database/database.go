package database

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/listings/api/internal/config"
)

// Database is an open property store handle. It is opened once at process
// start, carries an initialized schema, and is closed at shutdown.
type Database interface {
	Ping(ctx context.Context) error
	Close() error
	Driver() string
}

// Open connects to the store selected by cfg.Driver and ensures the schema exists.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Database, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		db, err := NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
