package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stwalsh4118/listings/api/internal/config"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS properties (
	id            BIGSERIAL        PRIMARY KEY,
	title         TEXT             NOT NULL,
	location      TEXT             NOT NULL,
	price         DOUBLE PRECISION NOT NULL,
	sqft          DOUBLE PRECISION NOT NULL,
	bedrooms      INTEGER          NOT NULL,
	bathrooms     DOUBLE PRECISION NOT NULL,
	year_built    INTEGER          NOT NULL,
	description   TEXT             NOT NULL DEFAULT '',
	property_type TEXT             NOT NULL DEFAULT 'apartment',
	image_url     TEXT             NOT NULL DEFAULT '',
	contact_email TEXT             NOT NULL,
	contact_phone TEXT             NOT NULL,
	status        TEXT             NOT NULL DEFAULT 'pending',
	created_at    TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ      NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_status ON properties (status)`,
}

// Postgres wraps the pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgresPool creates a PostgreSQL connection pool using pgx, verifies
// the connection and creates the properties table if it is missing.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MinConns = int32(cfg.PoolMin)
	poolConfig.MaxConns = int32(cfg.PoolMax)
	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Second
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for i, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to initialize schema (statement %d): %w", i, err)
		}
	}

	return &Postgres{Pool: pool}, nil
}

// Ping checks if the database connection is alive.
func (db *Postgres) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close waits for connections to be returned and closes the pool.
func (db *Postgres) Close() error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	return nil
}

// Driver returns config.DriverPostgres.
func (db *Postgres) Driver() string {
	return config.DriverPostgres
}

// Stats returns statistics about the connection pool.
func (db *Postgres) Stats() *pgxpool.Stat {
	if db.Pool == nil {
		return nil
	}
	return db.Pool.Stat()
}
