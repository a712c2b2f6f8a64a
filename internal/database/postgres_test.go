package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stwalsh4118/listings/api/internal/config"
)

// Test configuration for local PostgreSQL
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "listings"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  2,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// openTestPostgres connects to the test server, skipping when it is not reachable.
func openTestPostgres(t *testing.T, cfg config.DatabaseConfig) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	return db
}

func TestNewPostgresPool_Success(t *testing.T) {
	db := openTestPostgres(t, getTestConfig())
	defer db.Close()

	if db.Pool == nil {
		t.Error("Expected Pool to be initialized")
	}
	if db.Driver() != config.DriverPostgres {
		t.Errorf("Expected driver postgres, got %s", db.Driver())
	}
	if db.Stats() == nil {
		t.Error("Expected stats to be available")
	}
}

func TestNewPostgresPool_SchemaIsIdempotent(t *testing.T) {
	db := openTestPostgres(t, getTestConfig())
	db.Close()

	again := openTestPostgres(t, getTestConfig())
	defer again.Close()

	var exists bool
	err := again.Pool.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'properties')`,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("Failed to query information_schema: %v", err)
	}
	if !exists {
		t.Error("Expected properties table to exist")
	}
}

func TestNewPostgresPool_InvalidHost(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Host = "invalid-host-that-does-not-exist"

	_, err := NewPostgresPool(ctx, cfg)
	if err == nil {
		t.Error("Expected error when connecting to invalid host")
	}
}

func TestPing_AfterClose(t *testing.T) {
	db := openTestPostgres(t, getTestConfig())

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	db.Close()

	if err := db.Ping(context.Background()); err == nil {
		t.Error("Expected ping to fail after pool is closed")
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	db := openTestPostgres(t, getTestConfig())

	// Close multiple times should not panic
	db.Close()
	db.Close()
}

func TestConnectionPool_MaxConns(t *testing.T) {
	cfg := getTestConfig()
	cfg.PoolMin = 1
	cfg.PoolMax = 8

	db := openTestPostgres(t, cfg)
	defer db.Close()

	if got := db.Stats().MaxConns(); got != 8 {
		t.Errorf("Expected MaxConns 8, got %d", got)
	}
}
