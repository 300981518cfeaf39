// Package database opens the PostgreSQL pool that stores vehicles, sessions
// and their samples.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"github.com/sebasr/avt-ingest/internal/config"
)

const (
	connectTimeout = 5 * time.Second
	healthTimeout  = 2 * time.Second
)

// DB is the shared pool. Ingestion writes through it one candidate at a time
// while the HTTP handlers read from it.
type DB struct {
	*sql.DB
}

// New opens the pool sized from cfg and pings it before returning
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	pool, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxConnections)
	pool.SetMaxIdleConns(cfg.MaxIdleConnections)
	pool.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database %s:%s: %w", cfg.Host, cfg.Port, err)
	}

	return &DB{pool}, nil
}

// HealthCheck pings the pool for the health endpoint
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close releases every pooled connection
func (db *DB) Close() error {
	return db.DB.Close()
}
