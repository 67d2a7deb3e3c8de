// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package database

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tomtom215/seismograph/internal/config"
	"github.com/tomtom215/seismograph/internal/logging"
	"github.com/tomtom215/seismograph/internal/metrics"
)

const (
	// pingTimeout bounds a single connectivity probe.
	pingTimeout = 5 * time.Second

	// maxConnectTries and connectRetryDelay govern the startup ping loop.
	// Postgres containers routinely win the race against the pipeline by a
	// few seconds, so the first pings are retried with exponential backoff
	// before startup is declared fatal.
	maxConnectTries   = 5
	connectRetryDelay = 2 * time.Second
)

// DB wraps the PostgreSQL connection pool and provides the data access
// methods the pipeline stages use.
type DB struct {
	conn *sqlx.DB
	cfg  *config.DatabaseConfig
}

// New opens the connection pool, waits for the server to answer pings, and
// bootstraps the schema. A database that never becomes reachable is a
// startup-fatal error for the caller.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := &DB{conn: conn, cfg: cfg}

	if err := db.waitForPing(ctx); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	if err := db.Initialize(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// waitForPing probes the server with exponential backoff until it answers
// or the attempts are exhausted.
func (db *DB) waitForPing(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < maxConnectTries; attempt++ {
		if attempt > 0 {
			delay := connectRetryDelay * time.Duration(1<<uint(attempt-1))
			logging.Warn().Err(lastErr).Dur("retry_in", delay).Int("attempt", attempt).Msg("Database not ready")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := db.conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", maxConnectTries, lastErr)
}

// Ping verifies connectivity. Used by the readiness endpoint.
func (db *DB) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.conn.PingContext(pingCtx)
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// observe records one store call on the query metrics. Call via defer with
// a named error return so the final error value is the one recorded.
func observe(operation, table string, start time.Time, errp *error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), *errp)
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
