// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/seismograph/internal/models"
)

const syncStateColumns = `id, key, value, last_sync_start, last_sync_end, last_run_at`

// GetOrCreateSyncState loads the bookkeeping row for key, creating it with
// value=false on first access. Concurrent first access is safe: the insert
// is ON CONFLICT DO NOTHING and the row is re-read afterwards.
func (db *DB) GetOrCreateSyncState(ctx context.Context, key string) (_ *models.SyncState, err error) {
	defer observe("select", "sync_state", time.Now(), &err)

	state, err := db.getSyncState(ctx, key)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO sync_state (key, value) VALUES ($1, FALSE)
		 ON CONFLICT (key) DO NOTHING`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync state %q: %w", key, err)
	}

	state, err = db.getSyncState(ctx, key)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("sync state %q missing after create", key)
	}
	return state, nil
}

func (db *DB) getSyncState(ctx context.Context, key string) (*models.SyncState, error) {
	var state models.SyncState
	err := db.conn.GetContext(ctx, &state,
		`SELECT `+syncStateColumns+` FROM sync_state WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state %q: %w", key, err)
	}
	return &state, nil
}

// SaveSyncState persists the mutable fields of the row identified by Key.
func (db *DB) SaveSyncState(ctx context.Context, state *models.SyncState) (err error) {
	defer observe("update", "sync_state", time.Now(), &err)

	res, err := db.conn.NamedExecContext(ctx,
		`UPDATE sync_state SET
			value = :value,
			last_sync_start = :last_sync_start,
			last_sync_end = :last_sync_end,
			last_run_at = :last_run_at
		 WHERE key = :key`, state)
	if err != nil {
		return fmt.Errorf("failed to save sync state %q: %w", state.Key, err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		return fmt.Errorf("sync state %q not found for save", state.Key)
	}
	return nil
}
