// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package models

import "time"

// SyncStateKeyInitial is the singleton row key the orchestrator uses to tell
// the very first sync (30-day backfill window) from steady-state runs.
const SyncStateKeyInitial = "initial_sync_done"

// SyncState is a keyed singleton row (table sync_state) carrying pipeline
// bookkeeping across invocations. Created on first access with Value=false.
type SyncState struct {
	ID            int64      `db:"id" json:"id"`
	Key           string     `db:"key" json:"key"`
	Value         bool       `db:"value" json:"value"`
	LastSyncStart *time.Time `db:"last_sync_start" json:"last_sync_start,omitempty"`
	LastSyncEnd   *time.Time `db:"last_sync_end" json:"last_sync_end,omitempty"`
	LastRunAt     *time.Time `db:"last_run_at" json:"last_run_at,omitempty"`
}
