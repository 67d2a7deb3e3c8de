// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package models

import "time"

// DuplicateLink is a directed edge from a canonical event to a near-duplicate
// observation of the same physical earthquake in another catalog (table
// duplicatelink). The measured deltas are recorded at link creation time:
//
//   - Dt: origin time difference in seconds
//   - Dd: great-circle distance in kilometers
//   - Dm: absolute magnitude difference
//
// At most one link exists per (canonical, duplicate) pair; links are never
// rewritten.
type DuplicateLink struct {
	ID          int64     `db:"id" json:"id"`
	CanonicalID int64     `db:"canonical_id" json:"canonical_id"`
	DuplicateID int64     `db:"duplicate_id" json:"duplicate_id"`
	Dt          float64   `db:"dt" json:"dt"`
	Dd          float64   `db:"dd" json:"dd"`
	Dm          float64   `db:"dm" json:"dm"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
