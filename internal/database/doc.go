// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

// Package database is the data layer between the pipeline and
// PostgreSQL/PostGIS: connection lifecycle, schema bootstrap, and the
// queries every pipeline stage runs.
//
// # Architecture
//
// The package is organized into domain-specific files:
//
//   - database.go: connection lifecycle (open, pool, ping with retry, close)
//   - schema.go: PostGIS extension and core table/index bootstrap, plus the
//     reference-layer startup verification
//   - events.go: event row lookup, insert (with intensity curves), update
//   - links.go: duplicate link existence check and atomic link creation
//   - sync_state.go: keyed singleton bookkeeping rows
//   - spatial.go: point-in-polygon reference lookups and the dedup
//     candidate query
//
// # Database Technology
//
// The store is PostgreSQL with the PostGIS extension:
//   - geometry(Point, 4326) event locations, GIST-indexed
//   - multipolygon reference layers (countries, plates) consumed read-only
//     via ST_Intersects/ST_Contains point queries
//   - unique constraint on earthquake.global_id as the idempotency anchor
//
// Access goes through jmoiron/sqlx over lib/pq. The core bootstraps its own
// tables with CREATE TABLE IF NOT EXISTS; the reference layers are loaded by
// an external one-off import and only verified here.
package database
