// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/seismograph/internal/logging"
)

// schemaTimeout bounds schema bootstrap statements.
const schemaTimeout = 60 * time.Second

// Initialize bootstraps the PostGIS extension and the core tables. Every
// statement is idempotent; running against an already-initialized database
// is a no-op. The reference layers (countries, plates) are deliberately not
// created here: they are loaded by an external import and only verified via
// VerifyReferenceLayers.
func (db *DB) Initialize(ctx context.Context) error {
	schemaCtx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	for _, query := range schemaQueries() {
		if _, err := db.conn.ExecContext(schemaCtx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %s: %w", firstLine(query), err)
		}
	}
	return nil
}

// schemaQueries returns the bootstrap DDL in execution order.
func schemaQueries() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,

		// Canonical event rows. Optional scalars are nullable; location is
		// derived from (longitude, latitude) on every write and is null iff
		// either coordinate is null.
		`CREATE TABLE IF NOT EXISTS earthquake (
			id BIGSERIAL PRIMARY KEY,
			global_id VARCHAR(64) NOT NULL,
			source VARCHAR(10) NOT NULL,
			source_id VARCHAR(128) NOT NULL,
			origin_time TIMESTAMPTZ,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			location geometry(Point, 4326),
			magnitude DOUBLE PRECISION,
			mag_type VARCHAR(16),
			depth_km DOUBLE PRECISION,
			place_name TEXT,
			origin_country TEXT,
			tectonic_plate TEXT,
			affected_countries JSONB NOT NULL DEFAULT '[]'::jsonb,
			tsunami BOOLEAN,
			has_curves BOOLEAN,
			updated_time TIMESTAMPTZ,
			retrieved_time TIMESTAMPTZ NOT NULL,
			raw_data JSONB NOT NULL DEFAULT '{}'::jsonb,
			duplicate_of_id BIGINT REFERENCES earthquake(id)
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS earthquake_global_id_idx ON earthquake (global_id)`,
		`CREATE INDEX IF NOT EXISTS earthquake_origin_time_idx ON earthquake (origin_time)`,
		`CREATE INDEX IF NOT EXISTS earthquake_retrieved_time_idx ON earthquake (retrieved_time)`,
		`CREATE INDEX IF NOT EXISTS earthquake_source_idx ON earthquake (source)`,
		`CREATE INDEX IF NOT EXISTS earthquake_duplicate_of_idx ON earthquake (duplicate_of_id)`,
		`CREATE INDEX IF NOT EXISTS earthquake_location_idx ON earthquake USING GIST (location)`,

		// Directed canonical -> duplicate edges with the measured deltas.
		`CREATE TABLE IF NOT EXISTS duplicatelink (
			id BIGSERIAL PRIMARY KEY,
			canonical_id BIGINT NOT NULL REFERENCES earthquake(id),
			duplicate_id BIGINT NOT NULL REFERENCES earthquake(id),
			dt DOUBLE PRECISION NOT NULL,
			dd DOUBLE PRECISION NOT NULL,
			dm DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT duplicatelink_pair_unique UNIQUE (canonical_id, duplicate_id)
		)`,

		`CREATE INDEX IF NOT EXISTS duplicatelink_duplicate_idx ON duplicatelink (duplicate_id)`,

		// MMI contour rows, children of earthquake. Coordinates stay verbatim
		// GeoJSON; nothing downstream re-projects them.
		`CREATE TABLE IF NOT EXISTS intensitycurve (
			id BIGSERIAL PRIMARY KEY,
			event_id BIGINT NOT NULL REFERENCES earthquake(id) ON DELETE CASCADE,
			intensity DOUBLE PRECISION NOT NULL,
			coordinates JSONB NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS intensitycurve_event_idx ON intensitycurve (event_id)`,

		// Keyed singleton bookkeeping rows.
		`CREATE TABLE IF NOT EXISTS sync_state (
			id BIGSERIAL PRIMARY KEY,
			key VARCHAR(64) NOT NULL UNIQUE,
			value BOOLEAN NOT NULL DEFAULT FALSE,
			last_sync_start TIMESTAMPTZ,
			last_sync_end TIMESTAMPTZ,
			last_run_at TIMESTAMPTZ
		)`,
	}
}

// referenceLayers names the read-only geospatial tables the enricher
// consults. They are loaded by a one-off shapefile import outside this
// process.
var referenceLayers = []string{"countries", "plates"}

// VerifyReferenceLayers checks that the reference tables exist and carry
// rows. A missing table is an error (enrichment queries would fail on every
// event); an empty table only warns (enrichment degrades to null fields).
func (db *DB) VerifyReferenceLayers(ctx context.Context) error {
	for _, table := range referenceLayers {
		var regclass sql.NullString
		err := db.conn.GetContext(ctx, &regclass, `SELECT to_regclass($1)`, table)
		if err != nil {
			return fmt.Errorf("failed to check reference table %s: %w", table, err)
		}
		if !regclass.Valid {
			return fmt.Errorf("reference table %s does not exist; run the reference layer import first", table)
		}

		var count int64
		// Cheap row-presence probe; reference layers are a few hundred rows.
		if err := db.conn.GetContext(ctx, &count, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)); err != nil {
			return fmt.Errorf("failed to count reference table %s: %w", table, err)
		}
		if count == 0 {
			logging.Warn().Str("table", table).Msg("Reference table is empty, enrichment will yield null fields")
		}
	}
	return nil
}

// firstLine trims a DDL statement to its first line for error messages.
func firstLine(query string) string {
	for i := 0; i < len(query); i++ {
		if query[i] == '\n' {
			return query[:i]
		}
	}
	return query
}
