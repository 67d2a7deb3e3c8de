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

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tomtom215/seismograph/internal/models"
)

// ErrDuplicateEvent reports an insert that lost a global_id race to a
// concurrent worker. Callers refetch and treat the event as unchanged.
var ErrDuplicateEvent = errors.New("event with this global_id already exists")

// eventColumns is the scan list shared by event lookups. The location
// geometry column is excluded: it is write-only from Go, derived from
// (longitude, latitude) on every insert/update.
const eventColumns = `id, global_id, source, source_id, origin_time, latitude,
	longitude, magnitude, mag_type, depth_km, place_name, origin_country,
	tectonic_plate, affected_countries, tsunami, has_curves, updated_time,
	retrieved_time, raw_data, duplicate_of_id`

// locationExpr derives the geometry column from the coordinate pair, null
// iff either coordinate is null (sqlx expands the repeated named params).
const locationExpr = `CASE
		WHEN :latitude IS NULL OR :longitude IS NULL THEN NULL
		ELSE ST_SetSRID(ST_MakePoint(:longitude, :latitude), 4326)
	END`

const insertEventQuery = `
	INSERT INTO earthquake (
		global_id, source, source_id, origin_time, latitude, longitude,
		location, magnitude, mag_type, depth_km, place_name, origin_country,
		tectonic_plate, affected_countries, tsunami, has_curves,
		updated_time, retrieved_time, raw_data, duplicate_of_id
	) VALUES (
		:global_id, :source, :source_id, :origin_time, :latitude, :longitude,
		` + locationExpr + `, :magnitude, :mag_type, :depth_km, :place_name,
		:origin_country, :tectonic_plate, :affected_countries, :tsunami,
		:has_curves, :updated_time, :retrieved_time, :raw_data,
		:duplicate_of_id
	)
	RETURNING id`

// updateEventQuery overwrites the payload fields of an existing row. The
// identity fields (id, global_id, source, source_id) and duplicate_of_id
// are never touched: dedup links survive upstream revisions.
const updateEventQuery = `
	UPDATE earthquake SET
		origin_time = :origin_time,
		latitude = :latitude,
		longitude = :longitude,
		location = ` + locationExpr + `,
		magnitude = :magnitude,
		mag_type = :mag_type,
		depth_km = :depth_km,
		place_name = :place_name,
		origin_country = :origin_country,
		tectonic_plate = :tectonic_plate,
		affected_countries = :affected_countries,
		tsunami = :tsunami,
		has_curves = :has_curves,
		updated_time = :updated_time,
		retrieved_time = :retrieved_time,
		raw_data = :raw_data
	WHERE id = :id`

const insertCurveQuery = `
	INSERT INTO intensitycurve (event_id, intensity, coordinates)
	VALUES (:event_id, :intensity, :coordinates)`

// GetEventByGlobalID returns the event with the given fingerprint, or
// (nil, nil) when none exists.
func (db *DB) GetEventByGlobalID(ctx context.Context, globalID string) (_ *models.Event, err error) {
	defer observe("select", "earthquake", time.Now(), &err)

	var evt models.Event
	err = db.conn.GetContext(ctx, &evt,
		`SELECT `+eventColumns+` FROM earthquake WHERE global_id = $1`, globalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by global_id: %w", err)
	}
	return &evt, nil
}

// InsertEvent inserts a new event row and its intensity curves in one
// transaction, populating evt.ID. A global_id race with a concurrent
// worker surfaces as ErrDuplicateEvent.
func (db *DB) InsertEvent(ctx context.Context, evt *models.Event, curves []models.IntensityCurve) (err error) {
	defer observe("insert", "earthquake", time.Now(), &err)

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := sqlx.NamedQueryContext(ctx, tx, insertEventQuery, evt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("failed to insert event %s: %w", evt.SourceID, err)
	}
	if rows.Next() {
		if scanErr := rows.Scan(&evt.ID); scanErr != nil {
			closeQuietly(rows)
			return fmt.Errorf("failed to scan inserted event id: %w", scanErr)
		}
	}
	if err = rows.Err(); err != nil {
		closeQuietly(rows)
		return fmt.Errorf("failed to read inserted event id: %w", err)
	}
	closeQuietly(rows)

	for i := range curves {
		curves[i].EventID = evt.ID
		if _, err = tx.NamedExecContext(ctx, insertCurveQuery, curves[i]); err != nil {
			return fmt.Errorf("failed to insert intensity curve for event %s: %w", evt.SourceID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event insert: %w", err)
	}
	return nil
}

// UpdateEvent overwrites the payload fields of the row identified by
// evt.ID. The caller decides what goes in; monotonicity of updated_time is
// the upsert engine's concern.
func (db *DB) UpdateEvent(ctx context.Context, evt *models.Event) (err error) {
	defer observe("update", "earthquake", time.Now(), &err)

	res, err := db.conn.NamedExecContext(ctx, updateEventQuery, evt)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", evt.SourceID, err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		return fmt.Errorf("event id %d not found for update", evt.ID)
	}
	return nil
}

// isUniqueViolation reports a lib/pq unique-constraint error
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
