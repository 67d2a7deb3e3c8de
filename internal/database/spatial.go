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

// PlateAt returns the name of the first tectonic plate whose geometry
// intersects the point, preferring platename over code, or (nil, nil) when
// the point hits no plate polygon (oceanic gaps in the layer).
func (db *DB) PlateAt(ctx context.Context, lat, lon float64) (_ *string, err error) {
	defer observe("select", "plates", time.Now(), &err)

	var name sql.NullString
	err = db.conn.GetContext(ctx, &name,
		`SELECT COALESCE(NULLIF(platename, ''), code)
		 FROM plates
		 WHERE ST_Intersects(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		 LIMIT 1`, lon, lat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up plate at (%f, %f): %w", lat, lon, err)
	}
	if !name.Valid || name.String == "" {
		return nil, nil
	}
	return &name.String, nil
}

// CountryAt returns the name of the first country whose geometry contains
// the point, preferring admin over sovereignt, or (nil, nil) for points in
// international waters.
func (db *DB) CountryAt(ctx context.Context, lat, lon float64) (_ *string, err error) {
	defer observe("select", "countries", time.Now(), &err)

	var name sql.NullString
	err = db.conn.GetContext(ctx, &name,
		`SELECT COALESCE(NULLIF(admin, ''), sovereignt)
		 FROM countries
		 WHERE ST_Contains(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		 LIMIT 1`, lon, lat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up country at (%f, %f): %w", lat, lon, err)
	}
	if !name.Valid || name.String == "" {
		return nil, nil
	}
	return &name.String, nil
}

// MaxRetrievedTime returns the newest retrieved_time across all events, or
// (nil, nil) on an empty catalog. The orchestrator anchors the initial
// fetch window on it.
func (db *DB) MaxRetrievedTime(ctx context.Context) (_ *time.Time, err error) {
	defer observe("select", "earthquake", time.Now(), &err)

	var t sql.NullTime
	err = db.conn.GetContext(ctx, &t, `SELECT MAX(retrieved_time) FROM earthquake`)
	if err != nil {
		return nil, fmt.Errorf("failed to get max retrieved_time: %w", err)
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}

// DedupCandidates returns the canonical, located, time-ordered events the
// dedup sweep walks: duplicate_of is null, the location point exists, and
// origin_time is set (the sweep's window arithmetic needs it). Only the
// fields the pairwise checks read are selected.
func (db *DB) DedupCandidates(ctx context.Context) (_ []models.Event, err error) {
	defer observe("select", "earthquake", time.Now(), &err)

	var events []models.Event
	err = db.conn.SelectContext(ctx, &events,
		`SELECT id, global_id, source, source_id, origin_time, latitude,
		        longitude, magnitude, duplicate_of_id
		 FROM earthquake
		 WHERE duplicate_of_id IS NULL
		   AND location IS NOT NULL
		   AND origin_time IS NOT NULL
		 ORDER BY origin_time ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select dedup candidates: %w", err)
	}
	return events, nil
}
