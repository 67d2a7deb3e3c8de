// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

// Package models defines the data structures shared across the Seismograph
// pipeline: canonical events, raw adapter output, duplicate links, intensity
// curves, and sync state.

package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Event is the canonical persisted record of one catalog's observation of a
// seismic event (table earthquake).
//
// Identity:
//   - GlobalID: SHA-256 fingerprint of "SOURCE::source_id", unique and
//     immutable; the idempotency key for upserts.
//   - Source/SourceID: which catalog reported it and under what identifier.
//
// Optional scalar fields are pointers; nil means the upstream record did not
// carry the field (or it failed coercion). The geographic point column
// (location, SRID 4326) is maintained by the store from Latitude/Longitude
// and is not mapped here.
//
// DuplicateOfID links a near-duplicate to its canonical event; nil for
// canonical events.
type Event struct {
	ID       int64  `db:"id" json:"id"`
	GlobalID string `db:"global_id" json:"global_id"`
	Source   string `db:"source" json:"source"`
	SourceID string `db:"source_id" json:"source_id"`

	OriginTime *time.Time `db:"origin_time" json:"origin_time,omitempty"`
	Latitude   *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude  *float64   `db:"longitude" json:"longitude,omitempty"`
	Magnitude  *float64   `db:"magnitude" json:"magnitude,omitempty"`
	MagType    *string    `db:"mag_type" json:"mag_type,omitempty"`
	DepthKm    *float64   `db:"depth_km" json:"depth_km,omitempty"`

	PlaceName     *string `db:"place_name" json:"place_name,omitempty"`
	OriginCountry *string `db:"origin_country" json:"origin_country,omitempty"`
	TectonicPlate *string `db:"tectonic_plate" json:"tectonic_plate,omitempty"`

	// AffectedCountries is the distinct set of countries touched by the
	// event's MMI intensity contours; empty when no shakemap was available.
	AffectedCountries StringList `db:"affected_countries" json:"affected_countries"`

	// Tri-valued flags: true/false/unknown.
	Tsunami   *bool `db:"tsunami" json:"tsunami,omitempty"`
	HasCurves *bool `db:"has_curves" json:"has_curves,omitempty"`

	UpdatedTime   *time.Time `db:"updated_time" json:"updated_time,omitempty"`
	RetrievedTime time.Time  `db:"retrieved_time" json:"retrieved_time"`

	// RawData is the original feed fragment, verbatim.
	RawData json.RawMessage `db:"raw_data" json:"raw_data,omitempty"`

	DuplicateOfID *int64 `db:"duplicate_of_id" json:"duplicate_of_id,omitempty"`
}

// HasLocation reports whether both coordinates are present, i.e. whether the
// store carries a geographic point for this event.
func (e *Event) HasLocation() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// IntensityCurve is one MMI contour attached to an event (table
// intensitycurve): the intensity value and the GeoJSON geometry coordinates
// kept verbatim from the contour document.
type IntensityCurve struct {
	ID          int64           `db:"id" json:"id"`
	EventID     int64           `db:"event_id" json:"event_id"`
	Intensity   float64         `db:"intensity" json:"intensity"`
	Coordinates json.RawMessage `db:"coordinates" json:"coordinates"`
}

// StringList is a []string stored as a JSONB column.
type StringList []string

// Value implements driver.Valuer. A nil list is stored as an empty JSON
// array, never SQL NULL, matching the default-empty semantics of
// affected_countries.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (s *StringList) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	*s = out
	return nil
}
