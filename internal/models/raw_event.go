// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Catalog source names as stored in Event.Source.
const (
	SourceIGN  = "IGN"
	SourceUSGS = "USGS"
	SourceEMSC = "EMSC"
)

// SourcePriority returns the deduplication tie-break rank for a source.
// Lower wins canonical. Unknown sources rank last.
func SourcePriority(source string) int {
	switch source {
	case SourceUSGS:
		return 0
	case SourceIGN:
		return 1
	case SourceEMSC:
		return 2
	default:
		return 99
	}
}

// RawEvent is the common shape every source adapter emits: one upstream
// record mapped onto shared field names but otherwise untyped. Scalar fields
// hold whatever JSON value the feed carried (number, string, bool, nil);
// coercion into typed optionals happens in the upsert engine, so a feed that
// switches a field from number to numeric string keeps working.
type RawEvent struct {
	Source   string `json:"source"`
	SourceID string `json:"source_id"`
	GlobalID string `json:"global_id"`

	Magnitude any `json:"magnitude,omitempty"`
	MagType   any `json:"mag_type,omitempty"`
	PlaceName any `json:"place_name,omitempty"`
	Latitude  any `json:"latitude,omitempty"`
	Longitude any `json:"longitude,omitempty"`
	DepthKm   any `json:"depth_km,omitempty"`

	OriginTimeUTC  any       `json:"origin_time_utc,omitempty"`
	UpdatedTimeUTC any       `json:"updated_time_utc,omitempty"`
	RetrievedTime  time.Time `json:"retrieved_time_utc"`

	Tsunami any `json:"tsunami,omitempty"`

	// HasShakemap marks records whose upstream product list includes a
	// shakemap; only those trigger the contour fetch. Tri-state like the
	// other scalars: nil (feed says nothing) coerces to a null has_curves
	// column, false to a false one.
	HasShakemap any `json:"has_shakemap,omitempty"`

	// RawData is the verbatim upstream feature, persisted untouched.
	RawData json.RawMessage `json:"raw_data,omitempty"`
}
