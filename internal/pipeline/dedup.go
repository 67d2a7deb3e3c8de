// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/tomtom215/seismograph/internal/config"
	"github.com/tomtom215/seismograph/internal/database"
	"github.com/tomtom215/seismograph/internal/logging"
	"github.com/tomtom215/seismograph/internal/metrics"
	"github.com/tomtom215/seismograph/internal/models"
)

// Deduper links near-coincident events reported by different catalogs. The
// sweep walks the time-sorted canonical events once per anchor; the early
// break on the time window keeps it near-linear in practice.
type Deduper struct {
	store      Store
	thresholds config.DedupConfig
	workers    int
}

// NewDeduper creates the dedup engine with the configured thresholds and
// sweep pool width.
func NewDeduper(store Store, thresholds config.DedupConfig, workers int) *Deduper {
	return &Deduper{store: store, thresholds: thresholds, workers: workers}
}

// Run executes one full sweep and returns the number of links created.
// Re-running over the same data creates nothing: linked duplicates drop out
// of the candidate set and surviving pairs fail the existence check.
func (d *Deduper) Run(ctx context.Context) (int, error) {
	events, err := d.store.DedupCandidates(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading candidates: %w", err)
	}
	metrics.RecordDedupScan(len(events))

	anchors := make([]int, len(events))
	for i := range anchors {
		anchors[i] = i
	}

	var linked atomic.Int64
	runPool(d.workers, anchors, func(i int) {
		linked.Add(d.sweep(ctx, events, i))
	})

	return int(linked.Load()), nil
}

// sweep examines every event after the anchor until the time window closes,
// linking each qualifying pair. Returns the number of links created.
func (d *Deduper) sweep(ctx context.Context, events []models.Event, i int) int64 {
	anchor := &events[i]
	var links int64

	for j := i + 1; j < len(events); j++ {
		other := &events[j]

		dt := other.OriginTime.Sub(*anchor.OriginTime).Seconds()
		if dt > d.thresholds.TimeWindow.Seconds() {
			break
		}
		if anchor.Source == other.Source {
			continue
		}
		if anchor.Magnitude == nil || other.Magnitude == nil {
			continue
		}
		dm := math.Abs(*anchor.Magnitude - *other.Magnitude)
		if dm > d.thresholds.MaxMagnitudeDelta {
			continue
		}
		dd := haversineKm(*anchor.Latitude, *anchor.Longitude, *other.Latitude, *other.Longitude)
		if dd > d.thresholds.MaxDistanceKm {
			continue
		}

		canonical, duplicate := anchor, other
		pa := models.SourcePriority(strings.TrimSpace(anchor.Source))
		pb := models.SourcePriority(strings.TrimSpace(other.Source))
		if pa == pb {
			// Two unknown sources rank equally; inventing an order here
			// would make the canonical choice depend on sweep timing.
			continue
		}
		if pb < pa {
			canonical, duplicate = other, anchor
		}

		if d.link(ctx, canonical, duplicate, dt, dd, dm) {
			links++
		}
	}

	return links
}

// link creates the DuplicateLink and marks the duplicate, unless the pair is
// already linked. Returns true only for a newly created link.
func (d *Deduper) link(ctx context.Context, canonical, duplicate *models.Event, dt, dd, dm float64) bool {
	exists, err := d.store.LinkExists(ctx, canonical.ID, duplicate.ID)
	if err != nil {
		metrics.RecordDedupError()
		logging.Err(err).
			Int64("canonical_id", canonical.ID).
			Int64("duplicate_id", duplicate.ID).
			Msg("Duplicate link existence check failed")
		return false
	}
	if exists {
		return false
	}

	err = d.store.CreateDuplicateLink(ctx, &models.DuplicateLink{
		CanonicalID: canonical.ID,
		DuplicateID: duplicate.ID,
		Dt:          dt,
		Dd:          dd,
		Dm:          dm,
	})
	if errors.Is(err, database.ErrLinkExists) {
		// A concurrent sweep beat us to the same pair.
		return false
	}
	if err != nil {
		metrics.RecordDedupError()
		logging.Err(err).
			Int64("canonical_id", canonical.ID).
			Int64("duplicate_id", duplicate.ID).
			Msg("Duplicate link creation failed")
		return false
	}

	metrics.RecordDedupLink()
	logging.Debug().
		Str("canonical", canonical.SourceID).
		Str("duplicate", duplicate.SourceID).
		Float64("dt_seconds", dt).
		Float64("dd_km", dd).
		Float64("dm", dm).
		Msg("Linked duplicate events")
	return true
}

// haversineKm returns the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
