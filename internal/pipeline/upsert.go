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
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/seismograph/internal/database"
	"github.com/tomtom215/seismograph/internal/models"
	"github.com/tomtom215/seismograph/internal/normalize"
)

// Upsert statuses as tallied in the cycle report.
const (
	StatusNew       = "new"
	StatusUpdated   = "updated"
	StatusUnchanged = "unchanged"
)

// Store is the database surface the pipeline stages run on. *database.DB
// implements it. DedupCandidates rows carry non-null origin_time and
// coordinates; the sweep relies on that.
type Store interface {
	GetEventByGlobalID(ctx context.Context, globalID string) (*models.Event, error)
	InsertEvent(ctx context.Context, evt *models.Event, curves []models.IntensityCurve) error
	UpdateEvent(ctx context.Context, evt *models.Event) error

	DedupCandidates(ctx context.Context) ([]models.Event, error)
	LinkExists(ctx context.Context, canonicalID, duplicateID int64) (bool, error)
	CreateDuplicateLink(ctx context.Context, link *models.DuplicateLink) error

	GetOrCreateSyncState(ctx context.Context, key string) (*models.SyncState, error)
	SaveSyncState(ctx context.Context, state *models.SyncState) error
	MaxRetrievedTime(ctx context.Context) (*time.Time, error)
}

// Enricher resolves the geospatial fields of an event in place and returns
// any intensity curves fetched for it. *enrich.Enricher implements it.
type Enricher interface {
	Enrich(ctx context.Context, evt *models.Event, hasShakemap bool) []models.IntensityCurve
}

// Upserter persists normalized records idempotently, keyed by global_id.
// Safe for concurrent use from the processing pool: the unique constraint
// on global_id collapses insert races into the unchanged status.
type Upserter struct {
	store    Store
	enricher Enricher
}

// NewUpserter creates the upsert engine.
func NewUpserter(store Store, enricher Enricher) *Upserter {
	return &Upserter{store: store, enricher: enricher}
}

// Upsert writes one raw record and reports what happened to it:
//
//   - no row with its global_id existed: coerce, enrich, insert ("new")
//   - a row existed and the record carries a strictly newer updated time:
//     coerce, enrich, overwrite the payload fields ("updated")
//   - otherwise: leave the row alone ("unchanged")
//
// Intensity curves only materialize on the create path; an update refreshes
// affected_countries but never inserts new curve rows.
func (u *Upserter) Upsert(ctx context.Context, raw *models.RawEvent) (*models.Event, string, error) {
	existing, err := u.store.GetEventByGlobalID(ctx, raw.GlobalID)
	if err != nil {
		return nil, "", fmt.Errorf("lookup: %w", err)
	}

	updatedDt, hasUpdated := normalize.Time(raw.UpdatedTimeUTC)

	if existing != nil {
		stale := !hasUpdated ||
			(existing.UpdatedTime != nil && !updatedDt.After(*existing.UpdatedTime))
		if stale {
			return existing, StatusUnchanged, nil
		}

		evt := buildEvent(raw)
		evt.ID = existing.ID
		evt.UpdatedTime = &updatedDt
		if evt.DepthKm != nil {
			depth := math.Abs(*evt.DepthKm)
			evt.DepthKm = &depth
		}

		hasShakemap, _ := normalize.Bool(raw.HasShakemap)
		u.enricher.Enrich(ctx, evt, hasShakemap)

		if err := u.store.UpdateEvent(ctx, evt); err != nil {
			return nil, "", fmt.Errorf("update: %w", err)
		}
		return evt, StatusUpdated, nil
	}

	evt := buildEvent(raw)
	if hasUpdated {
		evt.UpdatedTime = &updatedDt
	}

	hasShakemap, _ := normalize.Bool(raw.HasShakemap)
	curves := u.enricher.Enrich(ctx, evt, hasShakemap)
	if len(curves) > 0 {
		curvesStored := true
		evt.HasCurves = &curvesStored
	}

	err = u.store.InsertEvent(ctx, evt, curves)
	if errors.Is(err, database.ErrDuplicateEvent) {
		// Lost the insert race to a concurrent worker; the winner's row
		// is the canonical outcome.
		existing, err := u.store.GetEventByGlobalID(ctx, raw.GlobalID)
		if err != nil {
			return nil, "", fmt.Errorf("refetch after conflict: %w", err)
		}
		return existing, StatusUnchanged, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("insert: %w", err)
	}
	return evt, StatusNew, nil
}

// buildEvent coerces the loosely typed raw fields into a typed event.
// Fields that fail coercion stay nil. The update-path depth absolutization
// and the updated_time assignment are the caller's job.
func buildEvent(raw *models.RawEvent) *models.Event {
	evt := &models.Event{
		GlobalID:          raw.GlobalID,
		Source:            raw.Source,
		SourceID:          raw.SourceID,
		AffectedCountries: models.StringList{},
		RetrievedTime:     raw.RetrievedTime.UTC(),
		RawData:           raw.RawData,
	}
	if evt.RawData == nil {
		evt.RawData = json.RawMessage("{}")
	}

	if v, ok := normalize.Float(raw.Magnitude); ok {
		evt.Magnitude = &v
	}
	if v, ok := normalize.String(raw.MagType); ok {
		evt.MagType = &v
	}
	if v, ok := normalize.String(raw.PlaceName); ok {
		evt.PlaceName = &v
	}
	if v, ok := normalize.Float(raw.Latitude); ok {
		evt.Latitude = &v
	}
	if v, ok := normalize.Float(raw.Longitude); ok {
		evt.Longitude = &v
	}
	if v, ok := normalize.Float(raw.DepthKm); ok {
		evt.DepthKm = &v
	}
	if v, ok := normalize.Bool(raw.Tsunami); ok {
		evt.Tsunami = &v
	}
	if v, ok := normalize.Bool(raw.HasShakemap); ok {
		evt.HasCurves = &v
	}
	if v, ok := normalize.Time(raw.OriginTimeUTC); ok {
		evt.OriginTime = &v
	}
	return evt
}
