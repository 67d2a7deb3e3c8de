// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

// Package enrich resolves geospatial context for normalized events: the
// tectonic plate and country under the epicenter, and for shakemap-bearing
// events the MMI contour set and the countries the contours touch.
//
// Enrichment is best-effort. Every lookup can fail independently and
// downgrades to a null field (plate, country) or an empty list (affected
// countries); a broken reference layer or an unreachable shakemap product
// never fails the upsert that requested the enrichment.
package enrich

import (
	"context"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/seismograph/internal/config"
	"github.com/tomtom215/seismograph/internal/logging"
	"github.com/tomtom215/seismograph/internal/metrics"
	"github.com/tomtom215/seismograph/internal/models"
)

// detailURL is the fdsnws endpoint serving per-event detail documents; the
// contour URL is discovered inside the document it returns.
const detailURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// fetchTimeout bounds each shakemap HTTP request.
const fetchTimeout = 20 * time.Second

// SpatialStore answers point-in-polygon questions against the reference
// layers. *database.DB satisfies it.
type SpatialStore interface {
	// PlateAt returns the name of the tectonic plate covering the point,
	// or nil when no plate matches.
	PlateAt(ctx context.Context, lat, lon float64) (*string, error)
	// CountryAt returns the name of the country containing the point, or
	// nil when the point is outside every country polygon.
	CountryAt(ctx context.Context, lat, lon float64) (*string, error)
}

// Enricher performs the geospatial lookups for one pipeline cycle. It is
// safe for concurrent use by the processing workers; contour downloads
// share a rate limiter so a shakemap-heavy window cannot hammer the USGS
// product endpoints, and a circuit breaker so a product outage stops
// producing request load.
type Enricher struct {
	store   SpatialStore
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]models.IntensityCurve]
	baseURL string
}

// New creates an Enricher backed by the given spatial store, with contour
// fetches limited to cfg.ContourRPS requests per second.
func New(store SpatialStore, cfg *config.PipelineConfig) *Enricher {
	return &Enricher{
		store:   store,
		client:  &http.Client{Timeout: fetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.ContourRPS), cfg.ContourBurst),
		cb:      newContourBreaker(),
		baseURL: detailURL,
	}
}

// Enrich resolves tectonic_plate, origin_country and affected_countries on
// evt in place and returns the intensity curves fetched for shakemap-bearing
// events (nil otherwise). Contours are only attempted when the upstream
// record flagged a shakemap product and the event carries a source ID.
func (e *Enricher) Enrich(ctx context.Context, evt *models.Event, hasShakemap bool) []models.IntensityCurve {
	evt.TectonicPlate = nil
	evt.OriginCountry = nil
	evt.AffectedCountries = models.StringList{}

	if evt.HasLocation() {
		lat, lon := *evt.Latitude, *evt.Longitude

		plate, err := e.store.PlateAt(ctx, lat, lon)
		metrics.RecordEnrichment("plate", err)
		if err != nil {
			logging.Err(err).Str("global_id", evt.GlobalID).Msg("Tectonic plate lookup failed")
		} else {
			evt.TectonicPlate = plate
		}

		country, err := e.store.CountryAt(ctx, lat, lon)
		metrics.RecordEnrichment("origin_country", err)
		if err != nil {
			logging.Err(err).Str("global_id", evt.GlobalID).Msg("Origin country lookup failed")
		} else {
			evt.OriginCountry = country
		}
	}

	if !hasShakemap || evt.SourceID == "" {
		return nil
	}

	curves, err := e.contours(ctx, evt.SourceID)
	if err != nil {
		logging.Err(err).Str("source_id", evt.SourceID).Msg("Shakemap contour fetch failed")
		return nil
	}
	if len(curves) == 0 {
		return nil
	}

	evt.AffectedCountries = e.affectedCountries(ctx, curves)
	return curves
}

// affectedCountries looks up the country under every distinct contour vertex
// and returns the distinct non-null hits in first-seen order. Contour rings
// repeat their closing vertex and neighboring contours share grid points, so
// vertices are deduplicated before hitting the database.
func (e *Enricher) affectedCountries(ctx context.Context, curves []models.IntensityCurve) models.StringList {
	seenVertex := make(map[[2]float64]struct{})
	seenCountry := make(map[string]struct{})
	affected := models.StringList{}

	for _, curve := range curves {
		for _, v := range contourVertices(curve.Coordinates) {
			if _, dup := seenVertex[v]; dup {
				continue
			}
			seenVertex[v] = struct{}{}

			lon, lat := v[0], v[1]
			country, err := e.store.CountryAt(ctx, lat, lon)
			metrics.RecordEnrichment("affected_countries", err)
			if err != nil {
				logging.Err(err).
					Float64("lat", lat).
					Float64("lon", lon).
					Msg("Affected country lookup failed")
				continue
			}
			if country == nil {
				continue
			}
			if _, dup := seenCountry[*country]; dup {
				continue
			}
			seenCountry[*country] = struct{}{}
			affected = append(affected, *country)
		}
	}

	return affected
}
