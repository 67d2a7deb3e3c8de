// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/seismograph/internal/models"
	"github.com/tomtom215/seismograph/internal/normalize"
)

// ignURL serves a JavaScript document with the last days of Spanish-network
// events embedded as an object literal.
const ignURL = "https://www.ign.es/web/resources/sismologia/tproximos/terremotos.js"

// ignPayloadRe captures the embedded object literal. The document is JS, not
// JSON; the captured group parses as JSON on its own.
var ignPayloadRe = regexp.MustCompile(`(?s)var\s+dias3\s*=\s*(\{.*?\});`)

// IGN pulls events from the Instituto Geográfico Nacional feed.
//
// The feed is a rolling snapshot of recent events, so Fetch ignores the
// window: filtering happens downstream where global_id idempotence makes
// re-seen events collapse to "unchanged".
type IGN struct {
	baseURL string
	client  *http.Client
}

// NewIGN creates the IGN adapter with the given per-request timeout.
func NewIGN(timeout time.Duration) *IGN {
	return &IGN{
		baseURL: ignURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the catalog name stored on events.
func (s *IGN) Name() string { return models.SourceIGN }

type ignFeature struct {
	Properties struct {
		EvID    any `json:"evid"`
		Mag     any `json:"mag"`
		MagType any `json:"magtype"`
		Loc     any `json:"loc"`
		Depth   any `json:"depth"`
		Fecha   any `json:"fecha"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []any `json:"coordinates"`
	} `json:"geometry"`
}

// Fetch downloads the JS document, extracts the embedded object literal, and
// maps its features. The window is unused (rolling snapshot feed).
func (s *IGN) Fetch(ctx context.Context, _ Window) ([]models.RawEvent, error) {
	resp, err := httpGet(ctx, s.client, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("IGN fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("IGN fetch: reading body: %w", err)
	}

	match := ignPayloadRe.FindSubmatch(body)
	if match == nil {
		return nil, fmt.Errorf("IGN fetch: payload block not found")
	}

	var envelope struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(match[1], &envelope); err != nil {
		return nil, fmt.Errorf("IGN fetch: parsing payload: %w", err)
	}

	retrieved := time.Now().UTC()
	events := make([]models.RawEvent, 0, len(envelope.Features))

	for _, raw := range envelope.Features {
		var f ignFeature
		if err := json.Unmarshal(raw, &f); err != nil {
			continue // malformed single feature, keep the rest
		}

		coords := f.Geometry.Coordinates
		lon := coordinate(coords, 0)
		lat := coordinate(coords, 1)

		evid, _ := normalize.String(f.Properties.EvID)
		if evid == "" {
			evid = fmt.Sprintf("%v_%v", lon, lat)
		}
		sourceID := models.SourceIGN + "_" + evid

		events = append(events, models.RawEvent{
			Source:        models.SourceIGN,
			SourceID:      sourceID,
			GlobalID:      normalize.GlobalID(models.SourceIGN, sourceID),
			Magnitude:     f.Properties.Mag,
			MagType:       f.Properties.MagType,
			PlaceName:     f.Properties.Loc,
			Latitude:      lat,
			Longitude:     lon,
			DepthKm:       f.Properties.Depth,
			OriginTimeUTC: f.Properties.Fecha,
			// The feed carries no update marker; re-seen events stay "unchanged".
			UpdatedTimeUTC: nil,
			RetrievedTime:  retrieved,
			RawData:        raw,
		})
	}

	return events, nil
}
