// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/seismograph/internal/models"
	"github.com/tomtom215/seismograph/internal/normalize"
)

// usgsURL is the fdsnws event query endpoint.
const usgsURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// USGS pulls events from the USGS fdsnws GeoJSON API for a bounded window.
type USGS struct {
	baseURL string
	client  *http.Client
}

// NewUSGS creates the USGS adapter with the given per-request timeout.
func NewUSGS(timeout time.Duration) *USGS {
	return &USGS{
		baseURL: usgsURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the catalog name stored on events.
func (s *USGS) Name() string { return models.SourceUSGS }

type usgsFeature struct {
	ID         string `json:"id"`
	Properties struct {
		Type    string `json:"type"`
		Mag     any    `json:"mag"`
		MagType any    `json:"magType"`
		Place   any    `json:"place"`
		Time    any    `json:"time"`
		Updated any    `json:"updated"`
		Tsunami any    `json:"tsunami"`
		Types   string `json:"types"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []any `json:"coordinates"`
	} `json:"geometry"`
}

// Fetch queries the window in GeoJSON form. Non-earthquake features
// (quarry blasts, explosions, ...) are skipped. Timestamps arrive as epoch
// milliseconds and pass through untouched; coercion happens at upsert.
func (s *USGS) Fetch(ctx context.Context, window Window) ([]models.RawEvent, error) {
	params := url.Values{}
	params.Set("format", "geojson")
	params.Set("starttime", window.Start.UTC().Format(time.RFC3339))
	params.Set("endtime", window.End.UTC().Format(time.RFC3339))

	resp, err := httpGet(ctx, s.client, s.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("USGS fetch: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := decodeJSONResponse(resp, &envelope); err != nil {
		return nil, fmt.Errorf("USGS fetch: decoding response: %w", err)
	}

	retrieved := time.Now().UTC()
	events := make([]models.RawEvent, 0, len(envelope.Features))

	for _, raw := range envelope.Features {
		var f usgsFeature
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		if !strings.EqualFold(f.Properties.Type, "earthquake") {
			continue
		}

		coords := f.Geometry.Coordinates
		sourceID := models.SourceUSGS + "_" + f.ID

		events = append(events, models.RawEvent{
			Source:         models.SourceUSGS,
			SourceID:       sourceID,
			GlobalID:       normalize.GlobalID(models.SourceUSGS, sourceID),
			Magnitude:      f.Properties.Mag,
			MagType:        f.Properties.MagType,
			PlaceName:      f.Properties.Place,
			Latitude:       coordinate(coords, 1),
			Longitude:      coordinate(coords, 0),
			DepthKm:        coordinate(coords, 2),
			OriginTimeUTC:  f.Properties.Time,
			UpdatedTimeUTC: f.Properties.Updated,
			RetrievedTime:  retrieved,
			Tsunami:        f.Properties.Tsunami,
			HasShakemap:    strings.Contains(f.Properties.Types, "shakemap"),
			RawData:        raw,
		})
	}

	return events, nil
}
