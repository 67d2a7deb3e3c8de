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

// emscURL is the EMSC seismicportal fdsnws event query endpoint.
const emscURL = "https://www.seismicportal.eu/fdsnws/event/1/query"

// emscTimeLayout is the second-resolution format the EMSC API expects for
// starttime/endtime; it rejects fractional seconds and offsets.
const emscTimeLayout = "2006-01-02T15:04:05"

// EMSC pulls events from the Euro-Mediterranean Seismological Centre API
// for a bounded window.
type EMSC struct {
	baseURL string
	client  *http.Client
}

// NewEMSC creates the EMSC adapter with the given per-request timeout.
func NewEMSC(timeout time.Duration) *EMSC {
	return &EMSC{
		baseURL: emscURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the catalog name stored on events.
func (s *EMSC) Name() string { return models.SourceEMSC }

type emscFeature struct {
	Properties struct {
		Unid        any    `json:"unid"`
		EvType      string `json:"evtype"`
		Mag         any    `json:"mag"`
		MagType     any    `json:"magtype"`
		FlynnRegion any    `json:"flynn_region"`
		Time        any    `json:"time"`
		LastUpdate  any    `json:"lastupdate"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []any `json:"coordinates"`
	} `json:"geometry"`
}

// Fetch queries the window. Only confirmed ("ke") and felt ("fe") earthquake
// records are kept; other event types (suspected inductions, blasts) are
// skipped.
func (s *EMSC) Fetch(ctx context.Context, window Window) ([]models.RawEvent, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("starttime", window.Start.UTC().Format(emscTimeLayout))
	params.Set("endtime", window.End.UTC().Format(emscTimeLayout))

	resp, err := httpGet(ctx, s.client, s.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("EMSC fetch: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := decodeJSONResponse(resp, &envelope); err != nil {
		return nil, fmt.Errorf("EMSC fetch: decoding response: %w", err)
	}

	retrieved := time.Now().UTC()
	events := make([]models.RawEvent, 0, len(envelope.Features))

	for _, raw := range envelope.Features {
		var f emscFeature
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}

		evType := strings.ToLower(strings.TrimSpace(f.Properties.EvType))
		if evType != "ke" && evType != "fe" {
			continue
		}

		coords := f.Geometry.Coordinates
		unid, _ := normalize.String(f.Properties.Unid)
		sourceID := models.SourceEMSC + "_" + unid

		events = append(events, models.RawEvent{
			Source:         models.SourceEMSC,
			SourceID:       sourceID,
			GlobalID:       normalize.GlobalID(models.SourceEMSC, sourceID),
			Magnitude:      f.Properties.Mag,
			MagType:        f.Properties.MagType,
			PlaceName:      f.Properties.FlynnRegion,
			Latitude:       coordinate(coords, 1),
			Longitude:      coordinate(coords, 0),
			DepthKm:        coordinate(coords, 2),
			OriginTimeUTC:  f.Properties.Time,
			UpdatedTimeUTC: f.Properties.LastUpdate,
			RetrievedTime:  retrieved,
			RawData:        raw,
		})
	}

	return events, nil
}
