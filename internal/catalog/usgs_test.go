// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/seismograph/internal/models"
	"github.com/tomtom215/seismograph/internal/normalize"
)

const usgsFixture = `{"type":"FeatureCollection","metadata":{"generated":1756042300000,"count":4},"features":[
{"type":"Feature","id":"us7000qabc","properties":{"mag":5.6,"place":"23 km SSW of Karpathos, Greece","time":1756041900000,"updated":1756042210000,"tsunami":1,"magType":"mww","type":"earthquake","types":",origin,phase-data,shakemap,"},"geometry":{"type":"Point","coordinates":[27.123,35.432,18.5]}},
{"type":"Feature","id":"us7000qdef","properties":{"mag":1.4,"place":"quarry near Ely, Nevada","time":1756041000000,"updated":1756041100000,"tsunami":0,"magType":"ml","type":"quarry blast","types":",origin,"},"geometry":{"type":"Point","coordinates":[-114.9,39.2,0.0]}},
{"type":"Feature","id":"us7000qghi","properties":{"mag":4.1,"place":"south of the Fiji Islands","time":1756040000000,"updated":1756040500000,"tsunami":0,"magType":"mb","type":"Earthquake","types":",origin,phase-data,"},"geometry":{"type":"Point","coordinates":[178.6,-24.1,520.0]}},
{"type":"Feature","id":"us7000qxyz","properties":"bogus","geometry":{"type":"Point","coordinates":[0,0,0]}}
]}`

func TestUSGSName(t *testing.T) {
	t.Parallel()
	if got := NewUSGS(time.Second).Name(); got != models.SourceUSGS {
		t.Errorf("Name() = %q, want %q", got, models.SourceUSGS)
	}
}

func TestUSGSFetch(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"format":    r.URL.Query().Get("format"),
			"starttime": r.URL.Query().Get("starttime"),
			"endtime":   r.URL.Query().Get("endtime"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(usgsFixture))
	}))
	defer server.Close()

	adapter := NewUSGS(5 * time.Second)
	adapter.baseURL = server.URL

	window := Window{
		Start: time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 22, 10, 30, 0, 0, time.UTC),
	}
	events, err := adapter.Fetch(context.Background(), window)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotQuery["format"] != "geojson" {
		t.Errorf("format param = %q, want geojson", gotQuery["format"])
	}
	if gotQuery["starttime"] != "2026-08-20T10:30:00Z" {
		t.Errorf("starttime param = %q, want 2026-08-20T10:30:00Z", gotQuery["starttime"])
	}
	if gotQuery["endtime"] != "2026-08-22T10:30:00Z" {
		t.Errorf("endtime param = %q, want 2026-08-22T10:30:00Z", gotQuery["endtime"])
	}

	// The quarry blast and the malformed feature are skipped; the
	// capitalized "Earthquake" type still passes the filter.
	if len(events) != 2 {
		t.Fatalf("Fetch() returned %d events, want 2", len(events))
	}

	evt := events[0]
	if evt.Source != models.SourceUSGS {
		t.Errorf("Source = %q, want %q", evt.Source, models.SourceUSGS)
	}
	if evt.SourceID != "USGS_us7000qabc" {
		t.Errorf("SourceID = %q, want USGS_us7000qabc", evt.SourceID)
	}
	if want := normalize.GlobalID(models.SourceUSGS, "USGS_us7000qabc"); evt.GlobalID != want {
		t.Errorf("GlobalID = %q, want %q", evt.GlobalID, want)
	}
	if evt.Magnitude != 5.6 {
		t.Errorf("Magnitude = %v, want 5.6", evt.Magnitude)
	}
	if evt.MagType != "mww" {
		t.Errorf("MagType = %v, want mww", evt.MagType)
	}
	if evt.PlaceName != "23 km SSW of Karpathos, Greece" {
		t.Errorf("PlaceName = %v", evt.PlaceName)
	}
	if evt.Latitude != 35.432 || evt.Longitude != 27.123 {
		t.Errorf("coordinates = (%v, %v), want (35.432, 27.123)", evt.Latitude, evt.Longitude)
	}
	if evt.DepthKm != 18.5 {
		t.Errorf("DepthKm = %v, want 18.5", evt.DepthKm)
	}
	// Epoch milliseconds pass through unconverted.
	if evt.OriginTimeUTC != 1756041900000.0 {
		t.Errorf("OriginTimeUTC = %v, want 1756041900000", evt.OriginTimeUTC)
	}
	if evt.UpdatedTimeUTC != 1756042210000.0 {
		t.Errorf("UpdatedTimeUTC = %v, want 1756042210000", evt.UpdatedTimeUTC)
	}
	if evt.Tsunami != 1.0 {
		t.Errorf("Tsunami = %v, want 1", evt.Tsunami)
	}
	if evt.HasShakemap != true {
		t.Errorf("HasShakemap = %v, want true", evt.HasShakemap)
	}
	if !strings.Contains(string(evt.RawData), "us7000qabc") {
		t.Errorf("RawData does not carry the upstream feature: %s", evt.RawData)
	}

	// No shakemap in the product list: explicit false, not absent.
	deep := events[1]
	if deep.SourceID != "USGS_us7000qghi" {
		t.Errorf("SourceID = %q, want USGS_us7000qghi", deep.SourceID)
	}
	if deep.HasShakemap != false {
		t.Errorf("HasShakemap = %v, want false", deep.HasShakemap)
	}
	if deep.DepthKm != 520.0 {
		t.Errorf("DepthKm = %v, want 520", deep.DepthKm)
	}
}

func TestUSGSFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("gateway unavailable"))
	}))
	defer server.Close()

	adapter := NewUSGS(5 * time.Second)
	adapter.baseURL = server.URL

	_, err := adapter.Fetch(context.Background(), Window{Start: time.Now(), End: time.Now()})
	if err == nil {
		t.Fatal("Fetch() expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "status 502") {
		t.Errorf("error = %q, want mention of status 502", err)
	}
	if !strings.Contains(err.Error(), "gateway unavailable") {
		t.Errorf("error = %q, want response body included", err)
	}
}

func TestUSGSFetchMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": [`))
	}))
	defer server.Close()

	adapter := NewUSGS(5 * time.Second)
	adapter.baseURL = server.URL

	_, err := adapter.Fetch(context.Background(), Window{Start: time.Now(), End: time.Now()})
	if err == nil {
		t.Fatal("Fetch() expected error for truncated JSON")
	}
	if !strings.Contains(err.Error(), "decoding response") {
		t.Errorf("error = %q, want decoding response", err)
	}
}
