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

// ignFixture mimics the upstream terremotos.js document: a JavaScript file
// with several variable declarations, one of which holds the GeoJSON-shaped
// object literal the adapter extracts.
const ignFixture = `var proximos = {"type":"FeatureCollection","features":[]};
var dias3 = {"type":"FeatureCollection","features":[
{"type":"Feature","id":"es2026krfqx","properties":{"evid":"es2026krfqx","fecha":"24/08/2026 13:45:12","mag":3.2,"magtype":"mbLg","depth":10,"loc":"SW VILLANUEVA DEL ROSARIO.MA"},"geometry":{"type":"Point","coordinates":[-4.3421,36.9871,10]}},
{"type":"Feature","properties":{"fecha":"24/08/2026 14:02:51","mag":2.1,"magtype":"mbLg","depth":5,"loc":"GOLFO DE CADIZ"},"geometry":{"type":"Point","coordinates":[-7.25,36.5]}},
{"type":"Feature","properties":"bogus","geometry":{"type":"Point","coordinates":[-1.0,38.0,3]}}
]};
var leyenda = "ultimos dias";
`

func TestIGNName(t *testing.T) {
	t.Parallel()
	if got := NewIGN(time.Second).Name(); got != models.SourceIGN {
		t.Errorf("Name() = %q, want %q", got, models.SourceIGN)
	}
}

func TestIGNFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript")
		w.Write([]byte(ignFixture))
	}))
	defer server.Close()

	adapter := NewIGN(5 * time.Second)
	adapter.baseURL = server.URL

	events, err := adapter.Fetch(context.Background(), Window{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// Two valid features; the one with non-object properties is skipped.
	if len(events) != 2 {
		t.Fatalf("Fetch() returned %d events, want 2", len(events))
	}

	evt := events[0]
	if evt.Source != models.SourceIGN {
		t.Errorf("Source = %q, want %q", evt.Source, models.SourceIGN)
	}
	if evt.SourceID != "IGN_es2026krfqx" {
		t.Errorf("SourceID = %q, want IGN_es2026krfqx", evt.SourceID)
	}
	if want := normalize.GlobalID(models.SourceIGN, "IGN_es2026krfqx"); evt.GlobalID != want {
		t.Errorf("GlobalID = %q, want %q", evt.GlobalID, want)
	}
	if evt.Magnitude != 3.2 {
		t.Errorf("Magnitude = %v, want 3.2", evt.Magnitude)
	}
	if evt.MagType != "mbLg" {
		t.Errorf("MagType = %v, want mbLg", evt.MagType)
	}
	if evt.PlaceName != "SW VILLANUEVA DEL ROSARIO.MA" {
		t.Errorf("PlaceName = %v", evt.PlaceName)
	}
	if evt.Latitude != 36.9871 || evt.Longitude != -4.3421 {
		t.Errorf("coordinates = (%v, %v), want (36.9871, -4.3421)", evt.Latitude, evt.Longitude)
	}
	if evt.DepthKm != 10.0 {
		t.Errorf("DepthKm = %v, want 10", evt.DepthKm)
	}
	if evt.OriginTimeUTC != "24/08/2026 13:45:12" {
		t.Errorf("OriginTimeUTC = %v, want raw fecha string", evt.OriginTimeUTC)
	}
	if evt.UpdatedTimeUTC != nil {
		t.Errorf("UpdatedTimeUTC = %v, want nil (feed has no update marker)", evt.UpdatedTimeUTC)
	}
	if evt.HasShakemap != nil {
		t.Errorf("HasShakemap = %v, want nil", evt.HasShakemap)
	}
	if evt.RetrievedTime.IsZero() {
		t.Error("RetrievedTime is zero")
	}
	if !strings.Contains(string(evt.RawData), "es2026krfqx") {
		t.Errorf("RawData does not carry the upstream feature: %s", evt.RawData)
	}
}

func TestIGNFetchEvidFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ignFixture))
	}))
	defer server.Close()

	adapter := NewIGN(5 * time.Second)
	adapter.baseURL = server.URL

	events, err := adapter.Fetch(context.Background(), Window{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Fetch() returned %d events, want 2", len(events))
	}

	// Second feature carries no evid: the identifier falls back to the
	// lon_lat pair so the record still gets a stable global_id.
	evt := events[1]
	if evt.SourceID != "IGN_-7.25_36.5" {
		t.Errorf("SourceID = %q, want IGN_-7.25_36.5", evt.SourceID)
	}
	if want := normalize.GlobalID(models.SourceIGN, "IGN_-7.25_36.5"); evt.GlobalID != want {
		t.Errorf("GlobalID = %q, want %q", evt.GlobalID, want)
	}
	// Two-element coordinates: depth comes from properties, not geometry.
	if evt.DepthKm != 5.0 {
		t.Errorf("DepthKm = %v, want 5", evt.DepthKm)
	}
}

func TestIGNFetchPayloadMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`var proximos = {"features":[]}; var leyenda = "sin datos";`))
	}))
	defer server.Close()

	adapter := NewIGN(5 * time.Second)
	adapter.baseURL = server.URL

	_, err := adapter.Fetch(context.Background(), Window{})
	if err == nil {
		t.Fatal("Fetch() expected error when dias3 block is absent")
	}
	if !strings.Contains(err.Error(), "payload block not found") {
		t.Errorf("error = %q, want payload block not found", err)
	}
}

func TestIGNFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("backend error"))
	}))
	defer server.Close()

	adapter := NewIGN(5 * time.Second)
	adapter.baseURL = server.URL

	_, err := adapter.Fetch(context.Background(), Window{})
	if err == nil {
		t.Fatal("Fetch() expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %q, want mention of status 500", err)
	}
}

func TestIGNPayloadRegex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		want    string
		matches bool
	}{
		{
			name:    "standard declaration",
			doc:     `var dias3 = {"features":[]};`,
			want:    `{"features":[]}`,
			matches: true,
		},
		{
			name:    "compact declaration",
			doc:     `var dias3={"a":1};`,
			want:    `{"a":1}`,
			matches: true,
		},
		{
			name:    "multiline object",
			doc:     "var dias3 = {\n\"features\": [\n{\"a\": 1}\n]\n};",
			want:    "{\n\"features\": [\n{\"a\": 1}\n]\n}",
			matches: true,
		},
		{
			name:    "nested braces stop at the statement terminator",
			doc:     `var dias3 = {"f":[{"p":{"x":1}}]}; var other = {};`,
			want:    `{"f":[{"p":{"x":1}}]}`,
			matches: true,
		},
		{
			name:    "different variable does not match",
			doc:     `var dias7 = {"features":[]};`,
			matches: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			match := ignPayloadRe.FindStringSubmatch(tt.doc)
			if !tt.matches {
				if match != nil {
					t.Errorf("regex matched %q, want no match", match[0])
				}
				return
			}
			if match == nil {
				t.Fatalf("regex did not match %q", tt.doc)
			}
			if match[1] != tt.want {
				t.Errorf("captured %q, want %q", match[1], tt.want)
			}
		})
	}
}
