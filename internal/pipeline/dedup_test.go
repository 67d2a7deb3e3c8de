// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/seismograph/internal/config"
	"github.com/tomtom215/seismograph/internal/database"
	"github.com/tomtom215/seismograph/internal/models"
)

var dedupBase = time.Date(2026, 8, 24, 13, 25, 0, 0, time.UTC)

// candidate builds one time-sorted sweep row. Offsets must be handed in
// ascending order, matching the store query's ORDER BY.
func candidate(id int64, source string, offset time.Duration, mag, lat, lon float64) models.Event {
	origin := dedupBase.Add(offset)
	return models.Event{
		ID:         id,
		GlobalID:   source + "_" + origin.Format("150405"),
		Source:     source,
		SourceID:   source + "_" + origin.Format("150405"),
		Magnitude:  &mag,
		Latitude:   &lat,
		Longitude:  &lon,
		OriginTime: &origin,
	}
}

func defaultThresholds() config.DedupConfig {
	return config.DedupConfig{
		TimeWindow:        8 * time.Second,
		MaxDistanceKm:     8,
		MaxMagnitudeDelta: 0.7,
	}
}

func TestDedupPairRules(t *testing.T) {
	t.Parallel()

	// Distance between the reference pair of coordinates; reused so the
	// inclusive-boundary case compares dd against its own exact value.
	edgeKm := haversineKm(40.0, -3.0, 40.0, -2.9)

	tests := []struct {
		name string
		cfg  func(*config.DedupConfig)
		a, b models.Event
		want int
	}{
		{
			name: "close pair links",
			a:    candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
			b:    candidate(2, models.SourceEMSC, 3*time.Second, 5.1, 40.01, -3.01),
			want: 1,
		},
		{
			name: "time gap at the window still links",
			a:    candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
			b:    candidate(2, models.SourceEMSC, 8*time.Second, 5.0, 40.0, -3.0),
			want: 1,
		},
		{
			name: "time gap beyond the window",
			a:    candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
			b:    candidate(2, models.SourceEMSC, 9*time.Second, 5.0, 40.0, -3.0),
			want: 0,
		},
		{
			name: "same source never links",
			a:    candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
			b:    candidate(2, models.SourceUSGS, 2*time.Second, 5.0, 40.0, -3.0),
			want: 0,
		},
		{
			name: "missing magnitude on either side",
			a: func() models.Event {
				evt := candidate(1, models.SourceUSGS, 0, 0, 40.0, -3.0)
				evt.Magnitude = nil
				return evt
			}(),
			b:    candidate(2, models.SourceEMSC, 2*time.Second, 5.0, 40.0, -3.0),
			want: 0,
		},
		{
			name: "magnitude delta at the threshold still links",
			cfg:  func(c *config.DedupConfig) { c.MaxMagnitudeDelta = 0.75 },
			a:    candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
			b:    candidate(2, models.SourceEMSC, 2*time.Second, 5.75, 40.0, -3.0),
			want: 1,
		},
		{
			name: "magnitude delta beyond the threshold",
			cfg:  func(c *config.DedupConfig) { c.MaxMagnitudeDelta = 0.75 },
			a:    candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
			b:    candidate(2, models.SourceEMSC, 2*time.Second, 6.0, 40.0, -3.0),
			want: 0,
		},
		{
			name: "distance at the threshold still links",
			cfg:  func(c *config.DedupConfig) { c.MaxDistanceKm = edgeKm },
			a:    candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
			b:    candidate(2, models.SourceEMSC, 2*time.Second, 5.0, 40.0, -2.9),
			want: 1,
		},
		{
			name: "distance beyond the threshold",
			cfg:  func(c *config.DedupConfig) { c.MaxDistanceKm = edgeKm - 0.001 },
			a:    candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
			b:    candidate(2, models.SourceEMSC, 2*time.Second, 5.0, 40.0, -2.9),
			want: 0,
		},
		{
			name: "unknown sources rank equally and are skipped",
			a:    candidate(1, "GFZ", 0, 5.0, 40.0, -3.0),
			b:    candidate(2, "GEONET", 2*time.Second, 5.0, 40.0, -3.0),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultThresholds()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}

			store := newFakeStore()
			store.candidates = []models.Event{tt.a, tt.b}

			linked, err := NewDeduper(store, cfg, 2).Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if linked != tt.want {
				t.Errorf("links created = %d, want %d", linked, tt.want)
			}
			if len(store.linksCreated) != tt.want {
				t.Errorf("stored links = %d, want %d", len(store.linksCreated), tt.want)
			}
		})
	}
}

func TestDedupCanonicalByPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		first, second models.Event
		wantCanonical int64
		wantDuplicate int64
	}{
		{
			name:          "anchor outranks the later event",
			first:         candidate(1, models.SourceUSGS, 0, 5.0, 45.0, 10.0),
			second:        candidate(2, models.SourceEMSC, 3*time.Second, 5.1, 45.01, 10.01),
			wantCanonical: 1,
			wantDuplicate: 2,
		},
		{
			name:          "later event outranks the anchor",
			first:         candidate(1, models.SourceEMSC, 0, 5.1, 45.01, 10.01),
			second:        candidate(2, models.SourceUSGS, 3*time.Second, 5.0, 45.0, 10.0),
			wantCanonical: 2,
			wantDuplicate: 1,
		},
		{
			name:          "national catalog yields to the global one",
			first:         candidate(1, models.SourceIGN, 0, 4.0, 37.0, -4.0),
			second:        candidate(2, models.SourceUSGS, 2*time.Second, 4.1, 37.0, -4.0),
			wantCanonical: 2,
			wantDuplicate: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			store.candidates = []models.Event{tt.first, tt.second}

			linked, err := NewDeduper(store, defaultThresholds(), 1).Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if linked != 1 {
				t.Fatalf("links created = %d, want 1", linked)
			}

			link := store.linksCreated[0]
			if link.CanonicalID != tt.wantCanonical || link.DuplicateID != tt.wantDuplicate {
				t.Errorf("link = %d<-%d, want %d<-%d",
					link.CanonicalID, link.DuplicateID, tt.wantCanonical, tt.wantDuplicate)
			}
			if link.Dt != 3.0 && link.Dt != 2.0 {
				t.Errorf("Dt = %v, want the pair's time gap", link.Dt)
			}
			if link.Dm < 0 || link.Dm > 0.2 {
				t.Errorf("Dm = %v out of expected range", link.Dm)
			}
			if link.Dd < 0 || link.Dd > 2.0 {
				t.Errorf("Dd = %v km out of expected range", link.Dd)
			}
		})
	}
}

// TestDedupWindowBreaks verifies the sweep stops at the first event outside
// the anchor's window without giving up on later anchors: the pair on the
// far side of the gap still links.
func TestDedupWindowBreaks(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.candidates = []models.Event{
		candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
		candidate(2, models.SourceEMSC, 9*time.Second, 5.0, 40.0, -3.0),
		candidate(3, models.SourceIGN, 10*time.Second, 5.0, 40.0, -3.0),
	}

	linked, err := NewDeduper(store, defaultThresholds(), 1).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if linked != 1 {
		t.Fatalf("links created = %d, want only the post-gap pair", linked)
	}
	link := store.linksCreated[0]
	if link.CanonicalID != 3 || link.DuplicateID != 2 {
		t.Errorf("link = %d<-%d, want 3<-2", link.CanonicalID, link.DuplicateID)
	}
}

func TestDedupSkipsExistingLinks(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.candidates = []models.Event{
		candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
		candidate(2, models.SourceEMSC, 3*time.Second, 5.0, 40.0, -3.0),
	}
	store.links[[2]int64{1, 2}] = true

	linked, err := NewDeduper(store, defaultThresholds(), 1).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if linked != 0 {
		t.Errorf("links created = %d, want 0 for an already-linked pair", linked)
	}
	if len(store.linksCreated) != 0 {
		t.Errorf("stored links = %d, want 0", len(store.linksCreated))
	}
}

func TestDedupToleratesStoreFailures(t *testing.T) {
	t.Parallel()

	pair := func() []models.Event {
		return []models.Event{
			candidate(1, models.SourceUSGS, 0, 5.0, 40.0, -3.0),
			candidate(2, models.SourceEMSC, 3*time.Second, 5.0, 40.0, -3.0),
		}
	}

	t.Run("existence check failure", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.candidates = pair()
		store.existsErr = errors.New("connection reset")

		linked, err := NewDeduper(store, defaultThresholds(), 1).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v, want per-pair failures swallowed", err)
		}
		if linked != 0 {
			t.Errorf("links created = %d, want 0", linked)
		}
	})

	t.Run("creation failure", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.candidates = pair()
		store.createLinkErr = errors.New("connection reset")

		linked, err := NewDeduper(store, defaultThresholds(), 1).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v, want per-pair failures swallowed", err)
		}
		if linked != 0 {
			t.Errorf("links created = %d, want 0", linked)
		}
	})

	t.Run("concurrent sweep wins the pair", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.candidates = pair()
		store.createLinkErr = database.ErrLinkExists

		linked, err := NewDeduper(store, defaultThresholds(), 1).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if linked != 0 {
			t.Errorf("links created = %d, want the lost race not counted", linked)
		}
	})

	t.Run("candidate load failure is fatal", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.candidatesErr = errors.New("relation does not exist")

		if _, err := NewDeduper(store, defaultThresholds(), 1).Run(context.Background()); err == nil {
			t.Fatal("Run() error = nil, want candidate load failure surfaced")
		}
	})
}

func TestHaversineKm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tol                    float64
	}{
		{"zero distance", 40.0, -3.0, 40.0, -3.0, 0, 1e-9},
		{"one degree along the equator", 0, 0, 0, 1, 111.195, 0.01},
		{"one degree along a meridian", 10, 20, 11, 20, 111.195, 0.01},
		{"madrid to barcelona", 40.4168, -3.7038, 41.3874, 2.1686, 504.6, 1.0},
		{"across the antimeridian", 0, 179.5, 0, -179.5, 111.195, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := haversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("haversineKm(%v,%v,%v,%v) = %v, want %v ± %v",
					tt.lat1, tt.lon1, tt.lat2, tt.lon2, got, tt.want, tt.tol)
			}
			back := haversineKm(tt.lat2, tt.lon2, tt.lat1, tt.lon1)
			if math.Abs(got-back) > 1e-9 {
				t.Errorf("distance not symmetric: %v vs %v", got, back)
			}
		})
	}
}
