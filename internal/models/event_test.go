// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package models

import (
	"testing"
)

func TestSourcePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		want   int
	}{
		{SourceUSGS, 0},
		{SourceIGN, 1},
		{SourceEMSC, 2},
		{"GEONET", 99},
		{"", 99},
	}

	for _, tt := range tests {
		if got := SourcePriority(tt.source); got != tt.want {
			t.Errorf("SourcePriority(%q) = %d, want %d", tt.source, got, tt.want)
		}
	}
}

func TestEventHasLocation(t *testing.T) {
	t.Parallel()

	lat := 38.0
	lon := -122.0

	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"both coordinates", Event{Latitude: &lat, Longitude: &lon}, true},
		{"missing longitude", Event{Latitude: &lat}, false},
		{"missing latitude", Event{Longitude: &lon}, false},
		{"neither", Event{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.event.HasLocation(); got != tt.want {
				t.Errorf("HasLocation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStringListValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		list StringList
		want string
	}{
		{"nil stores as empty array", nil, "[]"},
		{"empty", StringList{}, "[]"},
		{"values", StringList{"Chile", "Argentina"}, `["Chile","Argentina"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := tt.list.Value()
			if err != nil {
				t.Fatalf("Value() error: %v", err)
			}
			b, ok := v.([]byte)
			if !ok {
				t.Fatalf("Value() returned %T, want []byte", v)
			}
			if string(b) != tt.want {
				t.Errorf("Value() = %s, want %s", b, tt.want)
			}
		})
	}
}

func TestStringListScan(t *testing.T) {
	t.Parallel()

	var list StringList
	if err := list.Scan([]byte(`["Spain","Portugal"]`)); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(list) != 2 || list[0] != "Spain" || list[1] != "Portugal" {
		t.Errorf("Scan() = %v, want [Spain Portugal]", list)
	}

	if err := list.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if list != nil {
		t.Errorf("Scan(nil) = %v, want nil", list)
	}

	if err := list.Scan(42); err == nil {
		t.Error("Scan(int) expected error, got nil")
	}
}

func TestStringListRoundTrip(t *testing.T) {
	t.Parallel()

	in := StringList{"New Zealand"}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var out StringList
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(out) != 1 || out[0] != "New Zealand" {
		t.Errorf("round trip = %v, want [New Zealand]", out)
	}
}
