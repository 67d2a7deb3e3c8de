// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestContourBreakerPassesThrough(t *testing.T) {
	t.Parallel()

	server := newShakemapServer(t, http.StatusOK, contourFixture)
	e := newTestEnricher(&fakeStore{}, server)

	curves, err := e.contours(context.Background(), "USGS_7000qabc")
	if err != nil {
		t.Fatalf("contours() error = %v", err)
	}
	if len(curves) != 2 {
		t.Fatalf("contours() returned %d curves, want 2", len(curves))
	}
	if state := e.cb.State(); state != gobreaker.StateClosed {
		t.Errorf("state after success = %v, want Closed", state)
	}
}

// TestContourBreakerOpensAfterFailures verifies the circuit opens after the
// failure threshold and then rejects without touching the product endpoint.
func TestContourBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var detailHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/fdsnws/event/1/query", func(w http.ResponseWriter, r *http.Request) {
		detailHits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	server := httptest.NewTLSServer(mux)
	t.Cleanup(server.Close)

	e := newTestEnricher(&fakeStore{}, server)

	// 10 consecutive failures: 100% failure rate over the minimum sample
	// size of 10, so the tenth failure trips the circuit.
	for i := 0; i < 10; i++ {
		if _, err := e.contours(context.Background(), "USGS_7000qabc"); err == nil {
			t.Fatalf("call %d: expected error from failing endpoint", i)
		}
	}
	if state := e.cb.State(); state != gobreaker.StateOpen {
		t.Fatalf("state after 10 failures = %v, want Open", state)
	}

	before := detailHits.Load()
	_, err := e.contours(context.Background(), "USGS_7000qabc")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error while open = %v, want ErrOpenState", err)
	}
	if got := detailHits.Load(); got != before {
		t.Errorf("detail endpoint hit while circuit open: %d requests, want %d", got, before)
	}
}

func TestContourBreakerStaysClosedBelowMinimum(t *testing.T) {
	t.Parallel()

	server := newShakemapServer(t, http.StatusNotFound, "")
	e := newTestEnricher(&fakeStore{}, server)

	// 100% failure rate but only 5 requests: below the minimum of 10.
	for i := 0; i < 5; i++ {
		_, _ = e.contours(context.Background(), "USGS_7000qabc")
	}
	if state := e.cb.State(); state != gobreaker.StateClosed {
		t.Errorf("state with <10 requests = %v, want Closed", state)
	}
}

func TestStateValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state gobreaker.State
		want  float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
		{gobreaker.State(42), -1},
	}
	for _, tt := range tests {
		if got := stateValue(tt.state); got != tt.want {
			t.Errorf("stateValue(%v) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
