// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

// Package catalog implements the source adapters that pull seismic events
// from the upstream catalogs (IGN, USGS, EMSC) and map them onto the common
// RawEvent shape.
//
// Each adapter performs one bounded HTTP GET per cycle, parses the payload,
// and yields RawEvents with the upstream feature preserved verbatim in
// RawData. Adapters return errors instead of swallowing them; the
// orchestrator downgrades a failed source to an empty list with a warning so
// one broken feed never aborts a cycle. Fetches run through a circuit
// breaker (see BreakerSource) so a flapping upstream is cut off instead of
// hammered.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/seismograph/internal/models"
)

// Window is the fetch interval passed to the parameterized catalog APIs.
// The IGN feed is a rolling snapshot and ignores it.
type Window struct {
	Start time.Time
	End   time.Time
}

// Source is one upstream seismic catalog.
//
// Fetch returns every event the catalog reports for the window. A returned
// error means the whole fetch failed (transport, status, parse); partial
// per-record problems are handled inside the adapter by skipping the record.
// Implementations are safe for concurrent use.
type Source interface {
	Name() string
	Fetch(ctx context.Context, window Window) ([]models.RawEvent, error)
}

// maxErrorBodySize limits the maximum amount of response body read for error reporting
// This prevents unbounded memory allocation when reading large error responses
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads the response body for error reporting (max 64KB)
// Returns the body content or a placeholder message if reading fails
// Uses io.LimitReader to prevent unbounded memory allocation
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// httpGet performs a GET with context and fails on any non-2xx status.
// The caller owns the response body on success.
func httpGet(ctx context.Context, client *http.Client, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readBodyForError(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}

// decodeJSONResponse decodes an HTTP response body into the provided result struct
func decodeJSONResponse(resp *http.Response, result interface{}) error {
	decoder := json.NewDecoder(resp.Body)
	return decoder.Decode(result)
}

// coordinate returns the i-th element of a GeoJSON coordinate array, or nil
// when the array is too short. Feeds occasionally ship 2-element coordinates.
func coordinate(coords []any, i int) any {
	if i < 0 || i >= len(coords) {
		return nil
	}
	return coords[i]
}
