// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/seismograph/internal/metrics"
	"github.com/tomtom215/seismograph/internal/models"
	"github.com/tomtom215/seismograph/internal/normalize"
)

// contourURLPattern matches the MMI contour product URL inside a serialized
// detail document. The document nests product payloads several levels deep;
// scanning the serialized form is simpler and more robust than walking the
// product tree by key.
var contourURLPattern = regexp.MustCompile(`https://[^\s"']+cont_mmi\.json`)

// fetchContours pulls the USGS detail document for the event, locates the
// first MMI contour URL inside it, and downloads the contour set. Returns
// (nil, nil) when the event has no contour product. Parsing is
// all-or-nothing: a single malformed contour feature discards the set.
func (e *Enricher) fetchContours(ctx context.Context, sourceID string) (curves []models.IntensityCurve, err error) {
	start := time.Now()
	defer func() {
		switch {
		case err != nil:
			metrics.RecordShakemapFetch(time.Since(start), "error")
		case len(curves) == 0:
			metrics.RecordShakemapFetch(time.Since(start), "no_contours")
		default:
			metrics.RecordShakemapFetch(time.Since(start), "ok")
		}
	}()

	params := url.Values{}
	params.Set("eventid", upstreamEventID(sourceID))
	params.Set("format", "geojson")

	resp, err := e.get(ctx, e.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("detail document: %w", err)
	}
	defer resp.Body.Close()

	var detail any
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("detail document: decoding: %w", err)
	}

	// Re-serialize before scanning so escaped URLs still match.
	serialized, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("detail document: reserializing: %w", err)
	}
	contourURL := contourURLPattern.Find(serialized)
	if contourURL == nil {
		return nil, nil
	}

	contourResp, err := e.get(ctx, string(contourURL))
	if err != nil {
		return nil, fmt.Errorf("contour document: %w", err)
	}
	defer contourResp.Body.Close()

	var contourDoc struct {
		Features []struct {
			Properties struct {
				Value any `json:"value"`
			} `json:"properties"`
			Geometry struct {
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.NewDecoder(contourResp.Body).Decode(&contourDoc); err != nil {
		return nil, fmt.Errorf("contour document: decoding: %w", err)
	}

	curves = make([]models.IntensityCurve, 0, len(contourDoc.Features))
	for i, f := range contourDoc.Features {
		value, ok := normalize.Float(f.Properties.Value)
		if !ok {
			return nil, fmt.Errorf("contour document: feature %d has no numeric value", i)
		}
		if len(f.Geometry.Coordinates) == 0 {
			return nil, fmt.Errorf("contour document: feature %d has no coordinates", i)
		}
		curves = append(curves, models.IntensityCurve{
			Intensity:   value,
			Coordinates: f.Geometry.Coordinates,
		})
	}
	return curves, nil
}

// get performs one rate-limited GET. Errors carry the status only; callers
// log and downgrade, so the response body is never surfaced.
func (e *Enricher) get(ctx context.Context, reqURL string) (*http.Response, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return resp, nil
}

// upstreamEventID strips the catalog prefix the USGS adapter stamped onto
// the source ID; the fdsnws detail API wants the bare upstream identifier.
func upstreamEventID(sourceID string) string {
	if rest, ok := strings.CutPrefix(sourceID, models.SourceUSGS+"_"); ok {
		return rest
	}
	return sourceID
}

// contourVertices flattens GeoJSON coordinate nesting (line strings, rings,
// multipolygons) into [lon, lat] pairs. A node is a vertex when its first
// two elements are numbers; anything else recurses.
func contourVertices(coordinates json.RawMessage) [][2]float64 {
	var node any
	if err := json.Unmarshal(coordinates, &node); err != nil {
		return nil
	}
	return walkVertices(node)
}

func walkVertices(node any) [][2]float64 {
	arr, ok := node.([]any)
	if !ok {
		return nil
	}
	if len(arr) >= 2 {
		lon, lonOK := arr[0].(float64)
		lat, latOK := arr[1].(float64)
		if lonOK && latOK {
			return [][2]float64{{lon, lat}}
		}
	}
	var out [][2]float64
	for _, child := range arr {
		out = append(out, walkVertices(child)...)
	}
	return out
}
