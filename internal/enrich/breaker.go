// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package enrich

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/seismograph/internal/logging"
	"github.com/tomtom215/seismograph/internal/metrics"
	"github.com/tomtom215/seismograph/internal/models"
)

// contourBreakerName identifies the shakemap product breaker in logs and
// metrics.
const contourBreakerName = "usgs-shakemap"

// newContourBreaker builds the circuit breaker guarding the shakemap product
// endpoint, with the same policy as the catalog breakers:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func newContourBreaker() *gobreaker.CircuitBreaker[[]models.IntensityCurve] {
	metrics.CircuitBreakerState.WithLabelValues(contourBreakerName).Set(0) // 0 = closed

	return gobreaker.NewCircuitBreaker[[]models.IntensityCurve](gobreaker.Settings{
		Name:        contourBreakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio < 0.6 {
				return false
			}
			logging.Warn().Str("breaker", contourBreakerName).Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			return true
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), stateValue(to))
		},
	})
}

// contours runs fetchContours through the circuit breaker. While the circuit
// is open the USGS product endpoints are not touched at all.
func (e *Enricher) contours(ctx context.Context, sourceID string) ([]models.IntensityCurve, error) {
	curves, err := e.cb.Execute(func() ([]models.IntensityCurve, error) {
		return e.fetchContours(ctx, sourceID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordBreakerRequest(contourBreakerName, "rejected")
		} else {
			metrics.RecordBreakerRequest(contourBreakerName, "failure")
		}
		return nil, err
	}
	metrics.RecordBreakerRequest(contourBreakerName, "success")
	return curves, nil
}

// stateValue converts a breaker state to its gauge encoding (0=closed,
// 1=half-open, 2=open).
func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
