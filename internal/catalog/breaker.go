// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package catalog

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/seismograph/internal/logging"
	"github.com/tomtom215/seismograph/internal/metrics"
	"github.com/tomtom215/seismograph/internal/models"
)

// BreakerSource wraps a catalog Source with a circuit breaker so that a
// catalog API outage stops producing request load instead of cascading
// timeouts into every cycle.
//
// DETERMINISM NOTE: the breaker uses real time (via sony/gobreaker) for its
// interval and timeout calculations. This is intentional for production
// resilience; tests exercise the wrapped adapter directly or drive the
// breaker past its thresholds.
type BreakerSource struct {
	src  Source
	cb   *gobreaker.CircuitBreaker[[]models.RawEvent]
	name string
}

// NewBreakerSource creates a circuit-breaking wrapper around src.
// Breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewBreakerSource(src Source) *BreakerSource {
	cbName := "catalog-" + src.Name()

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]models.RawEvent](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		// Opens when failure rate >= 60% with minimum 10 requests
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false // Need at least 10 requests for statistical significance
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Str("source", src.Name()).Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.RecordBreakerTransition(name, fromStr, toStr, stateToFloat(to))
		},
	})

	return &BreakerSource{
		src:  src,
		cb:   cb,
		name: cbName,
	}
}

// Name returns the wrapped adapter's catalog name.
func (b *BreakerSource) Name() string { return b.src.Name() }

// Fetch runs the wrapped adapter's Fetch through the circuit breaker.
// When the circuit is open the request is rejected without touching the
// network and the caller sees gobreaker.ErrOpenState.
func (b *BreakerSource) Fetch(ctx context.Context, window Window) ([]models.RawEvent, error) {
	events, err := b.cb.Execute(func() ([]models.RawEvent, error) {
		return b.src.Fetch(ctx, window)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordBreakerRequest(b.name, "rejected")
			logging.Warn().Str("source", b.src.Name()).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.RecordBreakerRequest(b.name, "failure")
		}
		return nil, err
	}

	metrics.RecordBreakerRequest(b.name, "success")
	return events, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
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

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
