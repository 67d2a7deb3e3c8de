// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/seismograph/internal/catalog"
	"github.com/tomtom215/seismograph/internal/config"
	"github.com/tomtom215/seismograph/internal/logging"
	"github.com/tomtom215/seismograph/internal/metrics"
	"github.com/tomtom215/seismograph/internal/models"
	"github.com/tomtom215/seismograph/internal/normalize"
)

// Orchestrator drives one pipeline cycle end to end: window computation,
// catalog fan-out, collapse, upsert fan-out, dedup sweep, report.
type Orchestrator struct {
	store    Store
	sources  []catalog.Source
	upserter *Upserter
	deduper  *Deduper
	cfg      *config.Config
}

// NewOrchestrator wires the cycle driver. Sources are fetched in the order
// given; order has no semantic effect beyond log readability.
func NewOrchestrator(store Store, enricher Enricher, sources []catalog.Source, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		store:    store,
		sources:  sources,
		upserter: NewUpserter(store, enricher),
		deduper:  NewDeduper(store, cfg.Dedup, cfg.Pipeline.DedupWorkers),
		cfg:      cfg,
	}
}

// CycleReport summarizes one pipeline cycle.
type CycleReport struct {
	CycleID      string
	Duration     time.Duration
	Fetched      int
	Unique       int
	New          int
	Updated      int
	Unchanged    int
	Errors       int
	LinksCreated int
}

// String renders the one-line report the batch invocation prints to stdout.
func (r *CycleReport) String() string {
	return fmt.Sprintf("Pipeline finished in %.1fs. New: %d, Updated: %d, Unchanged: %d, Duplicates linked: %d",
		r.Duration.Seconds(), r.New, r.Updated, r.Unchanged, r.LinksCreated)
}

// RunCycle executes one full cycle. Individual record and source failures
// are tallied and logged; the returned error is reserved for database
// failures that make the cycle meaningless (sync state, candidate load).
func (o *Orchestrator) RunCycle(ctx context.Context) (*CycleReport, error) {
	start := time.Now()
	cycleID := uuid.NewString()

	logging.Info().Str("cycle_id", cycleID).Msg("Pipeline cycle starting")

	window, err := o.computeWindow(ctx)
	if err != nil {
		metrics.RecordCycle(time.Since(start), err)
		return nil, err
	}

	fetched := o.fetchAll(ctx, window)
	collapsed := collapse(fetched)
	logging.Info().
		Str("cycle_id", cycleID).
		Int("fetched", len(fetched)).
		Int("unique", len(collapsed)).
		Time("window_start", window.Start).
		Time("window_end", window.End).
		Msg("Catalog fetch complete")

	counts := o.processAll(ctx, collapsed)

	links, err := o.deduper.Run(ctx)
	if err != nil {
		metrics.RecordCycle(time.Since(start), err)
		return nil, fmt.Errorf("dedup sweep: %w", err)
	}

	report := &CycleReport{
		CycleID:      cycleID,
		Duration:     time.Since(start),
		Fetched:      len(fetched),
		Unique:       len(collapsed),
		New:          int(counts.created.Load()),
		Updated:      int(counts.updated.Load()),
		Unchanged:    int(counts.unchanged.Load()),
		Errors:       int(counts.failed.Load()),
		LinksCreated: links,
	}
	metrics.RecordCycle(report.Duration, nil)
	logging.Info().
		Str("cycle_id", cycleID).
		Int("new", report.New).
		Int("updated", report.Updated).
		Int("unchanged", report.Unchanged).
		Int("errors", report.Errors).
		Int("links_created", report.LinksCreated).
		Dur("duration", report.Duration).
		Msg("Pipeline cycle complete")

	return report, nil
}

// computeWindow loads the sync state, derives the fetch window, and persists
// the bookkeeping fields before any fetch starts. The first ever run reaches
// back InitialLookback (or one steady lookback behind the newest retrieval
// when rows already exist); every later run uses the steady lookback. The
// end always leads now to absorb clock skew between catalogs.
func (o *Orchestrator) computeWindow(ctx context.Context) (catalog.Window, error) {
	state, err := o.store.GetOrCreateSyncState(ctx, models.SyncStateKeyInitial)
	if err != nil {
		return catalog.Window{}, fmt.Errorf("sync state: %w", err)
	}

	now := time.Now().UTC()
	end := now.Add(o.cfg.Pipeline.WindowLead)

	var windowStart time.Time
	if !state.Value {
		logging.Info().Msg("Running initial sync (first execution)")
		last, err := o.store.MaxRetrievedTime(ctx)
		if err != nil {
			return catalog.Window{}, fmt.Errorf("max retrieved time: %w", err)
		}
		if last == nil {
			windowStart = now.Add(-o.cfg.Pipeline.InitialLookback)
			logging.Info().Time("window_start", windowStart).
				Msg("No events found, fetching the full initial lookback")
		} else {
			windowStart = last.Add(-o.cfg.Pipeline.SteadyLookback)
			logging.Info().Time("window_start", windowStart).
				Msg("Found existing events, resuming behind the newest retrieval")
		}
		state.Value = true
	} else {
		windowStart = now.Add(-o.cfg.Pipeline.SteadyLookback)
	}

	state.LastSyncStart = &windowStart
	state.LastSyncEnd = &end
	state.LastRunAt = &now
	if err := o.store.SaveSyncState(ctx, state); err != nil {
		return catalog.Window{}, fmt.Errorf("saving sync state: %w", err)
	}

	return catalog.Window{Start: windowStart, End: end}, nil
}

// fetchAll runs every adapter on the fetch pool and concatenates the
// results. A failed source is logged and contributes nothing; it never
// blocks or cancels the other fetches.
func (o *Orchestrator) fetchAll(ctx context.Context, window catalog.Window) []models.RawEvent {
	// Each index is written by exactly one worker.
	results := make([][]models.RawEvent, len(o.sources))

	indices := make([]int, len(o.sources))
	for i := range indices {
		indices[i] = i
	}

	runPool(o.cfg.Pipeline.FetchWorkers, indices, func(i int) {
		src := o.sources[i]
		fetchStart := time.Now()

		events, err := src.Fetch(ctx, window)
		if err != nil {
			metrics.RecordCatalogFetch(src.Name(), 0, time.Since(fetchStart), fetchErrorType(err))
			logging.Err(err).Str("source", src.Name()).
				Msg("Catalog fetch failed, treating source as empty")
			return
		}
		metrics.RecordCatalogFetch(src.Name(), len(events), time.Since(fetchStart), "")
		logging.Debug().Str("source", src.Name()).Int("events", len(events)).
			Msg("Catalog fetch finished")
		results[i] = events
	})

	var all []models.RawEvent
	for _, events := range results {
		all = append(all, events...)
	}
	return all
}

// fetchErrorType buckets fetch failures for the error counter.
func fetchErrorType(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "fetch"
	}
}

// collapse keeps one record per global_id: the one with the largest
// updated_time_utc, coerced. Records whose updated time is absent or
// unparseable never displace a parseable one, and ties keep the record seen
// first. The same physical record arriving from overlapping windows
// therefore upserts exactly once per cycle.
func collapse(events []models.RawEvent) []models.RawEvent {
	out := make([]models.RawEvent, 0, len(events))
	byID := make(map[string]int, len(events))

	for _, raw := range events {
		at, seen := byID[raw.GlobalID]
		if !seen {
			byID[raw.GlobalID] = len(out)
			out = append(out, raw)
			continue
		}

		challenger, ok := normalize.Time(raw.UpdatedTimeUTC)
		if !ok {
			continue
		}
		incumbent, ok := normalize.Time(out[at].UpdatedTimeUTC)
		if !ok || challenger.After(incumbent) {
			out[at] = raw
		}
	}

	return out
}

// upsertCounts tallies processing outcomes across the worker pool.
type upsertCounts struct {
	created   atomic.Int64
	updated   atomic.Int64
	unchanged atomic.Int64
	failed    atomic.Int64
}

// processAll pushes every collapsed record through the upsert engine on the
// processing pool. Failures count as errors and never abort the cycle.
func (o *Orchestrator) processAll(ctx context.Context, events []models.RawEvent) *upsertCounts {
	var counts upsertCounts

	runPool(o.cfg.Pipeline.ProcessWorkers, events, func(raw models.RawEvent) {
		_, status, err := o.upserter.Upsert(ctx, &raw)
		if err != nil {
			counts.failed.Add(1)
			metrics.RecordUpsertError(raw.Source)
			logging.Err(err).
				Str("source", raw.Source).
				Str("source_id", raw.SourceID).
				Msg("Event processing failed")
			return
		}

		metrics.RecordUpsert(raw.Source, status)
		switch status {
		case StatusNew:
			counts.created.Add(1)
		case StatusUpdated:
			counts.updated.Add(1)
		case StatusUnchanged:
			counts.unchanged.Add(1)
		}
	})

	return &counts
}
