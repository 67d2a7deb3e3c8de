// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

// Package pipeline contains the three processing stages that turn raw
// catalog output into the merged event store, and the orchestrator that
// runs them as one cycle.
//
// # Architecture
//
//   - upsert.go: per-record coercion, enrichment and idempotent persistence
//     keyed by global_id
//   - dedup.go: the cross-catalog near-duplicate sweep over time-sorted
//     canonical events
//   - orchestrator.go: cycle driver (sync-state window, fetch fan-out,
//     per-global_id collapse, processing fan-out, dedup, report)
//   - pool.go: the bounded worker pool all fan-outs share
//
// # Cycle shape
//
// One cycle fetches the three catalogs in parallel, collapses the combined
// list so each global_id appears once (largest updated_time_utc wins),
// upserts every record through a worker pool, then runs the duplicate sweep.
// All upserts finish before the sweep starts; that is the only cross-stage
// ordering guarantee. Individual record failures are logged and tallied,
// never fatal; the cycle only fails when the database itself does.
package pipeline
