// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

// Package ops serves the operational HTTP endpoints exposed in daemon mode:
//
//	GET /healthz  - liveness: the process is up
//	GET /readyz   - readiness: the database answers a ping
//	GET /metrics  - Prometheus exposition
//
// Batch runs are short-lived and never start this listener. The surface is
// unauthenticated and meant for probes and scrapers, so the router carries
// only RealIP, panic recovery, request metrics, and per-IP rate limiting.
package ops
