// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

/*
Package supervisor runs daemon mode on a suture v4 supervision tree.

Two services live under a single root supervisor:

  - CycleService runs a pipeline cycle immediately on start and then on
    every daemon interval tick. Cycle failures are logged and wait for the
    next tick; only a panic trips the supervisor's restart machinery.
  - HTTPService adapts the blocking http.Server lifecycle to suture's
    context-aware Serve, draining connections on shutdown.

The root uses suture's stock failure parameters (threshold 5, decay 30s,
backoff 15s) and logs supervision events through the sutureslog hook backed
by this module's zerolog logger.

Batch mode never touches this package; it runs exactly one cycle and exits.
*/
package supervisor
