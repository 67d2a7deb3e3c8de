// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

// Package main is the entry point for the Seismograph pipeline.
//
// Seismograph ingests earthquake catalogs from IGN, USGS, and EMSC,
// normalizes them into one canonical schema, enriches located events with
// tectonic plate, origin country, and shakemap-derived affected countries,
// persists everything idempotently in PostgreSQL/PostGIS, and links
// near-coincident reports of the same physical event across catalogs.
//
// # Invocation
//
// The default invocation runs exactly one pipeline cycle and exits — the
// shape a cron or systemd timer wants:
//
//	seismograph
//
// With --daemon the scheduler moves in-process: a suture supervisor tree
// runs the cycle on every SEISMOGRAPH_DAEMON_INTERVAL tick (default 6h)
// and serves /healthz, /readyz, and /metrics on SEISMOGRAPH_OPS_LISTEN:
//
//	seismograph --daemon
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, then an optional YAML config
// file, then built-in defaults. The database settings reuse the POSTGRES_*
// names shared with the official PostgreSQL container:
//
//	export POSTGRES_HOST=localhost
//	export POSTGRES_DB=seismograph
//	export POSTGRES_USER=seismograph
//	export POSTGRES_PASSWORD=secret
//	seismograph
//
// # Exit status
//
// A batch run exits 0 when the cycle completes, even if individual records
// or sources failed — those are tallied in the report and the metrics. It
// exits non-zero only when the cycle itself cannot run: unusable
// configuration, an unreachable database, missing reference layers, or a
// sync-state failure.
//
// # Signal handling
//
// Daemon mode shuts down gracefully on SIGINT and SIGTERM: the supervisor
// stops the cycle runner, drains the ops listener, and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/seismograph/internal/catalog"
	"github.com/tomtom215/seismograph/internal/config"
	"github.com/tomtom215/seismograph/internal/database"
	"github.com/tomtom215/seismograph/internal/enrich"
	"github.com/tomtom215/seismograph/internal/logging"
	"github.com/tomtom215/seismograph/internal/ops"
	"github.com/tomtom215/seismograph/internal/pipeline"
	"github.com/tomtom215/seismograph/internal/supervisor"
)

func main() {
	daemon := flag.Bool("daemon", false, "run continuously under a supervisor instead of one batch cycle")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		// The default logger handles config errors; logging settings are
		// not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_host", cfg.Database.Host).
		Str("db_name", cfg.Database.Name).
		Bool("daemon", *daemon).
		Msg("Starting Seismograph")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// New pings with retry and bootstraps the core schema; either failing
	// is startup-fatal.
	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Database startup failed")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if err := db.VerifyReferenceLayers(ctx); err != nil {
		closeQuietly(db)
		logging.Fatal().Err(err).Msg("Reference layers missing")
	}
	logging.Info().Msg("Database ready")

	orchestrator := pipeline.NewOrchestrator(db, enrich.New(db, &cfg.Pipeline), buildSources(cfg), cfg)

	if *daemon {
		runDaemon(ctx, cancel, cfg, db, orchestrator)
		return
	}

	report, err := orchestrator.RunCycle(ctx)
	if err != nil {
		closeQuietly(db)
		logging.Fatal().Err(err).Msg("Pipeline cycle failed")
	}
	fmt.Println(report.String())
}

// buildSources wires the catalog adapters, each behind its own circuit
// breaker, in the order the reports read best.
func buildSources(cfg *config.Config) []catalog.Source {
	timeout := cfg.HTTP.Timeout
	return []catalog.Source{
		catalog.NewBreakerSource(catalog.NewIGN(timeout)),
		catalog.NewBreakerSource(catalog.NewUSGS(timeout)),
		catalog.NewBreakerSource(catalog.NewEMSC(timeout)),
	}
}

// runDaemon blocks serving the supervisor tree until a shutdown signal.
func runDaemon(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, db *database.DB, orchestrator *pipeline.Orchestrator) {
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.Add(supervisor.NewCycleService(orchestrator, cfg.Daemon.Interval))

	opsServer := ops.NewServer(db, cfg.Ops)
	tree.Add(supervisor.NewHTTPService(opsServer.HTTPServer(), tree.ShutdownTimeout()))
	logging.Info().
		Str("addr", cfg.Ops.Listen).
		Dur("interval", cfg.Daemon.Interval).
		Msg("Daemon mode: supervisor tree starting")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	for err := range tree.ServeBackground(ctx) {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor error")
		}
	}
	logging.Info().Msg("Seismograph stopped gracefully")
}

// closeQuietly closes the database ahead of a fatal exit, which skips
// deferred calls.
func closeQuietly(db *database.DB) {
	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}
