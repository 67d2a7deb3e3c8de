// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from environment variables
// and an optional config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting
//
// Configuration Categories:
//
//  1. Infrastructure:
//     - Database: PostgreSQL/PostGIS connection (host, credentials, pool sizing)
//     - HTTP: Outbound catalog/shakemap client settings
//
//  2. Pipeline:
//     - Pipeline: Worker pool sizes, sync window shape, shakemap rate limits
//     - Dedup: Cross-catalog duplicate matching thresholds
//     - Daemon: Periodic scheduling when running as a long-lived service
//
//  3. Observability:
//     - Ops: Health and metrics listener
//     - Logging: Log levels and output formats
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	HTTP     HTTPConfig     `koanf:"http"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Dedup    DedupConfig    `koanf:"dedup"`
	Daemon   DaemonConfig   `koanf:"daemon"`
	Ops      OpsConfig      `koanf:"ops"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig holds PostgreSQL connection settings. The database must have
// the PostGIS extension available; spatial enrichment and the geometry column
// on events depend on it.
//
// Environment Variables:
//   - POSTGRES_HOST: Database host (default: localhost)
//   - POSTGRES_PORT: Database port (default: 5432)
//   - POSTGRES_DB: Database name (required)
//   - POSTGRES_USER: Database user (required)
//   - POSTGRES_PASSWORD: Database password (may be empty for trust auth)
//   - POSTGRES_SSLMODE: libpq sslmode (default: disable)
type DatabaseConfig struct {
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port" validate:"gte=1,lte=65535"`
	Name     string `koanf:"name"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// DSN returns the connection string in libpq keyword/value form.
// Values are single-quoted so passwords containing spaces survive parsing.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host='%s' port=%d dbname='%s' user='%s' password='%s' sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode)
}

// HTTPConfig holds settings for the outbound HTTP client used against the
// IGN, USGS, and EMSC catalog APIs and the USGS shakemap endpoints.
//
// Environment Variables:
//   - SEISMOGRAPH_HTTP_TIMEOUT: Per-request timeout (default: 20s)
type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// PipelineConfig holds worker pool sizes, the shape of the sync window, and
// the rate limit applied to shakemap contour downloads.
//
// Window shape: on the first ever run the start is max(retrieved_time) -
// SteadyLookback when events already exist, otherwise now - InitialLookback.
// On steady-state runs the start is now - SteadyLookback. The end is always
// now + WindowLead to absorb clock skew between catalogs.
//
// Environment Variables:
//   - SEISMOGRAPH_FETCH_WORKERS: Concurrent catalog fetches (default: 3)
//   - SEISMOGRAPH_PROCESS_WORKERS: Concurrent upsert workers (default: 4)
//   - SEISMOGRAPH_DEDUP_WORKERS: Concurrent dedup workers (default: 4)
//   - SEISMOGRAPH_INITIAL_LOOKBACK: First-run window depth (default: 720h)
//   - SEISMOGRAPH_STEADY_LOOKBACK: Steady-state window depth (default: 24h)
//   - SEISMOGRAPH_WINDOW_LEAD: Window extension past now (default: 24h)
//   - SEISMOGRAPH_CONTOUR_RPS: Shakemap fetches per second (default: 2)
//   - SEISMOGRAPH_CONTOUR_BURST: Shakemap fetch burst size (default: 2)
type PipelineConfig struct {
	FetchWorkers   int `koanf:"fetch_workers" validate:"gte=1,lte=16"`
	ProcessWorkers int `koanf:"process_workers" validate:"gte=1,lte=64"`
	DedupWorkers   int `koanf:"dedup_workers" validate:"gte=1,lte=64"`

	InitialLookback time.Duration `koanf:"initial_lookback"`
	SteadyLookback  time.Duration `koanf:"steady_lookback"`
	WindowLead      time.Duration `koanf:"window_lead"`

	ContourRPS   float64 `koanf:"contour_rps" validate:"gt=0"`
	ContourBurst int     `koanf:"contour_burst" validate:"gte=1"`
}

// DedupConfig holds the thresholds for cross-catalog duplicate matching.
// Two events from different catalogs are linked when their origin times
// differ by at most TimeWindow, their epicenters by at most MaxDistanceKm
// great-circle kilometers, and their magnitudes by at most MaxMagnitudeDelta.
//
// Environment Variables:
//   - SEISMOGRAPH_DEDUP_TIME_WINDOW: Max origin time delta (default: 8s)
//   - SEISMOGRAPH_DEDUP_MAX_DISTANCE_KM: Max epicenter delta (default: 8)
//   - SEISMOGRAPH_DEDUP_MAX_MAGNITUDE_DELTA: Max magnitude delta (default: 0.7)
type DedupConfig struct {
	TimeWindow        time.Duration `koanf:"time_window"`
	MaxDistanceKm     float64       `koanf:"max_distance_km" validate:"gt=0"`
	MaxMagnitudeDelta float64       `koanf:"max_magnitude_delta" validate:"gt=0"`
}

// DaemonConfig holds scheduling settings for daemon mode, where the pipeline
// runs forever under a supervision tree and executes a cycle every Interval.
// Batch mode (the default) ignores this section.
//
// Environment Variables:
//   - SEISMOGRAPH_DAEMON_INTERVAL: Time between cycles (default: 6h)
type DaemonConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// OpsConfig holds the listen address for the operational HTTP endpoints
// (/healthz, /readyz, /metrics). The listener only runs in daemon mode;
// batch runs are short-lived and expose nothing.
//
// Environment Variables:
//   - SEISMOGRAPH_OPS_LISTEN: Listen address (default: 0.0.0.0:4326)
type OpsConfig struct {
	Listen string `koanf:"listen" validate:"hostname_port"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: Log level (default: info)
//   - LOG_FORMAT: Output format, json or console (default: json)
//   - LOG_CALLER: Include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"loglevel"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
