// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/seismograph/config.yaml",
	"/etc/seismograph/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "SEISMOGRAPH_CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "",
			User:            "",
			Password:        "",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout: 20 * time.Second,
		},
		Pipeline: PipelineConfig{
			FetchWorkers:    3,
			ProcessWorkers:  4,
			DedupWorkers:    4,
			InitialLookback: 30 * 24 * time.Hour,
			SteadyLookback:  24 * time.Hour,
			WindowLead:      24 * time.Hour,
			ContourRPS:      2.0,
			ContourBurst:    2,
		},
		Dedup: DedupConfig{
			TimeWindow:        8 * time.Second,
			MaxDistanceKm:     8.0,
			MaxMagnitudeDelta: 0.7,
		},
		Daemon: DaemonConfig{
			Interval: 6 * time.Hour,
		},
		Ops: OpsConfig{
			Listen: "0.0.0.0:4326",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the only way to obtain a Config and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
//   - The POSTGRES_* variable names shared with the database container
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// POSTGRES_HOST -> database.host
	// SEISMOGRAPH_FETCH_WORKERS -> pipeline.fetch_workers
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc transforms environment variable names to koanf config paths.
// The POSTGRES_* names match the conventional PostgreSQL container variables so
// a single env block can configure both the database and the pipeline.
//
// Examples:
//   - POSTGRES_HOST -> database.host
//   - POSTGRES_DB -> database.name
//   - SEISMOGRAPH_DEDUP_TIME_WINDOW -> dedup.time_window
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Database mappings (shared with the postgres container env block)
		"postgres_host":     "database.host",
		"postgres_port":     "database.port",
		"postgres_db":       "database.name",
		"postgres_user":     "database.user",
		"postgres_password": "database.password",
		"postgres_sslmode":  "database.sslmode",

		// Database pool mappings
		"seismograph_db_max_open_conns":    "database.max_open_conns",
		"seismograph_db_max_idle_conns":    "database.max_idle_conns",
		"seismograph_db_conn_max_lifetime": "database.conn_max_lifetime",

		// HTTP client mappings
		"seismograph_http_timeout": "http.timeout",

		// Pipeline mappings
		"seismograph_fetch_workers":    "pipeline.fetch_workers",
		"seismograph_process_workers":  "pipeline.process_workers",
		"seismograph_dedup_workers":    "pipeline.dedup_workers",
		"seismograph_initial_lookback": "pipeline.initial_lookback",
		"seismograph_steady_lookback":  "pipeline.steady_lookback",
		"seismograph_window_lead":      "pipeline.window_lead",
		"seismograph_contour_rps":      "pipeline.contour_rps",
		"seismograph_contour_burst":    "pipeline.contour_burst",

		// Dedup mappings
		"seismograph_dedup_time_window":         "dedup.time_window",
		"seismograph_dedup_max_distance_km":     "dedup.max_distance_km",
		"seismograph_dedup_max_magnitude_delta": "dedup.max_magnitude_delta",

		// Daemon mappings
		"seismograph_daemon_interval": "daemon.interval",

		// Ops mappings
		"seismograph_ops_listen": "ops.listen",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
