// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/seismograph/internal/validation"
)

// Duration bounds that the struct tags cannot express.
const (
	minHTTPTimeout   = time.Second
	maxHTTPTimeout   = 5 * time.Minute
	minDaemonCadence = time.Minute
	minConnLifetime  = time.Minute
)

// Validate checks that required configuration is present and valid.
// Tag-based rules (ranges, enums, address formats) run first via the
// validator registry; duration bounds and cross-field rules are checked
// by hand because their error messages must name the environment variable
// an operator has to fix.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateHTTP(); err != nil {
		return err
	}

	if err := c.validatePipeline(); err != nil {
		return err
	}

	if err := c.validateDedup(); err != nil {
		return err
	}

	return c.validateDaemon()
}

// validateDatabase validates the PostgreSQL connection settings
func (c *Config) validateDatabase() error {
	if c.Database.Name == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("SEISMOGRAPH_DB_MAX_IDLE_CONNS must not exceed SEISMOGRAPH_DB_MAX_OPEN_CONNS")
	}
	if c.Database.ConnMaxLifetime != 0 && c.Database.ConnMaxLifetime < minConnLifetime {
		return fmt.Errorf("SEISMOGRAPH_DB_CONN_MAX_LIFETIME must be at least %s (or 0 for unlimited)", minConnLifetime)
	}
	return nil
}

// validateHTTP validates the outbound HTTP client settings
func (c *Config) validateHTTP() error {
	if c.HTTP.Timeout < minHTTPTimeout || c.HTTP.Timeout > maxHTTPTimeout {
		return fmt.Errorf("SEISMOGRAPH_HTTP_TIMEOUT must be between %s and %s", minHTTPTimeout, maxHTTPTimeout)
	}
	return nil
}

// validatePipeline validates the sync window shape
func (c *Config) validatePipeline() error {
	if c.Pipeline.InitialLookback <= 0 {
		return fmt.Errorf("SEISMOGRAPH_INITIAL_LOOKBACK must be positive")
	}
	if c.Pipeline.SteadyLookback <= 0 {
		return fmt.Errorf("SEISMOGRAPH_STEADY_LOOKBACK must be positive")
	}
	if c.Pipeline.WindowLead < 0 {
		return fmt.Errorf("SEISMOGRAPH_WINDOW_LEAD must not be negative")
	}
	if c.Pipeline.SteadyLookback > c.Pipeline.InitialLookback {
		return fmt.Errorf("SEISMOGRAPH_STEADY_LOOKBACK must not exceed SEISMOGRAPH_INITIAL_LOOKBACK")
	}
	return nil
}

// validateDedup validates the duplicate matching thresholds
func (c *Config) validateDedup() error {
	if c.Dedup.TimeWindow <= 0 {
		return fmt.Errorf("SEISMOGRAPH_DEDUP_TIME_WINDOW must be positive")
	}
	return nil
}

// validateDaemon validates the daemon scheduling settings
func (c *Config) validateDaemon() error {
	if c.Daemon.Interval < minDaemonCadence {
		return fmt.Errorf("SEISMOGRAPH_DAEMON_INTERVAL must be at least %s", minDaemonCadence)
	}
	return nil
}
