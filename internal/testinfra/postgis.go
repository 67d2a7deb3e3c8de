// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tomtom215/seismograph/internal/config"
)

const (
	// DefaultPostGISImage ships PostgreSQL 16 with PostGIS 3.4 preinstalled.
	DefaultPostGISImage = "postgis/postgis:16-3.4"

	// DefaultPostgresPort is the in-container PostgreSQL port.
	DefaultPostgresPort = "5432"

	// Test database credentials. Throwaway containers, not secrets.
	DefaultPostgresDB       = "seismograph_test"
	DefaultPostgresUser     = "seismo"
	DefaultPostgresPassword = "seismo-test"
)

// PostGISContainer represents a running PostGIS container for testing.
type PostGISContainer struct {
	testcontainers.Container
	Host string
	Port int
}

// PostGISOption configures the PostGIS container.
type PostGISOption func(*postgisConfig)

type postgisConfig struct {
	image        string
	startTimeout time.Duration
}

// WithPostGISImage sets a custom PostGIS Docker image.
func WithPostGISImage(image string) PostGISOption {
	return func(c *postgisConfig) {
		c.image = image
	}
}

// WithPostGISStartTimeout sets the timeout for waiting for the server to start.
func WithPostGISStartTimeout(timeout time.Duration) PostGISOption {
	return func(c *postgisConfig) {
		c.startTimeout = timeout
	}
}

// NewPostGISContainer creates and starts a PostGIS container for testing.
func NewPostGISContainer(ctx context.Context, opts ...PostGISOption) (*PostGISContainer, error) {
	cfg := &postgisConfig{
		image:        DefaultPostGISImage,
		startTimeout: 120 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultPostgresPort + "/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       DefaultPostgresDB,
			"POSTGRES_USER":     DefaultPostgresUser,
			"POSTGRES_PASSWORD": DefaultPostgresPassword,
		},
		WaitingFor: wait.ForAll(
			// The entrypoint starts postgres twice (init, then serve), so
			// the ready line must be seen twice before connections stick.
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(DefaultPostgresPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultPostgresPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &PostGISContainer{
		Container: container,
		Host:      host,
		Port:      port.Int(),
	}, nil
}

// DatabaseConfig returns a store configuration pointing at the container.
func (c *PostGISContainer) DatabaseConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Host:            c.Host,
		Port:            c.Port,
		Name:            DefaultPostgresDB,
		User:            DefaultPostgresUser,
		Password:        DefaultPostgresPassword,
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}
