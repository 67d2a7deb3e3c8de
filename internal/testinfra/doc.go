// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// providing realistic testing environments that closely match production.
//
// # PostGIS Container
//
// PostGISContainer provides a real PostgreSQL+PostGIS instance for store and
// pipeline integration tests:
//
//	func TestStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostGISContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    db, err := database.New(ctx, pg.DatabaseConfig())
//	    // ...
//	}
//
// # Benefits Over Mocks
//
// The pipeline's correctness hinges on PostGIS behavior (geometry columns,
// spatial predicates, unique-violation SQLSTATEs); faking those in Go would
// test the fake. Real containers validate the actual contracts.
//
// # CI Considerations
//
// These tests require Docker and network access; they carry the
// "integration" build tag and skip gracefully when Docker is unavailable.
// First run may need to download container images.
package testinfra
