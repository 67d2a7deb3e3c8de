// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
)

func TestSchemaQueries(t *testing.T) {
	t.Parallel()

	queries := schemaQueries()
	if len(queries) == 0 {
		t.Fatal("schemaQueries() returned no statements")
	}

	joined := strings.Join(queries, "\n")
	wantFragments := []string{
		"CREATE EXTENSION IF NOT EXISTS postgis",
		"CREATE TABLE IF NOT EXISTS earthquake",
		"geometry(Point, 4326)",
		"CREATE UNIQUE INDEX IF NOT EXISTS earthquake_global_id_idx",
		"CREATE TABLE IF NOT EXISTS duplicatelink",
		"UNIQUE (canonical_id, duplicate_id)",
		"CREATE TABLE IF NOT EXISTS intensitycurve",
		"CREATE TABLE IF NOT EXISTS sync_state",
		"USING GIST (location)",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(joined, fragment) {
			t.Errorf("schema is missing %q", fragment)
		}
	}

	// Every statement must be guarded so Initialize stays idempotent.
	for i, q := range queries {
		if !strings.Contains(q, "IF NOT EXISTS") {
			t.Errorf("statement %d is not idempotent: %s", i, firstLine(q))
		}
	}
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"single line", "SELECT 1", "SELECT 1"},
		{"leading whitespace", "\n\t  CREATE TABLE foo (\n\t\tid INT\n\t)", "CREATE TABLE foo ("},
		{"empty", "", ""},
		{"only whitespace", "\n\t \n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := firstLine(tt.query); got != tt.want {
				t.Errorf("firstLine(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pq.Error{Code: "23505"}, true},
		{"wrapped unique violation", fmt.Errorf("insert event: %w", &pq.Error{Code: "23505"}), true},
		{"other pq error", &pq.Error{Code: "23503"}, false},
		{"plain error", errors.New("unique_violation"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
