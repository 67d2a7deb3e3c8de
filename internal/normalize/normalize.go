// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

// Package normalize provides the identity and coercion utilities shared by
// every pipeline stage: stable global identifiers, type-safe scalar coercion
// for loosely typed feed values, and timestamp standardization to UTC.
//
// Upstream catalogs deliver fields as whatever JSON happened to contain:
// numbers as strings, booleans as "1"/"yes", timestamps as epoch
// milliseconds or a handful of ISO-8601 shapes. Coercion functions return
// (value, ok) pairs; absent means the field stays null downstream.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// GlobalID derives the stable fingerprint that identifies one catalog record
// across runs: lowercase SHA-256 hex of "SOURCE::source_id" with the source
// uppercased and both sides trimmed. The same upstream record always maps to
// the same fingerprint, which is what makes upserts idempotent.
func GlobalID(source, sourceID string) string {
	key := strings.ToUpper(strings.TrimSpace(source)) + "::" + strings.TrimSpace(sourceID)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Float coerces a feed value to float64. Absent (ok=false) when the value is
// nil, an empty string, a NaN sentinel string, or not numeric at all.
func Float(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(val) {
			return 0, false
		}
		return val, true
	case float32:
		f := float64(val)
		if math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" || strings.EqualFold(s, "nan") {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Bool coerces a feed value to bool. True for {true, "true", "1", "yes"},
// false for {false, "false", "0", "no"}, case-insensitive and trimmed.
// Anything else is absent.
func Bool(v any) (bool, bool) {
	switch val := v.(type) {
	case nil:
		return false, false
	case bool:
		return val, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
		return false, false
	case float64:
		// JSON numbers: USGS encodes tsunami as 0/1
		if val == 1 {
			return true, true
		}
		if val == 0 {
			return false, true
		}
		return false, false
	case int:
		if val == 1 {
			return true, true
		}
		if val == 0 {
			return false, true
		}
		return false, false
	case json.Number:
		return Bool(val.String())
	default:
		return false, false
	}
}

// timeLayouts are the ISO-8601 shapes the catalogs actually emit, tried in
// order. Layouts without a zone are interpreted as UTC.
var timeLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{time.RFC3339, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", false},
}

// Time standardizes a feed value to a UTC instant. Accepts time.Time values
// (zero means absent), numeric epoch milliseconds, and ISO-8601 strings with
// or without a trailing Z or fractional seconds. Unparseable inputs are
// absent.
func Time(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return val.UTC(), true
	case int:
		return time.UnixMilli(int64(val)).UTC(), true
	case int64:
		return time.UnixMilli(val).UTC(), true
	case float64:
		return time.UnixMilli(int64(val)).UTC(), true
	case json.Number:
		if ms, err := val.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		if f, err := val.Float64(); err == nil {
			return time.UnixMilli(int64(f)).UTC(), true
		}
		return time.Time{}, false
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, tl := range timeLayouts {
			t, err := time.Parse(tl.layout, s)
			if err != nil {
				continue
			}
			if !tl.zoned {
				t = time.Date(t.Year(), t.Month(), t.Day(),
					t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
			}
			return t.UTC(), true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// String coerces a feed value to a trimmed string. Absent when nil or when
// trimming leaves nothing.
func String(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return "", false
		}
		return s, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}
