// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/seismograph/internal/models"
)

// ErrLinkExists reports a (canonical, duplicate) pair that is already
// linked; the dedup engine skips these silently.
var ErrLinkExists = errors.New("duplicate link already exists for this pair")

// LinkExists reports whether a duplicate link already connects the ordered
// (canonical, duplicate) pair.
func (db *DB) LinkExists(ctx context.Context, canonicalID, duplicateID int64) (_ bool, err error) {
	defer observe("select", "duplicatelink", time.Now(), &err)

	var exists bool
	err = db.conn.GetContext(ctx, &exists,
		`SELECT EXISTS (
			SELECT 1 FROM duplicatelink WHERE canonical_id = $1 AND duplicate_id = $2
		)`, canonicalID, duplicateID)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate link existence: %w", err)
	}
	return exists, nil
}

// CreateDuplicateLink writes the directed canonical -> duplicate edge and
// marks the duplicate row in one transaction. Losing a uniqueness race on
// the pair surfaces as ErrLinkExists.
func (db *DB) CreateDuplicateLink(ctx context.Context, link *models.DuplicateLink) (err error) {
	defer observe("insert", "duplicatelink", time.Now(), &err)

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO duplicatelink (canonical_id, duplicate_id, dt, dd, dm)
		 VALUES (:canonical_id, :duplicate_id, :dt, :dd, :dm)`, link)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrLinkExists
		}
		return fmt.Errorf("failed to insert duplicate link: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE earthquake SET duplicate_of_id = $1 WHERE id = $2`,
		link.CanonicalID, link.DuplicateID)
	if err != nil {
		return fmt.Errorf("failed to mark duplicate event %d: %w", link.DuplicateID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit duplicate link: %w", err)
	}
	return nil
}
