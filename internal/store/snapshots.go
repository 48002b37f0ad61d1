package store

import (
	"context"
	"fmt"
	"time"
)

type Snapshot struct {
	ID        string
	SketchID  string
	Seq       int64
	Document  []byte
	CreatedAt time.Time
}

// CreateSnapshot stores a document snapshot and bumps the sketch's
// updated_at in the same transaction.
func (s *Store) CreateSnapshot(ctx context.Context, id, sketchID string, seq int64, document []byte) (Snapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Snapshot{}, wrap("create snapshot", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO snapshots (id, sketch_id, seq, document)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sketch_id, seq, document, created_at`

	var snap Snapshot
	err = tx.QueryRow(ctx, q, id, sketchID, seq, document).
		Scan(&snap.ID, &snap.SketchID, &snap.Seq, &snap.Document, &snap.CreatedAt)
	if err != nil {
		return Snapshot{}, wrap("create snapshot", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE sketches SET updated_at = now() WHERE id = $1`, sketchID); err != nil {
		return Snapshot{}, wrap("create snapshot", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot: commit: %w", err)
	}
	return snap, nil
}

// LatestSnapshot returns the highest-sequence snapshot for a sketch.
func (s *Store) LatestSnapshot(ctx context.Context, sketchID string) (Snapshot, error) {
	const q = `
		SELECT id, sketch_id, seq, document, created_at
		FROM snapshots
		WHERE sketch_id = $1
		ORDER BY seq DESC
		LIMIT 1`

	var snap Snapshot
	err := s.pool.QueryRow(ctx, q, sketchID).
		Scan(&snap.ID, &snap.SketchID, &snap.Seq, &snap.Document, &snap.CreatedAt)
	if err != nil {
		return Snapshot{}, wrap("latest snapshot", err)
	}
	return snap, nil
}
