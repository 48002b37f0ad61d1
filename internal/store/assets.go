package store

import (
	"context"
	"time"
)

type Asset struct {
	ID        string
	SketchID  string
	Mime      string
	Width     int
	Height    int
	Bytes     []byte
	CreatedAt time.Time
}

func (s *Store) CreateAsset(ctx context.Context, a Asset) (Asset, error) {
	const q = `
		INSERT INTO assets (id, sketch_id, mime, width, height, bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := s.pool.QueryRow(ctx, q, a.ID, a.SketchID, a.Mime, a.Width, a.Height, a.Bytes).
		Scan(&a.CreatedAt)
	if err != nil {
		return Asset{}, wrap("create asset", err)
	}
	return a, nil
}

func (s *Store) AssetByID(ctx context.Context, id string) (Asset, error) {
	const q = `
		SELECT id, sketch_id, mime, width, height, bytes, created_at
		FROM assets WHERE id = $1`

	var a Asset
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&a.ID, &a.SketchID, &a.Mime, &a.Width, &a.Height, &a.Bytes, &a.CreatedAt)
	if err != nil {
		return Asset{}, wrap("asset by id", err)
	}
	return a, nil
}
