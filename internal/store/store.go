// Package store is the Postgres persistence layer. Queries are hand-written
// on pgx; callers receive the domain sentinels below instead of driver
// errors.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Member roles, most to least privileged.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool and verifies the connection.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            text PRIMARY KEY,
		email         text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		display_name  text NOT NULL,
		created_at    timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sketches (
		id         text PRIMARY KEY,
		owner_id   text NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name       text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sketch_members (
		sketch_id text NOT NULL REFERENCES sketches(id) ON DELETE CASCADE,
		user_id   text NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role      text NOT NULL CHECK (role IN ('owner', 'editor', 'viewer')),
		PRIMARY KEY (sketch_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		id         text PRIMARY KEY,
		sketch_id  text NOT NULL REFERENCES sketches(id) ON DELETE CASCADE,
		seq        bigint NOT NULL,
		document   jsonb NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS snapshots_sketch_seq ON snapshots (sketch_id, seq DESC)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id         text PRIMARY KEY,
		sketch_id  text NOT NULL REFERENCES sketches(id) ON DELETE CASCADE,
		mime       text NOT NULL,
		width      integer NOT NULL,
		height     integer NOT NULL,
		bytes      bytea NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the embedded schema. Every statement is idempotent, so a
// restart against an existing database is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// wrap maps driver errors onto the store sentinels, keeping the query name
// for the log line.
func wrap(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
