package store

import (
	"context"
	"time"
)

type Sketch struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member is a sketch membership row joined with the user's profile.
type Member struct {
	UserID      string
	Role        string
	DisplayName string
	Email       string
}

func (s *Store) CreateSketch(ctx context.Context, id, ownerID, name string) (Sketch, error) {
	const q = `
		INSERT INTO sketches (id, owner_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, owner_id, name, created_at, updated_at`

	var sk Sketch
	err := s.pool.QueryRow(ctx, q, id, ownerID, name).
		Scan(&sk.ID, &sk.OwnerID, &sk.Name, &sk.CreatedAt, &sk.UpdatedAt)
	if err != nil {
		return Sketch{}, wrap("create sketch", err)
	}
	return sk, nil
}

func (s *Store) SketchByID(ctx context.Context, id string) (Sketch, error) {
	const q = `
		SELECT id, owner_id, name, created_at, updated_at
		FROM sketches WHERE id = $1`

	var sk Sketch
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&sk.ID, &sk.OwnerID, &sk.Name, &sk.CreatedAt, &sk.UpdatedAt)
	if err != nil {
		return Sketch{}, wrap("sketch by id", err)
	}
	return sk, nil
}

// SketchesForUser lists every sketch the user is a member of, most recently
// updated first.
func (s *Store) SketchesForUser(ctx context.Context, userID string) ([]Sketch, error) {
	const q = `
		SELECT sk.id, sk.owner_id, sk.name, sk.created_at, sk.updated_at
		FROM sketches sk
		JOIN sketch_members m ON m.sketch_id = sk.id
		WHERE m.user_id = $1
		ORDER BY sk.updated_at DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, wrap("sketches for user", err)
	}
	defer rows.Close()

	sketches := []Sketch{}
	for rows.Next() {
		var sk Sketch
		if err := rows.Scan(&sk.ID, &sk.OwnerID, &sk.Name, &sk.CreatedAt, &sk.UpdatedAt); err != nil {
			return nil, wrap("sketches for user", err)
		}
		sketches = append(sketches, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("sketches for user", err)
	}
	return sketches, nil
}

func (s *Store) RenameSketch(ctx context.Context, id, name string) error {
	const q = `UPDATE sketches SET name = $2, updated_at = now() WHERE id = $1`

	tag, err := s.pool.Exec(ctx, q, id, name)
	if err != nil {
		return wrap("rename sketch", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("rename sketch", ErrNotFound)
	}
	return nil
}

// DeleteSketch removes the sketch; members, snapshots and assets cascade.
func (s *Store) DeleteSketch(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sketches WHERE id = $1`, id)
	if err != nil {
		return wrap("delete sketch", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("delete sketch", ErrNotFound)
	}
	return nil
}

// AddMember upserts the membership, so re-inviting a user adjusts their role.
func (s *Store) AddMember(ctx context.Context, sketchID, userID, role string) error {
	const q = `
		INSERT INTO sketch_members (sketch_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (sketch_id, user_id) DO UPDATE SET role = EXCLUDED.role`

	if _, err := s.pool.Exec(ctx, q, sketchID, userID, role); err != nil {
		return wrap("add member", err)
	}
	return nil
}

// RemoveMember is idempotent; removing a non-member is not an error.
func (s *Store) RemoveMember(ctx context.Context, sketchID, userID string) error {
	const q = `DELETE FROM sketch_members WHERE sketch_id = $1 AND user_id = $2`

	if _, err := s.pool.Exec(ctx, q, sketchID, userID); err != nil {
		return wrap("remove member", err)
	}
	return nil
}

func (s *Store) MemberRole(ctx context.Context, sketchID, userID string) (string, error) {
	const q = `SELECT role FROM sketch_members WHERE sketch_id = $1 AND user_id = $2`

	var role string
	if err := s.pool.QueryRow(ctx, q, sketchID, userID).Scan(&role); err != nil {
		return "", wrap("member role", err)
	}
	return role, nil
}

func (s *Store) ListMembers(ctx context.Context, sketchID string) ([]Member, error) {
	const q = `
		SELECT m.user_id, m.role, u.display_name, u.email
		FROM sketch_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.sketch_id = $1
		ORDER BY u.display_name`

	rows, err := s.pool.Query(ctx, q, sketchID)
	if err != nil {
		return nil, wrap("list members", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Role, &m.DisplayName, &m.Email); err != nil {
			return nil, wrap("list members", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list members", err)
	}
	return members, nil
}
