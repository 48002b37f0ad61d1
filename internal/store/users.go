package store

import (
	"context"
	"time"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

func (s *Store) CreateUser(ctx context.Context, id, email, passwordHash, displayName string) (User, error) {
	const q = `
		INSERT INTO users (id, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, display_name, created_at`

	var u User
	err := s.pool.QueryRow(ctx, q, id, email, passwordHash, displayName).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return User{}, wrap("create user", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	const q = `
		SELECT id, email, password_hash, display_name, created_at
		FROM users WHERE email = $1`

	var u User
	err := s.pool.QueryRow(ctx, q, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return User{}, wrap("user by email", err)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	const q = `
		SELECT id, email, password_hash, display_name, created_at
		FROM users WHERE id = $1`

	var u User
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return User{}, wrap("user by id", err)
	}
	return u, nil
}
