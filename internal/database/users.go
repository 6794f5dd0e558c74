// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citystroll/citystroll/internal/models"
)

// UsersStore persists accounts.
type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

func (s *UsersStore) Create(ctx context.Context, email, passwordHash, fullName string) (models.User, error) {
	const q = `
		INSERT INTO users (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, full_name, created_at
	`

	var u models.User
	err := s.pool.QueryRow(ctx, q, email, passwordHash, fullName).Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByEmail returns the full account row including the password hash.
// Callers use it for credential checks only.
func (s *UsersStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	const q = `
		SELECT id, email, password_hash, full_name, profile_pic_url, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var (
		u   models.User
		pic pgtype.Text
	)
	err := s.pool.QueryRow(ctx, q, email).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&pic,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("get user by email: %w", err)
	}
	u.ProfilePicURL = textOrEmpty(pic)
	return u, nil
}

func (s *UsersStore) GetByID(ctx context.Context, id int64) (models.User, error) {
	const q = `
		SELECT id, email, password_hash, full_name, profile_pic_url, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var (
		u   models.User
		pic pgtype.Text
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&pic,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("get user by id: %w", err)
	}
	u.ProfilePicURL = textOrEmpty(pic)
	return u, nil
}

// EmailExists reports whether an account with the given email exists,
// optionally excluding one user id (for profile updates).
func (s *UsersStore) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id != $2)`

	var exists bool
	if err := s.pool.QueryRow(ctx, q, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// UpdateProfile updates the mutable profile fields and returns the
// refreshed row.
func (s *UsersStore) UpdateProfile(ctx context.Context, id int64, email, fullName, profilePicURL string) (models.User, error) {
	const q = `
		UPDATE users
		SET email = $1, full_name = $2, profile_pic_url = NULLIF($3, ''), updated_at = now()
		WHERE id = $4
		RETURNING id, email, full_name, profile_pic_url, created_at, updated_at
	`

	var (
		u   models.User
		pic pgtype.Text
	)
	err := s.pool.QueryRow(ctx, q, email, fullName, profilePicURL, id).Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&pic,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return models.User{}, ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	u.ProfilePicURL = textOrEmpty(pic)
	return u, nil
}

func (s *UsersStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`

	tag, err := s.pool.Exec(ctx, q, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
