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

// MemoriesStore persists journal entries and their photo URLs.
type MemoriesStore struct {
	pool *pgxpool.Pool
}

func NewMemoriesStore(pool *pgxpool.Pool) *MemoriesStore {
	return &MemoriesStore{pool: pool}
}

const memoryColumns = `m.id, m.user_id, m.walk_id, w.title, m.title, m.content, m.created_at`

func scanMemory(row pgx.Row) (models.Memory, error) {
	var (
		m         models.Memory
		walkID    pgtype.Int8
		walkTitle pgtype.Text
	)
	err := row.Scan(&m.ID, &m.UserID, &walkID, &walkTitle, &m.Title, &m.Content, &m.CreatedAt)
	if err != nil {
		return models.Memory{}, err
	}
	m.WalkID = int64Ptr(walkID)
	m.WalkTitle = textOrEmpty(walkTitle)
	return m, nil
}

// List returns the user's memories newest first, photos included.
func (s *MemoriesStore) List(ctx context.Context, userID int64) ([]models.Memory, error) {
	const q = `
		SELECT ` + memoryColumns + `
		FROM memories m
		LEFT JOIN walks w ON m.walk_id = w.id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	memories := make([]models.Memory, 0)
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	for i := range memories {
		photos, err := s.photos(ctx, memories[i].ID)
		if err != nil {
			return nil, err
		}
		memories[i].Photos = photos
	}
	return memories, nil
}

// Create inserts a memory with its photo URLs and returns it fully
// resolved. The walk link, if any, is validated by the caller.
func (s *MemoriesStore) Create(ctx context.Context, userID int64, walkID *int64, title, content string, photoURLs []string) (models.Memory, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Memory{}, fmt.Errorf("begin create memory: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO memories (user_id, walk_id, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	if err := tx.QueryRow(ctx, q, userID, walkID, title, content).Scan(&id); err != nil {
		return models.Memory{}, fmt.Errorf("create memory: %w", err)
	}

	const photoQ = `INSERT INTO memory_photos (memory_id, photo_url) VALUES ($1, $2)`
	for _, url := range photoURLs {
		if _, err := tx.Exec(ctx, photoQ, id, url); err != nil {
			return models.Memory{}, fmt.Errorf("add memory photo: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Memory{}, fmt.Errorf("commit create memory: %w", err)
	}

	return s.Get(ctx, id, userID)
}

// Get returns one memory with photos, ErrNotFound if absent or owned by
// another user.
func (s *MemoriesStore) Get(ctx context.Context, id, userID int64) (models.Memory, error) {
	const q = `
		SELECT ` + memoryColumns + `
		FROM memories m
		LEFT JOIN walks w ON m.walk_id = w.id
		WHERE m.id = $1 AND m.user_id = $2
	`

	m, err := scanMemory(s.pool.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Memory{}, ErrNotFound
		}
		return models.Memory{}, fmt.Errorf("get memory: %w", err)
	}

	photos, err := s.photos(ctx, m.ID)
	if err != nil {
		return models.Memory{}, err
	}
	m.Photos = photos
	return m, nil
}

// Update rewrites the memory fields. A non-nil photoURLs replaces the
// photo set wholesale; nil leaves photos untouched.
func (s *MemoriesStore) Update(ctx context.Context, id, userID int64, walkID *int64, title, content string, photoURLs []string) (models.Memory, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Memory{}, fmt.Errorf("begin update memory: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		UPDATE memories
		SET walk_id = $1, title = $2, content = $3
		WHERE id = $4 AND user_id = $5
	`

	tag, err := tx.Exec(ctx, q, walkID, title, content, id, userID)
	if err != nil {
		return models.Memory{}, fmt.Errorf("update memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Memory{}, ErrNotFound
	}

	if photoURLs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM memory_photos WHERE memory_id = $1`, id); err != nil {
			return models.Memory{}, fmt.Errorf("clear memory photos: %w", err)
		}
		const photoQ = `INSERT INTO memory_photos (memory_id, photo_url) VALUES ($1, $2)`
		for _, url := range photoURLs {
			if _, err := tx.Exec(ctx, photoQ, id, url); err != nil {
				return models.Memory{}, fmt.Errorf("add memory photo: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Memory{}, fmt.Errorf("commit update memory: %w", err)
	}

	return s.Get(ctx, id, userID)
}

// Delete removes the memory. Photos cascade.
func (s *MemoriesStore) Delete(ctx context.Context, id, userID int64) error {
	const q = `DELETE FROM memories WHERE id = $1 AND user_id = $2`

	tag, err := s.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MemoriesStore) photos(ctx context.Context, memoryID int64) ([]models.MemoryPhoto, error) {
	const q = `
		SELECT id, memory_id, photo_url, created_at
		FROM memory_photos
		WHERE memory_id = $1
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, q, memoryID)
	if err != nil {
		return nil, fmt.Errorf("memory photos: %w", err)
	}
	defer rows.Close()

	photos := make([]models.MemoryPhoto, 0)
	for rows.Next() {
		var p models.MemoryPhoto
		if err := rows.Scan(&p.ID, &p.MemoryID, &p.PhotoURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory photos: %w", err)
	}
	return photos, nil
}
