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

// WalksStore persists user walks and their place memberships. All reads
// and writes are scoped to the owning user where ownership matters.
type WalksStore struct {
	pool *pgxpool.Pool
}

func NewWalksStore(pool *pgxpool.Pool) *WalksStore {
	return &WalksStore{pool: pool}
}

// List returns the user's walks, favorites first, newest first within
// each group. Places are not loaded.
func (s *WalksStore) List(ctx context.Context, userID int64) ([]models.Walk, error) {
	const q = `
		SELECT id, user_id, title, is_favorite, created_at
		FROM walks
		WHERE user_id = $1
		ORDER BY is_favorite DESC, created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list walks: %w", err)
	}
	defer rows.Close()

	walks := make([]models.Walk, 0)
	for rows.Next() {
		var w models.Walk
		if err := rows.Scan(&w.ID, &w.UserID, &w.Title, &w.IsFavorite, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan walk: %w", err)
		}
		walks = append(walks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list walks: %w", err)
	}
	return walks, nil
}

func (s *WalksStore) Create(ctx context.Context, userID int64, title string, isFavorite bool) (models.Walk, error) {
	const q = `
		INSERT INTO walks (user_id, title, is_favorite)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, title, is_favorite, created_at
	`

	var w models.Walk
	err := s.pool.QueryRow(ctx, q, userID, title, isFavorite).Scan(
		&w.ID, &w.UserID, &w.Title, &w.IsFavorite, &w.CreatedAt,
	)
	if err != nil {
		return models.Walk{}, fmt.Errorf("create walk: %w", err)
	}
	return w, nil
}

// GetOwned returns the bare walk row if it belongs to the user,
// ErrNotFound otherwise. Used both as a fetch and as an ownership gate.
func (s *WalksStore) GetOwned(ctx context.Context, walkID, userID int64) (models.Walk, error) {
	const q = `
		SELECT id, user_id, title, is_favorite, created_at
		FROM walks
		WHERE id = $1 AND user_id = $2
	`

	var w models.Walk
	err := s.pool.QueryRow(ctx, q, walkID, userID).Scan(
		&w.ID, &w.UserID, &w.Title, &w.IsFavorite, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Walk{}, ErrNotFound
		}
		return models.Walk{}, fmt.Errorf("get walk: %w", err)
	}
	return w, nil
}

// Get returns the walk with its places resolved and ordered.
func (s *WalksStore) Get(ctx context.Context, walkID, userID int64) (models.Walk, error) {
	w, err := s.GetOwned(ctx, walkID, userID)
	if err != nil {
		return models.Walk{}, err
	}

	places, err := s.Places(ctx, walkID)
	if err != nil {
		return models.Walk{}, err
	}
	w.Places = places
	return w, nil
}

// Places returns the places in a walk joined with their visitation
// state, ordered by position.
func (s *WalksStore) Places(ctx context.Context, walkID int64) ([]models.WalkPlace, error) {
	const q = `
		SELECT p.id, p.title, p.description, p.category, p.budget, p.estimated_time,
		       p.address, p.image_url, p.latitude, p.longitude,
		       wp.visited, wp.order_index
		FROM walk_places wp
		JOIN places p ON wp.place_id = p.id
		WHERE wp.walk_id = $1
		ORDER BY wp.order_index, wp.created_at
	`

	rows, err := s.pool.Query(ctx, q, walkID)
	if err != nil {
		return nil, fmt.Errorf("walk places: %w", err)
	}
	defer rows.Close()

	places := make([]models.WalkPlace, 0)
	for rows.Next() {
		var wp models.WalkPlace
		var (
			addr, img pgtype.Text
			lat, lng  pgtype.Float8
		)
		err := rows.Scan(
			&wp.ID, &wp.Title, &wp.Description, &wp.Category, &wp.Budget, &wp.EstimatedTime,
			&addr, &img, &lat, &lng,
			&wp.Visited, &wp.OrderIndex,
		)
		if err != nil {
			return nil, fmt.Errorf("scan walk place: %w", err)
		}
		wp.Address = textOrEmpty(addr)
		wp.ImageURL = textOrEmpty(img)
		wp.Latitude = floatOrZero(lat)
		wp.Longitude = floatOrZero(lng)
		places = append(places, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("walk places: %w", err)
	}
	return places, nil
}

// AddPlace appends a place to the walk at the next order index.
// Returns ErrAlreadyExists if the place is already in the walk.
// Callers verify walk ownership and place existence first.
func (s *WalksStore) AddPlace(ctx context.Context, walkID, placeID int64) (models.WalkPlaceLink, error) {
	const q = `
		INSERT INTO walk_places (walk_id, place_id, order_index)
		VALUES ($1, $2, (
			SELECT COALESCE(MAX(order_index), 0) + 1 FROM walk_places WHERE walk_id = $1
		))
		RETURNING id, walk_id, place_id, visited, order_index, created_at
	`

	var link models.WalkPlaceLink
	err := s.pool.QueryRow(ctx, q, walkID, placeID).Scan(
		&link.ID, &link.WalkID, &link.PlaceID, &link.Visited, &link.OrderIndex, &link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.WalkPlaceLink{}, ErrAlreadyExists
		}
		return models.WalkPlaceLink{}, fmt.Errorf("add walk place: %w", err)
	}
	return link, nil
}

// AddPlacesBatch appends multiple places, skipping ids that do not
// exist in the catalog or are already in the walk. Used when importing
// a curated route. Returns the links actually inserted.
func (s *WalksStore) AddPlacesBatch(ctx context.Context, walkID int64, placeIDs []int64) ([]models.WalkPlaceLink, error) {
	const q = `
		INSERT INTO walk_places (walk_id, place_id, order_index)
		SELECT $1, p.id, next.base + row_number() OVER (ORDER BY p.id)
		FROM places p,
		     (SELECT COALESCE(MAX(order_index), 0) AS base FROM walk_places WHERE walk_id = $1) next
		WHERE p.id = ANY($2)
		  AND NOT EXISTS (
			SELECT 1 FROM walk_places wp WHERE wp.walk_id = $1 AND wp.place_id = p.id
		  )
		RETURNING id, walk_id, place_id, visited, order_index, created_at
	`

	rows, err := s.pool.Query(ctx, q, walkID, placeIDs)
	if err != nil {
		return nil, fmt.Errorf("batch add walk places: %w", err)
	}
	defer rows.Close()

	links := make([]models.WalkPlaceLink, 0, len(placeIDs))
	for rows.Next() {
		var link models.WalkPlaceLink
		err := rows.Scan(&link.ID, &link.WalkID, &link.PlaceID, &link.Visited, &link.OrderIndex, &link.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan walk place link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("batch add walk places: %w", err)
	}
	return links, nil
}

// RemovePlace deletes a place from the walk. ErrNotFound if the place
// was not in the walk.
func (s *WalksStore) RemovePlace(ctx context.Context, walkID, placeID int64) error {
	const q = `DELETE FROM walk_places WHERE walk_id = $1 AND place_id = $2`

	tag, err := s.pool.Exec(ctx, q, walkID, placeID)
	if err != nil {
		return fmt.Errorf("remove walk place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetVisited flips the visited flag on a walk place.
func (s *WalksStore) SetVisited(ctx context.Context, walkID, placeID int64, visited bool) (models.WalkPlaceLink, error) {
	const q = `
		UPDATE walk_places
		SET visited = $1
		WHERE walk_id = $2 AND place_id = $3
		RETURNING id, walk_id, place_id, visited, order_index, created_at
	`

	var link models.WalkPlaceLink
	err := s.pool.QueryRow(ctx, q, visited, walkID, placeID).Scan(
		&link.ID, &link.WalkID, &link.PlaceID, &link.Visited, &link.OrderIndex, &link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.WalkPlaceLink{}, ErrNotFound
		}
		return models.WalkPlaceLink{}, fmt.Errorf("set visited: %w", err)
	}
	return link, nil
}

// Reorder applies the given order indexes in one transaction.
// Instructions referencing places not in the walk are no-ops.
func (s *WalksStore) Reorder(ctx context.Context, walkID int64, orders []models.PlaceOrder) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE walk_places SET order_index = $1 WHERE walk_id = $2 AND place_id = $3`
	for _, o := range orders {
		if o.PlaceID == 0 || o.OrderIndex == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, q, o.OrderIndex, walkID, o.PlaceID); err != nil {
			return fmt.Errorf("reorder walk place %d: %w", o.PlaceID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// Delete removes the walk. Memberships cascade.
func (s *WalksStore) Delete(ctx context.Context, walkID int64) error {
	const q = `DELETE FROM walks WHERE id = $1`

	tag, err := s.pool.Exec(ctx, q, walkID)
	if err != nil {
		return fmt.Errorf("delete walk: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTitle renames the walk and returns the refreshed row.
func (s *WalksStore) UpdateTitle(ctx context.Context, walkID int64, title string) (models.Walk, error) {
	const q = `
		UPDATE walks
		SET title = $1
		WHERE id = $2
		RETURNING id, user_id, title, is_favorite, created_at
	`

	var w models.Walk
	err := s.pool.QueryRow(ctx, q, title, walkID).Scan(
		&w.ID, &w.UserID, &w.Title, &w.IsFavorite, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Walk{}, ErrNotFound
		}
		return models.Walk{}, fmt.Errorf("update walk title: %w", err)
	}
	return w, nil
}
