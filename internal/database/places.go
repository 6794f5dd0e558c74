// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citystroll/citystroll/internal/models"
)

// PlacesStore reads the place catalog. The catalog is seeded out of
// band; the API never mutates it.
type PlacesStore struct {
	pool *pgxpool.Pool
}

func NewPlacesStore(pool *pgxpool.Pool) *PlacesStore {
	return &PlacesStore{pool: pool}
}

const placeColumns = `id, title, description, category, budget, estimated_time, address, image_url, latitude, longitude`

func scanPlace(row pgx.Row) (models.Place, error) {
	var (
		p        models.Place
		addr     pgtype.Text
		img      pgtype.Text
		lat, lng pgtype.Float8
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Category,
		&p.Budget,
		&p.EstimatedTime,
		&addr,
		&img,
		&lat,
		&lng,
	)
	if err != nil {
		return models.Place{}, err
	}
	p.Address = textOrEmpty(addr)
	p.ImageURL = textOrEmpty(img)
	p.Latitude = floatOrZero(lat)
	p.Longitude = floatOrZero(lng)
	return p, nil
}

// List returns catalog places matching the filter, ordered by title.
// Empty filter fields are ignored.
func (s *PlacesStore) List(ctx context.Context, filter models.PlaceFilter) ([]models.Place, error) {
	var (
		sb     strings.Builder
		params []any
	)
	sb.WriteString(`SELECT ` + placeColumns + ` FROM places WHERE 1=1`)

	if filter.Category != "" {
		params = append(params, filter.Category)
		fmt.Fprintf(&sb, " AND category = $%d", len(params))
	}
	if filter.Budget != "" {
		params = append(params, filter.Budget)
		fmt.Fprintf(&sb, " AND budget = $%d", len(params))
	}
	if filter.MaxTime > 0 {
		params = append(params, filter.MaxTime)
		fmt.Fprintf(&sb, " AND estimated_time <= $%d", len(params))
	}
	if filter.Search != "" {
		params = append(params, "%"+filter.Search+"%")
		fmt.Fprintf(&sb, " AND (title ILIKE $%d OR description ILIKE $%d)", len(params), len(params))
	}
	sb.WriteString(" ORDER BY title ASC")

	rows, err := s.pool.Query(ctx, sb.String(), params...)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	places := make([]models.Place, 0)
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	return places, nil
}

func (s *PlacesStore) Get(ctx context.Context, id int64) (models.Place, error) {
	const q = `SELECT ` + placeColumns + ` FROM places WHERE id = $1`

	p, err := scanPlace(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Place{}, ErrNotFound
		}
		return models.Place{}, fmt.Errorf("get place: %w", err)
	}
	return p, nil
}

// Exists reports whether a catalog place with the given id exists.
func (s *PlacesStore) Exists(ctx context.Context, id int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM places WHERE id = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check place exists: %w", err)
	}
	return exists, nil
}

// GetByIDs returns the places with the given ids, in catalog order.
func (s *PlacesStore) GetByIDs(ctx context.Context, ids []int64) ([]models.Place, error) {
	if len(ids) == 0 {
		return []models.Place{}, nil
	}

	const q = `SELECT ` + placeColumns + ` FROM places WHERE id = ANY($1) ORDER BY id`

	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("get places by ids: %w", err)
	}
	defer rows.Close()

	places := make([]models.Place, 0, len(ids))
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get places by ids: %w", err)
	}
	return places, nil
}
