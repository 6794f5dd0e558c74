// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

// Package database provides the PostgreSQL persistence layer, one store
// per aggregate, all sharing a pgx connection pool.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citystroll/citystroll/internal/config"
)

// Open parses the connection string, opens a pool and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// schema is applied at startup. Statements are idempotent so restarts
// are safe; real migrations are out of scope for now.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              BIGSERIAL PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	password_hash   TEXT NOT NULL,
	full_name       TEXT NOT NULL,
	profile_pic_url TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS places (
	id             BIGSERIAL PRIMARY KEY,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL,
	budget         TEXT NOT NULL,
	estimated_time INTEGER NOT NULL DEFAULT 0,
	address        TEXT,
	image_url      TEXT,
	latitude       DOUBLE PRECISION,
	longitude      DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS walks (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	is_favorite BOOLEAN NOT NULL DEFAULT false,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS walk_places (
	id          BIGSERIAL PRIMARY KEY,
	walk_id     BIGINT NOT NULL REFERENCES walks(id) ON DELETE CASCADE,
	place_id    BIGINT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
	visited     BOOLEAN NOT NULL DEFAULT false,
	order_index INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (walk_id, place_id)
);

CREATE TABLE IF NOT EXISTS memories (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	walk_id    BIGINT REFERENCES walks(id) ON DELETE SET NULL,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS memory_photos (
	id         BIGSERIAL PRIMARY KEY,
	memory_id  BIGINT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
	photo_url  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_walks_user ON walks (user_id);
CREATE INDEX IF NOT EXISTS idx_walk_places_walk ON walk_places (walk_id);
CREATE INDEX IF NOT EXISTS idx_memories_user ON memories (user_id);
CREATE INDEX IF NOT EXISTS idx_memory_photos_memory ON memory_photos (memory_id);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
