// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"context"

	"github.com/citystroll/citystroll/internal/auth"
	"github.com/citystroll/citystroll/internal/captcha"
	"github.com/citystroll/citystroll/internal/models"
)

// UserStore is the account persistence surface the handlers need.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, fullName string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	UpdateProfile(ctx context.Context, id int64, email, fullName, profilePicURL string) (models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// PlaceStore reads the place catalog.
type PlaceStore interface {
	List(ctx context.Context, filter models.PlaceFilter) ([]models.Place, error)
	Get(ctx context.Context, id int64) (models.Place, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ReadyWalks(ctx context.Context) ([]models.ReadyWalk, error)
}

// WalkStore persists walks and their place memberships.
type WalkStore interface {
	List(ctx context.Context, userID int64) ([]models.Walk, error)
	Create(ctx context.Context, userID int64, title string, isFavorite bool) (models.Walk, error)
	Get(ctx context.Context, walkID, userID int64) (models.Walk, error)
	GetOwned(ctx context.Context, walkID, userID int64) (models.Walk, error)
	Places(ctx context.Context, walkID int64) ([]models.WalkPlace, error)
	AddPlace(ctx context.Context, walkID, placeID int64) (models.WalkPlaceLink, error)
	AddPlacesBatch(ctx context.Context, walkID int64, placeIDs []int64) ([]models.WalkPlaceLink, error)
	RemovePlace(ctx context.Context, walkID, placeID int64) error
	SetVisited(ctx context.Context, walkID, placeID int64, visited bool) (models.WalkPlaceLink, error)
	Reorder(ctx context.Context, walkID int64, orders []models.PlaceOrder) error
	Delete(ctx context.Context, walkID int64) error
	UpdateTitle(ctx context.Context, walkID int64, title string) (models.Walk, error)
}

// MemoryStore persists journal entries.
type MemoryStore interface {
	List(ctx context.Context, userID int64) ([]models.Memory, error)
	Create(ctx context.Context, userID int64, walkID *int64, title, content string, photoURLs []string) (models.Memory, error)
	Get(ctx context.Context, id, userID int64) (models.Memory, error)
	Update(ctx context.Context, id, userID int64, walkID *int64, title, content string, photoURLs []string) (models.Memory, error)
	Delete(ctx context.Context, id, userID int64) error
}

// Handler carries the dependencies shared by all HTTP handlers.
type Handler struct {
	users    UserStore
	places   PlaceStore
	walks    WalkStore
	memories MemoryStore

	captchas *captcha.Store
	tracker  *auth.Tracker
	tokens   *auth.JWTManager
	pinger   Pinger

	// dev controls whether internal error detail is echoed in responses.
	dev bool
}

// HandlerConfig groups the Handler dependencies.
type HandlerConfig struct {
	Users    UserStore
	Places   PlaceStore
	Walks    WalkStore
	Memories MemoryStore
	Captchas *captcha.Store
	Tracker  *auth.Tracker
	Tokens   *auth.JWTManager
	Pinger   Pinger
	Dev      bool
}

// NewHandler builds a Handler from its dependencies.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		users:    cfg.Users,
		places:   cfg.Places,
		walks:    cfg.Walks,
		memories: cfg.Memories,
		captchas: cfg.Captchas,
		tracker:  cfg.Tracker,
		tokens:   cfg.Tokens,
		pinger:   cfg.Pinger,
		dev:      cfg.Dev,
	}
}
