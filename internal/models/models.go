// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

// Package models holds the domain types shared between the store and the
// HTTP API.
package models

import "time"

// User is a registered account. PasswordHash never leaves the backend.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FullName      string    `json:"full_name"`
	ProfilePicURL string    `json:"profile_pic_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Place is a point of interest in the city catalog.
type Place struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Budget        string  `json:"budget"`
	EstimatedTime int     `json:"estimated_time"`
	Address       string  `json:"address,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
	Latitude      float64 `json:"latitude,omitempty"`
	Longitude     float64 `json:"longitude,omitempty"`
}

// PlaceFilter narrows the place catalog listing.
type PlaceFilter struct {
	Category string
	Budget   string
	MaxTime  int
	Search   string
}

// Walk is a user's personal walking route.
type Walk struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"user_id"`
	Title      string      `json:"title"`
	IsFavorite bool        `json:"is_favorite"`
	CreatedAt  time.Time   `json:"created_at"`
	Places     []WalkPlace `json:"places,omitempty"`
}

// WalkPlace is a place within a walk, with visitation state and ordering.
type WalkPlace struct {
	Place
	Visited    bool `json:"visited"`
	OrderIndex int  `json:"order_index"`
}

// WalkPlaceLink is the raw membership row tying a place to a walk.
// Returned from mutations that operate on the link itself.
type WalkPlaceLink struct {
	ID         int64     `json:"id"`
	WalkID     int64     `json:"walk_id"`
	PlaceID    int64     `json:"place_id"`
	Visited    bool      `json:"visited"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// PlaceOrder carries one reordering instruction for a walk's places.
type PlaceOrder struct {
	PlaceID    int64 `json:"placeId"`
	OrderIndex int   `json:"order_index"`
}

// ReadyWalk is a curated, static route suggestion resolved against the
// place catalog at request time.
type ReadyWalk struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	PlaceIDs    []int64 `json:"place_ids"`
	Places      []Place `json:"places"`
	PlacesCount int     `json:"places_count"`
}

// Memory is a journal entry, optionally linked to a walk, with photo URLs.
type Memory struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	WalkID    *int64        `json:"walk_id,omitempty"`
	WalkTitle string        `json:"walk_title,omitempty"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Photos    []MemoryPhoto `json:"photos"`
}

// MemoryPhoto is a photo URL attached to a memory. Photo bytes are hosted
// elsewhere; only the URL is stored.
type MemoryPhoto struct {
	ID        int64     `json:"id"`
	MemoryID  int64     `json:"memory_id"`
	PhotoURL  string    `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
}
