// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package database

import (
	"context"

	"github.com/citystroll/citystroll/internal/models"
)

// readyWalks is the curated set of themed routes. The place ids refer
// to the seeded catalog; entries missing from the catalog are simply
// resolved to fewer places.
var readyWalks = []models.ReadyWalk{
	{
		ID:          1,
		Title:       "Архитектурный Петербург",
		Description: "Знакомство с главными архитектурными шедеврами города",
		ImageURL:    "https://avatars.mds.yandex.net/i?id=194a0acdd975d765d840c339be939b6b_l-8258224-images-thumbs&n=13",
		PlaceIDs:    []int64{4, 7},
	},
	{
		ID:          2,
		Title:       "Музейный день",
		Description: "Посещение лучших музеев города за один день",
		ImageURL:    "https://avatars.mds.yandex.net/i?id=f2f2a547fd11abfed2ed7416f67d00a8a0f82f1e-5873280-images-thumbs&n=13",
		PlaceIDs:    []int64{1, 5, 8},
	},
	{
		ID:          3,
		Title:       "Парки и сады",
		Description: "Прогулка по самым красивым паркам Северной столицы",
		ImageURL:    "https://avatars.mds.yandex.net/i?id=ba4e5363243de2acbf7489f812d2b081d62149f6-16427651-images-thumbs&n=13",
		PlaceIDs:    []int64{2, 6},
	},
	{
		ID:          4,
		Title:       "Бесплатные достопримечательности",
		Description: "Экскурсия по самым интересным бесплатным местам",
		ImageURL:    "https://avatars.mds.yandex.net/i?id=38253760c85976a8a09d799390275109b0c912f8-4568535-images-thumbs&n=13",
		PlaceIDs:    []int64{2, 3, 9},
	},
}

// ReadyWalks returns the curated routes with their places resolved
// against the catalog.
func (s *PlacesStore) ReadyWalks(ctx context.Context) ([]models.ReadyWalk, error) {
	out := make([]models.ReadyWalk, len(readyWalks))
	copy(out, readyWalks)

	for i := range out {
		places, err := s.GetByIDs(ctx, out[i].PlaceIDs)
		if err != nil {
			return nil, err
		}
		out[i].Places = places
		out[i].PlacesCount = len(places)
	}
	return out, nil
}
