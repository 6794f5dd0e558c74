// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/citystroll/citystroll/internal/database"
	"github.com/citystroll/citystroll/internal/logging"
	"github.com/citystroll/citystroll/internal/models"
)

// Places lists the catalog, filtered by the optional category, budget,
// time and search query parameters.
func (h *Handler) Places(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.PlaceFilter{
		Category: q.Get("category"),
		Budget:   q.Get("budget"),
		Search:   q.Get("search"),
	}
	if t := q.Get("time"); t != "" {
		maxTime, err := strconv.Atoi(t)
		if err != nil || maxTime < 0 {
			respondError(w, http.StatusBadRequest, "Параметр time должен быть числом")
			return
		}
		filter.MaxTime = maxTime
	}

	places, err := h.places.List(r.Context(), filter)
	if err != nil {
		logging.Error().Err(err).Msg("Place listing failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, places)
}

// Place returns one catalog entry.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	place, err := h.places.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Место не найдено")
			return
		}
		logging.Error().Err(err).Msg("Place lookup failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, place)
}

// ReadyWalks returns the curated routes with resolved places.
func (h *Handler) ReadyWalks(w http.ResponseWriter, r *http.Request) {
	walks, err := h.places.ReadyWalks(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Ready walks resolution failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, walks)
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
