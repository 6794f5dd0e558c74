// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/citystroll/citystroll/internal/database"
	"github.com/citystroll/citystroll/internal/logging"
	"github.com/citystroll/citystroll/internal/validation"
)

// Walks lists the user's walks, favorites first.
func (h *Handler) Walks(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	walks, err := h.walks.List(r.Context(), userID)
	if err != nil {
		logging.Error().Err(err).Msg("Walk listing failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, walks)
}

// CreateWalk creates an empty walk.
func (h *Handler) CreateWalk(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req createWalkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Ошибка валидации", Errors: verr.Fields})
		return
	}

	walk, err := h.walks.Create(r.Context(), userID, req.Title, req.IsFavorite)
	if err != nil {
		logging.Error().Err(err).Msg("Walk creation failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusCreated, walk)
}

// Walk returns one walk with its ordered places.
func (h *Handler) Walk(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	walkID, err := pathID(r, "walkId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	walk, err := h.walks.Get(r.Context(), walkID, userID)
	if err != nil {
		h.walkError(w, err, "Walk lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, walk)
}

// WalkPlaces returns the places in a walk.
func (h *Handler) WalkPlaces(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	walkID, err := pathID(r, "walkId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	if _, err := h.walks.GetOwned(r.Context(), walkID, userID); err != nil {
		h.walkError(w, err, "Walk lookup failed")
		return
	}

	places, err := h.walks.Places(r.Context(), walkID)
	if err != nil {
		logging.Error().Err(err).Msg("Walk places lookup failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, places)
}

// AddWalkPlace appends one catalog place to the walk.
func (h *Handler) AddWalkPlace(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	walkID, err := pathID(r, "walkId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	var req addPlaceRequest
	if err := decodeJSON(r, &req); err != nil || req.PlaceID == 0 {
		respondError(w, http.StatusBadRequest, "ID места обязательно")
		return
	}

	if _, err := h.walks.GetOwned(r.Context(), walkID, userID); err != nil {
		h.walkError(w, err, "Walk lookup failed")
		return
	}

	exists, err := h.places.Exists(r.Context(), req.PlaceID)
	if err != nil {
		logging.Error().Err(err).Msg("Place existence check failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, "Место не найдено")
		return
	}

	link, err := h.walks.AddPlace(r.Context(), walkID, req.PlaceID)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			respondError(w, http.StatusBadRequest, "Место уже добавлено в прогулку")
			return
		}
		logging.Error().Err(err).Msg("Walk place insertion failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusCreated, link)
}

// AddWalkPlacesBatch appends several catalog places at once, used when
// importing a curated route. Unknown and duplicate ids are skipped.
func (h *Handler) AddWalkPlacesBatch(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	walkID, err := pathID(r, "walkId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	var req addPlacesBatchRequest
	if err := decodeJSON(r, &req); err != nil || len(req.PlaceIDs) == 0 {
		respondError(w, http.StatusBadRequest, "Массив ID мест обязателен")
		return
	}

	if _, err := h.walks.GetOwned(r.Context(), walkID, userID); err != nil {
		h.walkError(w, err, "Walk lookup failed")
		return
	}

	links, err := h.walks.AddPlacesBatch(r.Context(), walkID, req.PlaceIDs)
	if err != nil {
		logging.Error().Err(err).Msg("Batch walk place insertion failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Добавлено %d мест", len(links)),
		"places":  links,
	})
}

// RemoveWalkPlace deletes one place from the walk.
func (h *Handler) RemoveWalkPlace(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	walkID, err := pathID(r, "walkId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}
	placeID, err := pathID(r, "placeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	if _, err := h.walks.GetOwned(r.Context(), walkID, userID); err != nil {
		h.walkError(w, err, "Walk lookup failed")
		return
	}

	if err := h.walks.RemovePlace(r.Context(), walkID, placeID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Место не найдено в прогулке")
			return
		}
		logging.Error().Err(err).Msg("Walk place removal failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Место удалено из прогулки",
	})
}

// VisitWalkPlace flips the visited flag on a walk place.
func (h *Handler) VisitWalkPlace(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	walkID, err := pathID(r, "walkId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}
	placeID, err := pathID(r, "placeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	var req visitRequest
	if err := decodeJSON(r, &req); err != nil || req.Visited == nil {
		respondError(w, http.StatusBadRequest, "Поле visited должно быть boolean")
		return
	}

	if _, err := h.walks.GetOwned(r.Context(), walkID, userID); err != nil {
		h.walkError(w, err, "Walk lookup failed")
		return
	}

	link, err := h.walks.SetVisited(r.Context(), walkID, placeID, *req.Visited)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Место не найдено в прогулке")
			return
		}
		logging.Error().Err(err).Msg("Visit flag update failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, link)
}

// ReorderWalkPlaces applies new order indexes to the walk's places.
func (h *Handler) ReorderWalkPlaces(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	walkID, err := pathID(r, "walkId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil || req.Places == nil {
		respondError(w, http.StatusBadRequest, "places должен быть массивом")
		return
	}

	if _, err := h.walks.GetOwned(r.Context(), walkID, userID); err != nil {
		h.walkError(w, err, "Walk lookup failed")
		return
	}

	if err := h.walks.Reorder(r.Context(), walkID, req.Places); err != nil {
		logging.Error().Err(err).Msg("Walk reorder failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Порядок обновлен",
	})
}

// DeleteWalk removes a walk. Favorites are protected from deletion.
func (h *Handler) DeleteWalk(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	walkID, err := pathID(r, "walkId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	walk, err := h.walks.GetOwned(r.Context(), walkID, userID)
	if err != nil {
		h.walkError(w, err, "Walk lookup failed")
		return
	}
	if walk.IsFavorite {
		respondError(w, http.StatusBadRequest, "Нельзя удалить избранное")
		return
	}

	if err := h.walks.Delete(r.Context(), walkID); err != nil {
		logging.Error().Err(err).Msg("Walk deletion failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Прогулка удалена",
	})
}

// UpdateWalk renames a walk.
func (h *Handler) UpdateWalk(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	walkID, err := pathID(r, "walkId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	var req updateWalkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondError(w, http.StatusBadRequest, "Название обязательно")
		return
	}

	if _, err := h.walks.GetOwned(r.Context(), walkID, userID); err != nil {
		h.walkError(w, err, "Walk lookup failed")
		return
	}

	walk, err := h.walks.UpdateTitle(r.Context(), walkID, title)
	if err != nil {
		logging.Error().Err(err).Msg("Walk rename failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, walk)
}

// walkError maps store errors from walk lookups to HTTP responses.
func (h *Handler) walkError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Прогулка не найдена")
		return
	}
	logging.Error().Err(err).Msg(logMsg)
	respondError(w, http.StatusInternalServerError, "Ошибка сервера")
}
