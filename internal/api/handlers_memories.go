// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"errors"
	"net/http"

	"github.com/citystroll/citystroll/internal/database"
	"github.com/citystroll/citystroll/internal/logging"
	"github.com/citystroll/citystroll/internal/validation"
)

// Memories lists the user's journal entries newest first.
func (h *Handler) Memories(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	memories, err := h.memories.List(r.Context(), userID)
	if err != nil {
		logging.Error().Err(err).Msg("Memory listing failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, memories)
}

// CreateMemory stores a journal entry, optionally linked to one of the
// user's walks.
func (h *Handler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req memoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Ошибка валидации", Errors: verr.Fields})
		return
	}

	if req.WalkID != nil {
		if _, err := h.walks.GetOwned(r.Context(), *req.WalkID, userID); err != nil {
			h.walkError(w, err, "Memory walk check failed")
			return
		}
	}

	memory, err := h.memories.Create(r.Context(), userID, req.WalkID, req.Title, req.Content, req.Photos)
	if err != nil {
		logging.Error().Err(err).Msg("Memory creation failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, memory)
}

// Memory returns one journal entry with photos.
func (h *Handler) Memory(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	memory, err := h.memories.Get(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Воспоминание не найдено")
			return
		}
		logging.Error().Err(err).Msg("Memory lookup failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, memory)
}

// UpdateMemory rewrites a journal entry. A photos array in the request
// replaces the photo set; omitting it keeps the existing photos.
func (h *Handler) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	var req memoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Ошибка валидации", Errors: verr.Fields})
		return
	}

	if req.WalkID != nil {
		if _, err := h.walks.GetOwned(r.Context(), *req.WalkID, userID); err != nil {
			h.walkError(w, err, "Memory walk check failed")
			return
		}
	}

	memory, err := h.memories.Update(r.Context(), id, userID, req.WalkID, req.Title, req.Content, req.Photos)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Воспоминание не найдено")
			return
		}
		logging.Error().Err(err).Msg("Memory update failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, memory)
}

// DeleteMemory removes a journal entry and its photos.
func (h *Handler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Некорректный идентификатор")
		return
	}

	if err := h.memories.Delete(r.Context(), id, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Воспоминание не найдено")
			return
		}
		logging.Error().Err(err).Msg("Memory deletion failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Воспоминание удалено",
	})
}
