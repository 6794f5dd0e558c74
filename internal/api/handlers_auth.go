// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/citystroll/citystroll/internal/auth"
	"github.com/citystroll/citystroll/internal/database"
	"github.com/citystroll/citystroll/internal/logging"
	"github.com/citystroll/citystroll/internal/metrics"
	"github.com/citystroll/citystroll/internal/validation"
)

// Captcha issues a fresh challenge. Public endpoint, clients call it
// before retrying a login the server flagged with captchaRequired.
func (h *Handler) Captcha(w http.ResponseWriter, r *http.Request) {
	challenge := h.captchas.Issue()
	metrics.CaptchasIssuedTotal.Inc()

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"captcha": captchaPayload{
			ID:       challenge.ID,
			Text:     challenge.Text,
			Question: challenge.Question,
		},
	})
}

// Register creates an account and returns a signed token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Ошибка валидации", Errors: verr.Fields})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logging.Error().Err(err).Msg("Password hashing failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера при регистрации")
		return
	}

	user, err := h.users.Create(r.Context(), req.Email, hash, req.FullName)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			respondError(w, http.StatusBadRequest, "Пользователь с таким email уже существует")
			return
		}
		logging.Error().Err(err).Msg("User creation failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера при регистрации")
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		logging.Error().Err(err).Msg("Token generation failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера при регистрации")
		return
	}

	logging.Info().Int64("user_id", user.ID).Msg("User registered")
	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// Login authenticates a user behind the brute-force gate. The order of
// checks matters: the captcha requirement is evaluated and enforced
// before credentials are ever touched, so an attacker past the
// threshold learns nothing new about the password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Ошибка валидации", Errors: verr.Fields})
		return
	}

	clientIP := ClientIP(r)
	logging.Info().
		Str("email", sanitizeLogValue(req.Email)).
		Str("client", sanitizeLogValue(clientIP)).
		Msg("Login attempt")

	if h.tracker.RequiresCaptcha(clientIP, req.Email) {
		if req.CaptchaID == "" || req.CaptchaAnswer == "" {
			challenge := h.captchas.Issue()
			metrics.CaptchasIssuedTotal.Inc()
			metrics.RecordLoginOutcome("captcha_required")
			respondJSON(w, http.StatusBadRequest, errorBody{
				Error:           "Требуется проверка безопасности",
				CaptchaRequired: true,
				Captcha:         &captchaPayload{ID: challenge.ID, Text: challenge.Text},
				Message:         "Пройдите проверку безопасности",
			})
			return
		}

		if !h.captchas.Verify(req.CaptchaID, req.CaptchaAnswer) {
			metrics.CaptchasVerifiedTotal.WithLabelValues("failed").Inc()
			metrics.RecordLoginOutcome("captcha_failed")
			h.tracker.RecordFailure(clientIP, req.Email)
			remaining := h.tracker.RemainingAttempts(clientIP, req.Email)
			respondJSON(w, http.StatusBadRequest, errorBody{
				Error:           "Неверный ответ проверки безопасности",
				CaptchaRequired: true,
				Message:         remainingMessage(remaining),
			})
			return
		}
		metrics.CaptchasVerifiedTotal.WithLabelValues("ok").Inc()
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.failLogin(w, clientIP, req.Email)
			return
		}
		// Infrastructure faults also count against the caller so the
		// gate cannot be drained by inducing errors.
		h.tracker.RecordFailure(clientIP, req.Email)
		metrics.RecordLoginOutcome("error")
		logging.Error().Err(err).Msg("Login lookup failed")
		body := errorBody{Error: "Ошибка сервера при входе"}
		if h.dev {
			body.Details = err.Error()
		}
		respondJSON(w, http.StatusInternalServerError, body)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.failLogin(w, clientIP, req.Email)
		return
	}

	h.tracker.Reset(clientIP, req.Email)

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		h.tracker.RecordFailure(clientIP, req.Email)
		metrics.RecordLoginOutcome("error")
		logging.Error().Err(err).Msg("Token generation failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера при входе")
		return
	}

	metrics.RecordLoginOutcome("success")
	logging.Info().
		Int64("user_id", user.ID).
		Str("client", sanitizeLogValue(clientIP)).
		Msg("Login succeeded")

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// failLogin records a failed credential check and writes the uniform
// 401 response. Whether the account exists is never revealed; the body
// is identical for unknown emails and wrong passwords.
func (h *Handler) failLogin(w http.ResponseWriter, clientIP, email string) {
	h.tracker.RecordFailure(clientIP, email)
	remaining := h.tracker.RemainingAttempts(clientIP, email)
	metrics.RecordLoginOutcome("invalid_credentials")

	body := errorBody{
		Error:             "Неверный email или пароль",
		RemainingAttempts: &remaining,
	}
	if h.tracker.RequiresCaptcha(clientIP, email) {
		challenge := h.captchas.Issue()
		metrics.CaptchasIssuedTotal.Inc()
		body.CaptchaRequired = true
		body.Captcha = &captchaPayload{ID: challenge.ID, Text: challenge.Text}
		body.Message = "Пройдите проверку безопасности"
	}

	respondJSON(w, http.StatusUnauthorized, body)
}

func remainingMessage(remaining int) string {
	return fmt.Sprintf("Неправильный ответ. Осталось попыток: %d", remaining)
}

// CheckEmail reports whether an account with the given email exists.
// Used by the registration form for live validation.
func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req checkEmailRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email обязателен")
		return
	}

	exists, err := h.users.EmailExists(r.Context(), req.Email, 0)
	if err != nil {
		logging.Error().Err(err).Msg("Email check failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// Profile returns the authenticated user's account.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Пользователь не найден")
			return
		}
		logging.Error().Err(err).Msg("Profile lookup failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the account's name and email. Both fields are
// optional but at least one must be present.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	if req.Email == "" && req.FullName == "" {
		respondError(w, http.StatusBadRequest, "Нет данных для обновления")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Ошибка валидации", Errors: verr.Fields})
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Пользователь не найден")
			return
		}
		logging.Error().Err(err).Msg("Profile lookup failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера при обновлении профиля")
		return
	}

	email := user.Email
	if req.Email != "" {
		email = req.Email
	}
	fullName := user.FullName
	if req.FullName != "" {
		fullName = req.FullName
	}

	if email != user.Email {
		taken, err := h.users.EmailExists(r.Context(), email, userID)
		if err != nil {
			logging.Error().Err(err).Msg("Email uniqueness check failed")
			respondError(w, http.StatusInternalServerError, "Ошибка сервера при обновлении профиля")
			return
		}
		if taken {
			respondError(w, http.StatusBadRequest, "Email уже используется другим пользователем")
			return
		}
	}

	updated, err := h.users.UpdateProfile(r.Context(), userID, email, fullName, user.ProfilePicURL)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			respondError(w, http.StatusBadRequest, "Email уже используется другим пользователем")
			return
		}
		logging.Error().Err(err).Msg("Profile update failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера при обновлении профиля")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// ChangePassword rotates the account password after verifying the
// current one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Ошибка валидации", Errors: verr.Fields})
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Пользователь не найден")
			return
		}
		logging.Error().Err(err).Msg("User lookup failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		respondError(w, http.StatusUnauthorized, "Неверный текущий пароль")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logging.Error().Err(err).Msg("Password hashing failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	if err := h.users.UpdatePassword(r.Context(), userID, hash); err != nil {
		logging.Error().Err(err).Msg("Password update failed")
		respondError(w, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Пароль успешно изменен",
	})
}

// securityStatEntry is one tracked failure counter.
type securityStatEntry struct {
	Key      string        `json:"key"`
	Attempts int           `json:"attempts"`
	TTL      time.Duration `json:"ttl"`
}

// SecurityStats dumps the current failed-attempt counters. Debugging
// aid mirroring what the tracker cache holds.
func (h *Handler) SecurityStats(w http.ResponseWriter, r *http.Request) {
	keys := h.tracker.Keys()
	metrics.FailedAttemptEntries.Set(float64(len(keys)))

	stats := make([]securityStatEntry, 0, len(keys))
	for _, k := range keys {
		stats = append(stats, securityStatEntry{
			Key:      k.Key,
			Attempts: h.tracker.Attempts(k.Key),
			TTL:      k.TTL,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"totalFailedAttempts": len(keys),
		"stats":               stats,
	})
}
