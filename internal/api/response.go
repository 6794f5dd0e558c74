// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

// Package api provides HTTP routing and handlers using the chi router.
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/citystroll/citystroll/internal/logging"
)

// sanitizeLogValue removes control characters from strings to prevent
// log injection. Newlines and other controls are escaped.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// errorBody is the common error envelope. Optional fields carry the
// captcha escalation state on login responses.
type errorBody struct {
	Error             string          `json:"error"`
	Errors            any             `json:"errors,omitempty"`
	CaptchaRequired   bool            `json:"captchaRequired,omitempty"`
	Captcha           *captchaPayload `json:"captcha,omitempty"`
	Message           string          `json:"message,omitempty"`
	RemainingAttempts *int            `json:"remainingAttempts,omitempty"`
	Details           string          `json:"details,omitempty"`
}

// captchaPayload is the client-facing slice of a challenge. The answer
// never leaves the server.
type captchaPayload struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Question string `json:"question,omitempty"`
}

// respondError sends a plain error envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// decodeJSON reads the request body into v. Unknown fields are
// tolerated, matching the permissive behavior clients rely on.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
