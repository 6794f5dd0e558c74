// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import "github.com/citystroll/citystroll/internal/models"

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
}

type loginRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	CaptchaID     string `json:"captchaId"`
	CaptchaAnswer string `json:"captchaAnswer"`
}

type checkEmailRequest struct {
	Email string `json:"email" validate:"required"`
}

type updateProfileRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	FullName string `json:"full_name" validate:"omitempty,min=2"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type createWalkRequest struct {
	Title      string `json:"title" validate:"required"`
	IsFavorite bool   `json:"is_favorite"`
}

type updateWalkRequest struct {
	Title string `json:"title"`
}

type addPlaceRequest struct {
	PlaceID int64 `json:"placeId" validate:"required"`
}

type addPlacesBatchRequest struct {
	PlaceIDs []int64 `json:"placeIds" validate:"required,min=1"`
}

type visitRequest struct {
	Visited *bool `json:"visited" validate:"required"`
}

type reorderRequest struct {
	Places []models.PlaceOrder `json:"places"`
}

type memoryRequest struct {
	WalkID  *int64   `json:"walk_id"`
	Title   string   `json:"title" validate:"required"`
	Content string   `json:"content"`
	Photos  []string `json:"photos" validate:"omitempty,dive,url"`
}
