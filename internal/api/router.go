// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/citystroll/citystroll/internal/auth"
	"github.com/citystroll/citystroll/internal/config"
	"github.com/citystroll/citystroll/internal/ratelimit"
)

// Router wires the handlers and middleware into the chi route tree.
type Router struct {
	handler      *Handler
	cfg          *config.Config
	loginLimiter *ratelimit.Limiter
	jwtManager   *auth.JWTManager
}

// NewRouter builds the Router.
func NewRouter(handler *Handler, cfg *config.Config, loginLimiter *ratelimit.Limiter, jwtManager *auth.JWTManager) *Router {
	return &Router{
		handler:      handler,
		cfg:          cfg,
		loginLimiter: loginLimiter,
		jwtManager:   jwtManager,
	}
}

// Setup configures all HTTP routes.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(rt.cfg.Server))
	r.Use(SecurityHeaders())
	r.Use(RequestLogger())

	authenticate := Authenticate(rt.jwtManager)
	loginLimit := LoginRateLimit(rt.loginLimiter, rt.cfg.Security.RateLimitDisabled)

	// Health and operational endpoints.
	r.Get("/health", rt.handler.Health)
	r.Get("/status", rt.handler.Status)
	r.Handle("/metrics", promhttp.Handler())

	// Auth endpoints. The login limiter admits a fixed number of
	// requests per client per window and refunds successful ones.
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/captcha", rt.handler.Captcha)

		r.Group(func(r chi.Router) {
			r.Use(loginLimit)
			r.Post("/register", rt.handler.Register)
			r.Post("/login", rt.handler.Login)
			r.Post("/check-email", rt.handler.CheckEmail)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/profile", rt.handler.Profile)
			r.Put("/profile", rt.handler.UpdateProfile)
			r.Put("/change-password", rt.handler.ChangePassword)
		})

		r.Get("/security-stats", rt.handler.SecurityStats)
	})

	// Public place catalog.
	r.Route("/api/places", func(r chi.Router) {
		r.Use(APIRateLimit(rt.cfg.Security))
		r.Get("/", rt.handler.Places)
		r.Get("/ready-walks/list", rt.handler.ReadyWalks)
		r.Get("/{id}", rt.handler.Place)
	})

	// Personal walks, authenticated.
	r.Route("/api/walks", func(r chi.Router) {
		r.Use(APIRateLimit(rt.cfg.Security))
		r.Use(authenticate)

		r.Get("/", rt.handler.Walks)
		r.Post("/", rt.handler.CreateWalk)
		r.Get("/{walkId}", rt.handler.Walk)
		r.Put("/{walkId}", rt.handler.UpdateWalk)
		r.Delete("/{walkId}", rt.handler.DeleteWalk)

		r.Get("/{walkId}/places", rt.handler.WalkPlaces)
		r.Post("/{walkId}/places", rt.handler.AddWalkPlace)
		r.Post("/{walkId}/places/batch", rt.handler.AddWalkPlacesBatch)
		r.Put("/{walkId}/places/order", rt.handler.ReorderWalkPlaces)
		r.Delete("/{walkId}/places/{placeId}", rt.handler.RemoveWalkPlace)
		r.Put("/{walkId}/places/{placeId}/visit", rt.handler.VisitWalkPlace)
	})

	// Journal entries, authenticated.
	r.Route("/api/memories", func(r chi.Router) {
		r.Use(APIRateLimit(rt.cfg.Security))
		r.Use(authenticate)

		r.Get("/", rt.handler.Memories)
		r.Post("/", rt.handler.CreateMemory)
		r.Get("/{id}", rt.handler.Memory)
		r.Put("/{id}", rt.handler.UpdateMemory)
		r.Delete("/{id}", rt.handler.DeleteMemory)
	})

	return r
}
