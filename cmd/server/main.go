// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

// Command server runs the CityStroll API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/citystroll/citystroll/internal/api"
	"github.com/citystroll/citystroll/internal/auth"
	"github.com/citystroll/citystroll/internal/cache"
	"github.com/citystroll/citystroll/internal/captcha"
	"github.com/citystroll/citystroll/internal/config"
	"github.com/citystroll/citystroll/internal/database"
	"github.com/citystroll/citystroll/internal/logging"
	"github.com/citystroll/citystroll/internal/ratelimit"
)

// sweepInterval is how often the TTL caches drop expired entries.
const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting CityStroll")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		logging.Fatal().Err(err).Msg("Failed to apply database schema")
	}
	logging.Info().Msg("Connected to PostgreSQL")

	clock := cache.SystemClock{}

	captchaCache := cache.New(clock)
	captchaCache.StartSweeper(sweepInterval)
	defer captchaCache.Stop()

	attemptsCache := cache.New(clock)
	attemptsCache.StartSweeper(sweepInterval)
	defer attemptsCache.Stop()

	captchas := captcha.NewStore(captchaCache, cfg.Security.CaptchaTTL)
	tracker := auth.NewTracker(attemptsCache, auth.TrackerConfig{
		AttemptTTL:       cfg.Security.AttemptTTL,
		CaptchaThreshold: cfg.Security.CaptchaThreshold,
		MaxAttemptsHint:  cfg.Security.MaxAttemptsHint,
	})
	loginLimiter := ratelimit.New(cfg.Security.LoginRateLimit, cfg.Security.LoginRateWindow, clock)

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token manager")
	}

	handler := api.NewHandler(api.HandlerConfig{
		Users:    database.NewUsersStore(pool),
		Places:   database.NewPlacesStore(pool),
		Walks:    database.NewWalksStore(pool),
		Memories: database.NewMemoriesStore(pool),
		Captchas: captchas,
		Tracker:  tracker,
		Tokens:   jwtManager,
		Pinger:   pool,
		Dev:      cfg.IsDevelopment(),
	})

	router := api.NewRouter(handler, cfg, loginLimiter, jwtManager)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}

	logging.Info().Msg("Application stopped gracefully")
}
