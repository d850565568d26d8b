// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

// Package main is the entry point for the GeoKey server.
//
// GeoKey is a participatory mapping platform: communities define projects
// with typed observation categories, contributors submit geo-referenced
// observations against those categories, and moderators review them before
// publication. The server exposes the contribution engine as a GeoJSON REST
// API with KML export.
//
// The server initializes components in order:
//
//  1. Configuration: layered Koanf v2 sources (defaults, config file,
//     GEOKEY_* environment variables)
//  2. Logging: zerolog, json or console format
//  3. Database: DuckDB with the spatial extension when available
//  4. Authentication: JWT manager for bearer tokens
//  5. HTTP server: chi router with the project-scoped API
//
// Shutdown on SIGINT/SIGTERM drains in-flight requests within the configured
// shutdown timeout, then checkpoints and closes the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/geokey/geokey/internal/api"
	"github.com/geokey/geokey/internal/auth"
	"github.com/geokey/geokey/internal/config"
	"github.com/geokey/geokey/internal/database"
	"github.com/geokey/geokey/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Path).
		Msg("Starting GeoKey server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if !db.SpatialAvailable() {
		logging.Warn().Msg("Spatial extension unavailable, bbox queries fall back to stored coordinates")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Auth)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, db, jwtManager),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
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
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed, forcing close")
		_ = server.Close()
	}

	logging.Info().Msg("Server stopped gracefully")
}
