// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

// Package config provides layered application configuration via Koanf v2.
//
// Configuration is loaded in order of increasing priority:
//
//  1. Built-in defaults
//  2. Config file (config.yaml, overridable via GEOKEY_CONFIG)
//  3. Environment variables prefixed GEOKEY_ (GEOKEY_SERVER_PORT=8080
//     maps to server.port)
//
// The resulting Config is immutable after Load() and safe for concurrent
// reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	API      APIConfig      `koanf:"api"`
	Auth     AuthConfig     `koanf:"auth"`
	Media    MediaConfig    `koanf:"media"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path; ":memory:" opens an in-memory database.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads sets the DuckDB worker thread count; 0 uses all CPUs.
	Threads int `koanf:"threads"`
}

// APIConfig holds pagination and rate limiting settings.
type APIConfig struct {
	// DefaultLimit is the page size applied when the caller requests
	// pagination without an explicit limit.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the limit query parameter.
	MaxLimit int `koanf:"max_limit"`

	// RateLimit is the per-IP request budget per RateLimitWindow.
	RateLimit       int           `koanf:"rate_limit"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// AuthConfig holds authentication settings. GeoKey consumes authenticated
// principals; account management and OAuth flows live outside the engine.
type AuthConfig struct {
	// JWTSecret signs bearer tokens (HS256). Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenLifetime bounds the validity of issued JWTs.
	TokenLifetime time.Duration `koanf:"token_lifetime"`
}

// MediaConfig holds media file upload settings.
type MediaConfig struct {
	// Dir is the directory media files are written to.
	Dir string `koanf:"dir"`

	// MaxUploadBytes caps multipart upload size.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.API.DefaultLimit <= 0 {
		return fmt.Errorf("api.default_limit must be positive, got %d", c.API.DefaultLimit)
	}
	if c.API.MaxLimit < c.API.DefaultLimit {
		return fmt.Errorf("api.max_limit (%d) must not be below api.default_limit (%d)",
			c.API.MaxLimit, c.API.DefaultLimit)
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	return nil
}
