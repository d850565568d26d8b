// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

// Package database is the DuckDB persistence layer. Observation properties
// are stored as a JSON column queried with the json extension; geometries
// are GeoJSON text filtered spatially through the spatial extension.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/geokey/geokey/internal/config"
	"github.com/geokey/geokey/internal/logging"
)

// DB wraps the DuckDB connection and provides the data stores.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	spatialAvailable bool
}

// New opens the database, loads extensions and initialises the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if dir := filepath.Dir(cfg.Path); cfg.Path != ":memory:" && dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// configureConnectionPool tunes the pool for DuckDB's in-process model: a
// small number of connections sharing one database instance.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(4)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
}

func (db *DB) initialize() error {
	if err := db.loadExtensions(); err != nil {
		return err
	}
	if err := db.createSchema(); err != nil {
		return err
	}
	return nil
}

// loadExtensions loads the json and spatial extensions. JSON is required for
// property queries; spatial is optional and its absence disables bbox
// filtering only.
func (db *DB) loadExtensions() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "INSTALL json; LOAD json;"); err != nil {
		return fmt.Errorf("failed to load json extension: %w", err)
	}

	if _, err := db.conn.ExecContext(ctx, "INSTALL spatial; LOAD spatial;"); err != nil {
		logging.Warn().Err(err).Msg("spatial extension unavailable, bbox filtering disabled")
	} else {
		db.spatialAvailable = true
	}

	return nil
}

// SpatialAvailable reports whether the spatial extension loaded.
func (db *DB) SpatialAvailable() bool {
	return db.spatialAvailable
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close checkpoints and closes the database. The checkpoint flushes the WAL
// so the next startup does not replay it.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("failed to checkpoint database before close")
	}

	return db.conn.Close()
}

// inTx runs fn inside a transaction, rolling back on error.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Error().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
