// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/models"
)

// User loads one user by ID.
func (db *DB) User(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, display_name, email, created_at FROM users WHERE id = ?`, id)

	var user models.User
	err := row.Scan(&user.ID, &user.DisplayName, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", contribute.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// CreateUser inserts a user.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (display_name, email, created_at) VALUES (?, ?, ?) RETURNING id`,
		user.DisplayName, user.Email, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// AccessToken is a personal access token. Only the bcrypt hash is stored;
// the clear token leaves the server once, at creation.
type AccessToken struct {
	ID         int64
	UserID     int64
	Name       string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// CreateAccessToken hashes and stores a personal access token for a user.
func (db *DB) CreateAccessToken(ctx context.Context, userID int64, name, token string) (*AccessToken, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash token: %w", err)
	}

	record := &AccessToken{UserID: userID, Name: name, CreatedAt: time.Now().UTC()}
	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO access_tokens (user_id, name, token_hash, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		record.UserID, record.Name, string(hash), record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert access token: %w", err)
	}
	return record, nil
}

// VerifyAccessToken resolves a presented token to its user, comparing the
// bcrypt hash of every token of the claimed user.
func (db *DB) VerifyAccessToken(ctx context.Context, userID int64, token string) (*models.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, token_hash FROM access_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query access tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan access token: %w", err)
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil {
			if _, err := db.conn.ExecContext(ctx,
				`UPDATE access_tokens SET last_used_at = current_timestamp WHERE id = ?`, id); err != nil {
				return nil, fmt.Errorf("failed to touch access token: %w", err)
			}
			return db.User(ctx, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: access token", contribute.ErrNotFound)
}
