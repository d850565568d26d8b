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

	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/models"
)

// MediaFile loads one active media record of an observation.
func (db *DB) MediaFile(ctx context.Context, observationID, id int64) (*models.MediaFile, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, observation_id, file_type, name, description, path, content_type,
			creator_id, created_at, status
		FROM media_files WHERE id = ? AND observation_id = ? AND status = 'active'`,
		id, observationID)

	media, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: media file %d", contribute.ErrNotFound, id)
	}
	return media, err
}

// MediaFiles lists an observation's active media records.
func (db *DB) MediaFiles(ctx context.Context, observationID int64) ([]*models.MediaFile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, observation_id, file_type, name, description, path, content_type,
			creator_id, created_at, status
		FROM media_files WHERE observation_id = ? AND status = 'active' ORDER BY id`,
		observationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query media files: %w", err)
	}
	defer rows.Close()

	var files []*models.MediaFile
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, media)
	}
	return files, rows.Err()
}

// CreateMediaFile inserts the record and bumps the observation's media
// count in one transaction. The file content is the caller's concern.
func (db *DB) CreateMediaFile(ctx context.Context, media *models.MediaFile) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO media_files (observation_id, file_type, name, description, path,
				content_type, creator_id, created_at, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			media.ObservationID, string(media.Type), media.Name, media.Description,
			media.Path, media.ContentType, media.CreatorID, media.CreatedAt,
			string(media.Status),
		).Scan(&media.ID)
		if err != nil {
			return fmt.Errorf("failed to insert media file: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE observations SET num_media = num_media + 1 WHERE id = ?`,
			media.ObservationID); err != nil {
			return fmt.Errorf("failed to bump media count: %w", err)
		}
		return nil
	})
}

// DeleteMediaFile marks a media record deleted and drops the count.
func (db *DB) DeleteMediaFile(ctx context.Context, observationID, id int64) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE media_files SET status = 'deleted'
			WHERE id = ? AND observation_id = ? AND status = 'active'`, id, observationID)
		if err != nil {
			return fmt.Errorf("failed to delete media file: %w", err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("%w: media file %d", contribute.ErrNotFound, id)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE observations SET num_media = num_media - 1 WHERE id = ?`,
			observationID); err != nil {
			return fmt.Errorf("failed to drop media count: %w", err)
		}
		return nil
	})
}

func scanMedia(row rowScanner) (*models.MediaFile, error) {
	var media models.MediaFile
	if err := row.Scan(&media.ID, &media.ObservationID, &media.Type, &media.Name,
		&media.Description, &media.Path, &media.ContentType,
		&media.CreatorID, &media.CreatedAt, &media.Status); err != nil {
		return nil, err
	}
	return &media, nil
}
