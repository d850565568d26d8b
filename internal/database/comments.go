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

// Comment loads one active comment of an observation.
func (db *DB) Comment(ctx context.Context, observationID, commentID int64) (*models.Comment, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, observation_id, text, creator_id, created_at, status, responds_to, review_status
		FROM comments WHERE id = ? AND observation_id = ? AND status = 'active'`,
		commentID, observationID)

	comment, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: comment %d", contribute.ErrNotFound, commentID)
	}
	return comment, err
}

// Comments lists the active comments of an observation, oldest first so
// threads read top-down.
func (db *DB) Comments(ctx context.Context, observationID int64) ([]*models.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, observation_id, text, creator_id, created_at, status, responds_to, review_status
		FROM comments WHERE observation_id = ? AND status = 'active' ORDER BY created_at, id`,
		observationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// CreateComment inserts the comment and bumps the observation's comment
// count in one transaction.
func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		var review interface{}
		if comment.ReviewStatus != nil {
			review = string(*comment.ReviewStatus)
		}

		err := tx.QueryRowContext(ctx,
			`INSERT INTO comments (observation_id, text, creator_id, created_at, status, responds_to, review_status)
			VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			comment.ObservationID, comment.Text, comment.CreatorID, comment.CreatedAt,
			string(comment.Status), comment.RespondsTo, review,
		).Scan(&comment.ID)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE observations SET num_comments = num_comments + 1 WHERE id = ?`,
			comment.ObservationID); err != nil {
			return fmt.Errorf("failed to bump comment count: %w", err)
		}
		return nil
	})
}

// UpdateComment persists review status and status changes. A comment moving
// to deleted decrements the observation's comment count.
func (db *DB) UpdateComment(ctx context.Context, comment *models.Comment) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		var review interface{}
		if comment.ReviewStatus != nil {
			review = string(*comment.ReviewStatus)
		}

		var wasActive bool
		if err := tx.QueryRowContext(ctx,
			`SELECT status = 'active' FROM comments WHERE id = ?`, comment.ID,
		).Scan(&wasActive); err != nil {
			return fmt.Errorf("failed to load comment status: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE comments SET text = ?, status = ?, review_status = ? WHERE id = ?`,
			comment.Text, string(comment.Status), review, comment.ID); err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}

		if wasActive && comment.Status == models.StatusDeleted {
			if _, err := tx.ExecContext(ctx,
				`UPDATE observations SET num_comments = num_comments - 1 WHERE id = ?`,
				comment.ObservationID); err != nil {
				return fmt.Errorf("failed to drop comment count: %w", err)
			}
		}
		return nil
	})
}

// DeleteComment marks the comment and its responses deleted and drops the
// observation's comment count by the number of rows removed.
func (db *DB) DeleteComment(ctx context.Context, comment *models.Comment) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE comments SET status = 'deleted'
			WHERE status = 'active' AND (id = ? OR responds_to = ?)`,
			comment.ID, comment.ID)
		if err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE observations SET num_comments = num_comments - ? WHERE id = ?`,
			affected, comment.ObservationID); err != nil {
			return fmt.Errorf("failed to drop comment count: %w", err)
		}
		comment.Status = models.StatusDeleted
		return nil
	})
}

// OpenReviewComments counts the unresolved review comments of an
// observation.
func (db *DB) OpenReviewComments(ctx context.Context, observationID int64) (int, error) {
	var open int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM comments
		WHERE observation_id = ? AND status = 'active' AND review_status = 'open'`,
		observationID).Scan(&open)
	if err != nil {
		return 0, fmt.Errorf("failed to count open reviews: %w", err)
	}
	return open, nil
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var comment models.Comment
	var review sql.NullString
	if err := row.Scan(&comment.ID, &comment.ObservationID, &comment.Text, &comment.CreatorID,
		&comment.CreatedAt, &comment.Status, &comment.RespondsTo, &review); err != nil {
		return nil, err
	}
	if review.Valid {
		status := models.ReviewStatus(review.String)
		comment.ReviewStatus = &status
	}
	return &comment, nil
}
