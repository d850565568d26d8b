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

	json "github.com/goccy/go-json"

	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/models"
)

// Subset loads one subset of a project.
func (db *DB) Subset(ctx context.Context, projectID, id int64) (*models.Subset, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, project_id, name, description, rules, creator_id, created_at
		FROM subsets WHERE id = ? AND project_id = ?`, id, projectID)

	subset, err := scanSubset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: subset %d", contribute.ErrNotFound, id)
	}
	return subset, err
}

// Subsets lists a project's subsets.
func (db *DB) Subsets(ctx context.Context, projectID int64) ([]*models.Subset, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, project_id, name, description, rules, creator_id, created_at
		FROM subsets WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subsets: %w", err)
	}
	defer rows.Close()

	var subsets []*models.Subset
	for rows.Next() {
		subset, err := scanSubset(rows)
		if err != nil {
			return nil, err
		}
		subsets = append(subsets, subset)
	}
	return subsets, rows.Err()
}

// SubsetsByID loads the subsets referenced by a project's user groups, keyed
// by subset ID, for compiling group scopes.
func (db *DB) SubsetsByID(ctx context.Context, projectID int64, ids []int64) (map[int64]*models.Subset, error) {
	byID := make(map[int64]*models.Subset, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; ok {
			continue
		}
		subset, err := db.Subset(ctx, projectID, id)
		if err != nil {
			return nil, err
		}
		byID[id] = subset
	}
	return byID, nil
}

// CreateSubset inserts a subset.
func (db *DB) CreateSubset(ctx context.Context, subset *models.Subset) error {
	rules, err := json.Marshal(subset.Rules)
	if err != nil {
		return fmt.Errorf("failed to encode subset rules: %w", err)
	}

	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO subsets (project_id, name, description, rules, creator_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		subset.ProjectID, subset.Name, subset.Description, string(rules),
		subset.CreatorID, subset.CreatedAt,
	).Scan(&subset.ID)
	if err != nil {
		return fmt.Errorf("failed to insert subset: %w", err)
	}
	return nil
}

// UpdateSubset replaces a subset's name, description and rules.
func (db *DB) UpdateSubset(ctx context.Context, subset *models.Subset) error {
	rules, err := json.Marshal(subset.Rules)
	if err != nil {
		return fmt.Errorf("failed to encode subset rules: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE subsets SET name = ?, description = ?, rules = ? WHERE id = ? AND project_id = ?`,
		subset.Name, subset.Description, string(rules), subset.ID, subset.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to update subset: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: subset %d", contribute.ErrNotFound, subset.ID)
	}
	return nil
}

// DeleteSubset removes a subset and detaches it from user groups.
func (db *DB) DeleteSubset(ctx context.Context, projectID, id int64) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM subsets WHERE id = ? AND project_id = ?`, id, projectID)
		if err != nil {
			return fmt.Errorf("failed to delete subset: %w", err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("%w: subset %d", contribute.ErrNotFound, id)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE usergroups SET subset_id = NULL WHERE subset_id = ? AND project_id = ?`,
			id, projectID); err != nil {
			return fmt.Errorf("failed to detach subset from groups: %w", err)
		}
		return nil
	})
}

func scanSubset(row rowScanner) (*models.Subset, error) {
	var subset models.Subset
	var rules string
	if err := row.Scan(&subset.ID, &subset.ProjectID, &subset.Name, &subset.Description,
		&rules, &subset.CreatorID, &subset.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rules), &subset.Rules); err != nil {
		return nil, fmt.Errorf("failed to decode subset rules: %w", err)
	}
	return &subset, nil
}
