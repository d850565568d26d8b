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

// Location loads one location.
func (db *DB) Location(ctx context.Context, id int64) (*models.Location, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, geometry, creator_id, created_at, status, private_for_project
		FROM locations WHERE id = ? AND status = 'active'`, id)

	location, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: location %d", contribute.ErrNotFound, id)
	}
	return location, err
}

// CreateLocation inserts a location, validating the geometry through the
// spatial extension when it is available.
func (db *DB) CreateLocation(ctx context.Context, loc *models.Location) error {
	if db.spatialAvailable {
		var valid bool
		err := db.conn.QueryRowContext(ctx,
			`SELECT ST_GeomFromGeoJSON(?) IS NOT NULL`, loc.Geometry).Scan(&valid)
		if err != nil || !valid {
			return &contribute.ValidationError{Fields: map[string]string{
				"geometry": "not a parseable GeoJSON geometry",
			}}
		}
	}

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO locations (name, description, geometry, creator_id, created_at, status, private_for_project)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		loc.Name, loc.Description, loc.Geometry, loc.CreatorID, loc.CreatedAt,
		string(loc.Status), loc.PrivateForProject,
	).Scan(&loc.ID)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

// LocationsForProject lists the locations usable with a project: public ones
// plus those private to it.
func (db *DB) LocationsForProject(ctx context.Context, projectID int64) ([]*models.Location, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description, geometry, creator_id, created_at, status, private_for_project
		FROM locations WHERE status = 'active'
			AND (private_for_project IS NULL OR private_for_project = ?)
		ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, rows.Err()
}

func scanLocation(row rowScanner) (*models.Location, error) {
	var loc models.Location
	if err := row.Scan(&loc.ID, &loc.Name, &loc.Description, &loc.Geometry,
		&loc.CreatorID, &loc.CreatedAt, &loc.Status, &loc.PrivateForProject); err != nil {
		return nil, err
	}
	return &loc, nil
}
