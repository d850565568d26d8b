// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/geokey/geokey/internal/geojson"
	"github.com/geokey/geokey/internal/metrics"
	"github.com/geokey/geokey/internal/models"
	"github.com/geokey/geokey/internal/permission"
	"github.com/geokey/geokey/internal/subset"
)

// ListOptions narrows an observation listing. All parts are optional and
// combine with AND.
type ListOptions struct {
	// Subset applies a compiled subset predicate.
	Subset *subset.Predicate

	// BBox keeps observations whose geometry intersects the box. Requires
	// the spatial extension.
	BBox *geojson.BBox

	// Search matches whitespace-split terms against the search index; every
	// term must match.
	Search string

	// Offset and Limit paginate. Limit 0 means no limit.
	Offset int
	Limit  int
}

// ObservationRecord is one listing row: the observation with its location
// and creator resolved for rendering.
type ObservationRecord struct {
	Observation *models.Observation
	Location    *models.Location
	Creator     *models.User
}

// ListObservations returns the observations of a project the principal may
// see, filtered by the options, ordered by (-updated_at, id).
func (db *DB) ListObservations(ctx context.Context, projectID int64, caps *permission.Capabilities, opts ListOptions) ([]*ObservationRecord, error) {
	if opts.BBox != nil && !db.spatialAvailable {
		return nil, fmt.Errorf("bbox filtering requires the spatial extension")
	}

	var clauses []string
	var args []interface{}

	clauses = append(clauses, "o.project_id = ?")
	args = append(args, projectID)

	visibility, visibilityArgs := visibilityClause(caps)
	clauses = append(clauses, visibility)
	args = append(args, visibilityArgs...)

	if scope, scopeArgs, restricted := caps.ScopeSQL(); restricted {
		// The group scope never hides a user's own contributions.
		clauses = append(clauses, "("+scope+" OR o.creator_id = ?)")
		args = append(args, scopeArgs...)
		args = append(args, principalID(caps.User()))
	}

	if opts.Subset != nil {
		clause, subsetArgs := opts.Subset.SQL()
		clauses = append(clauses, clause)
		args = append(args, subsetArgs...)
	}

	if opts.BBox != nil {
		clauses = append(clauses,
			"ST_Intersects(ST_GeomFromGeoJSON(l.geometry), ST_MakeEnvelope(?, ?, ?, ?))")
		args = append(args, opts.BBox.XMin, opts.BBox.YMin, opts.BBox.XMax, opts.BBox.YMax)
	}

	for _, term := range strings.Fields(strings.ToLower(opts.Search)) {
		clauses = append(clauses, "o.search_index LIKE ?")
		args = append(args, "%"+term+"%")
	}

	query := `SELECT ` + observationColumns + `,
			l.id, l.name, l.description, l.geometry, l.creator_id, l.created_at, l.status, l.private_for_project,
			u.id, u.display_name
		FROM observations o
		JOIN locations l ON l.id = o.location_id
		LEFT JOIN users u ON u.id = o.creator_id
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY o.updated_at DESC, o.id`

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", opts.Limit, opts.Offset)
	} else if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "observations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var records []*ObservationRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// visibilityClause renders who sees what: moderators everything but deleted
// rows and others' drafts; contributors the active and review sets plus
// their own drafts and pending rows; anonymous users the public sets only.
func visibilityClause(caps *permission.Capabilities) (string, []interface{}) {
	userID := principalID(caps.User())

	if caps.Moderator {
		return "(o.status != 'deleted' AND (o.status != 'draft' OR o.creator_id = ?))",
			[]interface{}{userID}
	}

	if userID != 0 {
		return "(o.status IN ('active', 'review') OR (o.creator_id = ? AND o.status IN ('draft', 'pending')))",
			[]interface{}{userID}
	}

	return "(o.status IN ('active', 'review'))", nil
}

func principalID(user *models.User) int64 {
	if user.Anonymous() {
		return 0
	}
	return user.ID
}

func scanRecord(row rowScanner) (*ObservationRecord, error) {
	var obs models.Observation
	var props string
	var loc models.Location
	var userID *int64
	var displayName *string

	if err := row.Scan(&obs.ID, &obs.ProjectID, &obs.CategoryID, &obs.LocationID, &obs.Status,
		&props, &obs.Version, &obs.CreatorID, &obs.CreatedAt, &obs.UpdatorID, &obs.UpdatedAt,
		&obs.DisplayField, &obs.SearchIndex, &obs.ExpiryField, &obs.NumComments, &obs.NumMedia,
		&loc.ID, &loc.Name, &loc.Description, &loc.Geometry, &loc.CreatorID, &loc.CreatedAt,
		&loc.Status, &loc.PrivateForProject,
		&userID, &displayName); err != nil {
		return nil, fmt.Errorf("failed to scan observation record: %w", err)
	}

	if err := unmarshalProperties(props, &obs); err != nil {
		return nil, err
	}

	record := &ObservationRecord{Observation: &obs, Location: &loc}
	if userID != nil && displayName != nil {
		record.Creator = &models.User{ID: *userID, DisplayName: *displayName}
	}
	return record, nil
}
