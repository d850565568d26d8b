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

	json "github.com/goccy/go-json"

	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/metrics"
	"github.com/geokey/geokey/internal/models"
)

const observationColumns = `o.id, o.project_id, o.category_id, o.location_id, o.status,
	o.properties, o.version, o.creator_id, o.created_at, o.updator_id, o.updated_at,
	o.display_field, o.search_index, o.expiry_field, o.num_comments, o.num_media`

// Observation loads one observation of a project regardless of status;
// visibility is the caller's concern.
func (db *DB) Observation(ctx context.Context, projectID, id int64) (*models.Observation, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+observationColumns+` FROM observations o WHERE o.project_id = ? AND o.id = ?`,
		projectID, id)

	obs, err := scanObservation(row)
	metrics.RecordDBQuery("select", "observations", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: observation %d", contribute.ErrNotFound, id)
	}
	return obs, err
}

// CreateObservation inserts the observation and its opening history row in
// one transaction.
func (db *DB) CreateObservation(ctx context.Context, obs *models.Observation) error {
	props, err := json.Marshal(obs.Properties)
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}

	start := time.Now()
	err = db.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO observations (project_id, category_id, location_id, status, properties,
				version, creator_id, created_at, updated_at, display_field, search_index, expiry_field)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			obs.ProjectID, obs.CategoryID, obs.LocationID, string(obs.Status), string(props),
			obs.Version, obs.CreatorID, obs.CreatedAt, obs.UpdatedAt,
			obs.DisplayField, obs.SearchIndex, obs.ExpiryField,
		).Scan(&obs.ID)
		if err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}

		return appendHistory(ctx, tx, obs, models.HistoryCreated, creatorRef(obs.CreatorID))
	})
	metrics.RecordDBQuery("insert", "observations", time.Since(start), err)
	return err
}

// UpdateObservation persists a mutated observation under the optimistic
// version check, bumping the version and appending the change history row.
// Fails with ErrConflict when the stored version moved past expectedVersion.
func (db *DB) UpdateObservation(ctx context.Context, obs *models.Observation, expectedVersion int) error {
	props, err := json.Marshal(obs.Properties)
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}

	start := time.Now()
	err = db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE observations SET status = ?, properties = ?, version = version + 1,
				location_id = ?, updator_id = ?, updated_at = ?,
				display_field = ?, search_index = ?, expiry_field = ?
			WHERE id = ? AND version = ?`,
			string(obs.Status), string(props), obs.LocationID, obs.UpdatorID, obs.UpdatedAt,
			obs.DisplayField, obs.SearchIndex, obs.ExpiryField,
			obs.ID, expectedVersion)
		if err != nil {
			return fmt.Errorf("failed to update observation: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: observation %d moved past version %d",
				contribute.ErrConflict, obs.ID, expectedVersion)
		}

		obs.Version = expectedVersion + 1
		return appendHistory(ctx, tx, obs, models.HistoryChanged, obs.UpdatorID)
	})
	metrics.RecordDBQuery("update", "observations", time.Since(start), err)
	return err
}

// DeleteObservation marks the observation deleted and appends the closing
// history row. The version does not change; the closing row is the extra
// entry beyond the version count.
func (db *DB) DeleteObservation(ctx context.Context, obs *models.Observation) error {
	start := time.Now()
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE observations SET status = ?, updator_id = ?, updated_at = ? WHERE id = ?`,
			string(models.ObservationDeleted), obs.UpdatorID, obs.UpdatedAt, obs.ID); err != nil {
			return fmt.Errorf("failed to delete observation: %w", err)
		}
		return appendHistory(ctx, tx, obs, models.HistoryDeleted, obs.UpdatorID)
	})
	metrics.RecordDBQuery("delete", "observations", time.Since(start), err)
	return err
}

// History returns the observation's snapshot log, newest first.
func (db *DB) History(ctx context.Context, observationID int64) ([]*models.HistoricalObservation, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT history_id, history_date, history_type, history_user_id,
			observation_id, project_id, category_id, location_id, status,
			properties, version, display_field, created_at, updated_at
		FROM observation_history WHERE observation_id = ?
		ORDER BY history_date DESC, history_id DESC`, observationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var history []*models.HistoricalObservation
	for rows.Next() {
		var h models.HistoricalObservation
		var props string
		if err := rows.Scan(&h.HistoryID, &h.HistoryDate, &h.HistoryType, &h.HistoryUserID,
			&h.ObservationID, &h.ProjectID, &h.CategoryID, &h.LocationID, &h.Status,
			&props, &h.Version, &h.DisplayField, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if err := json.Unmarshal([]byte(props), &h.Properties); err != nil {
			return nil, fmt.Errorf("failed to decode history properties: %w", err)
		}
		history = append(history, &h)
	}
	return history, rows.Err()
}

func appendHistory(ctx context.Context, tx *sql.Tx, obs *models.Observation, historyType models.HistoryType, userID *int64) error {
	props, err := json.Marshal(obs.Properties)
	if err != nil {
		return fmt.Errorf("failed to encode history properties: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO observation_history (history_type, history_user_id, observation_id,
			project_id, category_id, location_id, status, properties, version,
			display_field, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(historyType), userID, obs.ID, obs.ProjectID, obs.CategoryID, obs.LocationID,
		string(obs.Status), string(props), obs.Version,
		obs.DisplayField, obs.CreatedAt, obs.UpdatedAt); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func creatorRef(creatorID int64) *int64 {
	if creatorID == 0 {
		return nil
	}
	return &creatorID
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanObservation(row rowScanner) (*models.Observation, error) {
	var obs models.Observation
	var props string
	if err := row.Scan(&obs.ID, &obs.ProjectID, &obs.CategoryID, &obs.LocationID, &obs.Status,
		&props, &obs.Version, &obs.CreatorID, &obs.CreatedAt, &obs.UpdatorID, &obs.UpdatedAt,
		&obs.DisplayField, &obs.SearchIndex, &obs.ExpiryField, &obs.NumComments, &obs.NumMedia); err != nil {
		return nil, err
	}
	if err := unmarshalProperties(props, &obs); err != nil {
		return nil, err
	}
	return &obs, nil
}

func unmarshalProperties(raw string, obs *models.Observation) error {
	if err := json.Unmarshal([]byte(raw), &obs.Properties); err != nil {
		return fmt.Errorf("failed to decode properties: %w", err)
	}
	normaliseProperties(obs.Properties)
	return nil
}

// normaliseProperties restores canonical value types after a JSON round trip
// through storage: lookup IDs come back as float64 and multiple-lookup sets
// as []interface{}.
func normaliseProperties(props models.Properties) {
	for key, value := range props {
		switch v := value.(type) {
		case []interface{}:
			ids := make([]int64, 0, len(v))
			for _, item := range v {
				if f, ok := item.(float64); ok && f == float64(int64(f)) {
					ids = append(ids, int64(f))
				}
			}
			if len(ids) == len(v) {
				props[key] = ids
			}
		case float64:
			// Numeric fields legitimately hold floats; integral values that
			// came from lookups are indistinguishable here, so they stay
			// float64 and are coerced where lookup semantics apply.
			_ = v
		}
	}
}
