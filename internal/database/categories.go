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

// Category loads a category with its full field list and lookup values.
func (db *DB) Category(ctx context.Context, projectID, categoryID int64) (*models.Category, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, project_id, name, description, ordering, status, default_status,
			colour, transparency, display_field_id, expiry_field_id, creator_id, created_at
		FROM categories WHERE id = ? AND project_id = ?`, categoryID, projectID)

	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category %d", contribute.ErrNotFound, categoryID)
	}
	if err != nil {
		return nil, err
	}

	if err := db.loadFields(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Categories lists a project's categories with fields, ordered for display.
func (db *DB) Categories(ctx context.Context, projectID int64) ([]*models.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, project_id, name, description, ordering, status, default_status,
			colour, transparency, display_field_id, expiry_field_id, creator_id, created_at
		FROM categories WHERE project_id = ? AND status != 'deleted' ORDER BY ordering, id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, category := range categories {
		if err := db.loadFields(ctx, category); err != nil {
			return nil, err
		}
	}
	return categories, nil
}

// CategoryMap loads the categories referenced by subset rules keyed by ID.
func (db *DB) CategoryMap(ctx context.Context, projectID int64) (map[int64]*models.Category, error) {
	categories, err := db.Categories(ctx, projectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Category, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}
	return byID, nil
}

// CreateCategory inserts a category. Expiry field references are validated
// by UpdateCategoryFieldRefs once fields exist.
func (db *DB) CreateCategory(ctx context.Context, category *models.Category) error {
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO categories (project_id, name, description, ordering, status, default_status,
			colour, transparency, creator_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		category.ProjectID, category.Name, category.Description, category.Order,
		string(category.Status), string(category.DefaultStatus),
		category.Colour, category.Transparency, category.CreatorID, category.CreatedAt,
	).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// CreateField inserts a field with its lookup values.
func (db *DB) CreateField(ctx context.Context, field *models.Field) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO fields (category_id, field_type, name, key, description,
				required, status, ordering, maxlength, minval, maxval)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			field.CategoryID, string(field.Type), field.Name, field.Key, field.Description,
			field.Required, string(field.Status), field.Order,
			field.MaxLength, field.MinVal, field.MaxVal,
		).Scan(&field.ID)
		if err != nil {
			return fmt.Errorf("failed to insert field: %w", err)
		}

		for i := range field.LookupValues {
			value := &field.LookupValues[i]
			value.FieldID = field.ID
			if err := tx.QueryRowContext(ctx,
				`INSERT INTO lookup_values (field_id, name, status) VALUES (?, ?, ?) RETURNING id`,
				value.FieldID, value.Name, string(value.Status),
			).Scan(&value.ID); err != nil {
				return fmt.Errorf("failed to insert lookup value: %w", err)
			}
		}
		return nil
	})
}

// UpdateCategoryFieldRefs sets the display and expiry field references.
// An expiry reference to anything but a DateTime field is rejected.
func (db *DB) UpdateCategoryFieldRefs(ctx context.Context, category *models.Category, displayFieldID, expiryFieldID *int64) error {
	if expiryFieldID != nil {
		var fieldType string
		err := db.conn.QueryRowContext(ctx,
			`SELECT field_type FROM fields WHERE id = ? AND category_id = ?`,
			*expiryFieldID, category.ID).Scan(&fieldType)
		if errors.Is(err, sql.ErrNoRows) {
			return &contribute.ValidationError{Fields: map[string]string{
				"expiry_field": "field does not belong to this category",
			}}
		}
		if err != nil {
			return fmt.Errorf("failed to check expiry field: %w", err)
		}
		if models.FieldType(fieldType) != models.FieldDateTime {
			return &contribute.ValidationError{Fields: map[string]string{
				"expiry_field": "expiry field must be a DateTime field",
			}}
		}
	}

	if _, err := db.conn.ExecContext(ctx,
		`UPDATE categories SET display_field_id = ?, expiry_field_id = ? WHERE id = ?`,
		displayFieldID, expiryFieldID, category.ID); err != nil {
		return fmt.Errorf("failed to update category field refs: %w", err)
	}
	category.DisplayFieldID = displayFieldID
	category.ExpiryFieldID = expiryFieldID
	return nil
}

func (db *DB) loadFields(ctx context.Context, category *models.Category) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, category_id, field_type, name, key, description, required, status,
			ordering, maxlength, minval, maxval
		FROM fields WHERE category_id = ? ORDER BY ordering, id`, category.ID)
	if err != nil {
		return fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	category.Fields = nil
	for rows.Next() {
		var field models.Field
		if err := rows.Scan(&field.ID, &field.CategoryID, &field.Type, &field.Name, &field.Key,
			&field.Description, &field.Required, &field.Status, &field.Order,
			&field.MaxLength, &field.MinVal, &field.MaxVal); err != nil {
			return fmt.Errorf("failed to scan field: %w", err)
		}
		category.Fields = append(category.Fields, field)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range category.Fields {
		field := &category.Fields[i]
		if field.Type != models.FieldLookup && field.Type != models.FieldMultipleLookup {
			continue
		}
		if err := db.loadLookupValues(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) loadLookupValues(ctx context.Context, field *models.Field) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, field_id, name, status FROM lookup_values WHERE field_id = ? ORDER BY id`,
		field.ID)
	if err != nil {
		return fmt.Errorf("failed to query lookup values: %w", err)
	}
	defer rows.Close()

	field.LookupValues = nil
	for rows.Next() {
		var value models.LookupValue
		if err := rows.Scan(&value.ID, &value.FieldID, &value.Name, &value.Status); err != nil {
			return fmt.Errorf("failed to scan lookup value: %w", err)
		}
		field.LookupValues = append(field.LookupValues, value)
	}
	return rows.Err()
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var category models.Category
	if err := row.Scan(&category.ID, &category.ProjectID, &category.Name, &category.Description,
		&category.Order, &category.Status, &category.DefaultStatus, &category.Colour,
		&category.Transparency, &category.DisplayFieldID, &category.ExpiryFieldID,
		&category.CreatorID, &category.CreatedAt); err != nil {
		return nil, err
	}
	return &category, nil
}
