// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates sequences, tables and indexes. All DDL is idempotent
// so startup can run it unconditionally.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	statements := append(sequenceDDL(), tableDDL()...)
	statements = append(statements, indexDDL()...)

	for _, statement := range statements {
		if _, err := db.conn.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to execute schema statement: %s: %w", statement, err)
		}
	}
	return nil
}

func sequenceDDL() []string {
	names := []string{
		"seq_users", "seq_projects", "seq_usergroups", "seq_categories",
		"seq_fields", "seq_lookup_values", "seq_locations", "seq_observations",
		"seq_history", "seq_comments", "seq_media_files", "seq_subsets",
		"seq_access_tokens",
	}
	ddl := make([]string, len(names))
	for i, name := range names {
		ddl[i] = fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START 1", name)
	}
	return ddl
}

func tableDDL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_users'),
			display_name TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS projects (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_projects'),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_private BOOLEAN NOT NULL DEFAULT false,
			status TEXT NOT NULL DEFAULT 'active',
			everyone_contributes TEXT NOT NULL DEFAULT 'auth',
			extent TEXT,
			creator_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS project_admins (
			project_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			PRIMARY KEY (project_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS usergroups (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_usergroups'),
			project_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			can_contribute BOOLEAN NOT NULL DEFAULT true,
			can_moderate BOOLEAN NOT NULL DEFAULT false,
			subset_id BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS usergroup_members (
			usergroup_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			PRIMARY KEY (usergroup_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_categories'),
			project_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			ordering INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			default_status TEXT NOT NULL DEFAULT 'pending',
			colour TEXT NOT NULL DEFAULT '#0033ff',
			transparency INTEGER NOT NULL DEFAULT 0,
			display_field_id BIGINT,
			expiry_field_id BIGINT,
			creator_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS fields (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_fields'),
			category_id BIGINT NOT NULL,
			field_type TEXT NOT NULL,
			name TEXT NOT NULL,
			key TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			required BOOLEAN NOT NULL DEFAULT false,
			status TEXT NOT NULL DEFAULT 'active',
			ordering INTEGER NOT NULL DEFAULT 0,
			maxlength INTEGER,
			minval DOUBLE,
			maxval DOUBLE,
			UNIQUE (category_id, key)
		)`,

		`CREATE TABLE IF NOT EXISTS lookup_values (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_lookup_values'),
			field_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active'
		)`,

		`CREATE TABLE IF NOT EXISTS locations (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_locations'),
			name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			geometry TEXT NOT NULL,
			creator_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			status TEXT NOT NULL DEFAULT 'active',
			private_for_project BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS observations (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_observations'),
			project_id BIGINT NOT NULL,
			category_id BIGINT NOT NULL,
			location_id BIGINT NOT NULL,
			status TEXT NOT NULL,
			properties JSON NOT NULL DEFAULT '{}',
			version INTEGER NOT NULL DEFAULT 1,
			creator_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updator_id BIGINT,
			updated_at TIMESTAMP NOT NULL,
			display_field TEXT NOT NULL DEFAULT '',
			search_index TEXT NOT NULL DEFAULT '',
			expiry_field TIMESTAMP,
			num_comments INTEGER NOT NULL DEFAULT 0,
			num_media INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS observation_history (
			history_id BIGINT PRIMARY KEY DEFAULT nextval('seq_history'),
			history_date TIMESTAMP NOT NULL DEFAULT current_timestamp,
			history_type TEXT NOT NULL,
			history_user_id BIGINT,
			observation_id BIGINT NOT NULL,
			project_id BIGINT NOT NULL,
			category_id BIGINT NOT NULL,
			location_id BIGINT NOT NULL,
			status TEXT NOT NULL,
			properties JSON NOT NULL,
			version INTEGER NOT NULL,
			display_field TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS comments (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_comments'),
			observation_id BIGINT NOT NULL,
			text TEXT NOT NULL,
			creator_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			status TEXT NOT NULL DEFAULT 'active',
			responds_to BIGINT,
			review_status TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS media_files (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_media_files'),
			observation_id BIGINT NOT NULL,
			file_type TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL,
			content_type TEXT NOT NULL,
			creator_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			status TEXT NOT NULL DEFAULT 'active'
		)`,

		`CREATE TABLE IF NOT EXISTS subsets (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_subsets'),
			project_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			rules JSON NOT NULL DEFAULT '[]',
			creator_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS access_tokens (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_access_tokens'),
			user_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			token_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			last_used_at TIMESTAMP
		)`,
	}
}

func indexDDL() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_observations_project ON observations (project_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_category ON observations (category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_updated ON observations (updated_at DESC, id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_observation ON observation_history (observation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_observation ON comments (observation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_media_observation ON media_files (observation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fields_category ON fields (category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_usergroups_project ON usergroups (project_id)`,
	}
}
