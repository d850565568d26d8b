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

// Project loads a project with its administrators and user groups, including
// group membership. Deleted projects are not returned.
func (db *DB) Project(ctx context.Context, id int64) (*models.Project, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, is_private, status, everyone_contributes,
			extent, creator_id, created_at
		FROM projects WHERE id = ? AND status != 'deleted'`, id)

	var project models.Project
	var extent sql.NullString
	err := row.Scan(&project.ID, &project.Name, &project.Description, &project.IsPrivate,
		&project.Status, &project.Contributing, &extent, &project.CreatorID, &project.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project %d", contribute.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	if extent.Valid {
		project.Extent = extent.String
	}

	if err := db.loadAdmins(ctx, &project); err != nil {
		return nil, err
	}
	if err := db.loadGroups(ctx, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ProjectsFor lists the projects a user can at least view: public active
// projects plus private ones the user administers or belongs to. Anonymous
// users get public projects only.
func (db *DB) ProjectsFor(ctx context.Context, user *models.User) ([]*models.Project, error) {
	query := `SELECT DISTINCT p.id FROM projects p
		LEFT JOIN project_admins a ON a.project_id = p.id
		LEFT JOIN usergroups g ON g.project_id = p.id
		LEFT JOIN usergroup_members m ON m.usergroup_id = g.id
		WHERE p.status = 'active' AND (NOT p.is_private OR a.user_id = ? OR m.user_id = ?)
		ORDER BY p.id`

	var userID int64
	if !user.Anonymous() {
		userID = user.ID
	}

	rows, err := db.conn.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	projects := make([]*models.Project, 0, len(ids))
	for _, id := range ids {
		project, err := db.Project(ctx, id)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// CreateProject inserts a project and registers the creator as its first
// administrator.
func (db *DB) CreateProject(ctx context.Context, project *models.Project) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO projects (name, description, is_private, status, everyone_contributes,
				extent, creator_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			project.Name, project.Description, project.IsPrivate, string(project.Status),
			string(project.Contributing), nullString(project.Extent),
			project.CreatorID, project.CreatedAt,
		).Scan(&project.ID)
		if err != nil {
			return fmt.Errorf("failed to insert project: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_admins (project_id, user_id) VALUES (?, ?)`,
			project.ID, project.CreatorID); err != nil {
			return fmt.Errorf("failed to register project admin: %w", err)
		}
		project.Admins = []int64{project.CreatorID}
		return nil
	})
}

// CreateUserGroup inserts a user group with its members.
func (db *DB) CreateUserGroup(ctx context.Context, group *models.UserGroup) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO usergroups (project_id, name, description, can_contribute, can_moderate, subset_id)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			group.ProjectID, group.Name, group.Description,
			group.CanContribute, group.CanModerate, group.FilterID,
		).Scan(&group.ID)
		if err != nil {
			return fmt.Errorf("failed to insert user group: %w", err)
		}

		for _, userID := range group.Members {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO usergroup_members (usergroup_id, user_id) VALUES (?, ?)`,
				group.ID, userID); err != nil {
				return fmt.Errorf("failed to add group member: %w", err)
			}
		}
		return nil
	})
}

// AddGroupMember adds a user to a group, ignoring duplicates.
func (db *DB) AddGroupMember(ctx context.Context, groupID, userID int64) error {
	if _, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO usergroup_members (usergroup_id, user_id) VALUES (?, ?)`,
		groupID, userID); err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// RemoveGroupMember removes a user from a group.
func (db *DB) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM usergroup_members WHERE usergroup_id = ? AND user_id = ?`,
		groupID, userID); err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return nil
}

func (db *DB) loadAdmins(ctx context.Context, project *models.Project) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM project_admins WHERE project_id = ? ORDER BY user_id`, project.ID)
	if err != nil {
		return fmt.Errorf("failed to query project admins: %w", err)
	}
	defer rows.Close()

	project.Admins = nil
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("failed to scan admin: %w", err)
		}
		project.Admins = append(project.Admins, userID)
	}
	return rows.Err()
}

func (db *DB) loadGroups(ctx context.Context, project *models.Project) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, project_id, name, description, can_contribute, can_moderate, subset_id
		FROM usergroups WHERE project_id = ? ORDER BY id`, project.ID)
	if err != nil {
		return fmt.Errorf("failed to query user groups: %w", err)
	}
	defer rows.Close()

	project.Groups = nil
	for rows.Next() {
		var group models.UserGroup
		if err := rows.Scan(&group.ID, &group.ProjectID, &group.Name, &group.Description,
			&group.CanContribute, &group.CanModerate, &group.FilterID); err != nil {
			return fmt.Errorf("failed to scan user group: %w", err)
		}
		project.Groups = append(project.Groups, group)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range project.Groups {
		group := &project.Groups[i]
		memberRows, err := db.conn.QueryContext(ctx,
			`SELECT user_id FROM usergroup_members WHERE usergroup_id = ? ORDER BY user_id`,
			group.ID)
		if err != nil {
			return fmt.Errorf("failed to query group members: %w", err)
		}

		group.Members = nil
		for memberRows.Next() {
			var userID int64
			if err := memberRows.Scan(&userID); err != nil {
				memberRows.Close()
				return fmt.Errorf("failed to scan group member: %w", err)
			}
			group.Members = append(group.Members, userID)
		}
		err = memberRows.Err()
		memberRows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
