// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package models

import "time"

// Project is the top-level tenant. It owns categories, user groups, subsets
// and observations. A project must keep at least one administrator while its
// status is not deleted.
type Project struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	IsPrivate    bool               `json:"isprivate"`
	Status       Status             `json:"status"`
	Contributing ContributingPolicy `json:"everyone_contributes"`

	// Extent is an optional GeoJSON polygon bounding the project area.
	Extent string `json:"geographic_extent,omitempty"`

	CreatorID int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`

	// Admins are the user IDs of project administrators, in display order.
	Admins []int64 `json:"-"`

	// Groups are the project's user groups with membership loaded.
	Groups []UserGroup `json:"-"`
}

// IsAdmin reports whether the user administers the project.
func (p *Project) IsAdmin(u *User) bool {
	if u.Anonymous() {
		return false
	}
	for _, id := range p.Admins {
		if id == u.ID {
			return true
		}
	}
	return false
}

// GroupsOf returns the user groups the user is a member of.
func (p *Project) GroupsOf(u *User) []UserGroup {
	if u.Anonymous() {
		return nil
	}
	var groups []UserGroup
	for _, g := range p.Groups {
		if g.HasMember(u.ID) {
			groups = append(groups, g)
		}
	}
	return groups
}

// UserGroup is a per-project collection of users carrying contribution and
// moderation capabilities. A group may scope what its members see through a
// subset filter.
type UserGroup struct {
	ID            int64  `json:"id"`
	ProjectID     int64  `json:"-"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	CanContribute bool   `json:"can_contribute"`
	CanModerate   bool   `json:"can_moderate"`

	// FilterID references the subset that scopes the observations visible
	// to group members. Nil means the group sees all observations.
	FilterID *int64 `json:"filter,omitempty"`

	// Members are the user IDs in the group.
	Members []int64 `json:"-"`
}

// HasMember reports whether the user ID belongs to the group.
func (g *UserGroup) HasMember(userID int64) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return false
}
