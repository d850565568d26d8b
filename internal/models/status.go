// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

// Package models defines the domain types of the contribution data engine:
// projects, user groups, categories with typed field schemas, locations,
// observations with version history, comments, media files and subsets.
//
// Deletion throughout the domain is logical: entities transition to a
// deleted status and are excluded from queries, never removed physically.
package models

// Status is the lifecycle state shared by most entities.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

// ObservationStatus is the moderation state of an observation.
type ObservationStatus string

const (
	ObservationActive  ObservationStatus = "active"
	ObservationDraft   ObservationStatus = "draft"
	ObservationReview  ObservationStatus = "review"
	ObservationPending ObservationStatus = "pending"
	ObservationDeleted ObservationStatus = "deleted"
)

// Valid reports whether s is a known observation status.
func (s ObservationStatus) Valid() bool {
	switch s {
	case ObservationActive, ObservationDraft, ObservationReview,
		ObservationPending, ObservationDeleted:
		return true
	}
	return false
}

// DefaultStatus is the status a category assigns to new observations.
// Pending routes contributions through moderation; active publishes them
// immediately.
type DefaultStatus string

const (
	DefaultPending DefaultStatus = "pending"
	DefaultActive  DefaultStatus = "active"
)

// ReviewStatus is the review state of a comment. A nil pointer on Comment
// means the comment is not a review comment.
type ReviewStatus string

const (
	ReviewOpen     ReviewStatus = "open"
	ReviewResolved ReviewStatus = "resolved"
)

// ContributingPolicy controls who may contribute to a project.
type ContributingPolicy string

const (
	// ContributingEveryone lets anyone contribute, including anonymous users.
	ContributingEveryone ContributingPolicy = "true"

	// ContributingAuth lets any authenticated user contribute.
	ContributingAuth ContributingPolicy = "auth"

	// ContributingMembers restricts contribution to user groups with the
	// can_contribute capability.
	ContributingMembers ContributingPolicy = "false"
)

// HistoryType tags a historical observation row with the kind of mutation
// that produced it.
type HistoryType string

const (
	HistoryCreated HistoryType = "+"
	HistoryChanged HistoryType = "~"
	HistoryDeleted HistoryType = "-"
)
