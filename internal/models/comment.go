// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package models

import "time"

// Comment is attached to one observation. Comments form a tree within the
// observation via RespondsTo (nil for top-level comments); the parent link is
// enforced as a DAG because a comment can only respond to an earlier one.
//
// A comment with ReviewStatus open flags the observation for review; the
// observation returns to active once every review comment is resolved.
type Comment struct {
	ID            int64  `json:"id"`
	ObservationID int64  `json:"-"`
	Text          string `json:"text"`

	CreatorID int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"-"`

	// RespondsTo is the parent comment ID for threaded responses.
	RespondsTo *int64 `json:"respondsto,omitempty"`

	// ReviewStatus is nil for plain comments, open or resolved for review
	// comments.
	ReviewStatus *ReviewStatus `json:"review_status,omitempty"`
}

// IsOpenReview reports whether the comment is an unresolved review comment.
func (c *Comment) IsOpenReview() bool {
	return c.Status == StatusActive && c.ReviewStatus != nil && *c.ReviewStatus == ReviewOpen
}
