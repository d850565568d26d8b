// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package models

import "time"

// Subset is a named, project-owned set of rules selecting observations.
// Subsets back two things: user-requested filtered listings and the
// per-user-group visibility scope.
//
// An observation matches the subset when it matches at least one rule.
type Subset struct {
	ID          int64        `json:"id"`
	ProjectID   int64        `json:"-"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	CreatorID   int64        `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	Status      Status       `json:"-"`
	Rules       []SubsetRule `json:"rules"`
}

// SubsetRule selects observations of one category. All parts of a rule must
// hold for an observation to match: the category, the created_at bounds and
// every field constraint.
//
// Constraints maps field keys to type-dependent specs:
//
//	Text            string, case-insensitive substring match
//	Numeric         {"minval": n?, "maxval": n?}, inclusive
//	Date/Time/DateTime  {"minval": v?, "maxval": v?}, inclusive
//	TrueFalse       bool
//	Lookup          list of accepted lookup value IDs
//	MultipleLookup  list of IDs, matching when the sets intersect
//
// This is the canonical constraint shape. The legacy "filters" shape from
// earlier data migrations is rejected at the API edge.
type SubsetRule struct {
	CategoryID  int64                  `json:"category"`
	MinDate     *time.Time             `json:"min_date,omitempty"`
	MaxDate     *time.Time             `json:"max_date,omitempty"`
	Constraints map[string]interface{} `json:"constraints,omitempty"`
}
