// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package models

import "time"

// Properties is the typed attribute map of an observation, keyed by field
// key. Values are the canonical forms produced by Field.Validate.
type Properties map[string]interface{}

// Clone returns a shallow copy of the property map.
func (p Properties) Clone() Properties {
	clone := make(Properties, len(p))
	for k, v := range p {
		clone[k] = v
	}
	return clone
}

// Observation is one contributed record: a category-conforming attribute map
// bound to a location within a project. Mutations bump Version and append a
// HistoricalObservation; the version doubles as the optimistic-lock token.
type Observation struct {
	ID         int64             `json:"id"`
	ProjectID  int64             `json:"-"`
	CategoryID int64             `json:"-"`
	LocationID int64             `json:"-"`
	Status     ObservationStatus `json:"status"`
	Properties Properties        `json:"properties"`
	Version    int               `json:"version"`

	CreatorID int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatorID *int64    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`

	// DisplayField is the denormalised "key:value" label derived from the
	// category's display field.
	DisplayField string `json:"display_field,omitempty"`

	// SearchIndex is a comma-separated set of lower-cased word tokens taken
	// from all text-valued properties.
	SearchIndex string `json:"-"`

	// ExpiryField is the timestamp copied from the category's designated
	// DateTime expiry field, when present.
	ExpiryField *time.Time `json:"expiry_field,omitempty"`

	NumComments int `json:"num_comments"`
	NumMedia    int `json:"num_media"`
}

// IsCreator reports whether the user created the observation.
func (o *Observation) IsCreator(u *User) bool {
	return !u.Anonymous() && o.CreatorID == u.ID
}

// HistoricalObservation is an immutable snapshot appended for every mutation
// of an observation. Rows are ordered by (-history_date, -history_id).
type HistoricalObservation struct {
	HistoryID     int64       `json:"history_id"`
	HistoryDate   time.Time   `json:"history_date"`
	HistoryType   HistoryType `json:"history_type"`
	HistoryUserID *int64      `json:"history_user,omitempty"`

	ObservationID int64             `json:"id"`
	ProjectID     int64             `json:"-"`
	CategoryID    int64             `json:"-"`
	LocationID    int64             `json:"-"`
	Status        ObservationStatus `json:"status"`
	Properties    Properties        `json:"properties"`
	Version       int               `json:"version"`
	DisplayField  string            `json:"display_field,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
