// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

// Package geojson renders observations as GeoJSON features and parses
// inbound features into contribution payloads. A companion KML renderer
// serves export clients.
package geojson

import (
	"time"

	json "github.com/goccy/go-json"

	"github.com/geokey/geokey/internal/models"
)

// Feature is one observation on the wire: the location's geometry lifted to
// the top level, the typed property map, and contribution metadata.
type Feature struct {
	Type         string            `json:"type"`
	ID           int64             `json:"id,omitempty"`
	Geometry     json.RawMessage   `json:"geometry"`
	Location     *FeatureLocation  `json:"location,omitempty"`
	Properties   models.Properties `json:"properties"`
	Meta         *FeatureMeta      `json:"meta,omitempty"`
	DisplayField string            `json:"display_field,omitempty"`
}

// FeatureLocation is the location metadata without the geometry, which lives
// at the feature's top level.
type FeatureLocation struct {
	ID          int64  `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// FeatureMeta carries the contribution metadata of a feature.
type FeatureMeta struct {
	Category  int64                    `json:"category"`
	Status    models.ObservationStatus `json:"status"`
	Version   int                      `json:"version"`
	Creator   *FeatureUser             `json:"creator,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`

	NumComments int        `json:"num_comments"`
	NumMedia    int        `json:"num_media"`
	Expiry      *time.Time `json:"expiry_field,omitempty"`
}

// FeatureUser identifies a contributor on the wire.
type FeatureUser struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// FeatureCollection wraps many features.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// NewFeature assembles the wire form of an observation. creator may be nil
// for anonymous contributions.
func NewFeature(obs *models.Observation, location *models.Location, creator *models.User) *Feature {
	feature := &Feature{
		Type:       "Feature",
		ID:         obs.ID,
		Geometry:   json.RawMessage(location.Geometry),
		Properties: obs.Properties,
		Location: &FeatureLocation{
			ID:          location.ID,
			Name:        location.Name,
			Description: location.Description,
		},
		Meta: &FeatureMeta{
			Category:    obs.CategoryID,
			Status:      obs.Status,
			Version:     obs.Version,
			CreatedAt:   obs.CreatedAt,
			UpdatedAt:   obs.UpdatedAt,
			NumComments: obs.NumComments,
			NumMedia:    obs.NumMedia,
			Expiry:      obs.ExpiryField,
		},
		DisplayField: obs.DisplayField,
	}
	if !creator.Anonymous() {
		feature.Meta.Creator = &FeatureUser{ID: creator.ID, DisplayName: creator.DisplayName}
	}
	return feature
}

// NewCollection wraps features into a FeatureCollection. A nil slice renders
// as an empty features array, never null.
func NewCollection(features []*Feature) *FeatureCollection {
	if features == nil {
		features = []*Feature{}
	}
	return &FeatureCollection{Type: "FeatureCollection", Features: features}
}

// Render serialises a feature, collection or error object with compact
// separators.
func Render(data interface{}) ([]byte, error) {
	return json.Marshal(data)
}

// ErrorObject is the body of an error response: a single "error" key with a
// human-readable message.
type ErrorObject struct {
	Error string `json:"error"`
}

// RenderError serialises an error message as an {"error": ...} object.
func RenderError(message string) []byte {
	body, err := json.Marshal(&ErrorObject{Error: message})
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return body
}
