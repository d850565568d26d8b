// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package geojson

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/models"
)

// inboundFeature is the shape accepted on create and update requests. The
// geometry sits at the GeoJSON top level and is folded into the location.
type inboundFeature struct {
	Type       string                 `json:"type"`
	Geometry   json.RawMessage        `json:"geometry"`
	Location   *inboundLocation       `json:"location"`
	Properties map[string]interface{} `json:"properties"`
	Meta       *inboundMeta           `json:"meta"`
}

type inboundLocation struct {
	ID          *int64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type inboundMeta struct {
	Category int64   `json:"category"`
	Status   *string `json:"status"`
	Version  *int    `json:"version"`
}

// ParsePayload turns an inbound GeoJSON feature into a contribution payload:
// the geometry becomes the location's geometry string, an existing location
// ID is carried through, and meta lifts category, status and version.
//
// Properties are decoded with explicit nulls preserved, so updates can
// distinguish "omit" from "clear".
func ParsePayload(body []byte) (*contribute.Payload, error) {
	var feature inboundFeature
	if err := json.Unmarshal(body, &feature); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON feature: %w", err)
	}
	if feature.Type != "" && feature.Type != "Feature" {
		return nil, fmt.Errorf("expected a GeoJSON Feature, got %q", feature.Type)
	}

	payload := &contribute.Payload{
		Properties: feature.Properties,
	}

	if feature.Meta != nil {
		payload.CategoryID = feature.Meta.Category
		payload.Version = feature.Meta.Version
		if feature.Meta.Status != nil {
			status := models.ObservationStatus(*feature.Meta.Status)
			payload.Status = &status
		}
	}

	location := &contribute.LocationPayload{}
	bound := false
	if feature.Location != nil {
		location.ID = feature.Location.ID
		location.Name = feature.Location.Name
		location.Description = feature.Location.Description
		bound = feature.Location.ID != nil
	}
	if location.ID == nil && len(feature.Geometry) > 0 {
		location.Geometry = string(feature.Geometry)
		bound = true
	}
	if bound {
		payload.Location = location
	}

	return payload, nil
}
