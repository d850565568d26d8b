// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package models

import "time"

// Location is a geometry with optional descriptive metadata. An arbitrary
// number of observations can attach to one location, allowing repeat
// contributions about the same place.
type Location struct {
	ID          int64  `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	// Geometry is a GeoJSON geometry object (Point, LineString, Polygon or
	// their Multi* forms), WGS84 / EPSG:4326.
	Geometry string `json:"-"`

	CreatorID int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"-"`

	// PrivateForProject restricts the location to one project. Nil means
	// the location can be reused across projects.
	PrivateForProject *int64 `json:"-"`
}

// UsableWith reports whether the location may be attached to observations of
// the given project.
func (l *Location) UsableWith(projectID int64) bool {
	return l.PrivateForProject == nil || *l.PrivateForProject == projectID
}
