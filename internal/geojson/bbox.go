// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package geojson

import (
	"fmt"
	"strconv"
	"strings"
)

// BBox is a geographic bounding box in WGS84.
type BBox struct {
	XMin, YMin, XMax, YMax float64
}

// ParseBBox parses the "xmin,ymin,xmax,ymax" query parameter. The error text
// is part of the API contract and is returned verbatim in the error body.
func ParseBBox(raw string) (*BBox, error) {
	invalid := func(reason string) error {
		return fmt.Errorf("(e.g:bbox=xmin,ymin,xmax,ymax) invalid bbox %q: %s", raw, reason)
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, invalid("expected four comma-separated coordinates")
	}

	coords := make([]float64, 4)
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, invalid(fmt.Sprintf("%q is not a number", part))
		}
		coords[i] = value
	}

	bbox := &BBox{XMin: coords[0], YMin: coords[1], XMax: coords[2], YMax: coords[3]}
	if bbox.XMin >= bbox.XMax || bbox.YMin >= bbox.YMax {
		return nil, invalid("min coordinates must be smaller than max coordinates")
	}
	if bbox.XMin < -180 || bbox.XMax > 180 || bbox.YMin < -90 || bbox.YMax > 90 {
		return nil, invalid("coordinates outside WGS84 bounds")
	}
	return bbox, nil
}
