// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package geojson

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/geokey/geokey/internal/models"
)

// KMLContentType is the media type of KML responses.
const KMLContentType = "application/vnd.google-earth.kml+xml"

// RenderKML renders features as a KML document, one placemark per feature.
// The placemark name is the display field's value; the description is an
// HTML table of the feature's properties, using field display names and
// lookup value names where the category provides them.
func RenderKML(features []*Feature, categories map[int64]*models.Category) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<kml xmlns="http://www.opengis.net/kml/2.2"><Document>` + "\n")

	for _, feature := range features {
		var category *models.Category
		if feature.Meta != nil {
			category = categories[feature.Meta.Category]
		}
		writePlacemark(&b, feature, category)
	}

	b.WriteString("</Document></kml>\n")
	return []byte(b.String())
}

func writePlacemark(b *strings.Builder, feature *Feature, category *models.Category) {
	geometry, err := kmlGeometry(feature.Geometry)
	if err != nil {
		return
	}

	b.WriteString("<Placemark>")
	fmt.Fprintf(b, "<name>%s</name>", html.EscapeString(placemarkName(feature)))
	b.WriteString("<description><![CDATA[" + placemarkDescription(feature, category) + "]]></description>")
	b.WriteString(geometry)
	b.WriteString("</Placemark>\n")
}

// placemarkName is the value part of the display field label.
func placemarkName(feature *Feature) string {
	if feature.DisplayField == "" {
		return ""
	}
	if _, value, found := strings.Cut(feature.DisplayField, ":"); found {
		return value
	}
	return feature.DisplayField
}

func placemarkDescription(feature *Feature, category *models.Category) string {
	if len(feature.Properties) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<table>")
	keys := orderedKeys(feature.Properties, category)
	for _, key := range keys {
		value := feature.Properties[key]
		if value == nil {
			continue
		}

		name := key
		rendered := fmt.Sprintf("%v", value)
		if category != nil {
			if field := category.Field(key); field != nil {
				name = field.Name
				rendered = lookupAware(field, value)
			}
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>",
			html.EscapeString(name), rendered)
	}
	b.WriteString("</table>")
	return b.String()
}

// orderedKeys lists property keys in the category's field order, with keys
// unknown to the category appended alphabetically stable at the end.
func orderedKeys(props models.Properties, category *models.Category) []string {
	keys := make([]string, 0, len(props))
	if category != nil {
		for i := range category.Fields {
			if _, ok := props[category.Fields[i].Key]; ok {
				keys = append(keys, category.Fields[i].Key)
			}
		}
	}
	for key := range props {
		known := false
		for _, k := range keys {
			if k == key {
				known = true
				break
			}
		}
		if !known {
			keys = append(keys, key)
		}
	}
	return keys
}

// lookupAware renders a property value, replacing lookup IDs with their
// display names.
func lookupAware(field *models.Field, value interface{}) string {
	switch field.Type {
	case models.FieldLookup:
		if id, ok := lookupRef(value); ok {
			if name := field.LookupName(id); name != "" {
				return html.EscapeString(name)
			}
		}
	case models.FieldMultipleLookup:
		if ids, ok := value.([]int64); ok {
			names := make([]string, 0, len(ids))
			for _, id := range ids {
				if name := field.LookupName(id); name != "" {
					names = append(names, html.EscapeString(name))
				}
			}
			return strings.Join(names, "<br />")
		}
	}
	return html.EscapeString(fmt.Sprintf("%v", value))
}

// lookupRef accepts both the canonical int64 lookup reference and the
// float64 form produced by a JSON round trip.
func lookupRef(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

// geoJSONGeometry is the subset of a GeoJSON geometry needed for KML
// conversion. Coordinates stay raw because nesting depth varies by type.
type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// kmlGeometry converts a GeoJSON geometry to its KML equivalent. Multi*
// geometries become a MultiGeometry of their parts.
func kmlGeometry(raw json.RawMessage) (string, error) {
	var geom geoJSONGeometry
	if err := json.Unmarshal(raw, &geom); err != nil {
		return "", err
	}

	switch geom.Type {
	case "Point":
		var position []float64
		if err := json.Unmarshal(geom.Coordinates, &position); err != nil {
			return "", err
		}
		return "<Point><coordinates>" + coordinate(position) + "</coordinates></Point>", nil

	case "LineString":
		var line [][]float64
		if err := json.Unmarshal(geom.Coordinates, &line); err != nil {
			return "", err
		}
		return "<LineString><coordinates>" + coordinateList(line) + "</coordinates></LineString>", nil

	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(geom.Coordinates, &rings); err != nil {
			return "", err
		}
		return polygonKML(rings), nil

	case "MultiPoint", "MultiLineString", "MultiPolygon":
		return multiGeometryKML(geom)

	default:
		return "", fmt.Errorf("unsupported geometry type %q", geom.Type)
	}
}

func polygonKML(rings [][][]float64) string {
	var b strings.Builder
	b.WriteString("<Polygon>")
	for i, ring := range rings {
		boundary := "outerBoundaryIs"
		if i > 0 {
			boundary = "innerBoundaryIs"
		}
		fmt.Fprintf(&b, "<%s><LinearRing><coordinates>%s</coordinates></LinearRing></%s>",
			boundary, coordinateList(ring), boundary)
	}
	b.WriteString("</Polygon>")
	return b.String()
}

func multiGeometryKML(geom geoJSONGeometry) (string, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(geom.Coordinates, &parts); err != nil {
		return "", err
	}

	memberType := strings.TrimPrefix(geom.Type, "Multi")
	var b strings.Builder
	b.WriteString("<MultiGeometry>")
	for _, part := range parts {
		member, err := json.Marshal(&geoJSONGeometry{Type: memberType, Coordinates: part})
		if err != nil {
			return "", err
		}
		rendered, err := kmlGeometry(member)
		if err != nil {
			return "", err
		}
		b.WriteString(rendered)
	}
	b.WriteString("</MultiGeometry>")
	return b.String(), nil
}

func coordinate(position []float64) string {
	parts := make([]string, len(position))
	for i, v := range position {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func coordinateList(positions [][]float64) string {
	parts := make([]string, len(positions))
	for i, position := range positions {
		parts[i] = coordinate(position)
	}
	return strings.Join(parts, " ")
}
