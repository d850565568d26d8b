// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package contribute

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/geokey/geokey/internal/models"
)

var tokenSplit = regexp.MustCompile(`\W+`)

// computeDerived refreshes the denormalised columns of an observation from
// its current properties: the display label, the search index and the expiry
// timestamp. Called on every create and update before the row is persisted.
func computeDerived(category *models.Category, obs *models.Observation) {
	obs.DisplayField = displayField(category, obs.Properties)
	obs.SearchIndex = searchIndex(category, obs.Properties)
	obs.ExpiryField = expiryField(category, obs.Properties)
}

// displayField renders the "key:value" label from the category's display
// field. Empty when the field has no value.
func displayField(category *models.Category, props models.Properties) string {
	field := category.DisplayField()
	if field == nil {
		return ""
	}
	value, ok := props[field.Key]
	if !ok || value == nil {
		return ""
	}
	return field.Key + ":" + stringValue(field, value)
}

// searchIndex builds the comma-separated set of lower-cased word tokens from
// all text-valued properties. Lookup values contribute their display names.
func searchIndex(category *models.Category, props models.Properties) string {
	var tokens []string
	seen := make(map[string]bool)

	add := func(text string) {
		for _, token := range tokenSplit.Split(strings.ToLower(text), -1) {
			if token == "" || seen[token] {
				continue
			}
			seen[token] = true
			tokens = append(tokens, token)
		}
	}

	for i := range category.Fields {
		field := &category.Fields[i]
		value, ok := props[field.Key]
		if !ok || value == nil {
			continue
		}

		switch field.Type {
		case models.FieldText:
			if text, ok := value.(string); ok {
				add(text)
			}
		case models.FieldLookup:
			if id, ok := lookupID(value); ok {
				add(field.LookupName(id))
			}
		case models.FieldMultipleLookup:
			if ids, ok := value.([]int64); ok {
				for _, id := range ids {
					add(field.LookupName(id))
				}
			}
		}
	}

	return strings.Join(tokens, ",")
}

// expiryField extracts the timestamp of the category's expiry field. The
// stored canonical form is RFC 3339 in UTC.
func expiryField(category *models.Category, props models.Properties) *time.Time {
	field := category.ExpiryField()
	if field == nil {
		return nil
	}
	value, ok := props[field.Key].(string)
	if !ok {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}

// stringValue renders a canonical property value for the display label.
// Numbers drop a trailing ".0" so whole ratings read naturally.
func stringValue(field *models.Field, value interface{}) string {
	if field.Type == models.FieldLookup {
		if id, ok := lookupID(value); ok {
			if name := field.LookupName(id); name != "" {
				return name
			}
		}
	}

	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// lookupID coerces a stored lookup reference. Canonical values are int64;
// values reloaded through JSON storage arrive as float64.
func lookupID(value interface{}) (int64, bool) {
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
