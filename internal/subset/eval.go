// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package subset

import (
	"strings"

	"github.com/geokey/geokey/internal/models"
)

// Matches evaluates the predicate in-process. An observation matches when at
// least one rule matches; a predicate without rules matches nothing.
func (p *Predicate) Matches(obs *models.Observation) bool {
	for _, rule := range p.rules {
		if rule.matches(obs) {
			return true
		}
	}
	return false
}

func (r *compiledRule) matches(obs *models.Observation) bool {
	if obs.CategoryID != r.categoryID {
		return false
	}
	if r.minDate != nil && obs.CreatedAt.Before(*r.minDate) {
		return false
	}
	if r.maxDate != nil && obs.CreatedAt.After(*r.maxDate) {
		return false
	}
	for _, cond := range r.conditions {
		if !cond.matches(obs.Properties) {
			return false
		}
	}
	return true
}

// textCondition matches case-insensitive substrings.
type textCondition struct {
	key    string
	needle string
}

func (c *textCondition) matches(props models.Properties) bool {
	value, ok := props[c.key].(string)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(value), c.needle)
}

// numericRangeCondition matches an inclusive numeric range.
type numericRangeCondition struct {
	key string
	min *float64
	max *float64
}

func (c *numericRangeCondition) matches(props models.Properties) bool {
	value, ok := toFloat(props[c.key])
	if !ok {
		return false
	}
	if c.min != nil && value < *c.min {
		return false
	}
	if c.max != nil && value > *c.max {
		return false
	}
	return true
}

// temporalRangeCondition matches an inclusive range over canonical temporal
// strings. Canonical forms are fixed-width and share a zone, so string
// comparison orders them correctly.
type temporalRangeCondition struct {
	key       string
	fieldType models.FieldType
	min       *string
	max       *string
}

func (c *temporalRangeCondition) matches(props models.Properties) bool {
	value, ok := props[c.key].(string)
	if !ok {
		return false
	}
	if c.min != nil && value < *c.min {
		return false
	}
	if c.max != nil && value > *c.max {
		return false
	}
	return true
}

// boolCondition matches boolean equality.
type boolCondition struct {
	key  string
	want bool
}

func (c *boolCondition) matches(props models.Properties) bool {
	value, ok := props[c.key].(bool)
	return ok && value == c.want
}

// lookupCondition matches membership of a single lookup value.
type lookupCondition struct {
	key string
	ids []int64
}

func (c *lookupCondition) matches(props models.Properties) bool {
	value, ok := toFloat(props[c.key])
	if !ok || value != float64(int64(value)) {
		return false
	}
	id := int64(value)
	for _, accepted := range c.ids {
		if accepted == id {
			return true
		}
	}
	return false
}

// multiLookupCondition matches when the stored set intersects the accepted
// set.
type multiLookupCondition struct {
	key string
	ids []int64
}

func (c *multiLookupCondition) matches(props models.Properties) bool {
	for _, id := range propertyIDs(props[c.key]) {
		for _, accepted := range c.ids {
			if accepted == id {
				return true
			}
		}
	}
	return false
}

// propertyIDs extracts integer IDs from a stored multiple-lookup value,
// accepting both the canonical []int64 and JSON-decoded []interface{} forms.
func propertyIDs(raw interface{}) []int64 {
	switch v := raw.(type) {
	case []int64:
		return v
	case []interface{}:
		ids := make([]int64, 0, len(v))
		for _, item := range v {
			if value, ok := toFloat(item); ok && value == float64(int64(value)) {
				ids = append(ids, int64(value))
			}
		}
		return ids
	}
	return nil
}
