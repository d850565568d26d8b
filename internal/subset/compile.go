// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

// Package subset compiles subset rules into predicates over observations.
//
// A compiled Predicate is evaluable two ways from the same form: in-process
// against a models.Observation (used by the permission resolver and tests)
// and as a parameterised SQL WHERE clause pushed down to the storage backend
// (used by list queries). Both evaluations implement identical semantics:
// OR across rules, AND across the parts of a rule.
package subset

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/geokey/geokey/internal/models"
)

// keyPattern bounds field keys embedded into JSON paths of generated SQL.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Predicate is a compiled subset filter.
type Predicate struct {
	rules []compiledRule
}

type compiledRule struct {
	categoryID int64
	minDate    *time.Time
	maxDate    *time.Time
	conditions []condition
}

// condition is one field constraint, evaluable in-process and as SQL.
type condition interface {
	matches(props models.Properties) bool
	sql() (string, []interface{})
}

// Compile transforms the subset's rules into a predicate. categories must
// contain every category referenced by a rule, with fields loaded; unknown
// categories, unknown field keys and malformed constraint specs are compile
// errors.
func Compile(s *models.Subset, categories map[int64]*models.Category) (*Predicate, error) {
	pred := &Predicate{}

	for _, rule := range s.Rules {
		category, ok := categories[rule.CategoryID]
		if !ok {
			return nil, fmt.Errorf("rule references unknown category %d", rule.CategoryID)
		}

		compiled := compiledRule{
			categoryID: rule.CategoryID,
			minDate:    rule.MinDate,
			maxDate:    rule.MaxDate,
		}

		for key, spec := range rule.Constraints {
			field := category.Field(key)
			if field == nil {
				return nil, fmt.Errorf("category %s has no field %q", category.Name, key)
			}
			if !keyPattern.MatchString(key) {
				return nil, fmt.Errorf("invalid field key %q", key)
			}

			cond, err := compileCondition(field, spec)
			if err != nil {
				return nil, err
			}
			compiled.conditions = append(compiled.conditions, cond)
		}

		pred.rules = append(pred.rules, compiled)
	}

	return pred, nil
}

// compileCondition builds the condition for one field constraint, validating
// the constraint spec against the field type.
func compileCondition(field *models.Field, spec interface{}) (condition, error) {
	switch field.Type {
	case models.FieldText:
		needle, ok := spec.(string)
		if !ok {
			return nil, fmt.Errorf("constraint for text field %q must be a string", field.Key)
		}
		return &textCondition{key: field.Key, needle: strings.ToLower(needle)}, nil

	case models.FieldNumeric:
		return compileNumericRange(field, spec)

	case models.FieldDate, models.FieldTime, models.FieldDateTime:
		return compileTemporalRange(field, spec)

	case models.FieldTrueFalse:
		want, ok := spec.(bool)
		if !ok {
			return nil, fmt.Errorf("constraint for boolean field %q must be a boolean", field.Key)
		}
		return &boolCondition{key: field.Key, want: want}, nil

	case models.FieldLookup, models.FieldMultipleLookup:
		ids, err := specIDs(field.Key, spec)
		if err != nil {
			return nil, err
		}
		if field.Type == models.FieldLookup {
			return &lookupCondition{key: field.Key, ids: ids}, nil
		}
		return &multiLookupCondition{key: field.Key, ids: ids}, nil

	default:
		return nil, fmt.Errorf("field %q has unknown type %s", field.Key, field.Type)
	}
}

func compileNumericRange(field *models.Field, spec interface{}) (condition, error) {
	bounds, ok := spec.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("constraint for numeric field %q must be a minval/maxval object", field.Key)
	}

	cond := &numericRangeCondition{key: field.Key}
	for name, target := range map[string]**float64{"minval": &cond.min, "maxval": &cond.max} {
		raw, present := bounds[name]
		if !present || raw == nil {
			continue
		}
		value, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("%s for numeric field %q must be a number", name, field.Key)
		}
		*target = &value
	}
	if cond.min == nil && cond.max == nil {
		return nil, fmt.Errorf("constraint for numeric field %q needs minval or maxval", field.Key)
	}
	return cond, nil
}

// compileTemporalRange normalises temporal bounds through Field.Validate so
// rules and stored values share one canonical serialisation. Canonical forms
// compare correctly as strings (fixed-width, UTC for DateTime).
func compileTemporalRange(field *models.Field, spec interface{}) (condition, error) {
	bounds, ok := spec.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("constraint for field %q must be a minval/maxval object", field.Key)
	}

	cond := &temporalRangeCondition{key: field.Key, fieldType: field.Type}
	for name, target := range map[string]**string{"minval": &cond.min, "maxval": &cond.max} {
		raw, present := bounds[name]
		if !present || raw == nil {
			continue
		}
		normalised, err := field.Validate(raw)
		if err != nil {
			return nil, fmt.Errorf("%s for field %q: %w", name, field.Key, err)
		}
		value := normalised.(string)
		*target = &value
	}
	if cond.min == nil && cond.max == nil {
		return nil, fmt.Errorf("constraint for field %q needs minval or maxval", field.Key)
	}
	return cond, nil
}

func specIDs(key string, spec interface{}) ([]int64, error) {
	raws, ok := spec.([]interface{})
	if !ok {
		return nil, fmt.Errorf("constraint for lookup field %q must be a list of IDs", key)
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("constraint for lookup field %q must not be empty", key)
	}

	ids := make([]int64, 0, len(raws))
	for _, raw := range raws {
		value, ok := toFloat(raw)
		if !ok || value != float64(int64(value)) {
			return nil, fmt.Errorf("constraint for lookup field %q must contain integer IDs", key)
		}
		ids = append(ids, int64(value))
	}
	return ids, nil
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
