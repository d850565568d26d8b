// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldType discriminates the typed variants of a field.
type FieldType string

const (
	FieldText           FieldType = "TextField"
	FieldNumeric        FieldType = "NumericField"
	FieldDate           FieldType = "DateField"
	FieldTime           FieldType = "TimeField"
	FieldDateTime       FieldType = "DateTimeField"
	FieldTrueFalse      FieldType = "TrueFalseField"
	FieldLookup         FieldType = "LookupField"
	FieldMultipleLookup FieldType = "MultipleLookupField"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumeric, FieldDate, FieldTime, FieldDateTime,
		FieldTrueFalse, FieldLookup, FieldMultipleLookup:
		return true
	}
	return false
}

// Field defines one typed attribute of a category. The variant is carried in
// Type; variant-specific attributes are nil/empty for other variants.
// (key, category) is unique.
type Field struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"-"`
	Name        string    `json:"name"`
	Key         string    `json:"key"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Status      Status    `json:"status"`
	Order       int       `json:"order"`
	Type        FieldType `json:"fieldtype"`

	// MaxLength bounds text input length (Text only).
	MaxLength *int `json:"maxlength,omitempty"`

	// MinVal and MaxVal are inclusive numeric bounds (Numeric only).
	MinVal *float64 `json:"minval,omitempty"`
	MaxVal *float64 `json:"maxval,omitempty"`

	// LookupValues is the managed value set (Lookup and MultipleLookup only).
	LookupValues []LookupValue `json:"lookupvalues,omitempty"`
}

// LookupValue is one entry in the value set of a Lookup or MultipleLookup
// field. Deleted values stay on record so stored observations keep resolving,
// but are no longer accepted as input.
type LookupValue struct {
	ID      int64  `json:"id"`
	FieldID int64  `json:"-"`
	Name    string `json:"name"`
	Status  Status `json:"status"`
}

// ActiveLookupValue returns the active lookup value with the given ID, or nil.
func (f *Field) ActiveLookupValue(id int64) *LookupValue {
	for i := range f.LookupValues {
		if f.LookupValues[i].ID == id && f.LookupValues[i].Status == StatusActive {
			return &f.LookupValues[i]
		}
	}
	return nil
}

// LookupName resolves a lookup value ID to its name regardless of status.
// Returns empty string for unknown IDs.
func (f *Field) LookupName(id int64) string {
	for i := range f.LookupValues {
		if f.LookupValues[i].ID == id {
			return f.LookupValues[i].Name
		}
	}
	return ""
}

// Canonical serialisation layouts for temporal field values. DateTime values
// are normalised to UTC RFC 3339; dates and times keep their wall-clock form.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// dateTimeLayouts are the accepted inbound layouts for DateTime values.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Validate checks raw against the field definition and returns the coerced
// typed value:
//
//	Text            string (trimmed)
//	Numeric         float64
//	Date            string in DateLayout
//	Time            string in TimeLayout
//	DateTime        string in RFC 3339, UTC
//	TrueFalse       bool
//	Lookup          int64
//	MultipleLookup  []int64
//
// Validate does not enforce required; presence checks happen at the service
// layer where create and update semantics differ.
func (f *Field) Validate(raw interface{}) (interface{}, error) {
	switch f.Type {
	case FieldText:
		return f.validateText(raw)
	case FieldNumeric:
		return f.validateNumeric(raw)
	case FieldDate:
		return f.validateDate(raw)
	case FieldTime:
		return f.validateTime(raw)
	case FieldDateTime:
		return f.validateDateTime(raw)
	case FieldTrueFalse:
		return f.validateTrueFalse(raw)
	case FieldLookup:
		return f.validateLookup(raw)
	case FieldMultipleLookup:
		return f.validateMultipleLookup(raw)
	default:
		return nil, fmt.Errorf("field %s has unknown type %s", f.Name, f.Type)
	}
}

func (f *Field) validateText(raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("the value provided for text field %s is not a string", f.Name)
	}
	s = strings.TrimSpace(s)
	if f.MaxLength != nil && len(s) > *f.MaxLength {
		return nil, fmt.Errorf("the input provided for text field %s contains too many characters", f.Name)
	}
	return s, nil
}

func (f *Field) validateNumeric(raw interface{}) (interface{}, error) {
	var value float64

	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("the value provided for field %s is not a number", f.Name)
		}
		value = parsed
	default:
		return nil, fmt.Errorf("the value provided for field %s is not a number", f.Name)
	}

	if f.MinVal != nil && value < *f.MinVal {
		return nil, fmt.Errorf("the value provided for field %s must be greater than or equal to %v", f.Name, *f.MinVal)
	}
	if f.MaxVal != nil && value > *f.MaxVal {
		return nil, fmt.Errorf("the value provided for field %s must be lower than or equal to %v", f.Name, *f.MaxVal)
	}
	return value, nil
}

func (f *Field) validateDate(raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("the value for date field %s is not a valid date, provide the date as YYYY-MM-DD", f.Name)
	}
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("the value for date field %s is not a valid date, provide the date as YYYY-MM-DD", f.Name)
	}
	return parsed.Format(DateLayout), nil
}

func (f *Field) validateTime(raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("the value for time field %s is not a valid time, provide the time as HH:MM", f.Name)
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.Format(TimeLayout), nil
		}
	}
	return nil, fmt.Errorf("the value for time field %s is not a valid time, provide the time as HH:MM", f.Name)
}

func (f *Field) validateDateTime(raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("the value for date time field %s is not a valid date, provide date and time as YYYY-MM-DD HH:MM", f.Name)
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC().Format(time.RFC3339), nil
		}
	}
	return nil, fmt.Errorf("the value for date time field %s is not a valid date, provide date and time as YYYY-MM-DD HH:MM", f.Name)
}

func (f *Field) validateTrueFalse(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	case float64:
		if v == 1 {
			return true, nil
		}
		if v == 0 {
			return false, nil
		}
	}
	return nil, fmt.Errorf("the value provided for field %s is not a boolean", f.Name)
}

func (f *Field) validateLookup(raw interface{}) (interface{}, error) {
	id, ok := toLookupID(raw)
	if !ok {
		return nil, fmt.Errorf("the value provided for lookup field %s is not an integer ID", f.Name)
	}
	if f.ActiveLookupValue(id) == nil {
		return nil, fmt.Errorf("the value provided for lookup field %s is not an accepted value", f.Name)
	}
	return id, nil
}

func (f *Field) validateMultipleLookup(raw interface{}) (interface{}, error) {
	var raws []interface{}

	switch v := raw.(type) {
	case []interface{}:
		raws = v
	case []int64:
		raws = make([]interface{}, len(v))
		for i, id := range v {
			raws[i] = id
		}
	default:
		return nil, fmt.Errorf("the value provided for lookup field %s is not a list of IDs", f.Name)
	}

	ids := make([]int64, 0, len(raws))
	for _, item := range raws {
		id, ok := toLookupID(item)
		if !ok {
			return nil, fmt.Errorf("the value provided for lookup field %s is not a list of integer IDs", f.Name)
		}
		if f.ActiveLookupValue(id) == nil {
			return nil, fmt.Errorf("the value provided for lookup field %s is not an accepted value", f.Name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// toLookupID coerces JSON-decoded values to an integral lookup value ID.
func toLookupID(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case string:
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return id, true
		}
	}
	return 0, false
}
