// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package models

import (
	"reflect"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestTextFieldValidate(t *testing.T) {
	field := &Field{Name: "Name", Key: "name", Type: FieldText, Status: StatusActive}

	value, err := field.Validate("  Grafton  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "Grafton" {
		t.Errorf("expected trimmed 'Grafton', got %q", value)
	}

	if _, err := field.Validate(12); err == nil {
		t.Error("expected error for non-string input, got nil")
	}
}

func TestTextFieldMaxLength(t *testing.T) {
	field := &Field{Name: "Name", Key: "name", Type: FieldText, MaxLength: intPtr(5)}

	if _, err := field.Validate("too long for five"); err == nil {
		t.Error("expected error for input over maxlength, got nil")
	}
	if _, err := field.Validate("ok"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNumericFieldValidate(t *testing.T) {
	field := &Field{
		Name: "Rating", Key: "rating", Type: FieldNumeric,
		MinVal: floatPtr(0), MaxVal: floatPtr(5),
	}

	tests := []struct {
		name    string
		input   interface{}
		want    float64
		wantErr bool
	}{
		{"int in range", 3, 3, false},
		{"float in range", 4.5, 4.5, false},
		{"numeric string", "2", 2, false},
		{"lower bound inclusive", 0, 0, false},
		{"upper bound inclusive", float64(5), 5, false},
		{"above max", 7, 0, true},
		{"below min", -1, 0, true},
		{"not a number", "seven", 0, true},
		{"bool input", true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := field.Validate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %v, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if value != tt.want {
				t.Errorf("expected %v, got %v", tt.want, value)
			}
		})
	}
}

func TestNumericFieldUnbounded(t *testing.T) {
	field := &Field{Name: "Count", Key: "count", Type: FieldNumeric}

	if _, err := field.Validate(1e12); err != nil {
		t.Errorf("unbounded field should accept any number, got %v", err)
	}
	if _, err := field.Validate(-1e12); err != nil {
		t.Errorf("unbounded field should accept any number, got %v", err)
	}
}

func TestDateTimeFieldValidate(t *testing.T) {
	field := &Field{Name: "Opened", Key: "opened", Type: FieldDateTime}

	tests := []struct {
		input string
		want  string
	}{
		{"2016-09-01T15:00:00Z", "2016-09-01T15:00:00Z"},
		{"2016-09-01 15:00", "2016-09-01T15:00:00Z"},
		{"2016-09-01T17:00:00+02:00", "2016-09-01T15:00:00Z"},
	}

	for _, tt := range tests {
		value, err := field.Validate(tt.input)
		if err != nil {
			t.Fatalf("Validate(%q): unexpected error: %v", tt.input, err)
		}
		if value != tt.want {
			t.Errorf("Validate(%q) = %q, want %q", tt.input, value, tt.want)
		}
	}

	if _, err := field.Validate("not a date"); err == nil {
		t.Error("expected error for unparseable date, got nil")
	}
	if _, err := field.Validate("2016-13-45 99:99"); err == nil {
		t.Error("expected error for out-of-range date, got nil")
	}
}

func TestDateAndTimeFieldValidate(t *testing.T) {
	date := &Field{Name: "Visited", Key: "visited", Type: FieldDate}
	if value, err := date.Validate("2016-09-01"); err != nil || value != "2016-09-01" {
		t.Errorf("date validate = %v, %v", value, err)
	}
	if _, err := date.Validate("01/09/2016"); err == nil {
		t.Error("expected error for non-ISO date, got nil")
	}

	clock := &Field{Name: "Opens", Key: "opens", Type: FieldTime}
	if value, err := clock.Validate("09:30"); err != nil || value != "09:30" {
		t.Errorf("time validate = %v, %v", value, err)
	}
	if value, err := clock.Validate("09:30:15"); err != nil || value != "09:30" {
		t.Errorf("time validate with seconds = %v, %v", value, err)
	}
	if _, err := clock.Validate("25:00"); err == nil {
		t.Error("expected error for invalid time, got nil")
	}
}

func TestTrueFalseFieldValidate(t *testing.T) {
	field := &Field{Name: "Child friendly", Key: "child_friendly", Type: FieldTrueFalse}

	accepted := map[interface{}]bool{
		true:    true,
		false:   false,
		"true":  true,
		"False": false,
		"1":     true,
		"0":     false,
	}
	for input, want := range accepted {
		value, err := field.Validate(input)
		if err != nil {
			t.Fatalf("Validate(%v): unexpected error: %v", input, err)
		}
		if value != want {
			t.Errorf("Validate(%v) = %v, want %v", input, value, want)
		}
	}

	for _, input := range []interface{}{"yes", 2, "maybe"} {
		if _, err := field.Validate(input); err == nil {
			t.Errorf("expected error for %v, got nil", input)
		}
	}
}

func lookupTestField(fieldType FieldType) *Field {
	return &Field{
		Name: "Type", Key: "type", Type: fieldType,
		LookupValues: []LookupValue{
			{ID: 1, Name: "Gastro pub", Status: StatusActive},
			{ID: 2, Name: "Sports bar", Status: StatusActive},
			{ID: 3, Name: "Closed down", Status: StatusDeleted},
		},
	}
}

func TestLookupFieldValidate(t *testing.T) {
	field := lookupTestField(FieldLookup)

	value, err := field.Validate(float64(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != int64(2) {
		t.Errorf("expected int64(2), got %v", value)
	}

	if _, err := field.Validate(3); err == nil {
		t.Error("expected error for deleted lookup value, got nil")
	}
	if _, err := field.Validate(99); err == nil {
		t.Error("expected error for unknown lookup value, got nil")
	}
	if _, err := field.Validate("abc"); err == nil {
		t.Error("expected error for non-integer input, got nil")
	}
}

func TestMultipleLookupFieldValidate(t *testing.T) {
	field := lookupTestField(FieldMultipleLookup)

	value, err := field.Validate([]interface{}{float64(1), float64(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(value, []int64{1, 2}) {
		t.Errorf("expected [1 2], got %v", value)
	}

	if _, err := field.Validate([]interface{}{float64(1), float64(3)}); err == nil {
		t.Error("expected error when any ID is not active, got nil")
	}
	if _, err := field.Validate("1"); err == nil {
		t.Error("expected error for non-list input, got nil")
	}

	empty, err := field.Validate([]interface{}{})
	if err != nil {
		t.Fatalf("unexpected error for empty list: %v", err)
	}
	if len(empty.([]int64)) != 0 {
		t.Errorf("expected empty list, got %v", empty)
	}
}

func TestCategoryDisplayField(t *testing.T) {
	displayID := int64(20)
	category := &Category{
		Fields: []Field{
			{ID: 10, Key: "name", Order: 0, Type: FieldText},
			{ID: 20, Key: "kind", Order: 1, Type: FieldText},
		},
	}

	if got := category.DisplayField(); got == nil || got.ID != 10 {
		t.Errorf("expected fallback to first ordered field, got %+v", got)
	}

	category.DisplayFieldID = &displayID
	if got := category.DisplayField(); got == nil || got.ID != 20 {
		t.Errorf("expected explicit display field to win, got %+v", got)
	}
}

func TestCategoryExpiryFieldRequiresDateTime(t *testing.T) {
	textID := int64(10)
	dateTimeID := int64(20)
	category := &Category{
		Fields: []Field{
			{ID: 10, Key: "name", Type: FieldText},
			{ID: 20, Key: "expires", Type: FieldDateTime},
		},
	}

	category.ExpiryFieldID = &textID
	if got := category.ExpiryField(); got != nil {
		t.Errorf("expected nil for non-DateTime expiry reference, got %+v", got)
	}

	category.ExpiryFieldID = &dateTimeID
	if got := category.ExpiryField(); got == nil || got.ID != 20 {
		t.Errorf("expected DateTime expiry field, got %+v", got)
	}
}
