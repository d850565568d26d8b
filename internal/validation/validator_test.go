// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package validation

import (
	"strings"
	"testing"
)

type listQuery struct {
	Limit  int    `validate:"min=0,max=1000"`
	Offset int    `validate:"min=0"`
	Format string `validate:"omitempty,oneof=json kml"`
}

type fieldPayload struct {
	Name string `validate:"required"`
	Key  string `validate:"required,fieldkey"`
}

func TestValidateStructPasses(t *testing.T) {
	if err := ValidateStruct(&listQuery{Limit: 50, Format: "kml"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateStruct(&fieldPayload{Name: "Rating", Key: "rating_2"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		field   string
		message string
	}{
		{"limit too large", &listQuery{Limit: 5000}, "Limit", "must be at most 1000"},
		{"negative offset", &listQuery{Offset: -1}, "Offset", "must be at least 0"},
		{"bad format", &listQuery{Format: "csv"}, "Format", "must be one of: json kml"},
		{"missing name", &fieldPayload{Key: "rating"}, "Name", "is required"},
		{"uppercase key", &fieldPayload{Name: "Rating", Key: "Rating"}, "Key", "lowercase"},
		{"key starts with digit", &fieldPayload{Name: "Rating", Key: "2rating"}, "Key", "lowercase"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.payload)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if len(err.Errors()) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(err.Errors()), err)
			}
			fe := err.Errors()[0]
			if fe.Field() != tt.field {
				t.Errorf("field = %q, want %q", fe.Field(), tt.field)
			}
			if !strings.Contains(fe.Error(), tt.message) {
				t.Errorf("message %q does not contain %q", fe.Error(), tt.message)
			}
		})
	}
}
