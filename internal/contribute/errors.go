// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package contribute

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Service errors
var (
	// ErrPermissionDenied is returned when the principal lacks the right to
	// perform the operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned for missing resources and for resources the
	// principal must not learn about.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an update carries a stale version.
	ErrConflict = errors.New("version conflict")

	// ErrInvalidTransition is returned for disallowed status changes.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError carries per-field validation messages. Fields maps a field
// key (or a payload-level name such as "meta.category") to the reason it was
// rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s: %s", key, e.Fields[key])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
