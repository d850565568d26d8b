// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/geojson"
	"github.com/geokey/geokey/internal/logging"
	"github.com/geokey/geokey/internal/validation"
)

// writeGeoJSON serialises data (a Feature, FeatureCollection or error
// object) with compact separators.
func writeGeoJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := geojson.Render(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeJSON serialises non-GeoJSON payloads (categories, subsets, comments).
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeKML writes a rendered KML document.
func writeKML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", geojson.KMLContentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError writes an {"error": message} body.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(geojson.RenderError(message))
}

// respondError maps a service error to its HTTP status. Internal errors are
// logged and masked; everything else carries its message to the caller.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusForError(err error) int {
	var validationErr *contribute.ValidationError
	var requestErr *validation.RequestError
	var badRequest *badRequestError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &requestErr),
		errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.Is(err, contribute.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, contribute.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contribute.ErrConflict),
		errors.Is(err, contribute.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
