// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/geojson"
	"github.com/geokey/geokey/internal/subset"
)

// maxBodyBytes bounds JSON request bodies. Media uploads have their own
// limit from configuration.
const maxBodyBytes = 1 << 20

// badRequestError is a malformed-request error raised at the API edge,
// before the contribute service is involved.
type badRequestError struct {
	message string
}

func (e *badRequestError) Error() string { return e.message }

func newRequestError(format string, args ...interface{}) error {
	return &badRequestError{message: fmt.Sprintf(format, args...)}
}

// parseBody reads and parses an inbound GeoJSON feature.
func (h *Handler) parseBody(w http.ResponseWriter, r *http.Request) (*contribute.Payload, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, newRequestError("failed to read request body: %s", err)
	}

	payload, err := geojson.ParsePayload(body)
	if err != nil {
		return nil, newRequestError("invalid GeoJSON feature: %s", err)
	}
	return payload, nil
}

// compiledSubset loads a stored subset and compiles it against the project's
// categories.
func (h *Handler) compiledSubset(r *http.Request, rc *requestContext, subsetID int64) (*subset.Predicate, error) {
	s, err := h.db.Subset(r.Context(), rc.project.ID, subsetID)
	if err != nil {
		return nil, err
	}
	categories, err := h.db.CategoryMap(r.Context(), rc.project.ID)
	if err != nil {
		return nil, err
	}
	pred, err := subset.Compile(s, categories)
	if err != nil {
		return nil, newRequestError("subset %d does not compile: %s", subsetID, err)
	}
	return pred, nil
}
