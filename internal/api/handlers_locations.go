// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"net/http"

	"github.com/geokey/geokey/internal/models"
)

// ListLocations returns the locations usable with this project: public ones
// plus those private to it. Contributing clients offer these for reuse.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	locations, err := h.db.LocationsForProject(r.Context(), rc.project.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if locations == nil {
		locations = []*models.Location{}
	}
	writeJSON(w, http.StatusOK, locations)
}
