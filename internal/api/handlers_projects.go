// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"net/http"

	"github.com/geokey/geokey/internal/auth"
	"github.com/geokey/geokey/internal/models"
)

// ListProjects returns the projects the principal can at least view.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	projects, err := h.db.ProjectsFor(r.Context(), user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// GetProject returns one project the principal may view.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc.project)
}
