// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"net/http"
)

type healthStatus struct {
	Status  string `json:"status"`
	Spatial bool   `json:"spatial"`
}

// Health reports liveness and whether the spatial extension loaded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, &healthStatus{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, &healthStatus{
		Status:  "ok",
		Spatial: h.db.SpatialAvailable(),
	})
}
