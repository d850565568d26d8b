// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"net/http"
	"strconv"

	"github.com/geokey/geokey/internal/database"
	"github.com/geokey/geokey/internal/geojson"
	"github.com/geokey/geokey/internal/metrics"
	"github.com/geokey/geokey/internal/models"
	"github.com/geokey/geokey/internal/validation"
)

type listQuery struct {
	Offset int    `validate:"min=0"`
	Limit  int    `validate:"min=0"`
	Format string `validate:"omitempty,oneof=json kml"`
}

// ListObservations renders the observations the principal may see, filtered
// by subset, bbox and search, as a GeoJSON FeatureCollection or KML.
func (h *Handler) ListObservations(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	query, opts, err := h.listOptions(r, rc)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if raw := r.URL.Query().Get("bbox"); raw != "" {
		bbox, err := geojson.ParseBBox(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.BBox = bbox
	}

	records, err := h.db.ListObservations(r.Context(), rc.project.ID, rc.caps, *opts)
	if err != nil {
		respondError(w, r, err)
		return
	}

	features := make([]*geojson.Feature, 0, len(records))
	for _, record := range records {
		features = append(features, geojson.NewFeature(record.Observation, record.Location, record.Creator))
	}

	if query.Format == "kml" {
		categories, err := h.db.CategoryMap(r.Context(), rc.project.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeKML(w, http.StatusOK, geojson.RenderKML(features, categories))
		return
	}
	writeGeoJSON(w, http.StatusOK, geojson.NewCollection(features))
}

// CreateObservation accepts an inbound GeoJSON feature and stores it as a
// new observation.
func (h *Handler) CreateObservation(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	payload, err := h.parseBody(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	obs, err := h.service.Create(r.Context(), rc.project, rc.caps, payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	metrics.RecordContribution("created", string(obs.Status))

	feature, err := h.feature(r, obs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeGeoJSON(w, http.StatusCreated, feature)
}

// GetObservation renders one observation as a GeoJSON feature.
func (h *Handler) GetObservation(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := idParam(r, "observation_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	obs, err := h.service.Get(r.Context(), rc.project, rc.caps, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	feature, err := h.feature(r, obs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeGeoJSON(w, http.StatusOK, feature)
}

// UpdateObservation merges a partial feature into an observation under the
// optimistic version check.
func (h *Handler) UpdateObservation(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := idParam(r, "observation_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	payload, err := h.parseBody(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	obs, err := h.service.Update(r.Context(), rc.project, rc.caps, id, payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	metrics.RecordContribution("updated", string(obs.Status))

	feature, err := h.feature(r, obs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeGeoJSON(w, http.StatusOK, feature)
}

// DeleteObservation soft-deletes an observation.
func (h *Handler) DeleteObservation(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := idParam(r, "observation_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), rc.project, rc.caps, id); err != nil {
		respondError(w, r, err)
		return
	}
	metrics.RecordContribution("deleted", "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// History returns the observation's snapshot log, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := idParam(r, "observation_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Resolve through the service so hidden observations stay hidden.
	obs, err := h.service.Get(r.Context(), rc.project, rc.caps, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	history, err := h.db.History(r.Context(), obs.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if history == nil {
		history = []*models.HistoricalObservation{}
	}
	writeJSON(w, http.StatusOK, history)
}

// listOptions parses pagination, search, format and subset parameters.
func (h *Handler) listOptions(r *http.Request, rc *requestContext) (*listQuery, *database.ListOptions, error) {
	values := r.URL.Query()
	query := &listQuery{Format: values.Get("format")}

	var err error
	if raw := values.Get("offset"); raw != "" {
		if query.Offset, err = strconv.Atoi(raw); err != nil {
			return nil, nil, newRequestError("offset must be an integer")
		}
	}
	if raw := values.Get("limit"); raw != "" {
		if query.Limit, err = strconv.Atoi(raw); err != nil {
			return nil, nil, newRequestError("limit must be an integer")
		}
	}
	if verr := validation.ValidateStruct(query); verr != nil {
		return nil, nil, verr
	}

	if query.Limit > h.cfg.API.MaxLimit {
		query.Limit = h.cfg.API.MaxLimit
	}
	if query.Limit == 0 && query.Offset > 0 {
		query.Limit = h.cfg.API.DefaultLimit
	}

	opts := &database.ListOptions{
		Search: values.Get("search"),
		Offset: query.Offset,
		Limit:  query.Limit,
	}

	if raw := values.Get("subset"); raw != "" {
		subsetID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, nil, newRequestError("subset must be a subset id")
		}
		pred, err := h.compiledSubset(r, rc, subsetID)
		if err != nil {
			return nil, nil, err
		}
		opts.Subset = pred
	}
	return query, opts, nil
}
