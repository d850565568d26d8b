// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/geokey/geokey/internal/metrics"
	"github.com/geokey/geokey/internal/models"
)

type commentPayload struct {
	Text         string  `json:"text"`
	RespondsTo   *int64  `json:"respondsto"`
	ReviewStatus *string `json:"review_status"`
}

// ListComments returns the active comments of an observation.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	_, obs, err := h.observationContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	comments, err := h.db.Comments(r.Context(), obs.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// CreateComment attaches a comment, optionally opening a review.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	rc, obs, err := h.observationContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var payload commentPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		respondError(w, r, newRequestError("comment text must not be empty"))
		return
	}

	comment := &models.Comment{
		Text:       payload.Text,
		RespondsTo: payload.RespondsTo,
	}
	if payload.ReviewStatus != nil {
		review := models.ReviewStatus(*payload.ReviewStatus)
		comment.ReviewStatus = &review
	}

	created, err := h.service.AddComment(r.Context(), rc.project, rc.caps, obs.ID, comment)
	if err != nil {
		respondError(w, r, err)
		return
	}
	metrics.RecordComment("created")
	writeJSON(w, http.StatusCreated, created)
}

// ResolveComment closes an open review comment; moderators only.
func (h *Handler) ResolveComment(w http.ResponseWriter, r *http.Request) {
	rc, obs, err := h.observationContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	commentID, err := idParam(r, "comment_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.ResolveComment(r.Context(), rc.project, rc.caps, obs.ID, commentID); err != nil {
		respondError(w, r, err)
		return
	}
	metrics.RecordComment("resolved")
	w.WriteHeader(http.StatusNoContent)
}

// DeleteComment removes a comment; authors delete their own, moderators any.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	rc, obs, err := h.observationContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	commentID, err := idParam(r, "comment_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.DeleteComment(r.Context(), rc.project, rc.caps, obs.ID, commentID); err != nil {
		respondError(w, r, err)
		return
	}
	metrics.RecordComment("deleted")
	w.WriteHeader(http.StatusNoContent)
}

// observationContext resolves the project context plus the observation named
// in the route, with visibility applied.
func (h *Handler) observationContext(r *http.Request) (*requestContext, *models.Observation, error) {
	rc, err := h.projectContext(r)
	if err != nil {
		return nil, nil, err
	}
	id, err := idParam(r, "observation_id")
	if err != nil {
		return nil, nil, err
	}
	obs, err := h.service.Get(r.Context(), rc.project, rc.caps, id)
	if err != nil {
		return nil, nil, err
	}
	return rc, obs, nil
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return newRequestError("failed to read request body: %s", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return newRequestError("invalid JSON body: %s", err)
	}
	return nil
}
