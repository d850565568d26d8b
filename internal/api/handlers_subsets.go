// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/models"
	"github.com/geokey/geokey/internal/subset"
	"github.com/geokey/geokey/internal/validation"
)

type subsetPayload struct {
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Rules       []json.RawMessage `json:"rules"`
}

// ListSubsets returns the project's subsets.
func (h *Handler) ListSubsets(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	subsets, err := h.db.Subsets(r.Context(), rc.project.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if subsets == nil {
		subsets = []*models.Subset{}
	}
	writeJSON(w, http.StatusOK, subsets)
}

// GetSubset returns one subset.
func (h *Handler) GetSubset(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	subsetID, err := idParam(r, "subset_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	s, err := h.db.Subset(r.Context(), rc.project.ID, subsetID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreateSubset stores a new subset; project admins only.
func (h *Handler) CreateSubset(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !rc.caps.Admin {
		respondError(w, r, fmt.Errorf("%w: managing subsets requires project administration",
			contribute.ErrPermissionDenied))
		return
	}

	payload, rules, err := h.parseSubsetPayload(w, r, rc)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s := &models.Subset{
		ProjectID:   rc.project.ID,
		Name:        payload.Name,
		Description: payload.Description,
		CreatorID:   rc.caps.User().ID,
		CreatedAt:   time.Now().UTC(),
		Status:      models.StatusActive,
		Rules:       rules,
	}
	if err := h.db.CreateSubset(r.Context(), s); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// UpdateSubset replaces a subset's name, description and rules; project
// admins only.
func (h *Handler) UpdateSubset(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !rc.caps.Admin {
		respondError(w, r, fmt.Errorf("%w: managing subsets requires project administration",
			contribute.ErrPermissionDenied))
		return
	}
	subsetID, err := idParam(r, "subset_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	s, err := h.db.Subset(r.Context(), rc.project.ID, subsetID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	payload, rules, err := h.parseSubsetPayload(w, r, rc)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.Name = payload.Name
	s.Description = payload.Description
	s.Rules = rules
	if err := h.db.UpdateSubset(r.Context(), s); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// DeleteSubset removes a subset and detaches it from user groups; project
// admins only.
func (h *Handler) DeleteSubset(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !rc.caps.Admin {
		respondError(w, r, fmt.Errorf("%w: managing subsets requires project administration",
			contribute.ErrPermissionDenied))
		return
	}
	subsetID, err := idParam(r, "subset_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.db.DeleteSubset(r.Context(), rc.project.ID, subsetID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseSubsetPayload decodes and validates a subset write. Rules must use
// the canonical constraints shape; the legacy "filters" shape from old data
// migrations is rejected here, and every rule must compile against the
// project's categories.
func (h *Handler) parseSubsetPayload(w http.ResponseWriter, r *http.Request, rc *requestContext) (*subsetPayload, []models.SubsetRule, error) {
	var payload subsetPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		return nil, nil, err
	}
	if verr := validation.ValidateStruct(&payload); verr != nil {
		return nil, nil, verr
	}

	rules := make([]models.SubsetRule, 0, len(payload.Rules))
	for _, raw := range payload.Rules {
		var shape map[string]interface{}
		if err := json.Unmarshal(raw, &shape); err != nil {
			return nil, nil, newRequestError("invalid subset rule: %s", err)
		}
		if _, legacy := shape["filters"]; legacy {
			return nil, nil, newRequestError("subset rules use the constraints shape, not the legacy filters shape")
		}

		var rule models.SubsetRule
		if err := json.Unmarshal(raw, &rule); err != nil {
			return nil, nil, newRequestError("invalid subset rule: %s", err)
		}
		rules = append(rules, rule)
	}

	categories, err := h.db.CategoryMap(r.Context(), rc.project.ID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := subset.Compile(&models.Subset{Rules: rules}, categories); err != nil {
		return nil, nil, newRequestError("invalid subset rules: %s", err)
	}
	return &payload, rules, nil
}
