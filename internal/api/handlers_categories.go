// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/models"
	"github.com/geokey/geokey/internal/validation"
)

type categoryPayload struct {
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description"`
	DefaultStatus string `json:"default_status" validate:"omitempty,oneof=active pending"`
	Colour        string `json:"colour"`
	Transparency  int    `json:"transparency" validate:"min=0,max=100"`
	Order         int    `json:"order" validate:"min=0"`
}

type fieldPayload struct {
	Name         string   `json:"name" validate:"required"`
	Key          string   `json:"key" validate:"required,fieldkey"`
	Description  string   `json:"description"`
	Type         string   `json:"fieldtype" validate:"required"`
	Required     bool     `json:"required"`
	Order        int      `json:"order" validate:"min=0"`
	MaxLength    *int     `json:"maxlength"`
	MinVal       *float64 `json:"minval"`
	MaxVal       *float64 `json:"maxval"`
	LookupValues []string `json:"lookupvalues"`
}

type categoryRefsPayload struct {
	DisplayField *int64 `json:"display_field"`
	ExpiryField  *int64 `json:"expiry_field"`
}

// ListCategories returns the project's categories with fields and lookup
// values loaded.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	categories, err := h.db.Categories(r.Context(), rc.project.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// GetCategory returns one category schema.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	categoryID, err := idParam(r, "category_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	category, err := h.db.Category(r.Context(), rc.project.ID, categoryID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// CreateCategory adds an observation schema to the project; admins only. New
// categories default to pending moderation unless the payload says otherwise.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !rc.caps.Admin {
		respondError(w, r, fmt.Errorf("%w: managing categories requires project administration",
			contribute.ErrPermissionDenied))
		return
	}

	var payload categoryPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(&payload); verr != nil {
		respondError(w, r, verr)
		return
	}

	defaultStatus := models.DefaultPending
	if payload.DefaultStatus != "" {
		defaultStatus = models.DefaultStatus(payload.DefaultStatus)
	}

	category := &models.Category{
		ProjectID:     rc.project.ID,
		Name:          payload.Name,
		Description:   payload.Description,
		Order:         payload.Order,
		Status:        models.StatusActive,
		DefaultStatus: defaultStatus,
		Colour:        payload.Colour,
		Transparency:  payload.Transparency,
		CreatorID:     rc.caps.User().ID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.db.CreateCategory(r.Context(), category); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// CreateField appends a typed field to a category schema; admins only.
func (h *Handler) CreateField(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !rc.caps.Admin {
		respondError(w, r, fmt.Errorf("%w: managing fields requires project administration",
			contribute.ErrPermissionDenied))
		return
	}
	categoryID, err := idParam(r, "category_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	category, err := h.db.Category(r.Context(), rc.project.ID, categoryID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var payload fieldPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(&payload); verr != nil {
		respondError(w, r, verr)
		return
	}

	fieldType := models.FieldType(payload.Type)
	if !fieldType.Valid() {
		respondError(w, r, newRequestError("unknown field type %q", payload.Type))
		return
	}
	if category.Field(payload.Key) != nil {
		respondError(w, r, newRequestError("field key %q already exists in this category", payload.Key))
		return
	}
	isLookup := fieldType == models.FieldLookup || fieldType == models.FieldMultipleLookup
	if isLookup && len(payload.LookupValues) == 0 {
		respondError(w, r, newRequestError("lookup fields need at least one lookup value"))
		return
	}

	field := &models.Field{
		CategoryID:  category.ID,
		Name:        payload.Name,
		Key:         payload.Key,
		Description: payload.Description,
		Required:    payload.Required,
		Status:      models.StatusActive,
		Order:       payload.Order,
		Type:        fieldType,
		MaxLength:   payload.MaxLength,
		MinVal:      payload.MinVal,
		MaxVal:      payload.MaxVal,
	}
	if isLookup {
		field.LookupValues = make([]models.LookupValue, 0, len(payload.LookupValues))
		for _, name := range payload.LookupValues {
			field.LookupValues = append(field.LookupValues,
				models.LookupValue{Name: name, Status: models.StatusActive})
		}
	}

	if err := h.db.CreateField(r.Context(), field); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, field)
}

// UpdateCategoryRefs sets the display and expiry field references of a
// category; admins only. The expiry reference must name a DateTime field.
func (h *Handler) UpdateCategoryRefs(w http.ResponseWriter, r *http.Request) {
	rc, err := h.projectContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !rc.caps.Admin {
		respondError(w, r, fmt.Errorf("%w: managing categories requires project administration",
			contribute.ErrPermissionDenied))
		return
	}
	categoryID, err := idParam(r, "category_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	category, err := h.db.Category(r.Context(), rc.project.ID, categoryID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var payload categoryRefsPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	if payload.DisplayField != nil && category.FieldByID(*payload.DisplayField) == nil {
		respondError(w, r, newRequestError("display field %d does not belong to this category",
			*payload.DisplayField))
		return
	}

	if err := h.db.UpdateCategoryFieldRefs(r.Context(), category, payload.DisplayField, payload.ExpiryField); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}
