// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

// Package api exposes the contribution engine over HTTP: GeoJSON observation
// endpoints, category schemas, subsets, comments and media, routed with chi.
// Errors surface as {"error": message} objects with the status mapped from
// the service error kind.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/geokey/geokey/internal/auth"
	"github.com/geokey/geokey/internal/config"
	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/database"
	"github.com/geokey/geokey/internal/geojson"
	"github.com/geokey/geokey/internal/logging"
	"github.com/geokey/geokey/internal/models"
	"github.com/geokey/geokey/internal/permission"
	"github.com/geokey/geokey/internal/subset"
)

// Handler carries the dependencies of all endpoint handlers.
type Handler struct {
	db      *database.DB
	service *contribute.Service
	cfg     *config.Config
}

// NewHandler wires a handler set.
func NewHandler(db *database.DB, service *contribute.Service, cfg *config.Config) *Handler {
	return &Handler{db: db, service: service, cfg: cfg}
}

// requestContext is the per-request resolution every project-scoped endpoint
// starts from: the project, and the principal's capabilities within it.
type requestContext struct {
	project *models.Project
	caps    *permission.Capabilities
}

// projectContext loads the project named in the route and resolves the
// principal's capabilities, compiling the subset filters of the groups the
// principal belongs to. Projects the principal may not view surface as not
// found.
func (h *Handler) projectContext(r *http.Request) (*requestContext, error) {
	projectID, err := idParam(r, "project_id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()
	project, err := h.db.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	user := auth.UserFromContext(ctx)

	var filterIDs []int64
	for _, group := range project.GroupsOf(user) {
		if group.FilterID != nil {
			filterIDs = append(filterIDs, *group.FilterID)
		}
	}

	filters := map[int64]*subset.Predicate{}
	if len(filterIDs) > 0 {
		subsets, err := h.db.SubsetsByID(ctx, project.ID, filterIDs)
		if err != nil {
			return nil, err
		}
		categories, err := h.db.CategoryMap(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		for id, s := range subsets {
			pred, err := subset.Compile(s, categories)
			if err != nil {
				return nil, fmt.Errorf("compiling group filter %d: %w", id, err)
			}
			filters[id] = pred
		}
	}

	caps := permission.Resolve(project, user, filters)
	if !caps.CanView {
		// Private projects stay invisible to non-members.
		return nil, fmt.Errorf("%w: project %d", contribute.ErrNotFound, projectID)
	}
	return &requestContext{project: project, caps: caps}, nil
}

// feature assembles the wire form of an observation, resolving its location
// and creator.
func (h *Handler) feature(r *http.Request, obs *models.Observation) (*geojson.Feature, error) {
	ctx := r.Context()

	location, err := h.db.Location(ctx, obs.LocationID)
	if err != nil {
		return nil, err
	}

	var creator *models.User
	if obs.CreatorID != 0 {
		creator, err = h.db.User(ctx, obs.CreatorID)
		if err != nil {
			// A missing creator row degrades to an anonymous feature.
			logging.Ctx(ctx).Warn().Err(err).
				Int64("user_id", obs.CreatorID).
				Msg("creator lookup failed")
			creator = nil
		}
	}
	return geojson.NewFeature(obs, location, creator), nil
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s %q", contribute.ErrNotFound, name, raw)
	}
	return id, nil
}
