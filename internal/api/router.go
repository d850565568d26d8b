// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geokey/geokey/internal/auth"
	"github.com/geokey/geokey/internal/config"
	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/database"
	"github.com/geokey/geokey/internal/middleware"
)

// NewRouter assembles the HTTP surface: middleware stack, health and metrics
// endpoints, and the project-scoped API routes.
func NewRouter(cfg *config.Config, db *database.DB, jwtManager *auth.JWTManager) http.Handler {
	handler := NewHandler(db, contribute.NewService(db), cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.API.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.API.RateLimit, cfg.API.RateLimitWindow))
		}
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)
		r.Use(auth.Middleware(jwtManager, db))

		r.Get("/projects", handler.ListProjects)

		r.Route("/projects/{project_id}", func(r chi.Router) {
			r.Get("/", handler.GetProject)

			r.Get("/locations", handler.ListLocations)

			r.Get("/observations", handler.ListObservations)
			r.Post("/observations", handler.CreateObservation)

			r.Route("/observations/{observation_id}", func(r chi.Router) {
				r.Get("/", handler.GetObservation)
				r.Patch("/", handler.UpdateObservation)
				r.Delete("/", handler.DeleteObservation)
				r.Get("/history", handler.History)

				r.Get("/comments", handler.ListComments)
				r.Post("/comments", handler.CreateComment)
				r.Post("/comments/{comment_id}/resolve", handler.ResolveComment)
				r.Delete("/comments/{comment_id}", handler.DeleteComment)

				r.Get("/media", handler.ListMedia)
				r.Post("/media", handler.UploadMedia)
				r.Delete("/media/{media_id}", handler.DeleteMedia)
			})

			r.Get("/categories", handler.ListCategories)
			r.Post("/categories", handler.CreateCategory)
			r.Route("/categories/{category_id}", func(r chi.Router) {
				r.Get("/", handler.GetCategory)
				r.Patch("/", handler.UpdateCategoryRefs)
				r.Post("/fields", handler.CreateField)
			})

			r.Get("/subsets", handler.ListSubsets)
			r.Post("/subsets", handler.CreateSubset)
			r.Route("/subsets/{subset_id}", func(r chi.Router) {
				r.Get("/", handler.GetSubset)
				r.Put("/", handler.UpdateSubset)
				r.Delete("/", handler.DeleteSubset)
			})
		})
	})

	return r
}
