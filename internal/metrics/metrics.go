// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

// Package metrics instruments the contribution engine with Prometheus
// collectors: database query latency, API endpoint throughput, contribution
// lifecycle events and credential validation outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Contribution lifecycle metrics
	ContributionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contributions_total",
			Help: "Total number of observation lifecycle events",
		},
		[]string{"event", "status"}, // event: "created", "updated", "deleted"
	)

	ModerationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_transitions_total",
			Help: "Total number of observation status transitions",
		},
		[]string{"from", "to"},
	)

	CommentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comments_total",
			Help: "Total number of comment events",
		},
		[]string{"event"}, // "created", "resolved", "deleted"
	)

	// Auth metrics
	TokenValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_validations_total",
			Help: "Total number of credential validation attempts",
		},
		[]string{"scheme", "result"}, // scheme: "bearer", "token"; result: "ok", "rejected"
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// System metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordContribution records an observation lifecycle event.
func RecordContribution(event, status string) {
	ContributionsTotal.WithLabelValues(event, status).Inc()
}

// RecordTransition records an observation status transition.
func RecordTransition(from, to string) {
	ModerationTransitions.WithLabelValues(from, to).Inc()
}

// RecordComment records a comment event.
func RecordComment(event string) {
	CommentsTotal.WithLabelValues(event).Inc()
}

// RecordTokenValidation records a credential validation outcome.
func RecordTokenValidation(scheme string, ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	TokenValidationsTotal.WithLabelValues(scheme, result).Inc()
}
