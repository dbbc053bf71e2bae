/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "revisionplanner"

var (
	// APIRequestDuration tracks HTTP latency per route.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIRequestsTotal counts HTTP requests per route.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections tracks in-flight requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_active_connections",
		Help:      "HTTP requests currently being served.",
	})

	// PlansTotal counts planning runs by outcome (planned, warning, invalid).
	PlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plans_total",
		Help:      "Planning runs by outcome.",
	}, []string{"outcome"})

	// PlanDuration tracks planning compute time.
	PlanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "plan_duration_seconds",
		Help:      "Time spent computing a schedule.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})

	// SessionsTotal counts booked sessions by kind.
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Sessions booked by kind.",
	}, []string{"kind"})

	// SessionsDroppedTotal counts sessions that did not fit, by kind.
	SessionsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_dropped_total",
		Help:      "Discoveries or revisions skipped for lack of free slots.",
	}, []string{"kind"})

	// RecipeRequestsTotal counts recipe lookups by outcome (ok, empty, error).
	RecipeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recipe_requests_total",
		Help:      "Recipe search pass-through calls by outcome.",
	}, []string{"outcome"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
