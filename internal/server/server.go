/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/revisionplanner/internal/api"
	"github.com/friendsincode/revisionplanner/internal/config"
	"github.com/friendsincode/revisionplanner/internal/export"
	"github.com/friendsincode/revisionplanner/internal/recipes"
	"github.com/friendsincode/revisionplanner/internal/telemetry"
)

const serviceName = "revisionplanner-api"

// Server owns the API router and the metrics listener.
type Server struct {
	cfg           *config.Config
	logger        zerolog.Logger
	router        chi.Router
	httpServer    *http.Server
	metricsServer *http.Server
}

// New wires dependencies and routes.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}
	if cfg.SpoonacularAPIKey == "" {
		logger.Warn().Msg("no Spoonacular API key configured: recipe search will fail upstream")
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware(serviceName))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	finder, err := recipes.NewClient(cfg.RecipesBaseURL, cfg.SpoonacularAPIKey, cfg.RecipesTimeout, logger)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
	}

	handlers := api.New(cfg.Planner, cfg.Location(), export.NewService("Planning de révision", logger), finder, logger)
	srv.configureRoutes(handlers)

	srv.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.MetricsBind != "" {
		metrics := chi.NewRouter()
		metrics.Handle("/metrics", telemetry.Handler())
		srv.metricsServer = &http.Server{
			Addr:              cfg.MetricsBind,
			Handler:           metrics,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		frameAncestors := "'none'"
		xFrameOptions := "DENY"
		if isPrintablePlan(r) {
			// The printable plan may be previewed in a same-origin iframe.
			frameAncestors = "'self'"
			xFrameOptions = "SAMEORIGIN"
		}
		w.Header().Set("X-Frame-Options", xFrameOptions)
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https:; style-src 'self' 'unsafe-inline'; frame-ancestors "+frameAncestors+"; base-uri 'self'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func isPrintablePlan(r *http.Request) bool {
	return r.URL.Path == "/api/v1/plans" && strings.EqualFold(r.URL.Query().Get("format"), "html")
}

func (s *Server) configureRoutes(handlers *api.API) {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	handlers.Routes(s.router)
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// MetricsServer exposes the Prometheus listener, nil when disabled.
func (s *Server) MetricsServer() *http.Server {
	return s.metricsServer
}

// Shutdown stops both listeners, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server: %w", err))
		}
	}
	return errors.Join(errs...)
}
