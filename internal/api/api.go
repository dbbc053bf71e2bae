/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/revisionplanner/internal/config"
	"github.com/friendsincode/revisionplanner/internal/export"
	"github.com/friendsincode/revisionplanner/internal/recipes"
	"github.com/friendsincode/revisionplanner/internal/version"
)

// RecipeFinder is the recipe search used by the recipes endpoint.
type RecipeFinder interface {
	FindByIngredients(ctx context.Context, ingredients string) ([]recipes.Recipe, error)
}

// API exposes HTTP handlers.
type API struct {
	defaults config.PlannerDefaults
	location *time.Location
	exporter *export.Service
	recipes  RecipeFinder
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates the API. loc decides which calendar day "today" is.
func New(defaults config.PlannerDefaults, loc *time.Location, exporter *export.Service, finder RecipeFinder, logger zerolog.Logger) *API {
	if loc == nil {
		loc = time.UTC
	}
	return &API{
		defaults: defaults,
		location: loc,
		exporter: exporter,
		recipes:  finder,
		now:      time.Now,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// SetClock replaces the wall clock.
func (a *API) SetClock(now func() time.Time) {
	a.now = now
}

// Routes registers all HTTP routes.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Get("/defaults", a.handleDefaults)
		r.Post("/plans", a.handlePlan)
		r.Get("/recipes", a.handleRecipes)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleDefaults returns the form defaults, with the earliest allowed deadline.
func (a *API) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"daily_start":         a.defaults.DailyStart,
		"daily_end":           a.defaults.DailyEnd,
		"session_minutes":     a.defaults.SessionMinutes,
		"min_session_minutes": a.defaults.MinSessionMinutes,
		"max_session_minutes": a.defaults.MaxSessionMinutes,
		"min_deadline":        a.today().AddDate(0, 0, 1).Format(dateLayout),
		"max_deadline":        a.today().AddDate(0, 0, a.defaults.MaxDays).Format(dateLayout),
	})
}

// today is midnight of the current day in the configured location.
func (a *API) today() time.Time {
	now := a.now().In(a.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.location)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
