/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/friendsincode/revisionplanner/internal/planner"
	"github.com/friendsincode/revisionplanner/internal/recipes"
	"github.com/friendsincode/revisionplanner/internal/telemetry"
)

const warningNoRecipes = "no_recipes"

type recipesResponse struct {
	Recipes  []recipes.Recipe  `json:"recipes"`
	Warnings []planner.Warning `json:"warnings"`
}

// handleRecipes forwards an ingredient list to the recipe search.
func (a *API) handleRecipes(w http.ResponseWriter, r *http.Request) {
	ingredients := strings.TrimSpace(r.URL.Query().Get("ingredients"))
	if ingredients == "" {
		writeError(w, http.StatusBadRequest, "ingredients_required")
		return
	}

	found, err := a.recipes.FindByIngredients(r.Context(), ingredients)
	if err != nil {
		if errors.Is(err, recipes.ErrNoIngredients) {
			writeError(w, http.StatusBadRequest, "ingredients_required")
			return
		}
		telemetry.RecipeRequestsTotal.WithLabelValues("error").Inc()
		a.logger.Warn().Err(err).Msg("recipe search failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "recipes_unavailable",
			"message": "Erreur lors de la récupération des recettes : " + err.Error(),
		})
		return
	}

	resp := recipesResponse{Recipes: found, Warnings: []planner.Warning{}}
	if len(found) == 0 {
		telemetry.RecipeRequestsTotal.WithLabelValues("empty").Inc()
		resp.Recipes = []recipes.Recipe{}
		resp.Warnings = append(resp.Warnings, planner.Warning{
			Code:    warningNoRecipes,
			Message: "Aucune recette trouvée. Essaie avec d'autres ingrédients.",
		})
	} else {
		telemetry.RecipeRequestsTotal.WithLabelValues("ok").Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}
