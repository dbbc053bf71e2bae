/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package recipes is a thin client for the Spoonacular ingredient search.
package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/revisionplanner/internal/telemetry"
)

// DefaultBaseURL is the public Spoonacular API.
const DefaultBaseURL = "https://api.spoonacular.com"

// MaxResults bounds how many recipes one lookup returns.
const MaxResults = 3

var (
	ErrNoIngredients = errors.New("recipes: no ingredients given")
	ErrUpstream      = errors.New("recipes: search service failed")
)

// ExternalServiceError wraps any failure of the upstream search.
type ExternalServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

// Recipe is one search hit.
type Recipe struct {
	Title             string   `json:"title"`
	Image             string   `json:"image"`
	UsedIngredients   []string `json:"used_ingredients"`
	MissedIngredients []string `json:"missed_ingredients"`
}

type ingredient struct {
	Name string `json:"name"`
}

type apiRecipe struct {
	Title             string       `json:"title"`
	Image             string       `json:"image"`
	UsedIngredients   []ingredient `json:"usedIngredients"`
	MissedIngredients []ingredient `json:"missedIngredients"`
}

// Client queries the search API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "recipes").Logger(),
	}, nil
}

// FindByIngredients looks up recipes for a comma separated ingredient list.
// The call is made once; any failure comes back as *ExternalServiceError.
func (c *Client) FindByIngredients(ctx context.Context, ingredients string) ([]Recipe, error) {
	ingredients = strings.TrimSpace(ingredients)
	if ingredients == "" {
		return nil, ErrNoIngredients
	}

	ctx, span := telemetry.StartSpan(ctx, "recipes", "recipes.find_by_ingredients")
	defer span.End()

	params := url.Values{}
	params.Set("ingredients", ingredients)
	params.Set("number", fmt.Sprint(MaxResults))
	params.Set("ranking", "1")
	params.Set("ignorePantry", "true")
	params.Set("apiKey", c.apiKey)
	endpoint := c.baseURL + "/recipes/findByIngredients?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ExternalServiceError{Op: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the full URL, api key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		telemetry.RecordError(span, err)
		return nil, &ExternalServiceError{Op: "search request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		err := &ExternalServiceError{
			Op:         "search request",
			StatusCode: resp.StatusCode,
			Err:        errors.New(msg),
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	var raw []apiRecipe
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		telemetry.RecordError(span, err)
		return nil, &ExternalServiceError{Op: "decode response", Err: err}
	}

	if len(raw) > MaxResults {
		raw = raw[:MaxResults]
	}
	out := make([]Recipe, 0, len(raw))
	for _, r := range raw {
		out = append(out, Recipe{
			Title:             r.Title,
			Image:             r.Image,
			UsedIngredients:   names(r.UsedIngredients),
			MissedIngredients: names(r.MissedIngredients),
		})
	}

	c.logger.Debug().Str("ingredients", ingredients).Int("results", len(out)).Msg("recipe search complete")
	return out, nil
}

func names(in []ingredient) []string {
	out := make([]string, 0, len(in))
	for _, i := range in {
		out = append(out, i.Name)
	}
	return out
}
