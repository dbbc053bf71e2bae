/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/revisionplanner/internal/planner"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string
	Timezone    string
	ConfigFile  string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Recipe search
	RecipesBaseURL    string
	SpoonacularAPIKey string
	RecipesTimeout    time.Duration

	// Planner form defaults, optionally from ConfigFile
	Planner PlannerDefaults

	LegacyEnvWarnings []string

	location *time.Location
}

// PlannerDefaults are the values a client gets when it omits a field, and the
// bounds a requested session length and deadline must respect.
type PlannerDefaults struct {
	DailyStart        string `yaml:"daily_start"`
	DailyEnd          string `yaml:"daily_end"`
	SessionMinutes    int    `yaml:"session_minutes"`
	MinSessionMinutes int    `yaml:"min_session_minutes"`
	MaxSessionMinutes int    `yaml:"max_session_minutes"`
	MaxDays           int    `yaml:"max_days"`
}

// fileConfig is the layout of PLANNER_CONFIG_FILE. Environment sections are
// applied over the base planner section when the environment matches.
type fileConfig struct {
	Planner     PlannerDefaults  `yaml:"planner"`
	Development *PlannerDefaults `yaml:"development,omitempty"`
	Staging     *PlannerDefaults `yaml:"staging,omitempty"`
	Production  *PlannerDefaults `yaml:"production,omitempty"`
}

// DefaultPlanner returns the built-in form defaults.
func DefaultPlanner() PlannerDefaults {
	return PlannerDefaults{
		DailyStart:        "08:00",
		DailyEnd:          "19:00",
		SessionMinutes:    60,
		MinSessionMinutes: 30,
		MaxSessionMinutes: 120,
		MaxDays:           365,
	}
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"PLANNER_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"PLANNER_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"PLANNER_HTTP_PORT"}, 8080),
		MetricsBind: getEnvAny([]string{"PLANNER_METRICS_BIND"}, "127.0.0.1:9000"),
		Timezone:    getEnvAny([]string{"PLANNER_TIMEZONE"}, "UTC"),
		ConfigFile:  getEnvAny([]string{"PLANNER_CONFIG_FILE"}, ""),

		TracingEnabled:    getEnvBoolAny([]string{"PLANNER_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"PLANNER_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"PLANNER_TRACING_SAMPLE_RATE"}, 1.0),

		RecipesBaseURL:    getEnvAny([]string{"PLANNER_RECIPES_BASE_URL"}, "https://api.spoonacular.com"),
		SpoonacularAPIKey: getEnvAny([]string{"PLANNER_SPOONACULAR_API_KEY", "SPOONACULAR_API_KEY"}, ""),
		RecipesTimeout:    time.Duration(getEnvIntAny([]string{"PLANNER_RECIPES_TIMEOUT_SECONDS"}, 15)) * time.Second,

		Planner: DefaultPlanner(),
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

// applyFile overlays planner defaults from a YAML file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.Planner = mergePlanner(c.Planner, &fc.Planner)
	switch strings.ToLower(c.Environment) {
	case "development":
		c.Planner = mergePlanner(c.Planner, fc.Development)
	case "staging":
		c.Planner = mergePlanner(c.Planner, fc.Staging)
	case "production":
		c.Planner = mergePlanner(c.Planner, fc.Production)
	}
	return nil
}

// mergePlanner copies the non-zero fields of over onto base.
func mergePlanner(base PlannerDefaults, over *PlannerDefaults) PlannerDefaults {
	if over == nil {
		return base
	}
	if over.DailyStart != "" {
		base.DailyStart = over.DailyStart
	}
	if over.DailyEnd != "" {
		base.DailyEnd = over.DailyEnd
	}
	if over.SessionMinutes != 0 {
		base.SessionMinutes = over.SessionMinutes
	}
	if over.MinSessionMinutes != 0 {
		base.MinSessionMinutes = over.MinSessionMinutes
	}
	if over.MaxSessionMinutes != 0 {
		base.MaxSessionMinutes = over.MaxSessionMinutes
	}
	if over.MaxDays != 0 {
		base.MaxDays = over.MaxDays
	}
	return base
}

// Validate checks the configuration and resolves the timezone.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("PLANNER_HTTP_PORT %d out of range", c.HTTPPort))
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("PLANNER_TIMEZONE %q: %w", c.Timezone, err))
	} else {
		c.location = loc
	}

	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		errs = append(errs, fmt.Errorf("PLANNER_TRACING_SAMPLE_RATE must be between 0 and 1, got %v", c.TracingSampleRate))
	}
	if c.RecipesTimeout <= 0 {
		errs = append(errs, errors.New("PLANNER_RECIPES_TIMEOUT_SECONDS must be positive"))
	}

	errs = append(errs, c.Planner.validate()...)

	if strings.EqualFold(c.Environment, "production") && c.SpoonacularAPIKey == "" {
		errs = append(errs, errors.New("PLANNER_SPOONACULAR_API_KEY or SPOONACULAR_API_KEY must be provided in production"))
	}

	return errors.Join(errs...)
}

func (p PlannerDefaults) validate() []error {
	var errs []error

	start, err := planner.ParseClock(p.DailyStart)
	if err != nil {
		errs = append(errs, fmt.Errorf("planner daily_start: %w", err))
	}
	end, err := planner.ParseClock(p.DailyEnd)
	if err != nil {
		errs = append(errs, fmt.Errorf("planner daily_end: %w", err))
	}
	if len(errs) == 0 && start >= end {
		errs = append(errs, fmt.Errorf("planner daily_start %s must be before daily_end %s", p.DailyStart, p.DailyEnd))
	}

	if p.MinSessionMinutes <= 0 || p.MinSessionMinutes > p.MaxSessionMinutes {
		errs = append(errs, fmt.Errorf("planner session bounds [%d, %d] are invalid", p.MinSessionMinutes, p.MaxSessionMinutes))
	} else if p.SessionMinutes < p.MinSessionMinutes || p.SessionMinutes > p.MaxSessionMinutes {
		errs = append(errs, fmt.Errorf("planner session_minutes %d outside [%d, %d]", p.SessionMinutes, p.MinSessionMinutes, p.MaxSessionMinutes))
	}
	if p.MaxDays <= 0 {
		errs = append(errs, fmt.Errorf("planner max_days must be positive, got %d", p.MaxDays))
	}
	return errs
}

// Location returns the timezone used to decide what "today" is.
func (c *Config) Location() *time.Location {
	if c == nil || c.location == nil {
		return time.UTC
	}
	return c.location
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"SPOONACULAR_API_KEY": "use PLANNER_SPOONACULAR_API_KEY",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
