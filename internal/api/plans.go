/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/friendsincode/revisionplanner/internal/export"
	"github.com/friendsincode/revisionplanner/internal/planner"
	"github.com/friendsincode/revisionplanner/internal/telemetry"
)

const (
	dateLayout   = "2006-01-02"
	maxPlanBytes = 1 << 20
)

type planRequest struct {
	Topics         []string `json:"topics"`
	TopicsText     string   `json:"topics_text"`
	Deadline       string   `json:"deadline"`
	DailyStart     string   `json:"daily_start"`
	DailyEnd       string   `json:"daily_end"`
	SessionMinutes int      `json:"session_minutes"`
}

type sessionResponse struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Topic string `json:"topic"`
}

type planResponse struct {
	PlanID   string            `json:"plan_id"`
	Sessions []sessionResponse `json:"sessions"`
	Warnings []planner.Warning `json:"warnings"`
}

// handlePlan builds a revision schedule. The response format follows the
// format query parameter (json by default).
func (a *API) handlePlan(w http.ResponseWriter, r *http.Request) {
	format := strings.TrimSpace(r.URL.Query().Get("format"))
	var exportFormat export.Format
	if format != "" && !strings.EqualFold(format, "json") {
		f, ok := export.ParseFormat(format)
		if !ok {
			writeError(w, http.StatusBadRequest, "unsupported_format")
			return
		}
		exportFormat = f
	}

	var in planRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPlanBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	req, code := a.buildRequest(in)
	if code != "" {
		telemetry.PlansTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, code)
		return
	}

	_, span := telemetry.StartSpan(r.Context(), "api", "planner.plan")
	defer span.End()

	start := time.Now()
	schedule, err := planner.Plan(req)
	telemetry.PlanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.RecordError(span, err)
		var verr *planner.ValidationError
		if errors.As(err, &verr) {
			telemetry.PlansTotal.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusBadRequest, verr.Code)
			return
		}
		a.logger.Error().Err(err).Msg("planning failed")
		writeError(w, http.StatusInternalServerError, "planning_failed")
		return
	}

	planID := uuid.NewString()
	a.recordPlan(planID, schedule)
	span.SetAttributes(
		attribute.String("plan.id", planID),
		attribute.Int("plan.topics", schedule.Stats.Topics),
		attribute.Int("plan.days", schedule.Stats.Days),
		attribute.Int("plan.sessions", len(schedule.Sessions)),
	)

	if exportFormat != "" {
		result, err := a.exporter.Render(exportFormat, planID, schedule)
		if err != nil {
			a.logger.Error().Err(err).Str("format", string(exportFormat)).Msg("export failed")
			writeError(w, http.StatusInternalServerError, "export_failed")
			return
		}
		w.Header().Set("Content-Type", result.ContentType)
		if exportFormat != export.FormatHTML {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)
		return
	}

	writeJSON(w, http.StatusOK, newPlanResponse(planID, schedule))
}

// buildRequest applies form defaults and checks field syntax. It returns an
// error code for the first malformed field.
func (a *API) buildRequest(in planRequest) (planner.Request, string) {
	topics := in.Topics
	if topics == nil {
		topics = planner.ParseTopics(in.TopicsText)
	}
	today := a.today()
	req := planner.Request{Topics: topics, Today: today}

	// Nothing else matters without topics; the planner answers with a warning.
	if len(planner.CleanTopics(topics)) == 0 {
		req.Deadline = today
		return req, ""
	}

	req.Deadline = today.AddDate(0, 0, 1)
	if in.Deadline != "" {
		deadline, err := time.ParseInLocation(dateLayout, strings.TrimSpace(in.Deadline), a.location)
		if err != nil {
			return req, "invalid_deadline"
		}
		if !deadline.After(today) {
			return req, "deadline_not_after_today"
		}
		if deadline.After(today.AddDate(0, 0, a.defaults.MaxDays)) {
			return req, "deadline_too_far"
		}
		req.Deadline = deadline
	}

	var err error
	if req.DailyStart, err = planner.ParseClock(orDefault(in.DailyStart, a.defaults.DailyStart)); err != nil {
		return req, "invalid_daily_start"
	}
	if req.DailyEnd, err = planner.ParseClock(orDefault(in.DailyEnd, a.defaults.DailyEnd)); err != nil {
		return req, "invalid_daily_end"
	}

	minutes := in.SessionMinutes
	if minutes == 0 {
		minutes = a.defaults.SessionMinutes
	}
	if minutes < a.defaults.MinSessionMinutes || minutes > a.defaults.MaxSessionMinutes {
		return req, "session_minutes_out_of_range"
	}
	req.SessionDuration = time.Duration(minutes) * time.Minute

	return req, ""
}

func (a *API) recordPlan(planID string, schedule *planner.Schedule) {
	outcome := "planned"
	if len(schedule.Warnings) > 0 {
		outcome = "warning"
	}
	telemetry.PlansTotal.WithLabelValues(outcome).Inc()

	stats := schedule.Stats
	telemetry.SessionsTotal.WithLabelValues(string(planner.KindDiscovery)).Add(float64(stats.Discovered))
	telemetry.SessionsTotal.WithLabelValues(string(planner.KindRevision)).Add(float64(stats.Revisions))
	telemetry.SessionsDroppedTotal.WithLabelValues(string(planner.KindDiscovery)).Add(float64(stats.Undiscovered))
	telemetry.SessionsDroppedTotal.WithLabelValues(string(planner.KindRevision)).Add(float64(stats.RevisionsDropped))

	a.logger.Debug().
		Str("plan_id", planID).
		Str("outcome", outcome).
		Int("days", stats.Days).
		Int("slots_per_day", stats.SlotsPerDay).
		Int("topics", stats.Topics).
		Int("undiscovered", stats.Undiscovered).
		Int("revisions_dropped", stats.RevisionsDropped).
		Msg("plan computed")
}

func newPlanResponse(planID string, schedule *planner.Schedule) planResponse {
	resp := planResponse{
		PlanID:   planID,
		Sessions: make([]sessionResponse, 0, len(schedule.Sessions)),
		Warnings: schedule.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []planner.Warning{}
	}
	for _, s := range schedule.Sessions {
		resp.Sessions = append(resp.Sessions, sessionResponse{
			Date:  s.Day.Format(dateLayout),
			Time:  s.Start.Format("15:04"),
			Label: s.Label(),
			Kind:  string(s.Kind),
			Topic: s.Topic,
		})
	}
	return resp
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
