/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package export renders planned schedules as iCalendar, Markdown or HTML.
package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/friendsincode/revisionplanner/internal/planner"
)

// Format selects an export renderer.
type Format string

const (
	FormatICal     Format = "ics"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat maps a query value to a Format.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatICal, "ical":
		return FormatICal, true
	case FormatMarkdown, "md":
		return FormatMarkdown, true
	case FormatHTML:
		return FormatHTML, true
	}
	return "", false
}

// Result contains rendered export data.
type Result struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Service renders schedules.
type Service struct {
	name   string
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates an export service. name titles calendars and pages.
func NewService(name string, logger zerolog.Logger) *Service {
	return &Service{
		name:   name,
		now:    time.Now,
		logger: logger.With().Str("component", "plan_export").Logger(),
	}
}

// Render dispatches on format.
func (s *Service) Render(format Format, planID string, schedule *planner.Schedule) (*Result, error) {
	switch format {
	case FormatICal:
		return s.ICal(planID, schedule), nil
	case FormatMarkdown:
		return s.Markdown(planID, schedule), nil
	case FormatHTML:
		return s.HTML(planID, schedule)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

// ICal exports the schedule as an iCalendar feed, one VEVENT per session.
func (s *Service) ICal(planID string, schedule *planner.Schedule) *Result {
	stamp := formatICalTime(s.now())

	var buf bytes.Buffer
	buf.WriteString("BEGIN:VCALENDAR\r\n")
	buf.WriteString("VERSION:2.0\r\n")
	buf.WriteString("PRODID:-//Friends Incode//Revision Planner//FR\r\n")
	buf.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICalText(s.name)))
	buf.WriteString("CALSCALE:GREGORIAN\r\n")
	buf.WriteString("METHOD:PUBLISH\r\n")

	for i, session := range sessions(schedule) {
		buf.WriteString("BEGIN:VEVENT\r\n")
		buf.WriteString(fmt.Sprintf("UID:%s-%d@revisionplanner\r\n", planID, i))
		buf.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp))
		buf.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICalTime(session.Start)))
		buf.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICalTime(session.End())))
		buf.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICalText(session.Label())))
		buf.WriteString(fmt.Sprintf("CATEGORIES:%s\r\n", strings.ToUpper(string(session.Kind))))
		buf.WriteString("END:VEVENT\r\n")
	}

	buf.WriteString("END:VCALENDAR\r\n")

	return &Result{
		Data:        buf.Bytes(),
		Filename:    filename(s.name, schedule, "ics"),
		ContentType: "text/calendar; charset=utf-8",
	}
}

// Markdown renders the schedule as a GitHub flavoured table.
func (s *Service) Markdown(planID string, schedule *planner.Schedule) *Result {
	return &Result{
		Data:        []byte(s.markdown(schedule)),
		Filename:    filename(s.name, schedule, "md"),
		ContentType: "text/markdown; charset=utf-8",
	}
}

func (s *Service) markdown(schedule *planner.Schedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.name)

	if schedule != nil {
		for _, w := range schedule.Warnings {
			fmt.Fprintf(&b, "> %s\n\n", w.Message)
		}
	}
	if schedule.Empty() {
		return b.String()
	}

	b.WriteString("| Date | Heure | Sujet |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, session := range schedule.Sessions {
		fmt.Fprintf(&b, "| %s | %s | %s |\n",
			session.Day.Format("Mon 02 Jan"),
			session.Start.Format("15:04"),
			escapeMarkdownCell(session.Label()))
	}
	return b.String()
}

// HTML renders the Markdown table into a standalone page. Raw HTML inside
// topics is dropped by goldmark's default renderer.
func (s *Service) HTML(planID string, schedule *planner.Schedule) (*Result, error) {
	var body bytes.Buffer
	if err := markdownRenderer().Convert([]byte(s.markdown(schedule)), &body); err != nil {
		s.logger.Error().Err(err).Str("plan_id", planID).Msg("markdown conversion failed")
		return nil, fmt.Errorf("render html: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"fr\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(s.name))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	return &Result{
		Data:        page.Bytes(),
		Filename:    filename(s.name, schedule, "html"),
		ContentType: "text/html; charset=utf-8",
	}, nil
}

var (
	renderer     goldmark.Markdown
	rendererOnce sync.Once
)

func markdownRenderer() goldmark.Markdown {
	rendererOnce.Do(func() {
		renderer = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return renderer
}

func sessions(schedule *planner.Schedule) []planner.Session {
	if schedule == nil {
		return nil
	}
	return schedule.Sessions
}

func filename(name string, schedule *planner.Schedule, ext string) string {
	if schedule.Empty() {
		return fmt.Sprintf("%s.%s", slugify(name), ext)
	}
	first := schedule.Sessions[0].Day
	last := schedule.Sessions[len(schedule.Sessions)-1].Day
	return fmt.Sprintf("%s-%s-to-%s.%s", slugify(name), first.Format("2006-01-02"), last.Format("2006-01-02"), ext)
}

func formatICalTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func escapeICalText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "planning"
	}
	return result.String()
}
