/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"fmt"
	"strings"
	"time"
)

// CleanTopics trims every topic and drops blank ones. Order and duplicates
// are preserved.
func CleanTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ParseTopics splits free text into topics, one per line.
func ParseTopics(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return CleanTopics(strings.Split(text, "\n"))
}

// ParseClock parses an "HH:MM" time of day into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// FormatClock renders a midnight offset as "HH:MM".
func FormatClock(off time.Duration) string {
	off = off.Truncate(time.Minute)
	return fmt.Sprintf("%02d:%02d", int(off/time.Hour), int(off%time.Hour/time.Minute))
}
