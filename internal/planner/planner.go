/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package planner assigns study sessions to time slots between today and a
// deadline. Every topic gets one discovery session, followed by spaced
// repetition revisions one, three and seven days later when capacity allows.
package planner

import (
	"sort"
	"time"
)

// SessionKind distinguishes first exposure from spaced repetition.
type SessionKind string

const (
	KindDiscovery SessionKind = "discovery"
	KindRevision  SessionKind = "revision"
)

// revisionOffsets are the day offsets after discovery at which a topic is revised.
var revisionOffsets = [...]int{1, 3, 7}

// RevisionOffsets returns the fixed revision offsets in days.
func RevisionOffsets() []int {
	out := make([]int, len(revisionOffsets))
	copy(out, revisionOffsets[:])
	return out
}

// Request describes one planning run. Times of day are offsets from midnight.
type Request struct {
	Topics          []string
	Today           time.Time
	Deadline        time.Time
	DailyStart      time.Duration
	DailyEnd        time.Duration
	SessionDuration time.Duration
}

// Session is one topic booked on one slot.
type Session struct {
	Topic      string
	TopicIndex int
	Kind       SessionKind
	Day        time.Time
	Start      time.Time
	Duration   time.Duration
}

// End returns when the session finishes.
func (s Session) End() time.Time {
	return s.Start.Add(s.Duration)
}

// Label renders the session the way the planning table shows it.
func (s Session) Label() string {
	if s.Kind == KindRevision {
		return "(Révision) " + s.Topic
	}
	return "(Découverte) " + s.Topic
}

// Stats are planning diagnostics. Capacity shortfalls are not reported to
// users; they only surface here, in metrics and in debug logs.
type Stats struct {
	Days             int `json:"days"`
	SlotsPerDay      int `json:"slots_per_day"`
	Topics           int `json:"topics"`
	Discovered       int `json:"discovered"`
	Undiscovered     int `json:"undiscovered"`
	Revisions        int `json:"revisions"`
	RevisionsDropped int `json:"revisions_dropped"`
}

// Schedule is the outcome of a planning run, sorted by day then slot.
type Schedule struct {
	Sessions []Session
	Warnings []Warning
	Stats    Stats
}

// Empty reports whether no session was produced.
func (s *Schedule) Empty() bool {
	return s == nil || len(s.Sessions) == 0
}

type discovery struct {
	index      int
	topic      string
	candidates []int
}

// Plan builds the schedule for req.
//
// An empty topic list is not an error: the schedule carries a NoTopicsWarning
// and no sessions. Malformed windows or deadlines return a *ValidationError.
// Topics or revisions that do not fit are dropped silently.
func Plan(req Request) (*Schedule, error) {
	topics := CleanTopics(req.Topics)
	if len(topics) == 0 {
		return &Schedule{Warnings: []Warning{NoTopicsWarning()}}, nil
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	today, deadline := req.span()
	pools := NewPools(today, deadline, req.DailyStart, req.DailyEnd, req.SessionDuration)

	schedule := &Schedule{
		Stats: Stats{
			Days:        pools.Len(),
			SlotsPerDay: pools.Remaining(0),
			Topics:      len(topics),
		},
	}

	book := func(d discovery, day int, off time.Duration, kind SessionKind) {
		schedule.Sessions = append(schedule.Sessions, Session{
			Topic:      d.topic,
			TopicIndex: d.index,
			Kind:       kind,
			Day:        pools.Day(day),
			Start:      at(pools.Day(day), off),
			Duration:   req.SessionDuration,
		})
	}

	// Discovery: fill days left to right in topic order.
	discovered := make([]discovery, 0, len(topics))
	next := 0
	for day := 0; day < pools.Len() && next < len(topics); day++ {
		for next < len(topics) {
			off, ok := pools.Take(day)
			if !ok {
				break
			}
			d := discovery{index: next, topic: topics[next]}
			for _, delta := range revisionOffsets {
				if pools.Remaining(day+delta) > 0 {
					d.candidates = append(d.candidates, day+delta)
				}
			}
			book(d, day, off, KindDiscovery)
			discovered = append(discovered, d)
			next++
		}
	}
	schedule.Stats.Discovered = len(discovered)
	schedule.Stats.Undiscovered = len(topics) - len(discovered)

	// Revisions: earlier discoveries claim slots first.
	for _, d := range discovered {
		for _, day := range d.candidates {
			off, ok := pools.Take(day)
			if !ok {
				schedule.Stats.RevisionsDropped++
				continue
			}
			book(d, day, off, KindRevision)
			schedule.Stats.Revisions++
		}
	}

	sort.SliceStable(schedule.Sessions, func(i, j int) bool {
		a, b := schedule.Sessions[i], schedule.Sessions[j]
		if !a.Day.Equal(b.Day) {
			return a.Day.Before(b.Day)
		}
		return a.Start.Before(b.Start)
	})

	return schedule, nil
}

// Validate checks the window, duration and deadline of req. A deadline equal
// to today gives a one day range; callers wanting a later deadline enforce it.
func (req Request) Validate() error {
	if req.DailyStart < 0 || req.DailyEnd > 24*time.Hour || req.DailyStart >= req.DailyEnd {
		return &ValidationError{Field: "daily_window", Code: "invalid_window", Err: ErrInvalidWindow}
	}
	if req.SessionDuration <= 0 || req.SessionDuration > req.DailyEnd-req.DailyStart {
		return &ValidationError{Field: "session_duration", Code: "invalid_session_duration", Err: ErrInvalidDuration}
	}
	if today, deadline := req.span(); deadline.Before(today) {
		return &ValidationError{Field: "deadline", Code: "invalid_deadline", Err: ErrInvalidDeadline}
	}
	return nil
}

// span returns today and the deadline as midnights in today's location. The
// deadline keeps its calendar date whatever location it was parsed in.
func (req Request) span() (time.Time, time.Time) {
	today := dateOf(req.Today)
	y, m, d := req.Deadline.Date()
	return today, time.Date(y, m, d, 0, 0, 0, 0, today.Location())
}
