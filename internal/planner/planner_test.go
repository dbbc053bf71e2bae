/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

var testToday = time.Date(2026, 3, 2, 14, 37, 0, 0, time.UTC)

func day(offset int) time.Time {
	return dateOf(testToday).AddDate(0, 0, offset)
}

func newRequest(topics []string, days int, start, end, step time.Duration) Request {
	return Request{
		Topics:          topics,
		Today:           testToday,
		Deadline:        day(days - 1),
		DailyStart:      start,
		DailyEnd:        end,
		SessionDuration: step,
	}
}

func mustPlan(t *testing.T, req Request) *Schedule {
	t.Helper()
	schedule, err := Plan(req)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	return schedule
}

func TestPlanSingleSlotCapacityShortfall(t *testing.T) {
	req := newRequest([]string{"A", "B"}, 1, 9*time.Hour, 10*time.Hour, time.Hour)

	schedule := mustPlan(t, req)

	if len(schedule.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1: %+v", len(schedule.Sessions), schedule.Sessions)
	}
	got := schedule.Sessions[0]
	if got.Topic != "A" || got.Kind != KindDiscovery {
		t.Fatalf("session = %s %s, want discovery of A", got.Kind, got.Topic)
	}
	if want := day(0).Add(9 * time.Hour); !got.Start.Equal(want) {
		t.Fatalf("start = %v, want %v", got.Start, want)
	}
	if len(schedule.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", schedule.Warnings)
	}
	if schedule.Stats.Undiscovered != 1 {
		t.Fatalf("undiscovered = %d, want 1", schedule.Stats.Undiscovered)
	}
}

func TestPlanEmptyTopicsWarns(t *testing.T) {
	for _, topics := range [][]string{nil, {}, {"  ", ""}} {
		req := newRequest(topics, 5, 8*time.Hour, 19*time.Hour, time.Hour)

		schedule, err := Plan(req)
		if err != nil {
			t.Fatalf("plan(%q): %v", topics, err)
		}
		if !schedule.Empty() {
			t.Fatalf("plan(%q) sessions = %d, want 0", topics, len(schedule.Sessions))
		}
		if len(schedule.Warnings) != 1 || schedule.Warnings[0].Code != WarningNoTopics {
			t.Fatalf("plan(%q) warnings = %v, want %s", topics, schedule.Warnings, WarningNoTopics)
		}
	}
}

func TestPlanSingleTopicGetsThreeRevisions(t *testing.T) {
	req := newRequest([]string{"X"}, 10, 8*time.Hour, 19*time.Hour, time.Hour)

	schedule := mustPlan(t, req)

	if len(schedule.Sessions) != 4 {
		t.Fatalf("sessions = %d, want 4", len(schedule.Sessions))
	}
	wantDays := []int{0, 1, 3, 7}
	for i, s := range schedule.Sessions {
		wantKind := KindRevision
		if i == 0 {
			wantKind = KindDiscovery
		}
		if s.Kind != wantKind {
			t.Fatalf("session[%d].Kind = %s, want %s", i, s.Kind, wantKind)
		}
		if !s.Day.Equal(day(wantDays[i])) {
			t.Fatalf("session[%d].Day = %v, want %v", i, s.Day, day(wantDays[i]))
		}
		if want := day(wantDays[i]).Add(8 * time.Hour); !s.Start.Equal(want) {
			t.Fatalf("session[%d].Start = %v, want %v", i, s.Start, want)
		}
	}
	if schedule.Sessions[0].Label() != "(Découverte) X" {
		t.Fatalf("label = %q", schedule.Sessions[0].Label())
	}
	if schedule.Sessions[1].Label() != "(Révision) X" {
		t.Fatalf("label = %q", schedule.Sessions[1].Label())
	}
}

func TestPlanRevisionsOutsideRangeAreSkipped(t *testing.T) {
	// Four days: +1 and +3 fit, +7 does not.
	req := newRequest([]string{"X"}, 4, 8*time.Hour, 10*time.Hour, time.Hour)

	schedule := mustPlan(t, req)

	if len(schedule.Sessions) != 3 {
		t.Fatalf("sessions = %d, want 3", len(schedule.Sessions))
	}
	if schedule.Stats.RevisionsDropped != 0 {
		t.Fatalf("revisions dropped = %d, want 0", schedule.Stats.RevisionsDropped)
	}
}

func TestPlanEarlierTopicsStarveLaterRevisions(t *testing.T) {
	// One slot per day: A, B and C are discovered on days 0, 1 and 2 and
	// compete for the remaining slots during the revision pass.
	req := newRequest([]string{"A", "B", "C"}, 10, 9*time.Hour, 10*time.Hour, time.Hour)

	schedule := mustPlan(t, req)

	type booking struct {
		topic string
		kind  SessionKind
		day   int
	}
	want := []booking{
		{"A", KindDiscovery, 0},
		{"B", KindDiscovery, 1},
		{"C", KindDiscovery, 2},
		{"A", KindRevision, 3},
		{"B", KindRevision, 4},
		{"C", KindRevision, 5},
		{"A", KindRevision, 7},
		{"B", KindRevision, 8},
		{"C", KindRevision, 9},
	}
	if len(schedule.Sessions) != len(want) {
		t.Fatalf("sessions = %d, want %d: %+v", len(schedule.Sessions), len(want), schedule.Sessions)
	}
	for i, w := range want {
		s := schedule.Sessions[i]
		if s.Topic != w.topic || s.Kind != w.kind || !s.Day.Equal(day(w.day)) {
			t.Fatalf("session[%d] = %s %s %v, want %s %s %v", i, s.Kind, s.Topic, s.Day, w.kind, w.topic, day(w.day))
		}
	}
	if schedule.Stats.RevisionsDropped != 3 {
		t.Fatalf("revisions dropped = %d, want 3", schedule.Stats.RevisionsDropped)
	}
}

func TestPlanDuplicateTopicsAreDistinct(t *testing.T) {
	req := newRequest([]string{"A", "A"}, 10, 8*time.Hour, 19*time.Hour, time.Hour)

	schedule := mustPlan(t, req)

	if len(schedule.Sessions) != 8 {
		t.Fatalf("sessions = %d, want 8", len(schedule.Sessions))
	}
	perIndex := map[int]int{}
	for _, s := range schedule.Sessions {
		perIndex[s.TopicIndex]++
	}
	if perIndex[0] != 4 || perIndex[1] != 4 {
		t.Fatalf("sessions per topic index = %v, want 4 each", perIndex)
	}
	if got := schedule.Sessions[1]; got.Kind != KindDiscovery || !got.Start.Equal(day(0).Add(9*time.Hour)) {
		t.Fatalf("second discovery = %s at %v, want discovery at 09:00", got.Kind, got.Start)
	}
}

func TestPlanDiscoveryStopsWhenTopicsRunOut(t *testing.T) {
	// Two topics, three slots a day: the third slot of day 0 stays free and
	// day 1 keeps its first slot for the revisions.
	req := newRequest([]string{"A", "B"}, 2, 8*time.Hour, 11*time.Hour, time.Hour)

	schedule := mustPlan(t, req)

	wantStarts := []time.Time{
		day(0).Add(8 * time.Hour),
		day(0).Add(9 * time.Hour),
		day(1).Add(8 * time.Hour),
		day(1).Add(9 * time.Hour),
	}
	if len(schedule.Sessions) != len(wantStarts) {
		t.Fatalf("sessions = %d, want %d", len(schedule.Sessions), len(wantStarts))
	}
	for i, want := range wantStarts {
		if !schedule.Sessions[i].Start.Equal(want) {
			t.Fatalf("session[%d].Start = %v, want %v", i, schedule.Sessions[i].Start, want)
		}
	}
}

func TestPlanInvariants(t *testing.T) {
	cases := []struct {
		name   string
		topics []string
		days   int
		start  time.Duration
		end    time.Duration
		step   time.Duration
	}{
		{"abundant", []string{"Intro", "Méthodo", "Analyse", "Conclusion"}, 14, 8 * time.Hour, 19 * time.Hour, time.Hour},
		{"tight", []string{"a", "b", "c", "d", "e", "f"}, 5, 9 * time.Hour, 11 * time.Hour, time.Hour},
		{"half hours", []string{"a", "b", "c", "d", "e", "f", "g"}, 8, 9 * time.Hour, 10*time.Hour + 30*time.Minute, 30 * time.Minute},
		{"overflow", []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}, 3, 9 * time.Hour, 11 * time.Hour, time.Hour},
		{"uneven window", []string{"a", "b", "c"}, 9, 8 * time.Hour, 9*time.Hour + 45*time.Minute, 45 * time.Minute},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			schedule := mustPlan(t, newRequest(tc.topics, tc.days, tc.start, tc.end, tc.step))

			capacity := schedule.Stats.Days * schedule.Stats.SlotsPerDay
			seen := map[time.Time]bool{}
			discoveredOn := map[int]time.Time{}
			discoveries := 0

			for i, s := range schedule.Sessions {
				if seen[s.Start] {
					t.Fatalf("slot %v booked twice", s.Start)
				}
				seen[s.Start] = true

				if i > 0 && s.Start.Before(schedule.Sessions[i-1].Start) {
					t.Fatalf("sessions not sorted at %d", i)
				}
				if s.Day.Before(day(0)) || s.Day.After(day(tc.days-1)) {
					t.Fatalf("session day %v outside range", s.Day)
				}
				off := s.Start.Sub(s.Day)
				if off < tc.start || off >= tc.end {
					t.Fatalf("session start %v outside daily window", s.Start)
				}
				if s.Kind == KindDiscovery {
					discoveries++
					discoveredOn[s.TopicIndex] = s.Day
				}
			}

			for _, s := range schedule.Sessions {
				if s.Kind != KindRevision {
					continue
				}
				d, ok := discoveredOn[s.TopicIndex]
				if !ok {
					t.Fatalf("revision of %q without discovery", s.Topic)
				}
				delta := int(s.Day.Sub(d).Hours() / 24)
				if delta != 1 && delta != 3 && delta != 7 {
					t.Fatalf("revision of %q at +%d days", s.Topic, delta)
				}
			}

			if len(tc.topics) <= capacity && discoveries != len(tc.topics) {
				t.Fatalf("discoveries = %d, want %d", discoveries, len(tc.topics))
			}
			if len(tc.topics) > capacity && discoveries != capacity {
				t.Fatalf("discoveries = %d, want capacity %d", discoveries, capacity)
			}
		})
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	req := newRequest([]string{"Intro", "Méthodo", "Analyse", "Conclusion", "Intro"}, 6, 8*time.Hour, 12*time.Hour, time.Hour)

	first := mustPlan(t, req)
	second := mustPlan(t, req)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("two runs with identical input produced different schedules")
	}
}

func TestPlanUsesTodayLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	req := Request{
		Topics:          []string{"X"},
		Today:           time.Date(2026, 3, 27, 23, 30, 0, 0, paris),
		Deadline:        time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		DailyStart:      9 * time.Hour,
		DailyEnd:        10 * time.Hour,
		SessionDuration: time.Hour,
	}

	schedule := mustPlan(t, req)

	// The range crosses the 2026-03-29 DST switch; every session stays at 09:00 wall time.
	for _, s := range schedule.Sessions {
		if s.Start.Location() != paris {
			t.Fatalf("session location = %v, want Europe/Paris", s.Start.Location())
		}
		if s.Start.Hour() != 9 || s.Start.Minute() != 0 {
			t.Fatalf("session start = %v, want 09:00 local", s.Start)
		}
	}
	if got := schedule.Stats.Days; got != 8 {
		t.Fatalf("days = %d, want 8", got)
	}
}

func TestPlanValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
		code    string
	}{
		{
			name:    "start after end",
			mutate:  func(r *Request) { r.DailyStart, r.DailyEnd = 19*time.Hour, 8*time.Hour },
			wantErr: ErrInvalidWindow,
			code:    "invalid_window",
		},
		{
			name:    "empty window",
			mutate:  func(r *Request) { r.DailyEnd = r.DailyStart },
			wantErr: ErrInvalidWindow,
			code:    "invalid_window",
		},
		{
			name:    "zero duration",
			mutate:  func(r *Request) { r.SessionDuration = 0 },
			wantErr: ErrInvalidDuration,
			code:    "invalid_session_duration",
		},
		{
			name:    "duration longer than window",
			mutate:  func(r *Request) { r.SessionDuration = 12 * time.Hour },
			wantErr: ErrInvalidDuration,
			code:    "invalid_session_duration",
		},
		{
			name:    "deadline in the past",
			mutate:  func(r *Request) { r.Deadline = day(-1) },
			wantErr: ErrInvalidDeadline,
			code:    "invalid_deadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest([]string{"A"}, 3, 8*time.Hour, 19*time.Hour, time.Hour)
			tt.mutate(&req)

			_, err := Plan(req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %T, want *ValidationError", err)
			}
			if verr.Code != tt.code {
				t.Fatalf("code = %q, want %q", verr.Code, tt.code)
			}
		})
	}
}

func TestRevisionOffsetsAreFixed(t *testing.T) {
	offsets := RevisionOffsets()
	if !reflect.DeepEqual(offsets, []int{1, 3, 7}) {
		t.Fatalf("offsets = %v, want [1 3 7]", offsets)
	}
	offsets[0] = 42
	if RevisionOffsets()[0] != 1 {
		t.Fatal("RevisionOffsets exposed internal state")
	}
}

func TestPlanFarDeadlineStaysSmall(t *testing.T) {
	req := newRequest([]string{"Intro"}, 1, 8*time.Hour, 19*time.Hour, time.Hour)
	req.Deadline = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

	schedule := mustPlan(t, req)

	if len(schedule.Sessions) != 4 {
		t.Fatalf("sessions = %d, want 4", len(schedule.Sessions))
	}
	last := schedule.Sessions[len(schedule.Sessions)-1]
	if !last.Day.Equal(day(7)) {
		t.Fatalf("last revision on %v, want %v", last.Day, day(7))
	}
	if schedule.Stats.Days <= 365*7000 {
		t.Fatalf("days = %d, want the full range", schedule.Stats.Days)
	}
}
