/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import "time"

// Pools holds the remaining slots of every day in a planning range.
// Day i is the i-th calendar day after the first one. Slots are offsets from
// midnight and are kept in ascending order; Take always hands out the earliest.
//
// A day's pool is only built when it is first looked at, so memory follows
// the days a plan touches, not the length of the range.
//
// A Pools value belongs to a single planning run and is not safe for
// concurrent use.
type Pools struct {
	first time.Time
	days  int
	base  []time.Duration
	slots map[int][]time.Duration
}

// NewPools builds one pool per day in [first, last]. Each pool starts at
// dailyStart and steps by step; offsets at or after dailyEnd are excluded, as
// are wall clock times a DST jump skips on that day.
func NewPools(first, last time.Time, dailyStart, dailyEnd, step time.Duration) *Pools {
	first = dateOf(first)
	p := &Pools{
		first: first,
		base:  slotOffsets(dailyStart, dailyEnd, step),
		slots: make(map[int][]time.Duration),
	}
	if n := daysBetween(first, last); n >= 0 {
		p.days = n + 1
	}
	return p
}

func slotOffsets(dailyStart, dailyEnd, step time.Duration) []time.Duration {
	if step <= 0 || dailyStart >= dailyEnd {
		return nil
	}
	offsets := make([]time.Duration, 0, int((dailyEnd-dailyStart)/step)+1)
	for off := dailyStart; off < dailyEnd; off += step {
		offsets = append(offsets, off)
	}
	return offsets
}

// Len returns the number of days in the range.
func (p *Pools) Len() int {
	return p.days
}

// Day returns midnight of day i.
func (p *Pools) Day(i int) time.Time {
	return p.first.AddDate(0, 0, i)
}

// Remaining returns how many slots day i still has.
func (p *Pools) Remaining(i int) int {
	if i < 0 || i >= p.days {
		return 0
	}
	return len(p.pool(i))
}

// Take removes and returns the earliest free slot of day i.
func (p *Pools) Take(i int) (time.Duration, bool) {
	if p.Remaining(i) == 0 {
		return 0, false
	}
	pool := p.slots[i]
	p.slots[i] = pool[1:]
	return pool[0], true
}

// pool returns the free slots of day i, building them on first use.
func (p *Pools) pool(i int) []time.Duration {
	if pool, ok := p.slots[i]; ok {
		return pool
	}
	day := p.Day(i)
	pool := make([]time.Duration, 0, len(p.base))
	for _, off := range p.base {
		if onWallClock(day, off) {
			pool = append(pool, off)
		}
	}
	p.slots[i] = pool
	return pool
}

// dateOf truncates t to midnight in its own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, ignoring clock and zone.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).Unix()
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC).Unix()
	return int((to - from) / 86400)
}

// at places a midnight offset on day, counting wall clock time.
func at(day time.Time, off time.Duration) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, int(off/time.Second), 0, day.Location())
}

// onWallClock reports whether off exists on day. On a spring-forward day
// time.Date moves a skipped time an hour later, onto another slot.
func onWallClock(day time.Time, off time.Duration) bool {
	t := at(day, off)
	if ty, tm, td := t.Date(); ty != day.Year() || tm != day.Month() || td != day.Day() {
		return false
	}
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour+time.Duration(m)*time.Minute+time.Duration(s)*time.Second == off
}
