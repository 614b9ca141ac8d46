// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

package dsim

type deadline struct {
	at     uint64
	settle bool
}

// A Timeline schedules wake times for waiting processes. Time is a
// logical counter starting at 0 and never moves backwards. A process
// may hold at most one registration at a time; registering a waiting
// process again is a contract violation.
//
type Timeline struct {
	now       uint64
	deadlines map[Process]deadline
}

func newTimeline() *Timeline {
	return &Timeline{deadlines: make(map[Process]deadline)}
}

// Now returns the current logical time.
//
func (t *Timeline) Now() uint64 { return t.now }

// At registers a wake for p at absolute time at.
//
func (t *Timeline) At(p Process, at uint64) {
	if at < t.now {
		panic("dsim: wake time in the past")
	}
	t.register(p, deadline{at: at})
}

// Delay registers a wake for p after d time units.
//
func (t *Timeline) Delay(p Process, d uint64) {
	t.register(p, deadline{at: t.now + d})
}

// Settle registers a zero-delay wake for p: p runs again at the current
// instant, after pending changes commit, before time moves.
//
func (t *Timeline) Settle(p Process) {
	t.register(p, deadline{settle: true})
}

func (t *Timeline) register(p Process, d deadline) {
	if _, ok := t.deadlines[p]; ok {
		panic("dsim: process already waiting")
	}
	t.deadlines[p] = d
}

// Advance wakes the next cohort of waiting processes. Zero-delay
// registrations, and finite deadlines equal to the current time, wake
// together without moving time. Otherwise every process registered at
// the minimum deadline wakes and time moves to it. Advance reports
// whether any process woke; false means no event remains.
//
func (t *Timeline) Advance() bool {
	var wake []Process

	for p, d := range t.deadlines {
		if d.settle || d.at == t.now {
			wake = append(wake, p)
		}
	}
	if len(wake) == 0 {
		first := true
		var nearest uint64
		for _, d := range t.deadlines {
			if first || d.at < nearest {
				nearest = d.at
				first = false
			}
		}
		if first {
			return false
		}
		for p, d := range t.deadlines {
			if d.at == nearest {
				wake = append(wake, p)
			}
		}
		t.now = nearest
	}

	for _, p := range wake {
		p.status().runnable = true
		delete(t.deadlines, p)
	}
	return true
}

// Len returns the number of waiting processes.
//
func (t *Timeline) Len() int { return len(t.deadlines) }

// Reset drops all registrations and rewinds time to 0.
//
func (t *Timeline) Reset() {
	t.now = 0
	clear(t.deadlines)
}
