// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

package dsim

type trigger struct {
	value    uint64
	filtered bool
}

// A slot holds the simulation state of one signal: its committed value,
// the pending value written during the current delta cycle, and the
// processes waiting on it.
type slot struct {
	sig     *Signal
	curr    uint64
	next    uint64
	waiters map[Process]trigger
	pending bool // slot is in the pending list
	changed bool // slot is in the changed list of the current step
}

// commit publishes the pending value and wakes matching waiters.
// It reports whether the committed value actually changed.
func (s *slot) commit() bool {
	if s.curr == s.next {
		return false
	}
	s.curr = s.next
	for p, tr := range s.waiters {
		if !tr.filtered || tr.value == s.curr {
			p.status().runnable = true
		}
	}
	return true
}

// State owns the slot table, the pending-change set and the timeline of
// a simulation. Slots are allocated lazily, keyed by signal identity,
// and live for the whole run. The pending set keeps insertion order so
// that everything derived from it, trace output included, is
// deterministic.
//
type State struct {
	timeline *Timeline
	signals  map[*Signal]int
	slots    []*slot
	pending  []*slot
}

// NewState returns an empty simulation state.
//
func NewState() *State {
	return &State{
		timeline: newTimeline(),
		signals:  make(map[*Signal]int),
	}
}

// Timeline returns the state's timeline.
//
func (s *State) Timeline() *Timeline { return s.timeline }

func (s *State) slotOf(sig *Signal) *slot {
	if i, ok := s.signals[sig]; ok {
		return s.slots[i]
	}
	v := sig.Reset & sig.mask()
	sl := &slot{sig: sig, curr: v, next: v, waiters: make(map[Process]trigger)}
	s.signals[sig] = len(s.slots)
	s.slots = append(s.slots, sl)
	return sl
}

// Get returns the committed value of sig. Pending writes are not
// visible until the next commit.
//
func (s *State) Get(sig *Signal) uint64 {
	return s.slotOf(sig).curr
}

// Set schedules v as the next value of sig. Writing the value already
// pending is free; the slot joins the pending set at most once per
// delta cycle.
//
func (s *State) Set(sig *Signal, v uint64) {
	sl := s.slotOf(sig)
	v &= sig.mask()
	if sl.next == v {
		return
	}
	sl.next = v
	if !sl.pending {
		sl.pending = true
		s.pending = append(s.pending, sl)
	}
}

// AddTrigger makes p runnable whenever a commit changes sig.
// Registering the same (process, signal) pair with a different trigger
// is a contract violation.
//
func (s *State) AddTrigger(p Process, sig *Signal) {
	s.addTrigger(p, sig, trigger{})
}

// AddValueTrigger makes p runnable whenever a commit sets sig to v.
//
func (s *State) AddValueTrigger(p Process, sig *Signal, v uint64) {
	s.addTrigger(p, sig, trigger{value: v & sig.mask(), filtered: true})
}

func (s *State) addTrigger(p Process, sig *Signal, tr trigger) {
	sl := s.slotOf(sig)
	if old, ok := sl.waiters[p]; ok && old != tr {
		panic("dsim: conflicting trigger registration on signal " + sig.Name)
	}
	sl.waiters[p] = tr
}

// RemoveTrigger drops the wait registration of p on sig. Removing a
// registration that does not exist is a contract violation.
//
func (s *State) RemoveTrigger(p Process, sig *Signal) {
	sl := s.slotOf(sig)
	if _, ok := sl.waiters[p]; !ok {
		panic("dsim: no trigger registered on signal " + sig.Name)
	}
	delete(sl.waiters, p)
}

// Commit applies all pending writes as one batch and reports whether
// any slot changed. False means the current instant reached its fixed
// point.
//
func (s *State) Commit() bool { return s.commit(nil) }

// commit additionally appends every slot whose committed value changed
// to *changed, in pending order, deduplicated across the delta cycles
// of one step via the slot changed flag.
func (s *State) commit(changed *[]*slot) bool {
	any := false
	for _, sl := range s.pending {
		sl.pending = false
		if sl.commit() {
			any = true
			if changed != nil && !sl.changed {
				sl.changed = true
				*changed = append(*changed, sl)
			}
		}
	}
	s.pending = s.pending[:0]
	return any
}

// Reset rewinds the timeline, restores every known slot to its
// signal's reset value and clears the pending set. Waiter registrations
// persist.
//
func (s *State) Reset() {
	s.timeline.Reset()
	for _, sl := range s.slots {
		v := sl.sig.Reset & sl.sig.mask()
		sl.curr, sl.next = v, v
		sl.pending = false
		sl.changed = false
	}
	s.pending = s.pending[:0]
}
