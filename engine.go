// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

package dsim

import "github.com/pkg/errors"

type config struct {
	compiler ProcessCompiler
}

// An Option configures an Engine.
//
type Option func(*config)

// WithCompiler selects the process compiler used to turn the fragment
// into compiled logic processes. The default is CompileFragment.
//
func WithCompiler(c ProcessCompiler) Option {
	return func(cfg *config) { cfg.compiler = c }
}

// An Engine runs a discrete-event simulation over an elaborated
// fragment. It owns the simulation state and the process set, and
// advances the simulation one instant at a time, letting combinational
// logic settle through delta cycles before time moves.
//
// An Engine is not safe for concurrent use; the whole simulation is
// single-threaded and cooperative by design.
//
type Engine struct {
	state     *State
	fragment  *Fragment
	processes []Process
	recorders []*Recording
}

// New builds an engine for the given fragment. The fragment is consumed
// read-only; its statements are compiled into processes immediately.
//
func New(f *Fragment, opts ...Option) (*Engine, error) {
	cfg := config{compiler: CompileFragment}
	for _, o := range opts {
		o(&cfg)
	}
	st := NewState()
	procs, err := cfg.compiler(f, st)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile fragment")
	}
	return &Engine{state: st, fragment: f, processes: procs}, nil
}

// State returns the engine's simulation state. Processes added through
// AddTestbench and AddClock share it.
//
func (e *Engine) State() *State { return e.state }

// AddTestbench adds a coroutine testbench process. A passive bench does
// not keep the run loop alive on its own. Benches must be added before
// the run loop starts.
//
func (e *Engine) AddTestbench(fn TestbenchFunc, passive bool) {
	e.processes = append(e.processes, newCoroProcess(e.state, e.fragment.domains, fn, passive))
}

// AddClock adds a clock process driving sig: the signal first toggles
// at time phase, then every period/2. The period must be at least 2.
//
func (e *Engine) AddClock(sig *Signal, phase, period uint64) error {
	if period < 2 {
		return errors.Errorf("clock period %d too short", period)
	}
	e.processes = append(e.processes, newClockProcess(e.state, sig, phase, period))
	return nil
}

// Now returns the current simulation time.
//
func (e *Engine) Now() uint64 { return e.state.timeline.Now() }

// Reset rewinds the simulation to time 0: every slot returns to its
// reset value, the timeline empties and every process restarts.
//
func (e *Engine) Reset() {
	e.state.Reset()
	for _, p := range e.processes {
		p.Reset()
	}
}

// step performs the delta cycles of one instant: run every runnable
// process, commit the pending changes as one batch, and repeat until a
// commit changes nothing. Changed slots are then handed to the active
// recorders, once each, in first-change order.
func (e *Engine) step() {
	var changed []*slot
	cp := (*[]*slot)(nil)
	if len(e.recorders) > 0 {
		cp = &changed
	}

	for {
		for _, p := range e.processes {
			if st := p.status(); st.runnable {
				st.runnable = false
				p.Run()
			}
		}
		if !e.state.commit(cp) {
			break
		}
	}

	for _, sl := range changed {
		sl.changed = false
		for _, r := range e.recorders {
			r.update(e.Now(), sl.sig, sl.curr)
		}
	}
}

// Advance settles the current instant and then wakes the next cohort of
// waiting processes, moving time forward unless a zero-delay waiter
// exists. It reports whether the run should continue: true iff a
// non-passive process still exists or a future event is still
// scheduled.
//
func (e *Engine) Advance() bool {
	e.step()
	e.state.timeline.Advance()
	for _, p := range e.processes {
		if !p.status().passive {
			return true
		}
	}
	return e.state.timeline.Len() > 0
}

// Run calls Advance until it reports false or limit calls were made.
// It returns the number of calls.
//
func (e *Engine) Run(limit int) int {
	n := 0
	for n < limit && e.Advance() {
		n++
	}
	return n
}
