// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

package dsim

import "iter"

// procStatus holds the scheduling flags shared by every process kind.
// The unexported accessor keeps the set of process variants closed:
// external code creates processes through NewLogicProcess, AddClock and
// AddTestbench instead of implementing the interface directly.
type procStatus struct {
	runnable bool
	passive  bool
}

func (s *procStatus) status() *procStatus { return s }

// A Process is a unit of execution driven by the engine. Run executes
// one resumption; it must not block. Reset restores the process to its
// initial state. A passive process does not keep the run loop alive on
// its own.
//
type Process interface {
	Run()
	Reset()

	status() *procStatus
}

// logic process

type logicProcess struct {
	procStatus
	run func()
}

// NewLogicProcess wraps a compiled evaluation function into a passive
// process that is runnable from the start. Process compilers use it to
// back each compiled logic block; the compiler is responsible for
// registering one trigger per input signal so the process reruns
// whenever an input commits a change.
//
func NewLogicProcess(run func()) Process {
	p := &logicProcess{run: run}
	p.Reset()
	return p
}

func (p *logicProcess) Run() { p.run() }

func (p *logicProcess) Reset() {
	p.runnable = true
	p.passive = true
}

// clock process

type clockProcess struct {
	procStatus
	state   *State
	sig     *Signal
	phase   uint64
	period  uint64
	initial bool
}

func newClockProcess(state *State, sig *Signal, phase, period uint64) *clockProcess {
	p := &clockProcess{state: state, sig: sig, phase: phase, period: period}
	p.Reset()
	return p
}

func (p *clockProcess) Reset() {
	p.runnable = true
	// Synchronous logic depends on the clock, so its presence alone
	// keeps the simulation alive.
	p.passive = false
	p.initial = true
}

func (p *clockProcess) Run() {
	if p.initial {
		p.initial = false
		p.state.timeline.Delay(p, p.phase)
		return
	}
	p.state.Set(p.sig, p.state.Get(p.sig)^1)
	p.state.timeline.Delay(p, p.period/2)
}

// coroutine testbench process

// A TestbenchFunc is the body of a testbench. It runs step by step
// under engine control and suspends at every Testbench wait call.
//
type TestbenchFunc func(tb *Testbench)

type cmdKind int

const (
	cmdSettle cmdKind = iota
	cmdDelay
	cmdWaitEdge
	cmdTick
)

type coroCommand struct {
	kind   cmdKind
	delay  uint64
	sig    *Signal
	value  uint64
	domain string
}

// tbStop is the panic value used to unwind a testbench whose coroutine
// has been stopped by Reset.
type tbStop struct{}

type coroProcess struct {
	procStatus
	state    *State
	domains  map[string]*Domain
	fn       TestbenchFunc
	passive0 bool

	next  func() (coroCommand, bool)
	stop  func()
	armed []*Signal
}

func newCoroProcess(state *State, domains map[string]*Domain, fn TestbenchFunc, passive bool) *coroProcess {
	p := &coroProcess{state: state, domains: domains, fn: fn, passive0: passive}
	p.Reset()
	return p
}

func (p *coroProcess) Reset() {
	// Disarm the triggers of an interrupted wait; waiter registrations
	// survive a state reset and would otherwise conflict with the
	// restarted bench's own.
	for _, sig := range p.armed {
		p.state.RemoveTrigger(p, sig)
	}
	if p.stop != nil {
		p.stop()
	}
	seq := func(yield func(coroCommand) bool) {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(tbStop); !ok {
					panic(r)
				}
			}
		}()
		p.fn(&Testbench{state: p.state, yield: yield})
	}
	p.next, p.stop = iter.Pull(seq)
	p.runnable = true
	p.passive = p.passive0
	p.armed = nil
}

func (p *coroProcess) Run() {
	// Drop the triggers armed for the wait that just completed.
	for _, sig := range p.armed {
		p.state.RemoveTrigger(p, sig)
	}
	p.armed = p.armed[:0]

	cmd, ok := p.next()
	if !ok {
		// The bench ran to completion; it must not keep the run loop
		// alive anymore.
		p.passive = true
		return
	}
	switch cmd.kind {
	case cmdSettle:
		p.state.timeline.Settle(p)
	case cmdDelay:
		p.state.timeline.Delay(p, cmd.delay)
	case cmdWaitEdge:
		p.state.AddValueTrigger(p, cmd.sig, cmd.value)
		p.armed = append(p.armed, cmd.sig)
	case cmdTick:
		d := p.domains[cmd.domain]
		if d == nil {
			panic("dsim: unknown clock domain " + cmd.domain)
		}
		p.state.AddValueTrigger(p, d.Clk, 1)
		p.armed = append(p.armed, d.Clk)
		if d.Rst != nil {
			p.state.AddValueTrigger(p, d.Rst, 1)
			p.armed = append(p.armed, d.Rst)
		}
	}
}

// A Testbench is the handle a TestbenchFunc drives the simulation
// with. Reads return committed values, writes are queued for the next
// commit, and the wait methods suspend the bench until the engine
// resumes it.
//
type Testbench struct {
	state *State
	yield func(coroCommand) bool
}

// Get returns the committed value of sig.
//
func (tb *Testbench) Get(sig *Signal) uint64 { return tb.state.Get(sig) }

// Set queues v as the next value of sig.
//
func (tb *Testbench) Set(sig *Signal, v uint64) { tb.state.Set(sig, v) }

// Settle suspends the bench until pending changes have committed at the
// current instant.
//
func (tb *Testbench) Settle() { tb.wait(coroCommand{kind: cmdSettle}) }

// Delay suspends the bench for d time units.
//
func (tb *Testbench) Delay(d uint64) { tb.wait(coroCommand{kind: cmdDelay, delay: d}) }

// WaitEdge suspends the bench until a commit sets sig to v.
//
func (tb *Testbench) WaitEdge(sig *Signal, v uint64) {
	tb.wait(coroCommand{kind: cmdWaitEdge, sig: sig, value: v})
}

// Tick suspends the bench until the rising edge of the named domain's
// clock, or the assertion of its reset if it has one.
//
func (tb *Testbench) Tick(domain string) {
	tb.wait(coroCommand{kind: cmdTick, domain: domain})
}

func (tb *Testbench) wait(cmd coroCommand) {
	if !tb.yield(cmd) {
		panic(tbStop{})
	}
}
