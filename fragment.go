// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

package dsim

import "sort"

// A Statement is one element of a fragment's logic, exposing the
// signals it reads and writes. The engine never evaluates statements
// itself; that is the process compiler's job.
//
type Statement interface {
	ReadSignals() []*Signal
	WrittenSignals() []*Signal
}

// An Evaluator is a statement the built-in process compiler can run.
// Eval must read inputs through get (committed values only) and drive
// outputs through set.
//
type Evaluator interface {
	Statement
	Eval(get func(*Signal) uint64, set func(*Signal, uint64))
}

// Assign drives Dst with Fn applied to the current values of Srcs.
//
type Assign struct {
	Dst  *Signal
	Srcs []*Signal
	Fn   func(v []uint64) uint64
}

// ReadSignals returns the source signals.
func (a *Assign) ReadSignals() []*Signal { return a.Srcs }

// WrittenSignals returns the driven signal.
func (a *Assign) WrittenSignals() []*Signal { return []*Signal{a.Dst} }

// Eval implements Evaluator.
func (a *Assign) Eval(get func(*Signal) uint64, set func(*Signal, uint64)) {
	v := make([]uint64, len(a.Srcs))
	for i, s := range a.Srcs {
		v[i] = get(s)
	}
	set(a.Dst, a.Fn(v))
}

// A Subfragment is a child fragment together with its instance name.
// An empty name gets a synthesized placeholder in trace hierarchies.
//
type Subfragment struct {
	Fragment *Fragment
	Name     string
}

// CombDomain is the domain name of combinational statements.
const CombDomain = ""

type taggedStatement struct {
	domain string
	stmt   Statement
}

// A Fragment is a node of the elaborated logic graph: domains, logic
// statements tagged with the domain driving them, per-domain driver
// sets and child fragments. Fragments are built by an external
// elaboration pass and consumed read-only by the engine; the engine
// trusts the graph is valid (single driver per signal, no
// combinational loops).
//
type Fragment struct {
	domains    map[string]*Domain
	drivers    map[string][]*Signal
	driverSeen map[string]map[*Signal]bool
	statements []taggedStatement
	subs       []Subfragment
}

// NewFragment returns an empty fragment.
//
func NewFragment() *Fragment {
	return &Fragment{
		domains:    make(map[string]*Domain),
		drivers:    make(map[string][]*Signal),
		driverSeen: make(map[string]map[*Signal]bool),
	}
}

// AddDomain registers a clock domain. Adding two domains with the same
// name is a contract violation.
//
func (f *Fragment) AddDomain(d *Domain) {
	if _, ok := f.domains[d.Name]; ok {
		panic("dsim: duplicate domain " + d.Name)
	}
	f.domains[d.Name] = d
}

// AddStatement appends a statement driven by the named domain.
// Use CombDomain for combinational logic. The signals written by the
// statement are recorded in the domain's driver set.
//
func (f *Fragment) AddStatement(domain string, st Statement) {
	f.statements = append(f.statements, taggedStatement{domain: domain, stmt: st})
	seen := f.driverSeen[domain]
	if seen == nil {
		seen = make(map[*Signal]bool)
		f.driverSeen[domain] = seen
	}
	for _, sig := range st.WrittenSignals() {
		if !seen[sig] {
			seen[sig] = true
			f.drivers[domain] = append(f.drivers[domain], sig)
		}
	}
}

// AddSubfragment appends a child fragment under the given instance name.
//
func (f *Fragment) AddSubfragment(sub *Fragment, name string) {
	f.subs = append(f.subs, Subfragment{Fragment: sub, Name: name})
}

// Domain returns the named domain, or nil.
//
func (f *Fragment) Domain(name string) *Domain { return f.domains[name] }

// Drivers returns the signals driven in the named domain, in first-use
// order.
//
func (f *Fragment) Drivers(domain string) []*Signal { return f.drivers[domain] }

// Subfragments returns the child fragments in insertion order.
//
func (f *Fragment) Subfragments() []Subfragment { return f.subs }

// Statements returns the fragment's statements in insertion order.
//
func (f *Fragment) Statements() []Statement {
	sts := make([]Statement, len(f.statements))
	for i, ts := range f.statements {
		sts[i] = ts.stmt
	}
	return sts
}

// domainNames returns the statement domain names in sorted order, so
// that walks over the per-domain maps stay deterministic.
func (f *Fragment) domainNames() []string {
	names := make([]string, 0, len(f.drivers))
	for n := range f.drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// statementsIn returns the statements driven by the named domain, in
// insertion order.
func (f *Fragment) statementsIn(domain string) []Statement {
	var sts []Statement
	for _, ts := range f.statements {
		if ts.domain == domain {
			sts = append(sts, ts.stmt)
		}
	}
	return sts
}
