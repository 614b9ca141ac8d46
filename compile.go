// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

package dsim

import "github.com/pkg/errors"

// A ProcessCompiler turns an elaborated fragment into the processes
// that evaluate its logic. Implementations must register one trigger on
// st per relevant input signal of each returned process.
//
type ProcessCompiler func(f *Fragment, st *State) ([]Process, error)

// CompileFragment is the built-in process compiler. It walks the
// fragment hierarchy depth-first and emits, per fragment, one process
// for its combinational statements (rerun whenever any read signal
// changes) and one process per synchronous domain (run on the rising
// edge of the domain clock; while the domain reset is asserted the
// driven signals are forced back to their reset values).
//
// All statements must implement Evaluator.
//
func CompileFragment(f *Fragment, st *State) ([]Process, error) {
	return compileFragment(f, st, nil)
}

func compileFragment(f *Fragment, st *State, domains map[string]*Domain) ([]Process, error) {
	scope := make(map[string]*Domain, len(domains)+len(f.domains))
	for n, d := range domains {
		scope[n] = d
	}
	for n, d := range f.domains {
		scope[n] = d
	}

	var procs []Process
	for _, name := range f.domainNames() {
		stmts, err := evaluators(f.statementsIn(name))
		if err != nil {
			return nil, err
		}
		if len(stmts) == 0 {
			continue
		}
		if name == CombDomain {
			procs = append(procs, compileComb(stmts, st))
			continue
		}
		d := scope[name]
		if d == nil {
			return nil, errors.Errorf("compile: unknown domain %q", name)
		}
		procs = append(procs, compileSync(d, stmts, f.Drivers(name), st))
	}

	for _, sub := range f.subs {
		sp, err := compileFragment(sub.Fragment, st, scope)
		if err != nil {
			return nil, err
		}
		procs = append(procs, sp...)
	}
	return procs, nil
}

func evaluators(stmts []Statement) ([]Evaluator, error) {
	evs := make([]Evaluator, 0, len(stmts))
	for _, s := range stmts {
		ev, ok := s.(Evaluator)
		if !ok {
			return nil, errors.Errorf("compile: statement %T is not evaluable", s)
		}
		evs = append(evs, ev)
	}
	return evs, nil
}

// compileComb builds the process evaluating a fragment's combinational
// statements and wires one any-change trigger per distinct read signal.
func compileComb(stmts []Evaluator, st *State) Process {
	p := NewLogicProcess(func() {
		for _, s := range stmts {
			s.Eval(st.Get, st.Set)
		}
	})
	seen := make(map[*Signal]bool)
	for _, s := range stmts {
		for _, sig := range s.ReadSignals() {
			if !seen[sig] {
				seen[sig] = true
				st.AddTrigger(p, sig)
			}
		}
	}
	return p
}

// compileSync builds the process evaluating one synchronous domain,
// triggered on the rising edge of the domain clock. The clock guard
// skips the initial settle run at time 0.
func compileSync(d *Domain, stmts []Evaluator, driven []*Signal, st *State) Process {
	p := NewLogicProcess(func() {
		if st.Get(d.Clk) != 1 {
			return
		}
		if d.Rst != nil && st.Get(d.Rst) == 1 {
			for _, sig := range driven {
				st.Set(sig, sig.Reset)
			}
			return
		}
		for _, s := range stmts {
			s.Eval(st.Get, st.Set)
		}
	})
	st.AddValueTrigger(p, d.Clk, 1)
	return p
}
