// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

package dsim

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hwkit/dsim/vcd"
)

// name extraction

type sigAlias struct {
	scope []string
	name  string
}

func (a sigAlias) path() string {
	return strings.Join(a.scope, ".") + "." + a.name
}

// sigNames accumulates the hierarchical aliases of every signal
// reachable from a fragment, keyed by signal identity, in
// first-encountered order.
type sigNames struct {
	order   []*Signal
	aliases map[*Signal][]sigAlias
	seen    map[*Signal]map[string]bool
}

func newSigNames() *sigNames {
	return &sigNames{
		aliases: make(map[*Signal][]sigAlias),
		seen:    make(map[*Signal]map[string]bool),
	}
}

func (n *sigNames) add(sig *Signal, scope []string, name string) {
	seen := n.seen[sig]
	if seen == nil {
		seen = make(map[string]bool)
		n.seen[sig] = seen
		n.order = append(n.order, sig)
	}
	a := sigAlias{scope: scope, name: name}
	if seen[a.path()] {
		return
	}
	seen[a.path()] = true
	n.aliases[sig] = append(n.aliases[sig], a)
}

// extractNames walks the fragment hierarchy depth-first and records one
// alias per position a signal is reachable from: the clock and reset of
// every driven domain, and every signal read or written by a statement,
// at the hierarchy path of the fragment using it.
func extractNames(f *Fragment, hier []string, domains map[string]*Domain, n *sigNames) {
	scope := make(map[string]*Domain, len(domains)+len(f.domains))
	for name, d := range domains {
		scope[name] = d
	}
	for name, d := range f.domains {
		scope[name] = d
	}

	for _, name := range f.domainNames() {
		if name == CombDomain {
			continue
		}
		if d := scope[name]; d != nil {
			n.add(d.Clk, hier, d.Clk.Name)
			if d.Rst != nil {
				n.add(d.Rst, hier, d.Rst.Name)
			}
		}
	}

	for _, ts := range f.statements {
		for _, sig := range ts.stmt.WrittenSignals() {
			n.add(sig, hier, sig.Name)
		}
		for _, sig := range ts.stmt.ReadSignals() {
			n.add(sig, hier, sig.Name)
		}
	}

	for i, sub := range f.subs {
		name := sub.Name
		if name == "" {
			name = "U$" + strconv.Itoa(i)
		}
		sh := make([]string, len(hier), len(hier)+1)
		copy(sh, hier)
		extractNames(sub.Fragment, append(sh, name), scope, n)
	}
}

// recording

// RecordConfig configures a value-change recording.
//
type RecordConfig struct {
	// VCD receives the value-change log. Required.
	VCD io.Writer
	// Save, if set, receives the companion viewer save file on Close.
	Save io.Writer
	// VCDPath is the log file path referenced by the save file.
	VCDPath string
	// Traces lists signals to display in the save file. Signals not
	// reachable from the fragment are recorded under the root scope.
	Traces []*Signal
	// Comment overrides the log's header comment.
	Comment string
}

// A Recording observes committed changes and appends them to a
// value-change log. It never alters simulation results: it reads
// committed values only.
//
type Recording struct {
	eng       *Engine
	w         *vcd.Writer
	save      io.Writer
	vcdPath   string
	vars      map[*Signal]*vcd.Var
	saveNames map[*Signal]string
	traces    []*Signal
	closed    bool
}

// Record starts recording committed changes. Naming errors (a leaf name
// containing whitespace) and sink errors surface here, before any value
// record is written. The returned Recording must be closed; see also
// WithRecording.
//
func (e *Engine) Record(cfg RecordConfig) (*Recording, error) {
	r, err := newRecording(e.fragment, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start recording")
	}
	r.eng = e
	e.recorders = append(e.recorders, r)
	return r, nil
}

// WithRecording records around fn, closing the log and save files on
// every exit path, including panics.
//
func (e *Engine) WithRecording(cfg RecordConfig, fn func() error) (err error) {
	r, err := e.Record(cfg)
	if err != nil {
		return err
	}
	defer func() {
		cerr := r.Close()
		if err == nil {
			err = cerr
		}
	}()
	return fn()
}

func newRecording(f *Fragment, cfg RecordConfig) (*Recording, error) {
	comment := cfg.Comment
	if comment == "" {
		comment = "Generated by dsim"
	}
	r := &Recording{
		w:         vcd.New(cfg.VCD, vcd.Comment(comment)),
		save:      cfg.Save,
		vcdPath:   cfg.VCDPath,
		vars:      make(map[*Signal]*vcd.Var),
		saveNames: make(map[*Signal]string),
		traces:    cfg.Traces,
	}

	names := newSigNames()
	extractNames(f, []string{"bench", "top"}, nil, names)
	for _, sig := range cfg.Traces {
		if _, ok := names.seen[sig]; !ok {
			names.add(sig, []string{"bench"}, sig.Name)
		}
	}

	for _, sig := range names.order {
		for _, a := range names.aliases[sig] {
			if strings.ContainsAny(a.name, " \t\r\n") {
				return nil, errors.Errorf("signal %q contains a whitespace character", a.path())
			}
			if err := r.declare(sig, a); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// declare registers one alias of sig, resolving in-scope name
// collisions with $1, $2, ... suffixes in first-seen order. The first
// alias becomes the signal's primary variable; later ones share its
// storage under their own name.
func (r *Recording) declare(sig *Signal, a sigAlias) error {
	for suffix := 0; ; suffix++ {
		name := a.name
		if suffix > 0 {
			name += "$" + strconv.Itoa(suffix)
		}
		var err error
		if v, ok := r.vars[sig]; ok {
			err = r.w.Alias(a.scope, name, v)
		} else {
			var v *vcd.Var
			if sig.Decoder != nil {
				v, err = r.w.StringVar(a.scope, name, decodeValue(sig, sig.Reset))
			} else {
				v, err = r.w.Wire(a.scope, name, sig.Width, sig.Reset&sig.mask())
			}
			if err == nil {
				r.vars[sig] = v
			}
		}
		switch {
		case err == nil:
		case errors.Cause(err) == vcd.ErrExists:
			continue
		default:
			return err
		}
		if _, ok := r.saveNames[sig]; !ok {
			r.saveNames[sig] = strings.Join(a.scope, ".") + "." + name
		}
		return nil
	}
}

// update appends one value-change record for sig. Called by the engine
// after each convergent commit, once per changed slot.
func (r *Recording) update(t uint64, sig *Signal, v uint64) {
	vv, ok := r.vars[sig]
	if !ok {
		return
	}
	if sig.Decoder != nil {
		r.w.ChangeString(vv, t, decodeValue(sig, v))
		return
	}
	r.w.Change(vv, t, v)
}

// Close writes the final timestamp, flushes the log, emits the save
// file if one was requested, and detaches from the engine. Closing
// twice is a no-op.
//
func (r *Recording) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	for i, rec := range r.eng.recorders {
		if rec == r {
			r.eng.recorders = append(r.eng.recorders[:i], r.eng.recorders[i+1:]...)
			break
		}
	}

	err := r.w.Close(r.eng.Now())
	if r.save == nil {
		return err
	}

	s := vcd.NewSaveFile(r.save)
	s.Dumpfile(r.vcdPath)
	s.DumpfileSize(r.w.Size())
	s.TreeOpen("top")
	for _, sig := range r.traces {
		suffix := ""
		if sig.Width > 1 && sig.Decoder == nil {
			suffix = "[" + strconv.Itoa(sig.Width-1) + ":0]"
		}
		s.Trace(r.saveNames[sig] + suffix)
	}
	if err == nil {
		err = errors.Wrap(s.Err(), "failed to write save file")
	}
	return err
}

// decodeValue renders v through the signal's decoder, normalizing
// whitespace to underscores so the result is a single log token.
func decodeValue(sig *Signal, v uint64) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, sig.Decoder(v))
}
