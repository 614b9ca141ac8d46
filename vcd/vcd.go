// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcd implements a writer for value-change-dump logs and their
// companion viewer save files. Variables are declared first, grouped
// into hierarchical scopes; the header is written out lazily on the
// first value change. Aliases declare an existing variable under an
// additional name and share its identifier code, so aliased signals
// cost a single change record per commit.
package vcd

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrExists is returned when registering a name already taken in the
// same scope.
var ErrExists = errors.New("name already registered in scope")

type varType int

const (
	typeWire varType = iota
	typeString
)

// A Var is a registered trace variable.
//
type Var struct {
	id       string
	width    int
	typ      varType
	initWire uint64
	initStr  string
}

type decl struct {
	v    *Var
	name string
}

type scope struct {
	name string
	subs []*scope
	sub  map[string]*scope
	vars []decl
}

func (s *scope) child(name string) *scope {
	if c, ok := s.sub[name]; ok {
		return c
	}
	c := &scope{name: name, sub: make(map[string]*scope)}
	s.sub[name] = c
	s.subs = append(s.subs, c)
	return c
}

// A Writer emits a value-change-dump log. Registrations must all happen
// before the first change; change timestamps must be non-decreasing.
// Write errors are sticky and also surface from Close.
//
type Writer struct {
	cw        *countWriter
	w         *bufio.Writer
	comment   string
	timescale string
	root      scope
	names     map[string]bool
	vars      []*Var
	header    bool
	t         uint64
	err       error
}

// An Option configures a Writer.
//
type Option func(*Writer)

// Comment sets the free-text header comment.
//
func Comment(c string) Option { return func(w *Writer) { w.comment = c } }

// Timescale sets the declared time resolution. The default is "1 ps".
//
func Timescale(ts string) Option { return func(w *Writer) { w.timescale = ts } }

// New returns a Writer emitting to out.
//
func New(out io.Writer, opts ...Option) *Writer {
	cw := &countWriter{w: out}
	w := &Writer{
		cw:        cw,
		w:         bufio.NewWriter(cw),
		timescale: "1 ps",
		names:     make(map[string]bool),
	}
	w.root.sub = make(map[string]*scope)
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Writer) register(path []string, name string) (*scope, error) {
	if w.header {
		return nil, errors.New("registration after first change")
	}
	key := strings.Join(path, "\x00") + "\x00" + name
	if w.names[key] {
		return nil, errors.Wrapf(ErrExists, "%s.%s", strings.Join(path, "."), name)
	}
	w.names[key] = true
	s := &w.root
	for _, n := range path {
		s = s.child(n)
	}
	return s, nil
}

// Wire registers a bit-vector variable of the given width under the
// scope path, with its initial value. It returns ErrExists (wrapped) if
// the name is taken in that scope.
//
func (w *Writer) Wire(path []string, name string, width int, init uint64) (*Var, error) {
	s, err := w.register(path, name)
	if err != nil {
		return nil, err
	}
	v := &Var{id: idCode(len(w.vars)), width: width, typ: typeWire, initWire: init}
	w.vars = append(w.vars, v)
	s.vars = append(s.vars, decl{v: v, name: name})
	return v, nil
}

// StringVar registers a display-string variable under the scope path.
//
func (w *Writer) StringVar(path []string, name string, init string) (*Var, error) {
	s, err := w.register(path, name)
	if err != nil {
		return nil, err
	}
	v := &Var{id: idCode(len(w.vars)), width: 1, typ: typeString, initStr: init}
	w.vars = append(w.vars, v)
	s.vars = append(s.vars, decl{v: v, name: name})
	return v, nil
}

// Alias declares v under an additional name. The alias shares v's
// identifier code: a change on v updates every alias.
//
func (w *Writer) Alias(path []string, name string, v *Var) error {
	s, err := w.register(path, name)
	if err != nil {
		return err
	}
	s.vars = append(s.vars, decl{v: v, name: name})
	return nil
}

// Change records a new value for a wire variable at time t.
//
func (w *Writer) Change(v *Var, t uint64, val uint64) error {
	if err := w.stamp(t); err != nil {
		return err
	}
	w.writeWire(v, val)
	return w.err
}

// ChangeString records a new value for a string variable at time t.
//
func (w *Writer) ChangeString(v *Var, t uint64, val string) error {
	if err := w.stamp(t); err != nil {
		return err
	}
	w.writeString(v, val)
	return w.err
}

func (w *Writer) stamp(t uint64) error {
	if w.err != nil {
		return w.err
	}
	w.flushHeader()
	if t < w.t {
		w.err = errors.Errorf("out-of-order change at time %d, current time %d", t, w.t)
		return w.err
	}
	if t > w.t {
		w.writeString0("#" + strconv.FormatUint(t, 10) + "\n")
		w.t = t
	}
	return w.err
}

// Close writes the final timestamp and flushes the log.
//
func (w *Writer) Close(t uint64) error {
	if w.err != nil {
		return w.err
	}
	w.flushHeader()
	if t > w.t {
		w.writeString0("#" + strconv.FormatUint(t, 10) + "\n")
		w.t = t
	}
	if err := w.w.Flush(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}

// Size returns the number of bytes written to the underlying writer.
// It is accurate once Close has returned.
//
func (w *Writer) Size() int64 { return w.cw.n }

func (w *Writer) flushHeader() {
	if w.header {
		return
	}
	w.header = true
	if w.comment != "" {
		w.writeString0("$comment " + w.comment + " $end\n")
	}
	w.writeString0("$timescale " + w.timescale + " $end\n")
	for _, s := range w.root.subs {
		w.writeScope(s)
	}
	w.writeString0("$enddefinitions $end\n")
	w.writeString0("#0\n$dumpvars\n")
	for _, v := range w.vars {
		if v.typ == typeString {
			w.writeString(v, v.initStr)
		} else {
			w.writeWire(v, v.initWire)
		}
	}
	w.writeString0("$end\n")
}

func (w *Writer) writeScope(s *scope) {
	w.writeString0("$scope module " + s.name + " $end\n")
	for _, d := range s.vars {
		switch d.v.typ {
		case typeString:
			w.writeString0("$var string 1 " + d.v.id + " " + d.name + " $end\n")
		default:
			w.writeString0("$var wire " + strconv.Itoa(d.v.width) + " " + d.v.id + " " + d.name + " $end\n")
		}
	}
	for _, c := range s.subs {
		w.writeScope(c)
	}
	w.writeString0("$upscope $end\n")
}

func (w *Writer) writeWire(v *Var, val uint64) {
	if v.width == 1 {
		w.writeString0(strconv.FormatUint(val&1, 10) + v.id + "\n")
		return
	}
	w.writeString0("b" + strconv.FormatUint(val, 2) + " " + v.id + "\n")
}

func (w *Writer) writeString(v *Var, val string) {
	w.writeString0("s" + val + " " + v.id + "\n")
}

func (w *Writer) writeString0(s string) {
	if w.err != nil {
		return
	}
	if _, err := w.w.WriteString(s); err != nil {
		w.err = err
	}
}

// idCode returns the identifier code for the n-th variable, using the
// printable characters '!' through '~' as base-94 digits.
func idCode(n int) string {
	var buf [8]byte
	i := 0
	for {
		buf[i] = byte('!' + n%94)
		i++
		n /= 94
		if n == 0 {
			return string(buf[:i])
		}
		n--
	}
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
