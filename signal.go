// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

package dsim

// A Signal represents a single wire or register in a circuit. Signals
// compare by identity: two distinct signals may share the same name and
// width and still denote different pieces of hardware, so always key on
// the *Signal pointer.
//
type Signal struct {
	// Name is the leaf name used when deriving hierarchical trace names.
	Name string
	// Width is the number of bits carried, between 1 and 64.
	Width int
	// Reset is the value the signal settles to on power-up and on reset.
	Reset uint64
	// Decoder, if set, maps a value to a display string. Signals with a
	// decoder are traced as string variables instead of bit vectors.
	Decoder func(v uint64) string
}

// NewSignal returns a new width-bit signal with a reset value of 0.
//
func NewSignal(name string, width int) *Signal {
	if width < 1 || width > 64 {
		panic("dsim: signal width out of range: " + name)
	}
	return &Signal{Name: name, Width: width}
}

// NewDecodedSignal returns a new signal rendered through dec in trace
// output. Enumeration-style state signals are the typical use.
//
func NewDecodedSignal(name string, width int, dec func(uint64) string) *Signal {
	s := NewSignal(name, width)
	s.Decoder = dec
	return s
}

// mask returns the bit mask selecting the signal's Width low bits.
func (s *Signal) mask() uint64 {
	if s.Width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(s.Width) - 1
}

// A Domain groups synchronous logic sharing one clock signal and an
// optional reset signal.
//
type Domain struct {
	Name string
	Clk  *Signal
	Rst  *Signal // nil for domains without a reset
}
