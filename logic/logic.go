// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

// Package logic provides ready-made fragment statements for common
// combinational and sequential building blocks. It is a convenience for
// tests and demos; real designs come out of an elaboration pass.
package logic

import "github.com/hwkit/dsim"

// Not drives dst with the bitwise complement of a.
//
func Not(dst, a *dsim.Signal) *dsim.Assign {
	return &dsim.Assign{Dst: dst, Srcs: []*dsim.Signal{a},
		Fn: func(v []uint64) uint64 { return ^v[0] }}
}

// And drives dst with a AND b.
//
func And(dst, a, b *dsim.Signal) *dsim.Assign {
	return &dsim.Assign{Dst: dst, Srcs: []*dsim.Signal{a, b},
		Fn: func(v []uint64) uint64 { return v[0] & v[1] }}
}

// Or drives dst with a OR b.
//
func Or(dst, a, b *dsim.Signal) *dsim.Assign {
	return &dsim.Assign{Dst: dst, Srcs: []*dsim.Signal{a, b},
		Fn: func(v []uint64) uint64 { return v[0] | v[1] }}
}

// Xor drives dst with a XOR b.
//
func Xor(dst, a, b *dsim.Signal) *dsim.Assign {
	return &dsim.Assign{Dst: dst, Srcs: []*dsim.Signal{a, b},
		Fn: func(v []uint64) uint64 { return v[0] ^ v[1] }}
}

// Mux drives dst with a when sel is 0 and b otherwise.
//
func Mux(dst, a, b, sel *dsim.Signal) *dsim.Assign {
	return &dsim.Assign{Dst: dst, Srcs: []*dsim.Signal{a, b, sel},
		Fn: func(v []uint64) uint64 {
			if v[2] != 0 {
				return v[1]
			}
			return v[0]
		}}
}

// Adder drives dst with a + b, truncated to dst's width.
//
func Adder(dst, a, b *dsim.Signal) *dsim.Assign {
	return &dsim.Assign{Dst: dst, Srcs: []*dsim.Signal{a, b},
		Fn: func(v []uint64) uint64 { return v[0] + v[1] }}
}

// Inc drives dst with a + 1, truncated to dst's width.
//
func Inc(dst, a *dsim.Signal) *dsim.Assign {
	return &dsim.Assign{Dst: dst, Srcs: []*dsim.Signal{a},
		Fn: func(v []uint64) uint64 { return v[0] + 1 }}
}

// Reg drives q from d. Add it to a synchronous domain to get a D
// register: q takes d's value at every rising clock edge.
//
func Reg(q, d *dsim.Signal) *dsim.Assign {
	return &dsim.Assign{Dst: q, Srcs: []*dsim.Signal{d},
		Fn: func(v []uint64) uint64 { return v[0] }}
}
