// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package dsim implements a discrete-event simulator for synchronous
digital circuits described as elaborated logic fragments.

The engine runs a set of cooperating processes (compiled logic, clocks
and coroutine testbenches) over a table of signal slots. Within one
simulated instant it alternates eval and commit phases until the
circuit settles (delta cycles), records committed changes, then asks
the timeline for the next wake set. The whole simulation is
single-threaded and deterministic: two runs over the same graph and
process set produce identical sequences of committed changes and
bit-identical trace output.

*/
package dsim
