package dsim_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hwkit/dsim"
	"github.com/hwkit/dsim/logic"
)

// dffCircuit is the end-to-end reference design: a D flip-flop in a
// clocked domain with synchronous reset.
func dffCircuit() (f *dsim.Fragment, clk, rst, d, q *dsim.Signal) {
	clk = dsim.NewSignal("clk", 1)
	rst = dsim.NewSignal("rst", 1)
	d = dsim.NewSignal("d", 1)
	q = dsim.NewSignal("q", 1)
	f = dsim.NewFragment()
	f.AddDomain(&dsim.Domain{Name: "sync", Clk: clk, Rst: rst})
	f.AddStatement("sync", logic.Reg(q, d))
	return f, clk, rst, d, q
}

func TestEngine_dff(t *testing.T) {
	f, clk, _, d, q := dffCircuit()
	e, err := dsim.New(f)
	require.NoError(t, err)
	require.NoError(t, e.AddClock(clk, 0, 10))

	var beforeEdge, afterEdge uint64
	done := false
	e.AddTestbench(func(tb *dsim.Testbench) {
		tb.Set(d, 1)
		beforeEdge = tb.Get(q)
		tb.Tick("sync")
		tb.Settle()
		afterEdge = tb.Get(q)
		done = true
	}, false)

	e.Run(10)
	require.True(t, done)
	require.Equal(t, uint64(0), beforeEdge, "Q must hold its reset value before the first rising edge")
	require.Equal(t, uint64(1), afterEdge, "Q must take D at the first rising edge")
}

func TestEngine_convergence(t *testing.T) {
	// acyclic chain of inverters: one input change settles the whole
	// chain within a single instant
	a := dsim.NewSignal("a", 1)
	n1 := dsim.NewSignal("n1", 1)
	n2 := dsim.NewSignal("n2", 1)
	n3 := dsim.NewSignal("n3", 1)
	f := dsim.NewFragment()
	f.AddStatement(dsim.CombDomain, logic.Not(n1, a))
	f.AddStatement(dsim.CombDomain, logic.Not(n2, n1))
	f.AddStatement(dsim.CombDomain, logic.Not(n3, n2))

	e, err := dsim.New(f)
	require.NoError(t, err)

	var got [3]uint64
	done := false
	e.AddTestbench(func(tb *dsim.Testbench) {
		tb.Set(a, 1)
		tb.Settle()
		got[0] = tb.Get(n1)
		got[1] = tb.Get(n2)
		got[2] = tb.Get(n3)
		done = true
	}, false)

	e.Run(10)
	require.True(t, done)
	require.Equal(t, [3]uint64{0, 1, 0}, got)
	require.Equal(t, uint64(0), e.Now(), "combinational settling must not move time")
}

func TestEngine_clockKeepsRunAlive(t *testing.T) {
	f, clk, _, _, _ := dffCircuit()
	e, err := dsim.New(f)
	require.NoError(t, err)
	require.NoError(t, e.AddClock(clk, 0, 10))

	// no testbench at all: the clock alone keeps the run going
	require.Equal(t, 50, e.Run(50))
	require.Equal(t, uint64(5*49), e.Now())
}

func TestEngine_clockPeriodValidation(t *testing.T) {
	f, clk, _, _, _ := dffCircuit()
	e, err := dsim.New(f)
	require.NoError(t, err)
	require.Error(t, e.AddClock(clk, 0, 1))
}

func TestEngine_passiveBenchDoesNotKeepRunAlive(t *testing.T) {
	f := dsim.NewFragment()
	e, err := dsim.New(f)
	require.NoError(t, err)
	e.AddTestbench(func(tb *dsim.Testbench) {
		tb.Delay(100)
	}, true)

	// the pending delay is a future event; once it fires and the bench
	// finishes, nothing remains
	n := e.Run(100)
	require.Less(t, n, 100)
	require.Equal(t, uint64(100), e.Now())
}

func TestEngine_nonPassiveBenchKeepsRunAlive(t *testing.T) {
	f := dsim.NewFragment()
	e, err := dsim.New(f)
	require.NoError(t, err)
	steps := 0
	e.AddTestbench(func(tb *dsim.Testbench) {
		for i := 0; i < 3; i++ {
			tb.Delay(2)
			steps++
		}
	}, false)

	e.Run(100)
	require.Equal(t, 3, steps)
	require.Equal(t, uint64(6), e.Now())
}

func TestEngine_determinism(t *testing.T) {
	run := func() []byte {
		f, clk, _, d, q := dffCircuit()
		e, err := dsim.New(f)
		require.NoError(t, err)
		require.NoError(t, e.AddClock(clk, 0, 10))
		e.AddTestbench(func(tb *dsim.Testbench) {
			for i := 0; i < 8; i++ {
				tb.Set(d, tb.Get(q)^1)
				tb.Tick("sync")
				tb.Settle()
			}
		}, false)

		var buf bytes.Buffer
		err = e.WithRecording(dsim.RecordConfig{
			VCD:     &buf,
			VCDPath: "determinism.vcd",
			Traces:  []*dsim.Signal{clk, d, q},
		}, func() error {
			e.Run(64)
			return nil
		})
		require.NoError(t, err)
		return buf.Bytes()
	}

	first := run()
	require.NotEmpty(t, first)
	require.Equal(t, first, run(), "independent runs must produce identical traces")
}

func TestEngine_reset(t *testing.T) {
	clk := dsim.NewSignal("clk", 1)
	count := dsim.NewSignal("count", 4)
	f := dsim.NewFragment()
	f.AddDomain(&dsim.Domain{Name: "sync", Clk: clk})
	f.AddStatement("sync", logic.Inc(count, count))

	e, err := dsim.New(f)
	require.NoError(t, err)
	require.NoError(t, e.AddClock(clk, 0, 10))

	e.Run(20)
	require.NotEqual(t, uint64(0), e.Now())
	final := e.State().Get(count)
	require.NotEqual(t, uint64(0), final)

	e.Reset()
	require.Equal(t, uint64(0), e.Now())
	require.Equal(t, uint64(0), e.State().Get(count))
	require.Equal(t, uint64(0), e.State().Get(clk))
	require.Equal(t, 0, e.State().Timeline().Len())

	e.Run(20)
	require.Equal(t, final, e.State().Get(count), "a reset run must replay identically")
}

type opaqueStatement struct{ sig *dsim.Signal }

func (s *opaqueStatement) ReadSignals() []*dsim.Signal    { return nil }
func (s *opaqueStatement) WrittenSignals() []*dsim.Signal { return []*dsim.Signal{s.sig} }

func TestEngine_compileRejectsOpaqueStatements(t *testing.T) {
	f := dsim.NewFragment()
	f.AddStatement(dsim.CombDomain, &opaqueStatement{sig: dsim.NewSignal("x", 1)})
	_, err := dsim.New(f)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not evaluable")
}

func TestEngine_unknownDomainFailsCompile(t *testing.T) {
	q := dsim.NewSignal("q", 1)
	f := dsim.NewFragment()
	f.AddStatement("ghost", logic.Reg(q, q))
	_, err := dsim.New(f)
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown domain "ghost"`)
}

func TestEngine_subfragmentDomainsInherit(t *testing.T) {
	clk := dsim.NewSignal("clk", 1)
	d := dsim.NewSignal("d", 1)
	q := dsim.NewSignal("q", 1)

	sub := dsim.NewFragment()
	sub.AddStatement("sync", logic.Reg(q, d))

	top := dsim.NewFragment()
	top.AddDomain(&dsim.Domain{Name: "sync", Clk: clk})
	top.AddSubfragment(sub, "u0")

	e, err := dsim.New(top)
	require.NoError(t, err)
	require.NoError(t, e.AddClock(clk, 0, 4))

	done := false
	e.AddTestbench(func(tb *dsim.Testbench) {
		tb.Set(d, 1)
		tb.Tick("sync")
		tb.Settle()
		require.Equal(t, uint64(1), tb.Get(q))
		done = true
	}, false)
	e.Run(10)
	require.True(t, done)
}
