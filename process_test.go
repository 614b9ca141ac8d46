package dsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClockProcess_phaseAndToggling(t *testing.T) {
	st := NewState()
	clk := NewSignal("clk", 1)
	p := newClockProcess(st, clk, 2, 10)

	require.True(t, p.status().runnable)
	require.False(t, p.status().passive)

	// initial run only arms the phase delay
	p.status().runnable = false
	p.Run()
	st.Commit()
	require.Equal(t, uint64(0), st.Get(clk))

	require.True(t, st.Timeline().Advance())
	require.Equal(t, uint64(2), st.Timeline().Now())
	require.True(t, p.status().runnable)

	want := uint64(1)
	for i := 0; i < 4; i++ {
		p.status().runnable = false
		p.Run()
		st.Commit()
		require.Equal(t, want, st.Get(clk))
		require.True(t, st.Timeline().Advance())
		require.Equal(t, uint64(2+5*(i+1)), st.Timeline().Now())
		want ^= 1
	}
}

func TestCoroProcess_settleAndDelay(t *testing.T) {
	st := NewState()
	a := NewSignal("a", 1)
	var seen []uint64
	p := newCoroProcess(st, nil, func(tb *Testbench) {
		tb.Set(a, 1)
		tb.Settle()
		seen = append(seen, tb.Get(a))
		tb.Delay(7)
		seen = append(seen, tb.Get(a))
	}, false)

	p.status().runnable = false
	p.Run() // runs up to Settle
	st.Commit()
	require.True(t, st.Timeline().Advance())
	require.Equal(t, uint64(0), st.Timeline().Now())

	p.status().runnable = false
	p.Run() // observes the settled value, arms the delay
	require.Equal(t, []uint64{1}, seen)
	require.True(t, st.Timeline().Advance())
	require.Equal(t, uint64(7), st.Timeline().Now())

	p.status().runnable = false
	p.Run() // finishes
	require.Equal(t, []uint64{1, 1}, seen)
	require.True(t, p.status().passive, "a finished bench must not keep the run loop alive")
}

func TestCoroProcess_waitEdgeArmsAndClearsTriggers(t *testing.T) {
	st := NewState()
	a := NewSignal("a", 1)
	p := newCoroProcess(st, nil, func(tb *Testbench) {
		tb.WaitEdge(a, 1)
		tb.WaitEdge(a, 0)
	}, false)

	p.status().runnable = false
	p.Run()
	sl := st.slotOf(a)
	require.Equal(t, trigger{value: 1, filtered: true}, sl.waiters[p])

	st.Set(a, 1)
	st.Commit()
	require.True(t, p.status().runnable)

	// resuming swaps the armed trigger for the next wait's
	p.status().runnable = false
	p.Run()
	require.Equal(t, trigger{value: 0, filtered: true}, sl.waiters[p])
}

func TestCoroProcess_tickUnknownDomainPanics(t *testing.T) {
	st := NewState()
	p := newCoroProcess(st, nil, func(tb *Testbench) {
		tb.Tick("nosuch")
	}, false)
	p.status().runnable = false
	require.Panics(t, func() { p.Run() })
}

func TestCoroProcess_resetDisarmsPendingWait(t *testing.T) {
	st := NewState()
	a := NewSignal("a", 1)
	p := newCoroProcess(st, nil, func(tb *Testbench) {
		tb.WaitEdge(a, 1)
	}, true)

	p.status().runnable = false
	p.Run() // suspended on the edge wait
	require.Contains(t, st.slotOf(a).waiters, Process(p))

	st.Reset()
	p.Reset()
	require.NotContains(t, st.slotOf(a).waiters, Process(p))

	// the restarted bench re-arms the same wait without conflict
	p.status().runnable = false
	require.NotPanics(t, func() { p.Run() })
}

func TestCoroProcess_resetRestartsFromTheTop(t *testing.T) {
	st := NewState()
	starts := 0
	p := newCoroProcess(st, nil, func(tb *Testbench) {
		starts++
		tb.Delay(1)
		tb.Delay(1)
	}, true)

	p.status().runnable = false
	p.Run()
	require.Equal(t, 1, starts)

	st.Reset()
	p.Reset()
	require.True(t, p.status().runnable)
	require.True(t, p.status().passive)

	p.status().runnable = false
	p.Run()
	require.Equal(t, 2, starts)
}
