package interference

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickc/lowcore/internal/liveness"
)

func TestNoopAllocatorGivesEachVarItsOwnRegister(t *testing.T) {
	a := NewNoop(7)
	r1 := a.Get(i32(1))
	r2 := a.Get(i32(2))
	require.NotEqual(t, r1, r2)
	require.Equal(t, r1, a.Get(i32(1)), "same var must yield the same register on repeated lookups")
}

func TestFullAllocatorCoalescesMergedVars(t *testing.T) {
	fn := jumpWithArg()
	live := liveness.Analyze(fn)
	a, diags := NewFull(fn, live)
	require.Empty(t, diags)
	require.Equal(t, a.Get(i32(1)), a.Get(i32(2)), "coalesced variables must resolve to the same register")
}

func TestGetDoublePanicsOnI32(t *testing.T) {
	a := NewNoop(0)
	require.Panics(t, func() { a.GetDouble(i32(1)) })
}

func TestGetPanicsOnI64(t *testing.T) {
	a := NewNoop(0)
	require.Panics(t, func() { a.Get(i64(1)) })
}

func TestGetDoubleHalvesShareRepIDButDiffer(t *testing.T) {
	a := NewNoop(3)
	d := a.GetDouble(i64(9))
	require.Equal(t, d.Lo.RepID, d.Hi.RepID)
	require.NotEqual(t, d.Lo, d.Hi)
}

func TestConstPoolRecordsDistinctValues(t *testing.T) {
	a := NewNoop(0)
	a.GetConst(5)
	a.GetConst(5)
	a.GetConst(6)
	pool := a.ConstPool()
	require.Len(t, pool, 2)
	_, ok := pool[5]
	require.True(t, ok)
}

func TestGetTempProducesFreshRegistersEachCall(t *testing.T) {
	a := NewNoop(0)
	t1 := a.GetTemp()
	t2 := a.GetTemp()
	require.NotEqual(t, t1, t2)
}
