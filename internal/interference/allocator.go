package interference

import (
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/liveness"
	"github.com/tickc/lowcore/internal/ssa"
)

// Allocator is the interface the emitter uses to obtain registers for SSA
// variables and scratch temps, regardless of which of the two allocation
// strategies (no-op or full coalescing) is in effect. Go has no "select by value"
// static-dispatch trick the design note's source language used, so here
// the two strategies are two constructors of the same concrete Allocator
// type: NewNoop and NewFull both close over a strategy-specific lookup but
// expose identical methods, keeping the emitter free of any type switch.
type Allocator struct {
	funcID  uint32
	repOf   func(varID uint32, typ ssa.ValueType) uint32
	temps   uint32
	pool    map[int32]struct{}
}

// Get returns the 32-bit register assigned to an I32 (or narrower) SSA
// variable.
func (a *Allocator) Get(v ssa.Var) lir.Register {
	if v.Type == ssa.I64 || v.Type == ssa.F64 {
		panic("BUG: Get called on a 64-bit variable; use GetDouble")
	}
	return lir.Work(a.funcID, a.repOf(v.ID, v.Type))
}

// GetDouble returns the pair of 32-bit registers assigned to a 64-bit SSA
// variable. Register naming is type-stable: the lo half
// uses the same work-register indexing as Get would for an I32 view of the
// same id, and the hi half is derived deterministically from it so that
// into_untyped round-trips consistently.
func (a *Allocator) GetDouble(v ssa.Var) lir.DoubleRegister {
	if v.Type != ssa.I64 && v.Type != ssa.F64 {
		panic("BUG: GetDouble called on a 32-bit variable; use Get")
	}
	rep := a.repOf(v.ID, v.Type)
	return lir.DoubleRegister{
		Lo: lir.Work(a.funcID, rep),
		Hi: lir.WorkHi(a.funcID, rep),
	}
}

// GetConst materializes a 32-bit constant register and records it in the
// per-function constant pool.
func (a *Allocator) GetConst(v int32) lir.Register {
	a.pool[v] = struct{}{}
	return lir.Const(v)
}

// GetTemp allocates a fresh scratch register, used by parallel-copy cycle
// breaking and by instruction patterns that need a scratch slot (e.g. 64-bit
// multiply aliasing its destination, Sub with dst==rhs).
func (a *Allocator) GetTemp() lir.Register {
	t := a.temps
	a.temps++
	return lir.Temp(t)
}

// GetDoubleTemp allocates a fresh scratch DoubleRegister.
func (a *Allocator) GetDoubleTemp() lir.DoubleRegister {
	lo := a.GetTemp()
	hi := a.GetTemp()
	return lir.DoubleRegister{Lo: lo, Hi: hi}
}

// ConstPool returns the set of 32-bit literal values referenced as constant
// registers so far.
func (a *Allocator) ConstPool() map[int32]struct{} { return a.pool }

// NewNoop builds the simpler allocator: every SSA variable is its own
// register, no interference graph is built. Chosen by the driver when Auto
// mode falls back due to instruction-count pressure.
func NewNoop(funcID uint32) *Allocator {
	return &Allocator{
		funcID: funcID,
		repOf:  func(varID uint32, _ ssa.ValueType) uint32 { return varID },
		pool:   make(map[int32]struct{}),
	}
}

// NewFull builds the full coalescing allocator: runs interference-graph
// construction and the coalescing loop, then resolves every
// SSA variable to the representative id of its merged register.
func NewFull(fn *ssa.Function, live *liveness.Info) (*Allocator, []Diagnostic) {
	g := Build(fn)
	uf, diags := Coalesce(fn, g, live)

	rep := make(map[uint32]uint32, len(uf.reg))
	for id, mr := range uf.reg {
		rep[id] = mr.RepID()
	}
	return &Allocator{
		funcID: uint32(fn.ID),
		repOf:  func(varID uint32, _ ssa.ValueType) uint32 { return rep[varID] },
		pool:   make(map[int32]struct{}),
	}, diags
}
