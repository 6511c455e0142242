package callgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickc/lowcore/internal/ssa"
)

func leaf(id ssa.FuncID, suspends bool) ssa.Function {
	return ssa.Function{
		ID: id,
		Blocks: []ssa.BasicBlock{{
			ID:   ssa.BlockID{Func: id, Block: 0},
			Term: ssa.Terminator{Kind: ssa.TermReturn},
		}},
		HasSuspendingOp: suspends,
	}
}

func caller(id ssa.FuncID, callee ssa.FuncID) ssa.Function {
	return ssa.Function{
		ID: id,
		Blocks: []ssa.BasicBlock{{
			ID:   ssa.BlockID{Func: id, Block: 0},
			Body: []ssa.Instruction{{Op: ssa.OpCall, Callee: callee}},
			Term: ssa.Terminator{Kind: ssa.TermReturn},
		}},
	}
}

func TestSingleTickPropagatesThroughCallChain(t *testing.T) {
	prog := &ssa.Program{Functions: []ssa.Function{
		leaf(0, false),
		caller(1, 0),
	}}
	g := Build(prog)
	require.True(t, g.IsSingleTick(0))
	require.True(t, g.IsSingleTick(1), "a caller of a single-tick function with no suspending op of its own is single-tick")
}

func TestSuspendingCalleeInfectsCaller(t *testing.T) {
	prog := &ssa.Program{Functions: []ssa.Function{
		leaf(0, true),
		caller(1, 0),
	}}
	g := Build(prog)
	require.False(t, g.IsSingleTick(0))
	require.False(t, g.IsSingleTick(1), "calling a multi-tick function makes the caller multi-tick too")
}

func TestMayCallDetectsRecursion(t *testing.T) {
	const f = ssa.FuncID(0)
	recursive := ssa.Function{
		ID: f,
		Blocks: []ssa.BasicBlock{{
			ID:   ssa.BlockID{Func: f, Block: 0},
			Body: []ssa.Instruction{{Op: ssa.OpCall, Callee: f}},
			Term: ssa.Terminator{Kind: ssa.TermReturn},
		}},
	}
	prog := &ssa.Program{Functions: []ssa.Function{recursive}}
	g := Build(prog)
	require.True(t, g.MayCall(f, f))
}

func TestMayCallFalseForUnrelatedFunctions(t *testing.T) {
	prog := &ssa.Program{Functions: []ssa.Function{leaf(0, false), leaf(1, false)}}
	g := Build(prog)
	require.False(t, g.MayCall(0, 1))
}

func TestCompatibleCalleesSkipsEmptyAndDuplicateSlots(t *testing.T) {
	prog := &ssa.Program{
		Functions: []ssa.Function{leaf(0, false)},
		Tables: []ssa.Table{{Entries: []ssa.TableEntry{
			{Func: 0, Present: true},
			{Present: false},
			{Func: 0, Present: true},
		}}},
	}
	instr := &ssa.Instruction{Op: ssa.OpCallIndirect, TableIndex: 0, Args: []ssa.VarOrConst{ssa.ConstI32Operand(0)}}
	callees := CompatibleCallees(prog, instr)
	require.Equal(t, []ssa.FuncID{0}, callees)
}

// funcWithSig is a minimal leaf function carrying a declared signature,
// distinct from leaf's zero-arity one.
func funcWithSig(id ssa.FuncID, params, returns []ssa.ValueType) ssa.Function {
	fn := leaf(id, false)
	fn.ParamTypes = params
	fn.ReturnTypes = returns
	return fn
}

// TestCompatibleCalleesFiltersBySignature builds a single table holding two
// functions of different signatures (one (i32)->i32, one (i64)->i32) and
// checks a call site declared (i32)->i32 only accepts the matching slot, even
// though both slots are Present. A single table is shared program-wide and
// can legitimately hold heterogeneous-signature functions.
func TestCompatibleCalleesFiltersBySignature(t *testing.T) {
	prog := &ssa.Program{
		Functions: []ssa.Function{
			funcWithSig(0, []ssa.ValueType{ssa.I32}, []ssa.ValueType{ssa.I32}),
			funcWithSig(1, []ssa.ValueType{ssa.I64}, []ssa.ValueType{ssa.I32}),
		},
		Tables: []ssa.Table{{Entries: []ssa.TableEntry{
			{Func: 0, Present: true},
			{Func: 1, Present: true},
		}}},
	}
	instr := &ssa.Instruction{
		Op:         ssa.OpCallIndirect,
		TableIndex: 0,
		Args:       []ssa.VarOrConst{ssa.ConstI32Operand(0), ssa.VarOperand(ssa.Var{ID: 1, Type: ssa.I32})},
		Dests:      []ssa.Var{{ID: 2, Type: ssa.I32}},
	}
	callees := CompatibleCallees(prog, instr)
	require.Equal(t, []ssa.FuncID{0}, callees, "only the (i32)->i32 slot matches the call site's declared signature")
}

func TestCompatibleCalleesRejectsReturnArityMismatch(t *testing.T) {
	prog := &ssa.Program{
		Functions: []ssa.Function{
			funcWithSig(0, nil, []ssa.ValueType{ssa.I32, ssa.I32}),
		},
		Tables: []ssa.Table{{Entries: []ssa.TableEntry{{Func: 0, Present: true}}}},
	}
	instr := &ssa.Instruction{
		Op:         ssa.OpCallIndirect,
		TableIndex: 0,
		Args:       []ssa.VarOrConst{ssa.ConstI32Operand(0)},
		Dests:      []ssa.Var{{ID: 1, Type: ssa.I32}},
	}
	require.Empty(t, CompatibleCallees(prog, instr))
}
