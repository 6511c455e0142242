package interference

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickc/lowcore/internal/ssa"
)

func i32(id uint32) ssa.Var { return ssa.Var{ID: id, Type: ssa.I32} }
func i64(id uint32) ssa.Var { return ssa.Var{ID: id, Type: ssa.I64} }

func TestAddEdgeIsSymmetric(t *testing.T) {
	g := NewGraph()
	g.AddEdge(1, 2)
	_, ok := g.AdjacentVars(1)[2]
	require.True(t, ok)
	_, ok = g.AdjacentVars(2)[1]
	require.True(t, ok)
}

func TestAddEdgeIgnoresSelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddEdge(1, 1)
	require.Empty(t, g.AdjacentVars(1))
}

// buildAdd64 is a single-block function computing v3 = v1 + v2 as I64.
func buildAdd64() *ssa.Function {
	const f = ssa.FuncID(0)
	return &ssa.Function{
		ID: f,
		Blocks: []ssa.BasicBlock{{
			ID: ssa.BlockID{Func: f, Block: 0},
			Body: []ssa.Instruction{
				{Op: ssa.OpAdd, Dest: i64(3), Args: []ssa.VarOrConst{ssa.VarOperand(i64(1)), ssa.VarOperand(i64(2))}},
			},
			Term: ssa.Terminator{Kind: ssa.TermReturn, Returns: []ssa.VarOrConst{ssa.VarOperand(i64(3))}},
		}},
	}
}

func TestBuildConstrainsI64Add(t *testing.T) {
	g := Build(buildAdd64())
	_, destLhs := g.AdjacentVars(3)[1]
	_, destRhs := g.AdjacentVars(3)[2]
	_, lhsRhs := g.AdjacentVars(1)[2]
	require.True(t, destLhs, "I64 Add destination must not alias lhs")
	require.True(t, destRhs, "I64 Add destination must not alias rhs")
	require.True(t, lhsRhs, "I64 Add operands must not alias each other")
}

func TestBuildDoesNotConstrainI32Add(t *testing.T) {
	const f = ssa.FuncID(0)
	fn := &ssa.Function{
		ID: f,
		Blocks: []ssa.BasicBlock{{
			ID: ssa.BlockID{Func: f, Block: 0},
			Body: []ssa.Instruction{
				{Op: ssa.OpAdd, Dest: i32(3), Args: []ssa.VarOrConst{ssa.VarOperand(i32(1)), ssa.VarOperand(i32(2))}},
			},
			Term: ssa.Terminator{Kind: ssa.TermReturn, Returns: []ssa.VarOrConst{ssa.VarOperand(i32(3))}},
		}},
	}
	g := Build(fn)
	require.Empty(t, g.AdjacentVars(3))
}

func TestIsUnsignedOrI64CompareExcludesEqNe(t *testing.T) {
	require.False(t, isUnsignedOrI64Compare(&ssa.Instruction{Op: ssa.OpEq, Args: []ssa.VarOrConst{ssa.VarOperand(i64(1)), ssa.VarOperand(i64(2))}}))
	require.False(t, isUnsignedOrI64Compare(&ssa.Instruction{Op: ssa.OpNe, Args: []ssa.VarOrConst{ssa.VarOperand(i64(1)), ssa.VarOperand(i64(2))}}))
	require.True(t, isUnsignedOrI64Compare(&ssa.Instruction{Op: ssa.OpLtS, Args: []ssa.VarOrConst{ssa.VarOperand(i64(1)), ssa.VarOperand(i64(2))}}))
	require.False(t, isUnsignedOrI64Compare(&ssa.Instruction{Op: ssa.OpLtS, Args: []ssa.VarOrConst{ssa.VarOperand(i32(1)), ssa.VarOperand(i32(2))}}))
	require.True(t, isUnsignedOrI64Compare(&ssa.Instruction{Op: ssa.OpLtU, Args: []ssa.VarOrConst{ssa.VarOperand(i32(1)), ssa.VarOperand(i32(2))}}))
}

func TestMergedRegisterUnionRejectsMixedWidth(t *testing.T) {
	a := newSingleton(i32(1))
	b := newSingleton(i64(2))
	require.Panics(t, func() { a.union(b) })
}

func TestRepIDIsDeterministic(t *testing.T) {
	a := newSingleton(i32(5))
	b := newSingleton(i32(2))
	a.union(b)
	require.Equal(t, uint32(2), a.RepID())
}
