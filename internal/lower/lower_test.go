package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickc/lowcore/internal/callgraph"
	"github.com/tickc/lowcore/internal/config"
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/ssa"
)

func i32(id uint32) ssa.Var { return ssa.Var{ID: id, Type: ssa.I32} }

// addFunc builds a trivial single-block function: params (a, b : i32),
// returns a + b.
func addFunc() *ssa.Function {
	const f = ssa.FuncID(0)
	return &ssa.Function{
		ID:          f,
		ParamTypes:  []ssa.ValueType{ssa.I32, ssa.I32},
		ReturnTypes: []ssa.ValueType{ssa.I32},
		Locals:      []ssa.ValueType{ssa.I32, ssa.I32},
		Blocks: []ssa.BasicBlock{{
			ID:     ssa.BlockID{Func: f, Block: 0},
			Params: []ssa.Var{i32(0), i32(1)}, // the entry block's params are the function's arguments.
			Body: []ssa.Instruction{
				{Op: ssa.OpAdd, Dest: i32(2), Args: []ssa.VarOrConst{ssa.VarOperand(i32(0)), ssa.VarOperand(i32(1))}},
			},
			Term: ssa.Terminator{Kind: ssa.TermReturn, Returns: []ssa.VarOrConst{ssa.VarOperand(i32(2))}},
		}},
	}
}

func TestLowerAddPassThrough(t *testing.T) {
	prog := &ssa.Program{Functions: []ssa.Function{*addFunc()}}
	cg := callgraph.Build(prog)
	lf, diags, err := Function(prog, &prog.Functions[0], cg, config.Default())
	require.NoError(t, err)
	require.Empty(t, diags)
	require.Len(t, lf.Blocks, 1)

	body := lf.Blocks[0].Block.Body
	require.NotEmpty(t, body)
	require.Equal(t, lir.OpPushLocalFrame, body[0].Op)

	var foundAdd, foundPop bool
	for _, instr := range body {
		if instr.Op == lir.OpAdd {
			foundAdd = true
		}
		if instr.Op == lir.OpPopLocalFrame {
			foundPop = true
		}
	}
	require.True(t, foundAdd)
	require.True(t, foundPop, "a single-block function is its own designated exit")

	require.Equal(t, lir.TermReturn, lf.Blocks[0].Block.Term.Kind)
}

// selfSubFunc returns a - a.
func selfSubFunc() *ssa.Function {
	const f = ssa.FuncID(0)
	return &ssa.Function{
		ID:          f,
		ParamTypes:  []ssa.ValueType{ssa.I32},
		ReturnTypes: []ssa.ValueType{ssa.I32},
		Locals:      []ssa.ValueType{ssa.I32},
		Blocks: []ssa.BasicBlock{{
			ID:     ssa.BlockID{Func: f, Block: 0},
			Params: []ssa.Var{i32(0)},
			Body: []ssa.Instruction{
				{Op: ssa.OpSub, Dest: i32(1), Args: []ssa.VarOrConst{ssa.VarOperand(i32(0)), ssa.VarOperand(i32(0))}},
			},
			Term: ssa.Terminator{Kind: ssa.TermReturn, Returns: []ssa.VarOrConst{ssa.VarOperand(i32(1))}},
		}},
	}
}

func TestLowerSelfSubtractWarns(t *testing.T) {
	prog := &ssa.Program{Functions: []ssa.Function{*selfSubFunc()}}
	cg := callgraph.Build(prog)
	_, diags, err := Function(prog, &prog.Functions[0], cg, config.Default())
	require.NoError(t, err)
	require.Len(t, diags, 1)
	require.Contains(t, diags[0].Message, "subtracting a variable from itself")
}

// missingExit is a two-block function with no block index 1, forcing the
// "no designated exit" error path.
func missingExit() *ssa.Function {
	const f = ssa.FuncID(0)
	return &ssa.Function{
		ID:         f,
		ParamTypes: []ssa.ValueType{},
		Locals:     []ssa.ValueType{},
		Blocks: []ssa.BasicBlock{
			{
				ID:   ssa.BlockID{Func: f, Block: 0},
				Term: ssa.Terminator{Kind: ssa.TermJump, Target: ssa.JumpArgs{Target: ssa.BlockID{Func: f, Block: 2}}},
			},
			{
				ID:   ssa.BlockID{Func: f, Block: 2},
				Term: ssa.Terminator{Kind: ssa.TermReturn},
			},
		},
	}
}

func TestLowerMissingDesignatedExitIsAnError(t *testing.T) {
	prog := &ssa.Program{Functions: []ssa.Function{*missingExit()}}
	cg := callgraph.Build(prog)
	_, _, err := Function(prog, &prog.Functions[0], cg, config.Default())
	require.Error(t, err)
}
