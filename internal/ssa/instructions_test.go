package ssa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func branchBlock() BasicBlock {
	return BasicBlock{
		ID: BlockID{Func: 0, Block: 0},
		Term: Terminator{
			Kind: TermBranchIf,
			True: JumpArgs{Target: BlockID{Func: 0, Block: 1}, Args: []VarOrConst{ConstI32Operand(1)}},
			False: JumpArgs{Target: BlockID{Func: 0, Block: 2}},
		},
	}
}

func TestSuccessorsJump(t *testing.T) {
	b := BasicBlock{Term: Terminator{Kind: TermJump, Target: JumpArgs{Target: BlockID{Func: 0, Block: 5}}}}
	require.Equal(t, []BlockID{{Func: 0, Block: 5}}, b.Successors())
}

func TestSuccessorsBranchIf(t *testing.T) {
	b := branchBlock()
	require.Equal(t, []BlockID{{Func: 0, Block: 1}, {Func: 0, Block: 2}}, b.Successors())
}

func TestSuccessorsBranchTable(t *testing.T) {
	b := BasicBlock{Term: Terminator{
		Kind:    TermBranchTable,
		Default: JumpArgs{Target: BlockID{Func: 0, Block: 9}},
		Arms: []JumpArgs{
			{Target: BlockID{Func: 0, Block: 1}},
			{Target: BlockID{Func: 0, Block: 2}},
		},
	}}
	require.Equal(t, []BlockID{{Func: 0, Block: 9}, {Func: 0, Block: 1}, {Func: 0, Block: 2}}, b.Successors())
}

func TestSuccessorsReturnIsEmpty(t *testing.T) {
	b := BasicBlock{Term: Terminator{Kind: TermReturn}}
	require.Empty(t, b.Successors())
}

func TestJumpArgsListBranchIfCarriesBothArmArgs(t *testing.T) {
	b := branchBlock()
	list := b.JumpArgsList()
	require.Len(t, list, 2)
	require.Equal(t, BlockID{Func: 0, Block: 1}, list[0].Target)
	require.Len(t, list[0].Args, 1)
	require.Empty(t, list[1].Args)
}

func TestFunctionBlockLookup(t *testing.T) {
	fn := &Function{Blocks: []BasicBlock{
		{ID: BlockID{Func: 0, Block: 0}},
		{ID: BlockID{Func: 0, Block: 2}},
	}}
	require.Equal(t, uint32(2), fn.Block(2).ID.Block)
	require.Panics(t, func() { fn.Block(1) })
}

func TestFunctionDesignatedExit(t *testing.T) {
	fn := &Function{Blocks: []BasicBlock{
		{ID: BlockID{Func: 0, Block: 0}},
		{ID: BlockID{Func: 0, Block: 1}},
	}}
	blk, ok := fn.DesignatedExit()
	require.True(t, ok)
	require.Equal(t, uint32(1), blk.ID.Block)

	single := &Function{Blocks: []BasicBlock{{ID: BlockID{Func: 0, Block: 0}}}}
	_, ok = single.DesignatedExit()
	require.False(t, ok)
}

func TestInstructionUnaryAndBinary(t *testing.T) {
	i := Instruction{Args: []VarOrConst{ConstI32Operand(1), ConstI32Operand(2)}}
	require.Equal(t, ConstI32Operand(1), i.Unary())
	a, b := i.Binary()
	require.Equal(t, ConstI32Operand(1), a)
	require.Equal(t, ConstI32Operand(2), b)
}
