package lir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickc/lowcore/internal/ssa"
)

func TestBasicBlockAppend(t *testing.T) {
	var b BasicBlock
	b.Append(Instruction{Op: OpAdd})
	b.Append(Instruction{Op: OpSub})
	require.Len(t, b.Body, 2)
	require.Equal(t, OpSub, b.Body[1].Op)
}

func TestFunctionBlockLookup(t *testing.T) {
	fn := &Function{Blocks: []IndexedBlock{
		{ID: ssa.BlockID{Func: 0, Block: 0}, Block: BasicBlock{Body: []Instruction{{Op: OpAdd}}}},
		{ID: ssa.BlockID{Func: 0, Block: 1}},
	}}
	found := fn.Block(ssa.BlockID{Func: 0, Block: 0})
	require.NotNil(t, found)
	require.Len(t, found.Body, 1)

	require.Nil(t, fn.Block(ssa.BlockID{Func: 0, Block: 9}))
}

func TestAddConstDeduplicates(t *testing.T) {
	fn := &Function{}
	fn.addConst(5)
	fn.addConst(5)
	fn.addConst(6)
	require.Len(t, fn.ConstPool, 2)
	_, ok := fn.ConstPool[5]
	require.True(t, ok)
}
