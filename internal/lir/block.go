package lir

import "github.com/tickc/lowcore/internal/ssa"

// TermKind identifies a LIR terminator's shape.
type TermKind byte

const (
	TermInvalid TermKind = iota
	TermReturn
	TermReturnToSaved
	TermJump
	TermScheduleJump
	TermJumpIf
	TermJumpTable
)

// JumpTarget is a jump destination additionally carrying the cmd_check bit,
// set exactly on back-edges so the runtime can insert periodic quota
// checks.
type JumpTarget struct {
	Label    ssa.BlockID
	CmdCheck bool
}

// Terminator is a LIR block's control transfer.
type Terminator struct {
	Kind TermKind

	Jump JumpTarget

	// ScheduleJump.
	Delay uint32

	// JumpIf.
	TrueLabel  JumpTarget
	FalseLabel JumpTarget
	Cond       Register

	// JumpTable.
	Arms    []*ssa.BlockID // nil entry means an empty table slot.
	Default *ssa.BlockID
}

// BasicBlock mirrors the SSA shape: a body of LIR instructions plus a
// terminator.
type BasicBlock struct {
	Body []Instruction
	Term Terminator
}

// Append appends instr to b's body.
func (b *BasicBlock) Append(instr Instruction) { b.Body = append(b.Body, instr) }

// IndexedBlock pairs a BlockID with its contents; a Function is an ordered
// list of these.
type IndexedBlock struct {
	ID    ssa.BlockID
	Block BasicBlock
}

// Function is an ordered list of (BlockId, LirBasicBlock) pairs.
type Function struct {
	ID          ssa.FuncID
	ParamTypes  []ssa.ValueType
	ReturnTypes []ssa.ValueType
	Blocks      []IndexedBlock

	// ConstPool is this function's local constant pool: the set of 32-bit
	// literal values referenced as constant registers.
	ConstPool map[int32]struct{}
}

// Block looks up a block by id within this function, or nil.
func (f *Function) Block(id ssa.BlockID) *BasicBlock {
	for i := range f.Blocks {
		if f.Blocks[i].ID == id {
			return &f.Blocks[i].Block
		}
	}
	return nil
}

func (f *Function) addConst(v int32) {
	if f.ConstPool == nil {
		f.ConstPool = make(map[int32]struct{})
	}
	f.ConstPool[v] = struct{}{}
}

// Program mirrors ssa.Program's shape with the same memory/tables/globals/
// exports passed through verbatim, plus the lowered functions and the
// flat, program-level constant pool.
type Program struct {
	Functions []Function
	Memory    ssa.Memory
	Tables    []ssa.Table
	Globals   []ssa.Global
	Exports   []ssa.Export

	ConstPool map[int32]struct{}
}
