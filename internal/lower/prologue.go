package lower

import (
	"fmt"

	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/ssa"
)

// emitPrologue prepends, to the entry block, PushLocalFrame(local_types)
// then, for each parameter index i, LocalSet(i, Lo, Param(i).lo) and for
// 64-bit params also LocalSet(i, Hi, Param(i).hi). Asserts
// len(locals) >= len(params) and that the leading local types match the
// parameter types exactly.
func (b *Builder) emitPrologue(entryLIR *lir.BasicBlock) {
	locals := b.ssa.Locals
	params := b.ssa.ParamTypes
	if len(locals) < len(params) {
		panic(fmt.Sprintf("BUG: function %d has fewer locals (%d) than parameters (%d)", b.ssa.ID, len(locals), len(params)))
	}
	for i, pt := range params {
		if locals[i] != pt {
			panic(fmt.Sprintf("BUG: function %d local %d type %s does not match parameter type %s", b.ssa.ID, i, locals[i], pt))
		}
	}

	var prefix []lir.Instruction
	prefix = append(prefix, lir.Instruction{Op: lir.OpPushLocalFrame, Registers: b.localTypeMarkers(locals)})

	pi := uint32(0)
	for i, pt := range params {
		if pt == ssa.I64 {
			prefix = append(prefix,
				lir.Instruction{Op: lir.OpLocalSet, LocalIndex: uint32(i), LocalHalf: lir.Lo, Src: lir.Param(pi)},
				lir.Instruction{Op: lir.OpLocalSet, LocalIndex: uint32(i), LocalHalf: lir.Hi, Src: lir.Param(pi + 1)},
			)
			pi += 2
		} else {
			prefix = append(prefix,
				lir.Instruction{Op: lir.OpLocalSet, LocalIndex: uint32(i), LocalHalf: lir.Lo, Src: lir.Param(pi)},
			)
			pi++
		}
	}
	entryLIR.Body = append(prefix, entryLIR.Body...)
}

// localTypeMarkers encodes the local type table as a sequence of constant
// registers, so PushLocalFrame's payload travels through the same
// Instruction.Registers field every other variadic-operand LIR instruction
// uses rather than a bespoke type-list field. Each marker is obtained
// through constReg, so its value is recorded in the constant pool.
func (b *Builder) localTypeMarkers(locals []ssa.ValueType) []lir.Register {
	out := make([]lir.Register, len(locals))
	for i, t := range locals {
		out[i] = b.constReg(int32(t))
	}
	return out
}

// emitEpilogue appends PopLocalFrame(local_types) to the designated exit
// block (block index 1), if present. A multi-block function with no
// block index 1 is rejected as an error before this is reached, so this
// function assumes the caller already validated presence when the function
// has more than one block.
func (b *Builder) emitEpilogue(exitLIR *lir.BasicBlock) {
	exitLIR.Body = append(exitLIR.Body, lir.Instruction{Op: lir.OpPopLocalFrame, Registers: b.localTypeMarkers(b.ssa.Locals)})
}
