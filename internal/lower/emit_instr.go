package lower

import "github.com/tickc/lowcore/internal/ssa"

// emitBody lowers every instruction in blk's body in order.
func (b *Builder) emitBody(blk *ssa.BasicBlock) {
	for i := range blk.Body {
		b.curIdx = i
		b.emitInstr(&blk.Body[i])
	}
}

// emitInstr dispatches a single SSA instruction to its lowering routine.
// Call/CallIndirect are handled by call.go since they may split the
// current block.
func (b *Builder) emitInstr(instr *ssa.Instruction) {
	switch instr.Op {
	case ssa.OpI32Set, ssa.OpI64Set:
		b.emitConstSet(instr)
	case ssa.OpAdd, ssa.OpSub, ssa.OpMul, ssa.OpDivS, ssa.OpDivU, ssa.OpRemS, ssa.OpRemU,
		ssa.OpShl, ssa.OpShrS, ssa.OpShrU, ssa.OpRotl, ssa.OpRotr,
		ssa.OpAnd, ssa.OpOr, ssa.OpXor:
		b.emitBinary(instr)
	case ssa.OpEq, ssa.OpNe, ssa.OpLtS, ssa.OpLtU, ssa.OpGtS, ssa.OpGtU,
		ssa.OpLeS, ssa.OpLeU, ssa.OpGeS, ssa.OpGeU:
		b.emitCompare(instr)
	case ssa.OpPopcnt:
		b.emitPopcnt(instr)
	case ssa.OpClz, ssa.OpCtz:
		b.emitClzCtz(instr)
	case ssa.OpEqz:
		b.emitEqz(instr)
	case ssa.OpLoad32, ssa.OpLoad64, ssa.OpLoad32S, ssa.OpLoad32U, ssa.OpLoad64S, ssa.OpLoad64U:
		b.emitLoad(instr)
	case ssa.OpStore32, ssa.OpStore64, ssa.OpStore8, ssa.OpStore16:
		b.emitStore(instr)
	case ssa.OpExtend8S, ssa.OpExtend16S, ssa.OpExtend32S, ssa.OpExtend32U, ssa.OpWrap:
		b.emitExtend(instr)
	case ssa.OpSelect:
		b.emitSelect(instr)
	case ssa.OpCall:
		b.emitCall(instr)
	case ssa.OpCallIndirect:
		b.emitCallIndirect(instr)
	case ssa.OpMemset, ssa.OpTurtle, ssa.OpPrintInt, ssa.OpPutChar, ssa.OpWasiProcExit, ssa.OpTodo:
		b.emitIntrinsic(instr)
	default:
		panic("BUG: unhandled SSA opcode in lowering: " + instr.Op.String())
	}
}
