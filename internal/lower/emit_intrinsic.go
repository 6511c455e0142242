package lower

import (
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/ssa"
)

var intrinsicOp = map[ssa.Opcode]lir.Op{
	ssa.OpMemset:       lir.OpMemset,
	ssa.OpTurtle:       lir.OpTurtle,
	ssa.OpPrintInt:     lir.OpPrintInt,
	ssa.OpPutChar:      lir.OpPutChar,
	ssa.OpWasiProcExit: lir.OpWasiProcExit,
	ssa.OpTodo:         lir.OpTodo,
}

// emitIntrinsic forwards a world-interaction or process-control opcode
// verbatim: every operand is register-assigned and the opcode carries
// across unchanged, with no arithmetic or control-flow interpretation.
func (b *Builder) emitIntrinsic(instr *ssa.Instruction) {
	out := lir.Instruction{Op: intrinsicOp[instr.Op], Message: instr.Message}
	if instr.Dest.Valid() {
		out.Dst = b.destReg(instr.Dest)
	}
	if len(instr.Args) > 0 {
		args := make([]lir.Register, len(instr.Args))
		for i, a := range instr.Args {
			args[i] = b.reg32(a)
		}
		out.IntrinsicArgs = args
	}
	b.emit(out)
}
