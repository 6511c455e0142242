package lower

import (
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/ssa"
)

// effectiveAddr computes a RegisterWithInfo for a base+offset memory
// operand. When the base is a known constant (from the constant
// allocator or from propagated StaticValue), the effective address is
// computed at compile time and materialized as a constant register.
// Otherwise a scratch temp receives base+offset via Assign; Add(offset).
func (b *Builder) effectiveAddr(base ssa.VarOrConst, offset uint32) lir.RegisterWithInfo {
	static := b.staticOf(base)
	if static.Known() {
		addr := static.Value() + int32(offset)
		return lir.RegisterWithInfo{Reg: b.constReg(addr), Static: lir.StaticConstant(addr)}
	}
	baseReg := b.reg32(base)
	tmp := b.alloc.GetTemp()
	b.emit(lir.Instruction{Op: lir.OpAssign, Dst: tmp, Src: baseReg})
	b.emit(lir.Instruction{Op: lir.OpAdd, Dst: tmp, Src: b.constReg(int32(offset))})
	return lir.RegisterWithInfo{Reg: tmp, Static: lir.StaticUnknown}
}

// emitLoad lowers Load32/Load64 and the narrowing loads. 64-bit
// loads decompose into two 32-bit accesses at addresses p+offset and
// p+offset+4 (little-endian halves). Narrowing loads issue the
// width-specific LIR load into the low half of the destination; if signed,
// follow with a SignExtend{8,16} on the low half; if the destination is
// 64-bit, a following SignExtend32 (or zeroing of the high half) finishes
// the extension.
func (b *Builder) emitLoad(instr *ssa.Instruction) {
	base := instr.Unary()

	if instr.Op == ssa.OpLoad64 {
		dst := b.destReg64(instr.Dest)
		addrLo := b.effectiveAddr(base, instr.Offset)
		b.emit(lir.Instruction{Op: lir.OpLoad32, Dst: dst.Lo, Addr: addrLo})
		addrHi := b.effectiveAddr(base, instr.Offset+4)
		b.emit(lir.Instruction{Op: lir.OpLoad32, Dst: dst.Hi, Addr: addrHi})
		return
	}
	if instr.Op == ssa.OpLoad32 {
		dst := b.destReg(instr.Dest)
		addr := b.effectiveAddr(base, instr.Offset)
		b.emit(lir.Instruction{Op: lir.OpLoad32, Dst: dst, Addr: addr})
		return
	}

	// Narrowing loads: Load32S/U, Load64S/U (8/16-bit source width is
	// carried in instr.Narrow).
	signed := instr.Op.IsSignedNarrowLoad()
	dest64 := instr.Op == ssa.OpLoad64S || instr.Op == ssa.OpLoad64U

	var dstLo lir.Register
	if dest64 {
		dstLo = b.destReg64(instr.Dest).Lo
	} else {
		dstLo = b.destReg(instr.Dest)
	}
	addr := b.effectiveAddr(base, instr.Offset)
	loadOp, widthBits := narrowLoadOp(instr.Narrow, signed)
	b.emit(lir.Instruction{Op: loadOp, Dst: dstLo, Addr: addr})

	if signed {
		switch widthBits {
		case 8:
			b.emit(lir.Instruction{Op: lir.OpSignExtend8, Dst: dstLo, Src: dstLo})
		case 16:
			b.emit(lir.Instruction{Op: lir.OpSignExtend16, Dst: dstLo, Src: dstLo})
		}
	}
	if dest64 {
		hi := b.destReg64(instr.Dest).Hi
		if signed {
			b.emit(lir.Instruction{Op: lir.OpSignExtend32, Dst: hi, Src: dstLo})
		} else {
			b.emit(lir.Instruction{Op: lir.OpSet, Dst: hi, Imm: 0})
		}
	}
}

func narrowLoadOp(w ssa.NarrowWidth, signed bool) (lir.Op, int) {
	switch w {
	case ssa.Narrow8:
		if signed {
			return lir.OpLoad8S, 8
		}
		return lir.OpLoad8U, 8
	case ssa.Narrow16:
		if signed {
			return lir.OpLoad16S, 16
		}
		return lir.OpLoad16U, 16
	default:
		return lir.OpLoad32, 32
	}
}

// emitStore lowers Store8/16/32/64. 64-bit stores decompose into two
// 32-bit stores at p+offset and p+offset+4.
func (b *Builder) emitStore(instr *ssa.Instruction) {
	base, value := instr.Args[0], instr.Args[1]
	if instr.Op == ssa.OpStore64 {
		v := b.reg64(value)
		b.emit(lir.Instruction{Op: lir.OpStore32, Addr: b.effectiveAddr(base, instr.Offset), Src: v.Lo})
		b.emit(lir.Instruction{Op: lir.OpStore32, Addr: b.effectiveAddr(base, instr.Offset+4), Src: v.Hi})
		return
	}
	var v lir.Register
	if value.Type() == ssa.I64 {
		v = b.reg64(value).Lo
	} else {
		v = b.reg32(value)
	}
	op := map[ssa.Opcode]lir.Op{ssa.OpStore32: lir.OpStore32, ssa.OpStore16: lir.OpStore16, ssa.OpStore8: lir.OpStore8}[instr.Op]
	b.emit(lir.Instruction{Op: op, Addr: b.effectiveAddr(base, instr.Offset), Src: v})
}

// emitExtend lowers Extend8S/Extend16S/Extend32S/Extend32U/Wrap.
func (b *Builder) emitExtend(instr *ssa.Instruction) {
	src := instr.Unary()
	switch instr.Op {
	case ssa.OpExtend8S, ssa.OpExtend16S:
		op := lir.OpSignExtend8
		if instr.Op == ssa.OpExtend16S {
			op = lir.OpSignExtend16
		}
		if instr.Dest.Type == ssa.I64 {
			dst := b.destReg64(instr.Dest)
			sr := b.reg32(src)
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst.Lo, Src: sr})
			b.emit(lir.Instruction{Op: op, Dst: dst.Lo, Src: dst.Lo})
			b.emit(lir.Instruction{Op: lir.OpSignExtend32, Dst: dst.Hi, Src: dst.Lo})
			return
		}
		dst := b.destReg(instr.Dest)
		sr := b.reg32(src)
		if dst != sr {
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst, Src: sr})
		}
		b.emit(lir.Instruction{Op: op, Dst: dst, Src: dst})

	case ssa.OpExtend32S, ssa.OpExtend32U:
		dst := b.destReg64(instr.Dest)
		sr := b.reg32(src)
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst.Lo, Src: sr})
		if instr.Op == ssa.OpExtend32S {
			b.emit(lir.Instruction{Op: lir.OpSignExtend32, Dst: dst.Hi, Src: dst.Lo})
		} else {
			b.emit(lir.Instruction{Op: lir.OpSet, Dst: dst.Hi, Imm: 0})
		}

	case ssa.OpWrap:
		dst := b.destReg(instr.Dest)
		sr := b.reg64(src)
		if dst != sr.Lo {
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst, Src: sr.Lo})
		}
	}
}

// emitSelect lowers Select: destination width drives decomposition;
// for I64, each half is selected independently with the same condition
// register.
func (b *Builder) emitSelect(instr *ssa.Instruction) {
	cond := b.reg32(instr.Args[0])
	ifTrue, ifFalse := instr.Args[1], instr.Args[2]
	if instr.Dest.Type == ssa.I64 {
		dst := b.destReg64(instr.Dest)
		t, f := b.reg64(ifTrue), b.reg64(ifFalse)
		b.emit(lir.Instruction{Op: lir.OpSelect, Dst: dst.Lo, Src: t.Lo, Src2: f.Lo, Registers: []lir.Register{cond}})
		b.emit(lir.Instruction{Op: lir.OpSelect, Dst: dst.Hi, Src: t.Hi, Src2: f.Hi, Registers: []lir.Register{cond}})
		return
	}
	dst := b.destReg(instr.Dest)
	t, f := b.reg32(ifTrue), b.reg32(ifFalse)
	b.emit(lir.Instruction{Op: lir.OpSelect, Dst: dst, Src: t, Src2: f, Registers: []lir.Register{cond}})
}
