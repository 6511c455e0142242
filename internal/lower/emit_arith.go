package lower

import (
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/ssa"
)

// emitConstSet lowers I32Set/I64Set: I32Set to a single Set, I64Set
// to two 32-bit Sets (lo = low 32 bits, hi = high 32 bits).
func (b *Builder) emitConstSet(instr *ssa.Instruction) {
	switch instr.Op {
	case ssa.OpI32Set:
		dst := b.destReg(instr.Dest)
		b.emit(lir.Instruction{Op: lir.OpSet, Dst: dst, Imm: instr.ConstI32})
	case ssa.OpI64Set:
		dst := b.destReg64(instr.Dest)
		lo := int32(uint32(instr.ConstI64))
		hi := int32(uint32(instr.ConstI64 >> 32))
		b.emit(lir.Instruction{Op: lir.OpSet, Dst: dst.Lo, Imm: lo})
		b.emit(lir.Instruction{Op: lir.OpSet, Dst: dst.Hi, Imm: hi})
	}
}

var binOp32 = map[ssa.Opcode]lir.Op{
	ssa.OpAdd: lir.OpAdd, ssa.OpSub: lir.OpSub, ssa.OpMul: lir.OpMul,
	ssa.OpDivS: lir.OpDivS, ssa.OpDivU: lir.OpDivU,
	ssa.OpRemS: lir.OpRemS, ssa.OpRemU: lir.OpRemU,
	ssa.OpShl: lir.OpShl, ssa.OpShrS: lir.OpShrS, ssa.OpShrU: lir.OpShrU,
	ssa.OpRotl: lir.OpRotl, ssa.OpRotr: lir.OpRotr,
	ssa.OpAnd: lir.OpAnd, ssa.OpOr: lir.OpOr, ssa.OpXor: lir.OpXor,
}

var binOp64 = map[ssa.Opcode]lir.Op{
	ssa.OpAdd: lir.OpAdd64, ssa.OpSub: lir.OpSub64,
	ssa.OpDivS: lir.OpDivS64, ssa.OpDivU: lir.OpDivU64,
	ssa.OpRemS: lir.OpRemS64, ssa.OpRemU: lir.OpRemU64,
	ssa.OpShl: lir.OpShl64, ssa.OpShrS: lir.OpShrS64, ssa.OpShrU: lir.OpShrU64,
	ssa.OpRotl: lir.OpRotl64, ssa.OpRotr: lir.OpRotr64,
}

var commutative = map[ssa.Opcode]bool{
	ssa.OpAdd: true, ssa.OpMul: true, ssa.OpAnd: true, ssa.OpOr: true, ssa.OpXor: true,
	ssa.OpEq: true, ssa.OpNe: true,
}

// isCommutative reports whether swapping operand order preserves semantics.
func isCommutative(op ssa.Opcode) bool { return commutative[op] }

// emitBinary lowers Add/Sub/Mul/Div*/Rem* and the bitwise/shift family.
// I32/F32 use the two-address pattern `dst := lhs; dst op= rhs`
// with three cases to preserve correctness when dst aliases an operand; I64
// forms (other than Mul, see emitMul64) use a dedicated 64-bit opcode.
func (b *Builder) emitBinary(instr *ssa.Instruction) {
	if instr.Op == ssa.OpMul && instr.Dest.Type == ssa.I64 {
		b.emitMul64(instr)
		return
	}
	lhs, rhs := instr.Binary()
	if instr.Dest.Type == ssa.I64 {
		b.emitBinary64(instr.Dest, lhs, rhs, binOp64[instr.Op])
		return
	}
	b.emitBinary32(instr.Dest, lhs, rhs, instr.Op)
}

func (b *Builder) emitBinary32(dest ssa.Var, lhs, rhs ssa.VarOrConst, op ssa.Opcode) {
	dst := b.destReg(dest)
	lr, rr := b.reg32(lhs), b.reg32(rhs)
	lirOp := binOp32[op]

	selfSub := op == ssa.OpSub && !lhs.IsConst() && !rhs.IsConst() && lhs.Var().ID == rhs.Var().ID
	if selfSub {
		// Subtracting a variable from itself is a warning, not an
		// optimization to Set(dst, 0): the literal Sub still executes so
		// the result honors any aliasing already established by the
		// allocator.
		b.warn("subtracting a variable from itself")
	}

	switch {
	case dst == rr && op == ssa.OpSub:
		// dst aliases rhs and Sub isn't commutative: a scratch temp avoids
		// clobbering rhs before it is read.
		tmp := b.alloc.GetTemp()
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: tmp, Src: rr})
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst, Src: lr})
		b.emit(lir.Instruction{Op: lirOp, Dst: dst, Src: tmp})
	case dst == rr && isCommutative(op):
		// Commutative op with dst aliasing rhs: swap operand order instead
		// of introducing a scratch.
		b.emit(lir.Instruction{Op: lirOp, Dst: dst, Src: lr})
	case dst == lr:
		b.emit(lir.Instruction{Op: lirOp, Dst: dst, Src: rr})
	default:
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst, Src: lr})
		b.emit(lir.Instruction{Op: lirOp, Dst: dst, Src: rr})
	}

	if op == ssa.OpAnd || op == ssa.OpOr || op == ssa.OpXor {
		// Bitwise ops carry each operand's StaticValue forward so a
		// downstream pass can exploit known masks.
		b.cur.Body[len(b.cur.Body)-1].StaticOut = combineStatic(b.staticOf(lhs), b.staticOf(rhs), op)
	}
}

func combineStatic(a, b lir.StaticValue, op ssa.Opcode) lir.StaticValue {
	if !a.Known() || !b.Known() {
		return lir.StaticUnknown
	}
	switch op {
	case ssa.OpAnd:
		return lir.StaticConstant(a.Value() & b.Value())
	case ssa.OpOr:
		return lir.StaticConstant(a.Value() | b.Value())
	case ssa.OpXor:
		return lir.StaticConstant(a.Value() ^ b.Value())
	default:
		return lir.StaticUnknown
	}
}

func (b *Builder) emitBinary64(dest ssa.Var, lhs, rhs ssa.VarOrConst, op lir.Op) {
	dst := b.destReg64(dest)
	lr, rr := b.reg64(lhs), b.reg64(rhs)
	if dst != lr {
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst.Lo, Src: lr.Lo})
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst.Hi, Src: lr.Hi})
	}
	b.emit(lir.Instruction{Op: op, Dst: dst.Lo, Dst2: dst.Hi, Src: rr.Lo, Src2: rr.Hi})
}

// emitMul64 lowers a 64-bit multiply to a single MulTo64 instruction whose
// Registers carry the right operand's halves and three 32-bit scratch
// registers; it does not emit separate 32-bit multiplies. When the
// destination aliases either operand the product goes to a 64-bit temp and
// is then assigned to the destination halves.
func (b *Builder) emitMul64(instr *ssa.Instruction) {
	lhs, rhs := instr.Binary()
	dst := b.destReg64(instr.Dest)
	lr, rr := b.reg64(lhs), b.reg64(rhs)

	out := dst
	aliases := dst == lr || dst == rr
	if aliases {
		out = b.alloc.GetDoubleTemp()
	}

	// The MulTo64 LIR opcode carries the whole 64-bit product; the three
	// temps are handed to it as scratch.
	t1, t2, t3 := b.alloc.GetTemp(), b.alloc.GetTemp(), b.alloc.GetTemp()
	b.emit(lir.Instruction{Op: lir.OpMulTo64, Dst: out.Lo, Dst2: out.Hi, Src: lr.Lo, Src2: lr.Hi,
		Registers: []lir.Register{rr.Lo, rr.Hi, t1, t2, t3}})

	if aliases {
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst.Lo, Src: out.Lo})
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst.Hi, Src: out.Hi})
	}
}

var cmpOp32 = map[ssa.Opcode]lir.Op{
	ssa.OpEq: lir.OpEq, ssa.OpNe: lir.OpNe,
	ssa.OpLtS: lir.OpLtS, ssa.OpLtU: lir.OpLtU, ssa.OpGtS: lir.OpGtS, ssa.OpGtU: lir.OpGtU,
	ssa.OpLeS: lir.OpLeS, ssa.OpLeU: lir.OpLeU, ssa.OpGeS: lir.OpGeS, ssa.OpGeU: lir.OpGeU,
}

var cmpOp64 = map[ssa.Opcode]lir.Op{
	ssa.OpEq: lir.OpEq64, ssa.OpNe: lir.OpNe64,
	ssa.OpLtS: lir.OpLtS64, ssa.OpLtU: lir.OpLtU64, ssa.OpGtS: lir.OpGtS64, ssa.OpGtU: lir.OpGtU64,
	ssa.OpLeS: lir.OpLeS64, ssa.OpLeU: lir.OpLeU64, ssa.OpGeS: lir.OpGeS64, ssa.OpGeU: lir.OpGeU64,
}

// emitCompare lowers comparisons: always an I32 boolean result,
// widened to the 32- or 64-bit comparison opcode by source operand width.
func (b *Builder) emitCompare(instr *ssa.Instruction) {
	lhs, rhs := instr.Binary()
	dst := b.destReg(instr.Dest)
	if lhs.Type() == ssa.I64 {
		lr, rr := b.reg64(lhs), b.reg64(rhs)
		b.emit(lir.Instruction{Op: cmpOp64[instr.Op], Dst: dst, Src: lr.Lo, Src2: lr.Hi,
			Registers: []lir.Register{rr.Lo, rr.Hi}})
		return
	}
	lr, rr := b.reg32(lhs), b.reg32(rhs)
	b.emit(lir.Instruction{Op: cmpOp32[instr.Op], Dst: dst, Src: lr, Src2: rr})
}

// emitPopcnt lowers Popcnt as `dst := 0; PopcntAdd(dst, src)`; for
// I64, both halves of src accumulate into the low half of dst, and the high
// half is zeroed.
func (b *Builder) emitPopcnt(instr *ssa.Instruction) {
	src := instr.Unary()
	if instr.Dest.Type == ssa.I64 {
		dst := b.destReg64(instr.Dest)
		sr := b.reg64(src)
		b.emit(lir.Instruction{Op: lir.OpSet, Dst: dst.Lo, Imm: 0})
		b.emit(lir.Instruction{Op: lir.OpSet, Dst: dst.Hi, Imm: 0})
		b.emit(lir.Instruction{Op: lir.OpPopcntAdd, Dst: dst.Lo, Src: sr.Lo})
		b.emit(lir.Instruction{Op: lir.OpPopcntAdd, Dst: dst.Lo, Src: sr.Hi})
		return
	}
	dst := b.destReg(instr.Dest)
	sr := b.reg32(src)
	b.emit(lir.Instruction{Op: lir.OpSet, Dst: dst, Imm: 0})
	b.emit(lir.Instruction{Op: lir.OpPopcntAdd, Dst: dst, Src: sr})
}

// emitClzCtz lowers Clz/Ctz to their dedicated width-specific opcodes.
func (b *Builder) emitClzCtz(instr *ssa.Instruction) {
	src := instr.Unary()
	is64 := instr.Dest.Type == ssa.I64
	var op lir.Op
	switch {
	case instr.Op == ssa.OpClz && !is64:
		op = lir.OpClz
	case instr.Op == ssa.OpClz && is64:
		op = lir.OpClz64
	case instr.Op == ssa.OpCtz && !is64:
		op = lir.OpCtz
	default:
		op = lir.OpCtz64
	}
	if is64 {
		dst := b.destReg64(instr.Dest)
		sr := b.reg64(src)
		b.emit(lir.Instruction{Op: op, Dst: dst.Lo, Src: sr.Lo, Src2: sr.Hi})
		b.emit(lir.Instruction{Op: lir.OpSet, Dst: dst.Hi, Imm: 0})
		return
	}
	dst := b.destReg(instr.Dest)
	sr := b.reg32(src)
	b.emit(lir.Instruction{Op: op, Dst: dst, Src: sr})
}

// emitEqz lowers Eqz: a unary sequence compiling to width-specific
// Eqz/Eqz64.
func (b *Builder) emitEqz(instr *ssa.Instruction) {
	src := instr.Unary()
	dst := b.destReg(instr.Dest)
	if src.Type() == ssa.I64 {
		sr := b.reg64(src)
		b.emit(lir.Instruction{Op: lir.OpEqz64, Dst: dst, Src: sr.Lo, Src2: sr.Hi})
		return
	}
	sr := b.reg32(src)
	b.emit(lir.Instruction{Op: lir.OpEqz, Dst: dst, Src: sr})
}
