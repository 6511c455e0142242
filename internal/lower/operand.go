package lower

import (
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/ssa"
)

// reg32 resolves a 32-bit (or narrower) SSA operand to a LIR register.
func (b *Builder) reg32(o ssa.VarOrConst) lir.Register {
	if o.IsConst() {
		return b.constReg(o.ConstI32())
	}
	return b.alloc.Get(o.Var())
}

// reg64 resolves a 64-bit SSA operand to a LIR DoubleRegister.
func (b *Builder) reg64(o ssa.VarOrConst) lir.DoubleRegister {
	if o.IsConst() {
		v := o.ConstI64()
		return lir.DoubleRegister{
			Lo: b.constReg(int32(uint32(v))),
			Hi: b.constReg(int32(uint32(v >> 32))),
		}
	}
	return b.alloc.GetDouble(o.Var())
}

// staticOf returns the propagated StaticValue for operand o, honoring a
// literal constant operand directly.
func (b *Builder) staticOf(o ssa.VarOrConst) lir.StaticValue {
	if o.IsConst() {
		return lir.StaticConstant(o.ConstI32())
	}
	return b.cp.At(b.curID.Block, o.Var())
}

// destReg resolves an instruction's I32-class destination.
func (b *Builder) destReg(v ssa.Var) lir.Register { return b.alloc.Get(v) }

// destReg64 resolves an instruction's I64-class destination.
func (b *Builder) destReg64(v ssa.Var) lir.DoubleRegister { return b.alloc.GetDouble(v) }
