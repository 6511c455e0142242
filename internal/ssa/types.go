// Package ssa defines the typed SSA program shape that the lowering core
// consumes: the WebAssembly parser and SSA constructor are external
// collaborators (out of scope) that produce values of these types.
package ssa

import "fmt"

// ValueType is the type of an SSA variable.
type ValueType byte

const (
	TypeInvalid ValueType = iota
	I32
	I64
	F32
	F64
)

// Bits reports the width in bits of t.
func (t ValueType) Bits() int {
	switch t {
	case I32, F32:
		return 32
	case I64, F64:
		return 64
	default:
		panic(fmt.Sprintf("BUG: invalid value type %d", t))
	}
}

func (t ValueType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "invalid"
	}
}

// FuncID identifies a function within a Program.
type FuncID uint32

// BlockID identifies a basic block within a function.
type BlockID struct {
	Func  FuncID
	Block uint32
}

func (b BlockID) String() string { return fmt.Sprintf("blk%d.%d", b.Func, b.Block) }

// Var is a typed SSA variable: exactly one definition per ID across the
// owning function.
type Var struct {
	ID   uint32
	Type ValueType
}

var VarInvalid = Var{ID: ^uint32(0)}

func (v Var) Valid() bool { return v.ID != VarInvalid.ID }

func (v Var) String() string { return fmt.Sprintf("v%d:%s", v.ID, v.Type) }

// VarOrConst is an operand position that may carry either a variable or a
// literal constant. The variant's type must match the instruction's
// expected operand type.
type VarOrConst struct {
	isConst bool
	v       Var
	// bits holds the constant's raw bit pattern, sign/zero irrelevant at
	// this layer: consumers interpret per the operand's declared type.
	bits uint64
	typ  ValueType
}

func VarOperand(v Var) VarOrConst { return VarOrConst{v: v, typ: v.Type} }

func ConstI32Operand(v int32) VarOrConst {
	return VarOrConst{isConst: true, bits: uint64(uint32(v)), typ: I32}
}

func ConstI64Operand(v int64) VarOrConst {
	return VarOrConst{isConst: true, bits: uint64(v), typ: I64}
}

func (o VarOrConst) IsConst() bool { return o.isConst }

func (o VarOrConst) Type() ValueType { return o.typ }

// Var returns the operand's variable. Panics if the operand is a constant.
func (o VarOrConst) Var() Var {
	if o.isConst {
		panic("BUG: VarOrConst is a constant, not a variable")
	}
	return o.v
}

// ConstI32 returns the operand's constant value as an i32. Panics if this
// operand is not a constant or not of type I32.
func (o VarOrConst) ConstI32() int32 {
	if !o.isConst || o.typ != I32 {
		panic("BUG: VarOrConst is not an i32 constant")
	}
	return int32(uint32(o.bits))
}

// ConstI64 returns the operand's constant value as an i64.
func (o VarOrConst) ConstI64() int64 {
	if !o.isConst || o.typ != I64 {
		panic("BUG: VarOrConst is not an i64 constant")
	}
	return int64(o.bits)
}

func (o VarOrConst) String() string {
	if o.isConst {
		return fmt.Sprintf("%d:%s", int64(o.bits), o.typ)
	}
	return o.v.String()
}
