// Package lir defines the low-level IR that the lowering core produces:
// every value here is a concrete 32-bit register, every control transfer is
// an explicit jump/push/trampoline, and every 64-bit value has already been
// split into a (lo, hi) pair of Registers.
package lir

import "fmt"

// RegKind tags a Register's origin: a work register assigned by the
// allocator, a parameter/return slot, a scratch temp, a compile-time
// constant, or the distinguished condition-taken flag used by branch
// lowering.
type RegKind byte

const (
	RegInvalid RegKind = iota
	RegWork
	RegParam
	RegReturn
	RegTemp
	RegConst
	RegCondTaken
)

// Register is a symbolic 32-bit location with a tagged origin.
type Register struct {
	Kind RegKind
	// Func/RepID identify a RegWork register: (func_id, coalesced
	// representative id). Half distinguishes the low and high 32-bit work
	// register of a 64-bit merged register sharing the same RepID — this is
	// what keeps register naming type-stable without
	// resorting to arithmetic tricks on RepID that could collide with an
	// unrelated variable's representative id. Index identifies
	// RegParam/RegReturn/RegTemp. Value holds the literal for RegConst.
	Func  uint32
	RepID uint32
	Half  byte
	Index uint32
	Value int32
}

func Work(funcID, repID uint32) Register { return Register{Kind: RegWork, Func: funcID, RepID: repID} }

// WorkHi returns the high half of the 64-bit work register sharing repID
// with Work(funcID, repID)'s low half.
func WorkHi(funcID, repID uint32) Register {
	return Register{Kind: RegWork, Func: funcID, RepID: repID, Half: 1}
}

func Param(idx uint32) Register  { return Register{Kind: RegParam, Index: idx} }
func Return(idx uint32) Register { return Register{Kind: RegReturn, Index: idx} }
func Temp(idx uint32) Register   { return Register{Kind: RegTemp, Index: idx} }
func Const(v int32) Register     { return Register{Kind: RegConst, Value: v} }

var CondTaken = Register{Kind: RegCondTaken}

// IsConst reports whether r is a compile-time constant register.
func (r Register) IsConst() bool { return r.Kind == RegConst }

func (r Register) String() string {
	switch r.Kind {
	case RegWork:
		if r.Half == 1 {
			return fmt.Sprintf("w%d.%d.hi", r.Func, r.RepID)
		}
		return fmt.Sprintf("w%d.%d", r.Func, r.RepID)
	case RegParam:
		return fmt.Sprintf("p%d", r.Index)
	case RegReturn:
		return fmt.Sprintf("ret%d", r.Index)
	case RegTemp:
		return fmt.Sprintf("t%d", r.Index)
	case RegConst:
		return fmt.Sprintf("#%d", r.Value)
	case RegCondTaken:
		return "cond_taken"
	default:
		return "invalid"
	}
}

// DoubleRegister is a pair of 32-bit registers treated as (lo, hi) halves of
// a 64-bit value. Two doubles are equal iff both halves are equal.
type DoubleRegister struct {
	Lo, Hi Register
}

func (d DoubleRegister) Equal(o DoubleRegister) bool { return d.Lo == o.Lo && d.Hi == o.Hi }

func (d DoubleRegister) String() string { return fmt.Sprintf("(%s,%s)", d.Lo, d.Hi) }

// StaticValue is the constant-propagation lattice element attached to a
// RegisterWithInfo: either Unknown, or a known compile-time Constant.
type StaticValue struct {
	known bool
	value int32
}

var StaticUnknown = StaticValue{}

func StaticConstant(v int32) StaticValue { return StaticValue{known: true, value: v} }

func (s StaticValue) Known() bool { return s.known }

// Value returns the known constant. Panics if !Known().
func (s StaticValue) Value() int32 {
	if !s.known {
		panic("BUG: StaticValue is Unknown")
	}
	return s.value
}

// RegisterWithInfo pairs a register with optional compile-time knowledge
// about the integer it holds, used for memory operands. A register of Kind
// RegConst is itself compile-time-known regardless of the attached
// StaticValue; both sources of constness are honored independently by
// consumers.
type RegisterWithInfo struct {
	Reg    Register
	Static StaticValue
}

// IsKnown reports whether the effective address is known at compile time,
// either via the register itself being a constant or via propagated static
// information.
func (r RegisterWithInfo) IsKnown() bool { return r.Reg.IsConst() || r.Static.Known() }

// KnownValue returns the compile-time-known value, preferring the
// register's own constant over the attached StaticValue when both are
// known (they must agree; this is an invariant of the emitter).
func (r RegisterWithInfo) KnownValue() int32 {
	if r.Reg.IsConst() {
		return r.Reg.Value
	}
	return r.Static.Value()
}
