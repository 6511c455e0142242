package ssa

// Opcode identifies the operation an Instruction performs. Mirrors the
// instruction families enumerated in the component design: constant sets,
// binary arithmetic, shifts/rotates, bitwise ops, comparisons, counting
// ops, memory access, extensions/wraps, select, and calls.
type Opcode uint32

const (
	OpInvalid Opcode = iota

	// Constant materialization.
	OpI32Set
	OpI64Set

	// Binary arithmetic, dispatched further by the Dest type (operand width).
	OpAdd
	OpSub
	OpMul
	OpDivS
	OpDivU
	OpRemS
	OpRemU

	// Shifts and rotates.
	OpShl
	OpShrS
	OpShrU
	OpRotl
	OpRotr

	// Bitwise.
	OpAnd
	OpOr
	OpXor

	// Comparisons; result is always I32.
	OpEq
	OpNe
	OpLtS
	OpLtU
	OpGtS
	OpGtU
	OpLeS
	OpLeU
	OpGeS
	OpGeU

	// Counting.
	OpPopcnt
	OpClz
	OpCtz
	OpEqz

	// Memory.
	OpLoad32
	OpLoad64
	OpLoad32S // 8/16-bit narrowing loads carry their source width in Instruction.Narrow.
	OpLoad32U
	OpLoad64S
	OpLoad64U
	OpStore32
	OpStore64
	OpStore8
	OpStore16

	// Extensions / wraps.
	OpExtend8S
	OpExtend16S
	OpExtend32S
	OpExtend32U
	OpWrap

	OpSelect

	OpCall
	OpCallIndirect

	// Intrinsics forwarded verbatim: register-assignment is the only
	// concern of this core, not their runtime semantics.
	OpMemset       // Args: dest, value, length; Dest: result (all I32).
	OpTurtle       // world-interaction op; Args/Dest arity varies by kind, opaque here.
	OpPrintInt     // Args[0]: value.
	OpPutChar      // Args[0]: char code.
	OpWasiProcExit // Args[0]: exit code.
	OpTodo         // no operands; Message carries the forwarded diagnostic text.
)

// NarrowWidth enumerates the narrowing width of a narrowing load, stored
// in Instruction.Narrow.
type NarrowWidth byte

const (
	Narrow32 NarrowWidth = iota
	Narrow16
	Narrow8
)

func (o Opcode) String() string {
	switch o {
	case OpI32Set:
		return "I32Set"
	case OpI64Set:
		return "I64Set"
	case OpAdd:
		return "Add"
	case OpSub:
		return "Sub"
	case OpMul:
		return "Mul"
	case OpDivS:
		return "DivS"
	case OpDivU:
		return "DivU"
	case OpRemS:
		return "RemS"
	case OpRemU:
		return "RemU"
	case OpShl:
		return "Shl"
	case OpShrS:
		return "ShrS"
	case OpShrU:
		return "ShrU"
	case OpRotl:
		return "Rotl"
	case OpRotr:
		return "Rotr"
	case OpAnd:
		return "And"
	case OpOr:
		return "Or"
	case OpXor:
		return "Xor"
	case OpEq:
		return "Eq"
	case OpNe:
		return "Ne"
	case OpLtS:
		return "LtS"
	case OpLtU:
		return "LtU"
	case OpGtS:
		return "GtS"
	case OpGtU:
		return "GtU"
	case OpLeS:
		return "LeS"
	case OpLeU:
		return "LeU"
	case OpGeS:
		return "GeS"
	case OpGeU:
		return "GeU"
	case OpPopcnt:
		return "Popcnt"
	case OpClz:
		return "Clz"
	case OpCtz:
		return "Ctz"
	case OpEqz:
		return "Eqz"
	case OpLoad32, OpLoad64, OpLoad32S, OpLoad32U, OpLoad64S, OpLoad64U:
		return "Load"
	case OpStore32, OpStore64, OpStore8, OpStore16:
		return "Store"
	case OpExtend8S:
		return "Extend8S"
	case OpExtend16S:
		return "Extend16S"
	case OpExtend32S:
		return "Extend32S"
	case OpExtend32U:
		return "Extend32U"
	case OpWrap:
		return "Wrap"
	case OpSelect:
		return "Select"
	case OpCall:
		return "Call"
	case OpCallIndirect:
		return "CallIndirect"
	case OpMemset:
		return "Memset"
	case OpTurtle:
		return "Turtle"
	case OpPrintInt:
		return "PrintInt"
	case OpPutChar:
		return "PutChar"
	case OpWasiProcExit:
		return "WasiProcExit"
	case OpTodo:
		return "Todo"
	default:
		return "Invalid"
	}
}

// IsComparison reports whether op always produces an I32 boolean result.
func (o Opcode) IsComparison() bool {
	switch o {
	case OpEq, OpNe, OpLtS, OpLtU, OpGtS, OpGtU, OpLeS, OpLeU, OpGeS, OpGeU:
		return true
	default:
		return false
	}
}

// IsNarrowLoad reports whether op is an 8/16-bit narrowing load.
func (o Opcode) IsNarrowLoad() bool {
	switch o {
	case OpLoad32S, OpLoad32U, OpLoad64S, OpLoad64U:
		return true
	default:
		return false
	}
}

// IsSignedNarrowLoad reports whether a narrowing load sign-extends.
func (o Opcode) IsSignedNarrowLoad() bool {
	return o == OpLoad32S || o == OpLoad64S
}
