package lir

import "github.com/tickc/lowcore/internal/ssa"

// Op identifies a LIR instruction's operation. The surface is deliberately
// small and 32-bit-only except for the explicitly dual-width opcodes
// (Add64/Sub64/MulTo64/...).
type Op uint32

const (
	OpInvalid Op = iota

	OpSet    // Set(dst, imm32)
	OpAssign // Assign(dst, src), optionally guarded by Conditions

	// 32-bit two/three-address arithmetic.
	OpAdd
	OpSub
	OpMul
	OpDivS
	OpDivU
	OpRemS
	OpRemU

	// Dedicated 64-bit opcodes (operate on DoubleRegisters).
	OpAdd64
	OpSub64
	OpMulTo64 // four-multiply expansion product, see lower package.
	OpDivS64
	OpDivU64
	OpRemS64
	OpRemU64

	OpShl
	OpShrS
	OpShrU
	OpRotl
	OpRotr
	OpShl64
	OpShrS64
	OpShrU64
	OpRotl64
	OpRotr64

	OpAnd
	OpOr
	OpXor

	// Width-specific comparisons; result is always a 32-bit I32 boolean.
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
	OpEq64
	OpNe64
	OpLtS64
	OpLtU64
	OpGtS64
	OpGtU64
	OpLeS64
	OpLeU64
	OpGeS64
	OpGeU64

	OpPopcntAdd // dst += popcount(src); dst must be pre-zeroed via OpSet.
	OpClz
	OpCtz
	OpClz64
	OpCtz64
	OpEqz
	OpEqz64

	OpSignExtend8
	OpSignExtend16
	OpSignExtend32 // operates on a DoubleRegister: fills Hi from Lo's sign.

	// Width-specific loads/stores with RegisterWithInfo addresses.
	OpLoad32
	OpLoad16S
	OpLoad16U
	OpLoad8S
	OpLoad8U
	OpStore32
	OpStore16
	OpStore8

	OpLocalGet
	OpLocalSet
	OpGlobalGet
	OpGlobalSet

	OpPush
	OpPop
	OpPushReturnAddr
	OpPopReturnAddr
	OpPushLocalFrame
	OpPopLocalFrame

	OpSelect

	OpCall
	OpCallIndirect

	// Intrinsics forwarded verbatim from SSA; register-assignment is the
	// only concern of this core.
	OpMemset
	OpTurtle
	OpPrintInt
	OpPutChar
	OpWasiProcExit
	OpTodo
)

// Half selects the low or high 32-bit half of a 64-bit local slot for
// LocalGet/LocalSet.
type Half byte

const (
	Lo Half = iota
	Hi
)

// Condition guards a conditionalized Assign emitted by parallel-copy
// resolution for branch targets: the move executes only if every
// Condition in the list holds.
type Condition struct {
	Reg    Register
	Negate bool // true means "reg == 0", false means "reg != 0".
	// Eq, when EqValid, replaces the zero test with a comparison against Eq
	// (used by BranchTable guards): "reg == Eq", or "reg != Eq" when Negate
	// is also set.
	EqValid bool
	Eq      int32
}

// Instruction is a single LIR body instruction, one flattened struct per
// the same rationale as ssa.Instruction.
type Instruction struct {
	Op Op

	Dst  Register
	Dst2 Register // second destination half, for 64-bit opcodes.
	Src  Register
	Src2 Register

	Addr RegisterWithInfo
	Offset uint32

	Imm int32

	// Conditions guards this instruction (used only for OpAssign emitted by
	// parallel-copy resolution); empty means unconditional.
	Conditions []Condition

	// StaticOut carries forward operand StaticValue for bitwise ops so a
	// downstream pass can exploit known masks.
	StaticOut StaticValue

	LocalIndex uint32
	LocalHalf  Half

	GlobalIndex uint32

	// Registers holds the ordered save/restore set for Push/Pop.
	Registers []Register

	Label ssa.BlockID // PushReturnAddr target continuation block.

	Callee     ssa.FuncID
	TableIndex uint32
	// ArgRegs/ResultRegs record the Param(i)/Return(i) registers touched by
	// a Call/CallIndirect, purely for diagnostics/tests.
	ArgRegs    []Register
	ResultRegs []Register

	// Intrinsic payload, forwarded verbatim; Args are already
	// register-assigned operands.
	IntrinsicArgs []Register
	// Message is OpTodo's forwarded diagnostic text.
	Message string
}
