package ssa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueTypeBits(t *testing.T) {
	require.Equal(t, 32, I32.Bits())
	require.Equal(t, 32, F32.Bits())
	require.Equal(t, 64, I64.Bits())
	require.Equal(t, 64, F64.Bits())
}

func TestValueTypeBitsPanicsOnInvalid(t *testing.T) {
	require.Panics(t, func() { TypeInvalid.Bits() })
}

func TestValueTypeString(t *testing.T) {
	require.Equal(t, "i32", I32.String())
	require.Equal(t, "i64", I64.String())
	require.Equal(t, "invalid", TypeInvalid.String())
}

func TestVarValid(t *testing.T) {
	require.False(t, VarInvalid.Valid())
	require.True(t, Var{ID: 0, Type: I32}.Valid())
}

func TestVarOperandRoundTrip(t *testing.T) {
	v := Var{ID: 3, Type: I64}
	o := VarOperand(v)
	require.False(t, o.IsConst())
	require.Equal(t, v, o.Var())
	require.Equal(t, I64, o.Type())
}

func TestConstI32OperandRoundTrip(t *testing.T) {
	o := ConstI32Operand(-7)
	require.True(t, o.IsConst())
	require.Equal(t, I32, o.Type())
	require.Equal(t, int32(-7), o.ConstI32())
}

func TestConstI64OperandRoundTrip(t *testing.T) {
	o := ConstI64Operand(-1234567890123)
	require.True(t, o.IsConst())
	require.Equal(t, I64, o.Type())
	require.Equal(t, int64(-1234567890123), o.ConstI64())
}

func TestConstI32PanicsOnVarOperand(t *testing.T) {
	o := VarOperand(Var{ID: 1, Type: I32})
	require.Panics(t, func() { o.ConstI32() })
}

func TestVarPanicsOnConstOperand(t *testing.T) {
	o := ConstI32Operand(1)
	require.Panics(t, func() { o.Var() })
}
