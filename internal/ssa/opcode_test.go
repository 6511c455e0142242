package ssa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpcodeStringKnownAndUnknown(t *testing.T) {
	require.Equal(t, "Add", OpAdd.String())
	require.Equal(t, "Load", OpLoad64S.String())
	require.Equal(t, "Invalid", Opcode(999).String())
}

func TestIsComparison(t *testing.T) {
	require.True(t, OpLtS.IsComparison())
	require.False(t, OpAdd.IsComparison())
}

func TestIsNarrowLoad(t *testing.T) {
	require.True(t, OpLoad32S.IsNarrowLoad())
	require.True(t, OpLoad64U.IsNarrowLoad())
	require.False(t, OpLoad32.IsNarrowLoad())
}

func TestIsSignedNarrowLoad(t *testing.T) {
	require.True(t, OpLoad32S.IsSignedNarrowLoad())
	require.True(t, OpLoad64S.IsSignedNarrowLoad())
	require.False(t, OpLoad32U.IsSignedNarrowLoad())
	require.False(t, OpLoad64U.IsSignedNarrowLoad())
}
