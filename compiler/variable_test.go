package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tunnelvisionlabs/nasmjit-sub000/asm"
)

func TestVarKind_RegisterTypeAndSize(t *testing.T) {
	require.Equal(t, RegisterTypeGP, VarInt32.RegisterType())
	require.Equal(t, RegisterTypeGP, VarInt64.RegisterType())
	require.Equal(t, RegisterTypeXMM, VarFloat32.RegisterType())
	require.Equal(t, RegisterTypeXMM, VarFloat64.RegisterType())

	require.Equal(t, asm.Size32, VarInt32.Size())
	require.Equal(t, asm.Size64, VarInt64.Size())
	require.Equal(t, asm.Size32, VarFloat32.Size())
	require.Equal(t, asm.Size64, VarFloat64.Size())
}

func TestVariable_PinUnpin(t *testing.T) {
	v := newVariable(0, VarInt32)
	require.False(t, v.pin)
	v.Pin()
	require.True(t, v.pin)
	v.Unpin()
	require.False(t, v.pin)
}

func TestVariable_PreferRegister(t *testing.T) {
	v := newVariable(0, VarInt64)
	require.Nil(t, v.preferredReg)
	v.PreferRegister(asm.R9)
	require.NotNil(t, v.preferredReg)
	require.Equal(t, asm.R9, *v.preferredReg)
}

func TestVariable_OnRegisterReflectsAllocatorLocation(t *testing.T) {
	v := newVariable(0, VarInt32)
	require.False(t, v.OnRegister())
	v.loc = location{placed: true, inRegister: true, reg: asm.EAX}
	require.True(t, v.OnRegister())
}

func TestCompiler_NewVariableAssignsIncreasingIDs(t *testing.T) {
	c := NewCompiler()
	a := c.NewVariable(VarInt32)
	b := c.NewVariable(VarInt64)
	require.Equal(t, 0, a.ID)
	require.Equal(t, 1, b.ID)
	require.Len(t, c.variables, 2)
}
