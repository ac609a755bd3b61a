package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func declareFunction(t *testing.T, c *Compiler, conv CallingConvention, argKinds []VarKind) (*FunctionDecl, []*Variable) {
	t.Helper()
	decl, args, err := c.DeclareFunction("f", conv, argKinds, nil)
	require.NoError(t, err)
	return decl, args
}

// TestAllocateFunction_BindsArgumentsInConventionOrder declares seven int32
// arguments under SystemVAMD64: once a calling convention's
// register slots are exhausted, further arguments land on the incoming
// stack frame rather than in a register.
func TestAllocateFunction_BindsArgumentsInConventionOrder(t *testing.T) {
	c := NewCompiler()
	kinds := make([]VarKind, 7)
	for i := range kinds {
		kinds[i] = VarInt32
	}
	decl, args := declareFunction(t, c, SystemVAMD64, kinds)
	body := referencedVariables(decl, c.head)

	alloc := allocateFunction(decl, body, SystemVAMD64)

	for i, want := range SystemVAMD64.IntArgRegs {
		require.True(t, args[i].loc.inRegister)
		require.Equal(t, want, args[i].loc.reg)
	}
	// The 7th argument overflows SystemVAMD64's 6 integer argument
	// registers and must arrive on the incoming stack frame.
	require.False(t, args[6].loc.inRegister)
	require.True(t, args[6].loc.incoming)
	require.Equal(t, 16, args[6].loc.stackSlot)

	require.Empty(t, alloc.clobberedCalleeSaved, "sysv's argument registers are all caller-saved")
}

// TestAllocateFunction_SpillsFarthestNextUseOnEviction fills every
// general-purpose slot, then forces an eviction: the active interval with
// the farthest-away next use (spec.md §4.4.3) must be the one spilled, not
// an arbitrary one.
func TestAllocateFunction_SpillsFarthestNextUseOnEviction(t *testing.T) {
	c := NewCompiler()
	decl, _ := declareFunction(t, c, SystemVAMD64, nil)

	var body []*Variable
	for i := 0; i < len(gpPool); i++ {
		v := c.NewVariable(VarInt32)
		v.firstUse = i + 1
		v.lastUse = 50
		body = append(body, v)
	}
	body[0].lastUse = 999 // farthest next use of the whole active set

	late := c.NewVariable(VarInt32)
	late.firstUse = len(gpPool) + 1
	late.lastUse = len(gpPool) + 2
	body = append(body, late)

	alloc := allocateFunction(decl, body, SystemVAMD64)

	require.False(t, body[0].loc.inRegister, "the farthest-next-use variable must be the one spilled")
	require.Equal(t, 0, body[0].loc.stackSlot)
	require.True(t, late.loc.inRegister)
	require.Equal(t, gpPool[0], late.loc.reg, "the evicted register is reused immediately")
	require.Equal(t, 8, alloc.frameSize)
}

// TestAllocateFunction_NeverEvictsAPinnedVariable covers spec.md §9
// "Register allocator locking": a pinned variable must survive eviction
// pressure even when it would otherwise be the best victim.
func TestAllocateFunction_NeverEvictsAPinnedVariable(t *testing.T) {
	c := NewCompiler()
	decl, _ := declareFunction(t, c, SystemVAMD64, nil)

	var body []*Variable
	for i := 0; i < len(gpPool); i++ {
		v := c.NewVariable(VarInt32)
		v.firstUse = i + 1
		v.lastUse = 50
		body = append(body, v)
	}
	body[0].lastUse = 999
	body[0].Pin()
	body[1].lastUse = 800

	late := c.NewVariable(VarInt32)
	late.firstUse = len(gpPool) + 1
	late.lastUse = len(gpPool) + 2
	body = append(body, late)

	alloc := allocateFunction(decl, body, SystemVAMD64)

	require.True(t, body[0].loc.inRegister, "a pinned variable must never be evicted")
	require.False(t, body[1].loc.inRegister, "the next-best (unpinned) victim is spilled instead")
	require.True(t, late.loc.inRegister)
	require.Equal(t, gpPool[1], late.loc.reg, "the evicted register (originally body[1]'s) is reused immediately")
}

// TestAllocateFunction_UnreferencedVariableGetsNoHome verifies a Variable
// with zero firstUse/lastUse (never read or written) is skipped entirely,
// matching computeLiveness's documented zero-value convention.
func TestAllocateFunction_UnreferencedVariableGetsNoHome(t *testing.T) {
	c := NewCompiler()
	decl, _ := declareFunction(t, c, SystemVAMD64, nil)
	unused := c.NewVariable(VarInt32)

	allocateFunction(decl, []*Variable{unused}, SystemVAMD64)

	require.False(t, unused.loc.placed)
}
