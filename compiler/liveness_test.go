package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestComputeLiveness_ExtendsArgumentFirstUseToFunctionEntry builds the
// small function `f(a, b) { a += b; r := a; return r }` and checks that a
// and b are live from function entry (index 0) even though their first
// read/write inside the body happens later, while an unreferenced variable
// keeps the liveness pass's zero value.
func TestComputeLiveness_ExtendsArgumentFirstUseToFunctionEntry(t *testing.T) {
	c := NewCompiler()
	resultKind := VarInt32
	decl, args, err := c.DeclareFunction("f", SystemVAMD64, []VarKind{VarInt32, VarInt32}, &resultKind)
	require.NoError(t, err)
	a, b := args[0], args[1]
	result := decl.Result

	unused := c.NewVariable(VarInt32)

	require.NoError(t, c.Add(a, b))
	require.NoError(t, c.Mov(result, a))
	require.NoError(t, c.Ret())
	require.NoError(t, c.EndFunction(decl))

	numberEmittables(c.head)
	computeLiveness(c.head, c.variables)

	require.Equal(t, 0, a.firstUse)
	require.Equal(t, 2, a.lastUse)

	require.Equal(t, 0, b.firstUse)
	require.Equal(t, 1, b.lastUse)

	require.Equal(t, 2, result.firstUse)
	require.Equal(t, 3, result.lastUse)

	require.Equal(t, 0, unused.firstUse)
	require.Equal(t, 0, unused.lastUse)
}

func TestNumberEmittables_AssignsStrictlyIncreasingIndices(t *testing.T) {
	c := NewCompiler()
	require.NoError(t, c.Comment("one"))
	require.NoError(t, c.Comment("two"))
	require.NoError(t, c.Comment("three"))

	numberEmittables(c.head)

	i := 0
	for e := c.head; e != nil; e = e.emittableNode().next {
		require.Equal(t, i, e.emittableNode().index)
		i++
	}
	require.Equal(t, 3, i)
}
