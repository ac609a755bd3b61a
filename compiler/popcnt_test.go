package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tunnelvisionlabs/nasmjit-sub000/cpuid"
	"github.com/tunnelvisionlabs/nasmjit-sub000/memory"
)

// fakeCPUInfo lets a test pin the feature set a Compiler observes, rather
// than depending on whatever the machine running the test actually has
// (spec.md §6's CPU info collaborator is an interface for exactly this
// reason).
type fakeCPUInfo struct {
	has map[cpuid.Feature]bool
}

func (f fakeCPUInfo) Has(feature cpuid.Feature) bool { return f.has[feature] }
func (f fakeCPUInfo) VendorString() string           { return "fake" }

// TestCompiler_PopulationCount_EmitsOnSupportedHost builds
// `f(a int32) int32 { return popcount(a) }` and checks that the installed
// bytes contain the POPCNT opcode, on a fake CPU that advertises POPCNT.
func TestCompiler_PopulationCount_EmitsOnSupportedHost(t *testing.T) {
	c := NewCompiler(WithCPUInfo(fakeCPUInfo{has: map[cpuid.Feature]bool{cpuid.FeaturePOPCNT: true}}))
	resultKind := VarInt32
	decl, args, err := c.DeclareFunction("f", SystemVAMD64, []VarKind{VarInt32}, &resultKind)
	require.NoError(t, err)

	require.NoError(t, c.PopulationCount(decl.Result, args[0]))
	require.NoError(t, c.Ret())
	require.NoError(t, c.EndFunction(decl))

	mgr := memory.NewManager()
	defer mgr.Reset()
	code, err := c.Make(mgr)
	require.NoError(t, err)
	defer mgr.Free(code)

	require.Contains(t, string(code.Bytes()), string([]byte{0xF3, 0x0F, 0xB8}), "F3 0F B8 is the POPCNT r32, r/m32 opcode")
}

// TestCompiler_PopulationCount_RejectsUnsupportedHost checks that a fake CPU
// without the POPCNT bit latches an error instead of emitting an
// instruction the host cannot execute.
func TestCompiler_PopulationCount_RejectsUnsupportedHost(t *testing.T) {
	c := NewCompiler(WithCPUInfo(fakeCPUInfo{}))
	resultKind := VarInt32
	decl, args, err := c.DeclareFunction("f", SystemVAMD64, []VarKind{VarInt32}, &resultKind)
	require.NoError(t, err)

	err = c.PopulationCount(decl.Result, args[0])
	require.Error(t, err)
	require.Equal(t, err, c.Err())
}

// TestCompiler_PopulationCount_RejectsMismatchedKinds checks the
// general-purpose-only, matching-width validation independent of the CPU
// feature gate.
func TestCompiler_PopulationCount_RejectsMismatchedKinds(t *testing.T) {
	c := NewCompiler(WithCPUInfo(fakeCPUInfo{has: map[cpuid.Feature]bool{cpuid.FeaturePOPCNT: true}}))
	resultKind := VarInt64
	decl, args, err := c.DeclareFunction("f", SystemVAMD64, []VarKind{VarInt32}, &resultKind)
	require.NoError(t, err)

	require.Error(t, c.PopulationCount(decl.Result, args[0]))
}
