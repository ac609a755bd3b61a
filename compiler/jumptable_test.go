package compiler

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tunnelvisionlabs/nasmjit-sub000/memory"
)

// TestCompiler_JumpTableEntriesResolveToTargetAddresses builds a minimal
// void function with two Targets and an inline jump table over them
// (spec.md §4.4.6), then checks the installed code byte-for-byte: the
// prologue/epilogue framing, the `ret`'s lowering to a jump through the
// function's single shared epilogue, and the two jump-table slots actually
// holding each Target's installed address.
func TestCompiler_JumpTableEntriesResolveToTargetAddresses(t *testing.T) {
	c := NewCompiler()
	decl, _, err := c.DeclareFunction("f", SystemVAMD64, nil, nil)
	require.NoError(t, err)

	t1 := c.NewTarget("a")
	require.NoError(t, c.Bind(t1))
	require.NoError(t, c.Ret())
	t2 := c.NewTarget("b")
	require.NoError(t, c.Bind(t2))
	require.NoError(t, c.EmitJumpTable([]*Target{t1, t2}))
	require.NoError(t, c.EndFunction(decl))

	mgr := memory.NewManager()
	defer mgr.Reset()
	code, err := c.Make(mgr)
	require.NoError(t, err)
	defer mgr.Free(code)

	bytes := code.Bytes()
	require.Len(t, bytes, 35)

	require.Equal(t, []byte{
		0x55,                   // push rbp
		0x48, 0x89, 0xE5,       // mov rbp, rsp
		0x48, 0x83, 0xEC, 0x08, // sub rsp, 8 (no spills; padding for 16-byte alignment)
	}, bytes[0:8])

	require.Equal(t, []byte{0xE9, 0x10, 0x00, 0x00, 0x00}, bytes[8:13], "ret lowers to a jmp to the shared epilogue, 16 bytes ahead")

	require.Equal(t, uint64(code.Addr())+8, binary.LittleEndian.Uint64(bytes[13:21]), "first jump table slot must hold target a's address")
	require.Equal(t, uint64(code.Addr())+13, binary.LittleEndian.Uint64(bytes[21:29]), "second jump table slot must hold target b's address")

	require.Equal(t, []byte{
		0x48, 0x83, 0xC4, 0x08, // add rsp, 8
		0x5D, // pop rbp
		0xC3, // ret
	}, bytes[29:35])
}
