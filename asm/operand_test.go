package asm

import "testing"

import "github.com/stretchr/testify/require"

func TestReg_Size(t *testing.T) {
	require.Equal(t, Size8, AL.Size())
	require.Equal(t, Size8, AH.Size())
	require.Equal(t, Size16, AX.Size())
	require.Equal(t, Size32, EAX.Size())
	require.Equal(t, Size64, RAX.Size())
	require.Equal(t, Size128, XMM0.Size())
}

func TestReg_NeedsREXForExtension(t *testing.T) {
	require.False(t, RAX.NeedsREXForExtension())
	require.True(t, R9.NeedsREXForExtension())
	require.True(t, R8.NeedsREXForExtension())
	require.True(t, R15.NeedsREXForExtension())
	// Segment/control/debug registers never need a REX extension bit.
	require.False(t, Reg{Index: 9, Kind: RegKindSegment}.NeedsREXForExtension())
}

func TestReg_Bits3(t *testing.T) {
	require.Equal(t, byte(0), RAX.Bits3())
	require.Equal(t, byte(7), RDI.Bits3())
	require.Equal(t, byte(0), R8.Bits3())  // index 8 -> 3 low bits == 0
	require.Equal(t, byte(7), R15.Bits3()) // index 15 -> 3 low bits == 7
}

func TestNamedRegisters_IndexOrdering(t *testing.T) {
	// AX/CX/DX/BX/SP/BP/SI/DI, then R8-R15 (spec.md §3's standard
	// encoding order).
	require.Equal(t, uint8(0), RAX.Index)
	require.Equal(t, uint8(4), RSP.Index)
	require.Equal(t, uint8(5), RBP.Index)
	require.Equal(t, uint8(8), R8.Index)
	require.Equal(t, uint8(15), R15.Index)
}

func TestMemBuilders(t *testing.T) {
	m := DwordPtr(RBP, -8)
	require.Equal(t, Size32, m.Size())
	require.Equal(t, RBP, *m.Base)
	require.Equal(t, int32(-8), m.Disp)

	idx := Indexed(RAX, RCX, 4, 16, Size64)
	require.Equal(t, RAX, *idx.Base)
	require.Equal(t, RCX, *idx.Index)
	require.Equal(t, byte(4), idx.Scale)
	require.Equal(t, int32(16), idx.Disp)
}

func TestLabelMem(t *testing.T) {
	l := NewLabel()
	m := LabelMem(l, Size64)
	require.Same(t, l, m.Label)
	require.Nil(t, m.Base)
	require.Nil(t, m.Index)
}

func TestImm_HasRelocation(t *testing.T) {
	plain := ImmValue(42)
	require.False(t, plain.HasRelocation())

	l := NewLabel()
	reloc := ImmLabelAddr(l)
	require.True(t, reloc.HasRelocation())
	require.Equal(t, RelocAbsoluteLabel, reloc.Reloc)
	require.Same(t, l, reloc.Label)
}

func TestSize_String(t *testing.T) {
	cases := map[Size]string{
		SizeUnspecified: "unspecified",
		Size8:           "byte",
		Size16:          "word",
		Size32:          "dword",
		Size64:          "qword",
		Size128:         "xmmword",
	}
	for size, want := range cases {
		require.Equal(t, want, size.String())
	}
}
