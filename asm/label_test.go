package asm

import "testing"

import "github.com/stretchr/testify/require"

func TestLabel_UnusedByDefault(t *testing.T) {
	l := NewLabel()
	require.True(t, l.IsUnused())
	require.False(t, l.IsBound())
	require.False(t, l.IsLinked())
}

// TestLabel_SingleForwardReference walks the exact scenario spec.md §3
// describes: one pending forward slot, patched once Bind runs.
func TestLabel_SingleForwardReference(t *testing.T) {
	l := NewLabel()
	buf := NewBuffer(0)

	buf.AppendByte(0xE9) // opcode byte preceding the displacement slot
	slot := buf.Len()
	packed := l.LinkChainAt(slot, ChainKindOther)
	buf.AppendDword(packed)

	require.True(t, l.IsLinked())
	require.False(t, l.IsBound())

	target := buf.Len() + 10 // somewhere further along in the stream
	require.NoError(t, l.Bind(buf, target))

	require.True(t, l.IsBound())
	require.Equal(t, target, l.BoundOffset())

	disp := int32(buf.ReadDword(slot))
	require.Equal(t, int32(target-(slot+4)), disp)
}

// TestLabel_ChainOfMultipleForwardReferences exercises the singly-linked
// chain threading through the buffer itself (spec.md §3): each new
// reference stores the previous pos so Bind can walk and patch every slot
// in one pass.
func TestLabel_ChainOfMultipleForwardReferences(t *testing.T) {
	l := NewLabel()
	buf := NewBuffer(0)

	var slots []int
	for i := 0; i < 3; i++ {
		buf.AppendByte(0xE9)
		slot := buf.Len()
		packed := l.LinkChainAt(slot, ChainKindOther)
		buf.AppendDword(packed)
		slots = append(slots, slot)
		buf.AppendByte(0x90) // padding between references
	}

	target := buf.Len()
	require.NoError(t, l.Bind(buf, target))

	for _, slot := range slots {
		disp := int32(buf.ReadDword(slot))
		require.Equal(t, int32(target-(slot+4)), disp)
	}
}

func TestLabel_DoubleBindIsMisuse(t *testing.T) {
	l := NewLabel()
	buf := NewBuffer(0)
	require.NoError(t, l.Bind(buf, 0))
	err := l.Bind(buf, 4)
	require.Error(t, err)
	var asmErr *Error
	require.ErrorAs(t, err, &asmErr)
	require.Equal(t, ErrCodeLabelMisuse, asmErr.Code)
}

func TestLabel_ChainKindSurvivesPacking(t *testing.T) {
	l := NewLabel()
	buf := NewBuffer(0)
	slot := buf.Len()
	packed := l.LinkChainAt(slot, ChainKindUnconditionalJump)
	require.Equal(t, uint32(1), packed&1)
}
