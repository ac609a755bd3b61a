package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/tunnelvisionlabs/nasmjit-sub000/asm"
)

// TestNoop_SatisfiesLogger is a compile-time-flavored sanity check that Noop
// discards every call without panicking; the interface assertion below would
// already fail to compile if Noop's method set drifted from Logger.
func TestNoop_SatisfiesLogger(t *testing.T) {
	var l Logger = Noop{}
	l.Log("text")
	l.LogInstruction("movq %rax, %rbx")
	l.LogAlign(16)
	l.LogComment("comment")

	label := new(asm.Label)
	l.LogLabel(label) // unbound; must not panic reading BoundOffset
}

func TestLogrusLogger_TagsEveryEntryWithComponent(t *testing.T) {
	base, hook := logrustest.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := NewLogrusLogger(base)

	l.Log("hello")
	require.Len(t, hook.Entries, 1)
	require.Equal(t, "asm", hook.LastEntry().Data["component"])
	require.Equal(t, "hello", hook.LastEntry().Message)
}

func TestLogrusLogger_InstructionAndCommentCarryKindField(t *testing.T) {
	base, hook := logrustest.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := NewLogrusLogger(base)

	l.LogInstruction("addl %edi, %esi")
	require.Equal(t, "instruction", hook.LastEntry().Data["kind"])

	l.LogComment("scratch register reused below")
	require.Equal(t, "comment", hook.LastEntry().Data["kind"])

	l.LogAlign(8)
	require.Equal(t, "align", hook.LastEntry().Data["kind"])
	require.Equal(t, "align 8", hook.LastEntry().Message)
}

func TestLogrusLogger_LabelIncludesOffsetOnlyWhenBound(t *testing.T) {
	base, hook := logrustest.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := NewLogrusLogger(base)

	unbound := new(asm.Label)
	l.LogLabel(unbound)
	_, hasOffset := hook.LastEntry().Data["offset"]
	require.False(t, hasOffset)

	buf := asm.NewBuffer(0)
	buf.AppendByte(0x90)
	bound := new(asm.Label)
	require.NoError(t, bound.Bind(buf, buf.Len()))
	l.LogLabel(bound)
	require.Equal(t, 1, hook.LastEntry().Data["offset"])
}

func TestNewLogrusEntryLogger_PreservesCallerFields(t *testing.T) {
	base, hook := logrustest.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	entry := base.WithField("build", "42")
	l := NewLogrusEntryLogger(entry)

	l.Log("hello")
	require.Equal(t, "42", hook.LastEntry().Data["build"])
}
