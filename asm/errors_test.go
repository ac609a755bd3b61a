package asm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCodeOnly(t *testing.T) {
	err := NewInvalidOperandError("bad operand")
	require.True(t, errors.Is(err, ErrInvalidOperand))
	require.False(t, errors.Is(err, ErrLabelMisuse))
}

func TestError_MessageFormatting(t *testing.T) {
	err := NewAllocationError("out of pages")
	require.Equal(t, "allocation failure: out of pages", err.Error())

	bare := &Error{Code: ErrCodeLabelMisuse}
	require.Equal(t, "label misuse", bare.Error())
}
