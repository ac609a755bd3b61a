package asm

import "errors"

// Code identifies the category of a latched Assembler error. The zero value
// means "no error".
type Code int

const (
	// NoError means nothing has gone wrong yet.
	NoError Code = iota
	// ErrCodeAllocationFailure means the Buffer or the executable memory
	// manager ran out of memory while growing.
	ErrCodeAllocationFailure
	// ErrCodeInvalidOperand means an instruction was asked to encode an
	// operand kind/size combination that no legal form accepts.
	ErrCodeInvalidOperand
	// ErrCodeInvalidImmediate means an immediate does not fit the encoded
	// slot for the instruction form chosen.
	ErrCodeInvalidImmediate
	// ErrCodeLabelMisuse means a Label was bound twice, or a linked Label
	// was never bound by the time Make was called.
	ErrCodeLabelMisuse
)

func (c Code) String() string {
	switch c {
	case NoError:
		return "no error"
	case ErrCodeAllocationFailure:
		return "allocation failure"
	case ErrCodeInvalidOperand:
		return "invalid operand combination"
	case ErrCodeInvalidImmediate:
		return "invalid immediate"
	case ErrCodeLabelMisuse:
		return "label misuse"
	default:
		return "unknown error"
	}
}

// Error is the latched error type returned by Make and reported by Err.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Msg
}

// Is allows errors.Is(err, asm.ErrInvalidOperand) style checks against the
// Code carried by an *Error.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// Sentinel errors for errors.Is comparisons against Code alone.
var (
	ErrAllocationFailure = &Error{Code: ErrCodeAllocationFailure}
	ErrInvalidOperand    = &Error{Code: ErrCodeInvalidOperand}
	ErrInvalidImmediate  = &Error{Code: ErrCodeInvalidImmediate}
	ErrLabelMisuse       = &Error{Code: ErrCodeLabelMisuse}
)

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// NewInvalidOperandError builds a latchable *Error with ErrCodeInvalidOperand,
// for use by sibling packages (e.g. amd64) that detect illegal operand
// combinations while encoding.
func NewInvalidOperandError(msg string) error {
	return newError(ErrCodeInvalidOperand, msg)
}

// NewInvalidImmediateError builds a latchable *Error with ErrCodeInvalidImmediate.
func NewInvalidImmediateError(msg string) error {
	return newError(ErrCodeInvalidImmediate, msg)
}

// NewLabelMisuseError builds a latchable *Error with ErrCodeLabelMisuse.
func NewLabelMisuseError(msg string) error {
	return newError(ErrCodeLabelMisuse, msg)
}

// NewAllocationError builds a latchable *Error with ErrCodeAllocationFailure.
func NewAllocationError(msg string) error {
	return newError(ErrCodeAllocationFailure, msg)
}
