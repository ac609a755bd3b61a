package compiler

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm/amd64"

// mnemonicFamily names a width-polymorphic operation independent of the
// operand size the asm/amd64 Mnemonic constants bake in; amd64op resolves
// one down to the concrete L/Q-suffixed constant for a given VarKind
// (spec.md §4.4.2: Variables carry a kind, not a fixed register width).
type mnemonicFamily int

const (
	mnemAdd mnemonicFamily = iota
	mnemSub
	mnemMul
	mnemXor
	mnemAnd
	mnemOr
	mnemCmp
	mnemMov
)

// amd64op resolves family to the asm/amd64 Mnemonic matching kind's width.
// Float kinds route arithmetic through the scalar SSE family regardless of
// the integer L/Q split, since Variable.Kind.RegisterType already routed
// them to the XMM file.
func amd64op(kind VarKind, family mnemonicFamily) amd64.Mnemonic {
	if kind.RegisterType() == RegisterTypeXMM {
		return floatOp(kind, family)
	}
	is64 := kind == VarInt64
	switch family {
	case mnemAdd:
		if is64 {
			return amd64.ADDQ
		}
		return amd64.ADDL
	case mnemSub:
		if is64 {
			return amd64.SUBQ
		}
		return amd64.SUBL
	case mnemMul:
		if is64 {
			return amd64.IMULQ
		}
		return amd64.IMULL
	case mnemXor:
		if is64 {
			return amd64.XORQ
		}
		return amd64.XORL
	case mnemAnd:
		if is64 {
			return amd64.ANDQ
		}
		return amd64.ANDL
	case mnemOr:
		if is64 {
			return amd64.ORQ
		}
		return amd64.ORL
	case mnemCmp:
		if is64 {
			return amd64.CMPQ
		}
		return amd64.CMPL
	case mnemMov:
		if is64 {
			return amd64.MOVQ
		}
		return amd64.MOVL
	default:
		return amd64.NONE
	}
}

func floatOp(kind VarKind, family mnemonicFamily) amd64.Mnemonic {
	isDouble := kind == VarFloat64
	switch family {
	case mnemAdd:
		if isDouble {
			return amd64.ADDSD
		}
		return amd64.ADDSS
	case mnemSub:
		if isDouble {
			return amd64.SUBSD
		}
		return amd64.SUBSS
	case mnemMul:
		if isDouble {
			return amd64.MULSD
		}
		return amd64.MULSS
	case mnemXor:
		return amd64.XORPS
	case mnemAnd:
		return amd64.ANDPS
	case mnemCmp:
		if isDouble {
			return amd64.COMISD
		}
		return amd64.COMISS
	case mnemMov:
		if isDouble {
			return amd64.MOVSD
		}
		return amd64.MOVSS
	default:
		return amd64.NONE
	}
}
