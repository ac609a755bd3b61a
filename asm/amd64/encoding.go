package amd64

import (
	"math"

	"github.com/tunnelvisionlabs/nasmjit-sub000/asm"
)

// rex is a REX prefix byte under construction. REX.W/R/X/B bits are
// independent and combine with OR, following spec.md §4.3.2 step 3.
type rex byte

const (
	rexNone rex = 0
	rexBase rex = 0b0100_0000
	rexW    rex = 0b0000_1000 | rexBase
	rexR    rex = 0b0000_0100 | rexBase
	rexX    rex = 0b0000_0010 | rexBase
	rexB    rex = 0b0000_0001 | rexBase
)

// regPosition identifies where a 3-bit register field is destined: ModR/M's
// reg field, ModR/M's r/m field, or SIB's index field. Each maps to a
// different REX extension bit.
type regPosition byte

const (
	posModRMReg regPosition = iota
	posModRMRM
	posSIBIndex
	posSIBBase
)

// register3Bits returns the 3-bit encoding of r plus the REX bit (if any)
// required to address index 8-15, mirroring spec.md §4.3.2 step 3
// ("R, X, B set from the high bit of ...").
func register3Bits(r asm.Reg, pos regPosition) (bits byte, p rex, err error) {
	if r.NeedsREXForExtension() {
		switch pos {
		case posModRMReg:
			p = rexR
		case posModRMRM, posSIBBase:
			p = rexB
		case posSIBIndex:
			p = rexX
		}
	}
	return r.Bits3(), p, nil
}

func fitsSigned32(v int64) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }
func fitsSigned8(v int64) bool  { return v >= math.MinInt8 && v <= math.MaxInt8 }

// modRMRegReg builds the ModR/M byte and REX bits for a register-to-register
// form, where regField picks which operand sits in ModR/M.reg (the other
// goes in ModR/M.rm) exactly as spec.md §4.3.2 step 5's "Register-register"
// case describes.
func modRMRegReg(regField, rmField asm.Reg) (modRM byte, p rex, err error) {
	regBits, regPrefix, err := register3Bits(regField, posModRMReg)
	if err != nil {
		return 0, 0, err
	}
	rmBits, rmPrefix, err := register3Bits(rmField, posModRMRM)
	if err != nil {
		return 0, 0, err
	}
	modRM = 0b11_000_000 | (regBits << 3) | rmBits
	return modRM, regPrefix | rmPrefix, nil
}

// memoryEncoding is the ModR/M/SIB/displacement plan for a Mem operand,
// computed by memLocation below.
type memoryEncoding struct {
	modRM         byte
	hasSIB        bool
	sib           byte
	dispWidth     byte // 0, 8, or 32
	disp          int32
	rexExt        rex
	ripRelative   bool
}

// memLocation implements spec.md §4.3.2 step 5's "Register-memory" case and
// step 6 (SIB), including the RBP/R13-always-needs-displacement and
// RSP/R12-always-needs-SIB special cases.
func memLocation(m asm.Mem, regField asm.Reg) (memoryEncoding, error) {
	var enc memoryEncoding

	regBits, regPrefix, err := register3Bits(regField, posModRMReg)
	if err != nil {
		return enc, err
	}
	enc.rexExt = regPrefix

	if m.Label != nil {
		// RIP-relative in 64-bit mode: mod=00, rm=101, disp32 resolved at
		// bind time (spec.md §3, §4.1).
		enc.modRM = 0b00_000_101 | (regBits << 3)
		enc.dispWidth = 32
		enc.ripRelative = !m.Absolute
		if m.Absolute {
			enc.modRM = 0b00_000_100 | (regBits << 3)
			enc.hasSIB = true
			enc.sib = 0b00_100_101
		}
		return enc, nil
	}

	if !fitsSigned32(int64(m.Disp)) {
		return enc, newEncodeError("displacement does not fit in 32 bits")
	}

	base, index := m.Base, m.Index

	switch {
	case base == nil && index == nil:
		// No base, no index: mod=00, rm=101, disp32 — absolute in 32-bit
		// mode, RIP-relative in 64-bit mode unless forced absolute.
		enc.modRM = 0b00_000_101 | (regBits << 3)
		enc.dispWidth = 32
		enc.disp = m.Disp
		enc.ripRelative = !m.Absolute
		if m.Absolute {
			enc.modRM = 0b00_000_100 | (regBits << 3)
			enc.hasSIB = true
			enc.sib = 0b00_100_101
			enc.ripRelative = false
		}

	case base == nil && index != nil:
		// [(index*scale) + disp32], mod=00 rm=100 SIB.
		enc.modRM = 0b00_000_100 | (regBits << 3)
		enc.hasSIB = true
		enc.dispWidth = 32
		enc.disp = m.Disp
		idxBits, idxPrefix, err := register3Bits(*index, posSIBIndex)
		if err != nil {
			return enc, err
		}
		enc.rexExt |= idxPrefix
		scaleBits, err := scaleBits(m.Scale)
		if err != nil {
			return enc, err
		}
		enc.sib = 0b00_000_101 | (idxBits << 3) | scaleBits

	case base != nil && index == nil:
		baseBits, basePrefix, err := register3Bits(*base, posModRMRM)
		if err != nil {
			return enc, err
		}
		enc.rexExt |= basePrefix

		// base == RBP/R13 (3-bit encoding 101) always requires a
		// displacement; base == RSP/R12 (3-bit encoding 100) always
		// requires a SIB byte (spec.md §4.3.2 step 5).
		mustHaveDisp := base.Bits3() == 0b101
		if m.Disp == 0 && !mustHaveDisp {
			enc.modRM = 0b00_000_000 | (regBits << 3) | baseBits
			enc.dispWidth = 0
		} else if fitsSigned8(int64(m.Disp)) {
			enc.modRM = 0b01_000_000 | (regBits << 3) | baseBits
			enc.dispWidth = 8
			enc.disp = m.Disp
		} else {
			enc.modRM = 0b10_000_000 | (regBits << 3) | baseBits
			enc.dispWidth = 32
			enc.disp = m.Disp
		}

		if base.Bits3() == 0b100 {
			enc.hasSIB = true
			enc.sib = 0b00_100_100
			enc.modRM = (enc.modRM &^ 0b111) | 0b100
		}

	default:
		if index.Bits3() == 0b100 {
			return enc, newEncodeError("a register whose 3-bit encoding is 100 (SP/R12) cannot be used as a SIB index")
		}
		enc.modRM = 0b00_000_100 | (regBits << 3)
		enc.hasSIB = true

		mustHaveDisp := base.Bits3() == 0b101
		if m.Disp == 0 && !mustHaveDisp {
			enc.dispWidth = 0
		} else if fitsSigned8(int64(m.Disp)) {
			enc.modRM |= 0b01_000_000
			enc.dispWidth = 8
			enc.disp = m.Disp
		} else {
			enc.modRM |= 0b10_000_000
			enc.dispWidth = 32
			enc.disp = m.Disp
		}

		baseBits, basePrefix, err := register3Bits(*base, posSIBBase)
		if err != nil {
			return enc, err
		}
		idxBits, idxPrefix, err := register3Bits(*index, posSIBIndex)
		if err != nil {
			return enc, err
		}
		enc.rexExt |= basePrefix | idxPrefix

		scaleBits, err := scaleBits(m.Scale)
		if err != nil {
			return enc, err
		}
		enc.sib = baseBits | (idxBits << 3) | scaleBits
	}

	return enc, nil
}

func scaleBits(scale byte) (byte, error) {
	switch scale {
	case 0, 1:
		return 0b00_000_000, nil
	case 2:
		return 0b01_000_000, nil
	case 4:
		return 0b10_000_000, nil
	case 8:
		return 0b11_000_000, nil
	default:
		return 0, newEncodeError("scale must be one of 1, 2, 4, 8")
	}
}

func newEncodeError(msg string) error {
	return asm.NewInvalidOperandError(msg)
}
