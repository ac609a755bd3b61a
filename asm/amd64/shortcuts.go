package amd64

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm"

// Xchg emits an exchange between two operands. The rAX<->register case
// always prefers the compact 0x90+reg accumulator-exchange shortcut
// (spec.md §4.3.2's "must be implemented" shortcuts); exchanging rAX with
// itself emits the canonical NOP alias rather than a degenerate xchg.
func (a *Assembler) Xchg(dst, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
	size := sizeOf(dst, src)
	if size == asm.SizeUnspecified {
		return a.fail(newEncodeError("xchg requires an explicit operand size"))
	}

	if r, ok := accumulatorExchangePartner(dst, src); ok {
		bits, p, err := register3Bits(r, posModRMRM)
		if err != nil {
			return a.fail(err)
		}
		finalRex := p
		if size == asm.Size64 {
			finalRex |= rexW
		}
		if size == asm.Size16 {
			a.buf.AppendByte(0x66)
		}
		if finalRex != rexNone {
			a.buf.AppendByte(byte(finalRex))
		}
		a.buf.AppendByte(0x90 + bits)
		return nil
	}

	reg, mem, regIsDst := asRegMemPair(dst, src)
	if reg == nil {
		d, dok := dst.(asm.Reg)
		s, sok := src.(asm.Reg)
		if !dok || !sok {
			return a.fail(newEncodeError("xchg operands must be registers, or one register and one memory location"))
		}
		forceBase, err := requiresRexBase(d, s)
		if err != nil {
			return a.fail(err)
		}
		plan, err := planOperand(s, d)
		if err != nil {
			return a.fail(err)
		}
		opcode := byte(0x87)
		if size == asm.Size8 {
			opcode = 0x86
		}
		a.emitWithPlan(0, size, forceBase, plan, opcode)
		return nil
	}
	_ = regIsDst
	plan, err := planOperand(*reg, *mem)
	if err != nil {
		return a.fail(err)
	}
	opcode := byte(0x87)
	if size == asm.Size8 {
		opcode = 0x86
	}
	a.emitWithPlan(0, size, false, plan, opcode)
	return nil
}

// accumulatorExchangePartner detects the `xchg rAX/eAX/AX, r` or
// `xchg r, rAX/eAX/AX` pattern and returns the non-accumulator register.
// xchg rAX, rAX legitimately returns (RAX, true): callers emit 0x90, the
// architectural NOP alias.
func accumulatorExchangePartner(dst, src asm.Operand) (asm.Reg, bool) {
	d, dok := dst.(asm.Reg)
	s, sok := src.(asm.Reg)
	if !dok || !sok {
		return asm.Reg{}, false
	}
	switch {
	case d.Index == 0 && isAccumulatorKind(d.Kind):
		return s, true
	case s.Index == 0 && isAccumulatorKind(s.Kind):
		return d, true
	default:
		return asm.Reg{}, false
	}
}

// asRegMemPair returns (reg, mem) in either order if exactly one of dst/src
// is a register and the other a memory operand; otherwise both are nil.
func asRegMemPair(dst, src asm.Operand) (*asm.Reg, *asm.Mem, bool) {
	if r, ok := dst.(asm.Reg); ok {
		if m, ok := src.(asm.Mem); ok {
			return &r, &m, true
		}
	}
	if r, ok := src.(asm.Reg); ok {
		if m, ok := dst.(asm.Mem); ok {
			return &r, &m, false
		}
	}
	return nil, nil, false
}
