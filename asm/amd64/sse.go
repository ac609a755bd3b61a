package amd64

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm"

// sseArith is a two-operand scalar/packed SSE instruction whose destination
// is always an XMM register and whose source is an XMM register or a
// memory operand: `op xmm, xmm/m128` (spec.md §1's scalar SSE family).
type sseArith struct {
	prefix byte // mandatory prefix: 0, 0x66, 0xF2, or 0xF3
	opcode byte // second opcode byte, after the 0x0F escape
}

var (
	sseAddSD   = sseArith{0xF2, 0x58}
	sseAddSS   = sseArith{0xF3, 0x58}
	sseSubSD   = sseArith{0xF2, 0x5C}
	sseSubSS   = sseArith{0xF3, 0x5C}
	sseMulSD   = sseArith{0xF2, 0x59}
	sseMulSS   = sseArith{0xF3, 0x59}
	sseDivSD   = sseArith{0xF2, 0x5E}
	sseDivSS   = sseArith{0xF3, 0x5E}
	sseXorPS   = sseArith{0x00, 0x57}
	sseAndPS   = sseArith{0x00, 0x54}
	sseComISS  = sseArith{0x00, 0x2F}
	sseComISD  = sseArith{0x66, 0x2F}
	sseUComISS = sseArith{0x00, 0x2E}
	sseUComISD = sseArith{0x66, 0x2E}
)

func (a *Assembler) emitSSEArith(op sseArith, dst asm.Reg, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
	switch s := src.(type) {
	case asm.Reg:
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(op.prefix, asm.SizeUnspecified, false, plan, 0x0F, op.opcode)
	case asm.Mem:
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(op.prefix, asm.SizeUnspecified, false, plan, 0x0F, op.opcode)
	default:
		return a.fail(newEncodeError("sse source must be an xmm register or memory location"))
	}
	return nil
}

// Addsd, Addss, Subsd, Subss, Mulsd, Mulss, Divsd, Divss implement the
// scalar double/single arithmetic family.
func (a *Assembler) Addsd(dst asm.Reg, src asm.Operand) error { return a.emitSSEArith(sseAddSD, dst, src) }
func (a *Assembler) Addss(dst asm.Reg, src asm.Operand) error { return a.emitSSEArith(sseAddSS, dst, src) }
func (a *Assembler) Subsd(dst asm.Reg, src asm.Operand) error { return a.emitSSEArith(sseSubSD, dst, src) }
func (a *Assembler) Subss(dst asm.Reg, src asm.Operand) error { return a.emitSSEArith(sseSubSS, dst, src) }
func (a *Assembler) Mulsd(dst asm.Reg, src asm.Operand) error { return a.emitSSEArith(sseMulSD, dst, src) }
func (a *Assembler) Mulss(dst asm.Reg, src asm.Operand) error { return a.emitSSEArith(sseMulSS, dst, src) }
func (a *Assembler) Divsd(dst asm.Reg, src asm.Operand) error { return a.emitSSEArith(sseDivSD, dst, src) }
func (a *Assembler) Divss(dst asm.Reg, src asm.Operand) error { return a.emitSSEArith(sseDivSS, dst, src) }

// Xorps and Andps implement the bitwise packed-float family, most commonly
// used as `xorps xmmN, xmmN` to zero a register cheaply.
func (a *Assembler) Xorps(dst asm.Reg, src asm.Operand) error { return a.emitSSEArith(sseXorPS, dst, src) }
func (a *Assembler) Andps(dst asm.Reg, src asm.Operand) error { return a.emitSSEArith(sseAndPS, dst, src) }

// Comiss, Comisd, Ucomiss, Ucomisd compare and set EFLAGS the way an
// integer Cmp does, so a following Jcc/Setcc/Cmovcc can branch on the
// result.
func (a *Assembler) Comiss(dst asm.Reg, src asm.Operand) error   { return a.emitSSEArith(sseComISS, dst, src) }
func (a *Assembler) Comisd(dst asm.Reg, src asm.Operand) error   { return a.emitSSEArith(sseComISD, dst, src) }
func (a *Assembler) Ucomiss(dst asm.Reg, src asm.Operand) error  { return a.emitSSEArith(sseUComISS, dst, src) }
func (a *Assembler) Ucomisd(dst asm.Reg, src asm.Operand) error  { return a.emitSSEArith(sseUComISD, dst, src) }

// xmmMove implements the shared MOVSS/MOVSD/MOVAPS/MOVUPS load/store pair:
// opcode+1 is the store form taken when dst is memory.
type xmmMove struct {
	prefix   byte
	loadOp   byte
	storeOp  byte
}

var (
	moveSS  = xmmMove{0xF3, 0x10, 0x11}
	moveSD  = xmmMove{0xF2, 0x10, 0x11}
	moveAPS = xmmMove{0x00, 0x28, 0x29}
	moveUPS = xmmMove{0x00, 0x10, 0x11}
)

func (a *Assembler) emitXMMMove(m xmmMove, dst, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
	switch d := dst.(type) {
	case asm.Reg:
		switch s := src.(type) {
		case asm.Reg:
			plan, err := planOperand(d, s)
			if err != nil {
				return a.fail(err)
			}
			a.emitWithPlan(m.prefix, asm.SizeUnspecified, false, plan, 0x0F, m.loadOp)
		case asm.Mem:
			plan, err := planOperand(d, s)
			if err != nil {
				return a.fail(err)
			}
			a.emitWithPlan(m.prefix, asm.SizeUnspecified, false, plan, 0x0F, m.loadOp)
		default:
			return a.fail(newEncodeError("xmm move source must be an xmm register or memory location"))
		}
	case asm.Mem:
		s, ok := src.(asm.Reg)
		if !ok {
			return a.fail(newEncodeError("storing to memory requires an xmm register source"))
		}
		plan, err := planOperand(s, d)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(m.prefix, asm.SizeUnspecified, false, plan, 0x0F, m.storeOp)
	default:
		return a.fail(newEncodeError("xmm move destination must be an xmm register or memory location"))
	}
	return nil
}

// Movss moves a scalar single-precision float.
func (a *Assembler) Movss(dst, src asm.Operand) error { return a.emitXMMMove(moveSS, dst, src) }

// Movsd moves a scalar double-precision float.
func (a *Assembler) Movsd(dst, src asm.Operand) error { return a.emitXMMMove(moveSD, dst, src) }

// Movaps moves 128 bits of packed single-precision floats; the memory
// operand must be 16-byte aligned.
func (a *Assembler) Movaps(dst, src asm.Operand) error { return a.emitXMMMove(moveAPS, dst, src) }

// Movups moves 128 bits of packed single-precision floats with no
// alignment requirement.
func (a *Assembler) Movups(dst, src asm.Operand) error { return a.emitXMMMove(moveUPS, dst, src) }

// Cvtsi2sd converts a signed integer register/memory operand to a scalar
// double and writes it into dst.
func (a *Assembler) Cvtsi2sd(dst asm.Reg, src asm.Operand) error {
	return a.emitConvertToXMM(0xF2, dst, src)
}

// Cvtsi2ss converts a signed integer register/memory operand to a scalar
// single and writes it into dst.
func (a *Assembler) Cvtsi2ss(dst asm.Reg, src asm.Operand) error {
	return a.emitConvertToXMM(0xF3, dst, src)
}

func (a *Assembler) emitConvertToXMM(prefix byte, dst asm.Reg, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
	switch s := src.(type) {
	case asm.Reg:
		size := s.Size()
		forceBase, err := requiresRexBase(s)
		if err != nil {
			return a.fail(err)
		}
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(prefix, size, forceBase, plan, 0x0F, 0x2A)
	case asm.Mem:
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(prefix, s.SizeTag, false, plan, 0x0F, 0x2A)
	default:
		return a.fail(newEncodeError("cvtsi2sd/ss source must be a register or memory location"))
	}
	return nil
}

// Cvttsd2si truncates a scalar double to a signed integer register.
func (a *Assembler) Cvttsd2si(dst asm.Reg, src asm.Operand) error {
	return a.emitConvertFromXMM(0xF2, dst, src)
}

// Cvttss2si truncates a scalar single to a signed integer register.
func (a *Assembler) Cvttss2si(dst asm.Reg, src asm.Operand) error {
	return a.emitConvertFromXMM(0xF3, dst, src)
}

func (a *Assembler) emitConvertFromXMM(prefix byte, dst asm.Reg, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
	size := dst.Size()
	switch s := src.(type) {
	case asm.Reg:
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(prefix, size, false, plan, 0x0F, 0x2C)
	case asm.Mem:
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(prefix, size, false, plan, 0x0F, 0x2C)
	default:
		return a.fail(newEncodeError("cvttsd2si/cvttss2si source must be an xmm register or memory location"))
	}
	return nil
}
