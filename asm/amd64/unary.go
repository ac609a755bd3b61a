package amd64

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm"

// unaryGrp3 emits the Grp3 (0xF6/0xF7) family member selected by extDigit
// against a single register or memory operand: NEG(3), NOT(2),
// MUL(4), IMUL(5), DIV(6), IDIV(7).
func (a *Assembler) unaryGrp3(extDigit byte, operand asm.Operand) error {
	if a.halted() {
		return a.err
	}
	size := operand.Size()
	if size == asm.SizeUnspecified {
		return a.fail(newEncodeError("operand requires an explicit size"))
	}
	regField := asm.Reg{Index: extDigit, Kind: asm.RegKindGP32}
	var plan operandPlan
	var forceBase bool
	var err error
	switch v := operand.(type) {
	case asm.Reg:
		forceBase, err = requiresRexBase(v)
		if err != nil {
			return a.fail(err)
		}
		plan, err = planOperand(regField, v)
	case asm.Mem:
		plan, err = planOperand(regField, v)
	default:
		return a.fail(newEncodeError("operand must be a register or memory location"))
	}
	if err != nil {
		return a.fail(err)
	}
	opcode := byte(0xF7)
	if size == asm.Size8 {
		opcode = 0xF6
	}
	a.emitWithPlan(0, size, forceBase, plan, opcode)
	return nil
}

// Neg emits two's-complement negation in place.
func (a *Assembler) Neg(operand asm.Operand) error { return a.unaryGrp3(3, operand) }

// Not emits one's-complement negation in place.
func (a *Assembler) Not(operand asm.Operand) error { return a.unaryGrp3(2, operand) }

// Mul emits unsigned rAX *= operand, with the high half of the product
// written to rDX (Grp3 /4).
func (a *Assembler) Mul(operand asm.Operand) error { return a.unaryGrp3(4, operand) }

// Imul emits signed rAX *= operand (one-operand form), with the high half
// written to rDX (Grp3 /5).
func (a *Assembler) Imul(operand asm.Operand) error { return a.unaryGrp3(5, operand) }

// Div emits unsigned rDX:rAX /= operand; quotient in rAX, remainder in rDX
// (Grp3 /6).
func (a *Assembler) Div(operand asm.Operand) error { return a.unaryGrp3(6, operand) }

// Idiv emits signed rDX:rAX /= operand (Grp3 /7).
func (a *Assembler) Idiv(operand asm.Operand) error { return a.unaryGrp3(7, operand) }

// Imul3 emits the three-operand signed multiply dst = src * imm (opcode
// 0x69, or 0x6B when imm fits a signed byte), used when one factor is a
// compile-time constant (spec.md §1's IMUL3 family).
func (a *Assembler) Imul3(dst asm.Reg, src asm.Operand, imm asm.Imm) error {
	if a.halted() {
		return a.err
	}
	if imm.HasRelocation() {
		return a.fail(newEncodeError("imul3 immediate must not carry a relocation"))
	}
	size := dst.Size()
	var plan operandPlan
	var forceBase bool
	var err error
	switch s := src.(type) {
	case asm.Reg:
		forceBase, err = requiresRexBase(dst, s)
		if err != nil {
			return a.fail(err)
		}
		plan, err = planOperand(dst, s)
	case asm.Mem:
		plan, err = planOperand(dst, s)
	default:
		return a.fail(newEncodeError("imul3 source must be a register or memory location"))
	}
	if err != nil {
		return a.fail(err)
	}
	if fitsSigned8(imm.Value) {
		a.emitWithPlan(0, size, forceBase, plan, 0x6B)
		a.buf.AppendByte(byte(int8(imm.Value)))
	} else {
		a.emitWithPlan(0, size, forceBase, plan, 0x69)
		a.buf.AppendDword(uint32(imm.Value))
	}
	return nil
}

// Imul2 emits the two-operand signed multiply dst *= src (0x0F 0xAF /r),
// the form a register allocator reaches for once both factors are already
// variables rather than a compile-time constant.
func (a *Assembler) Imul2(dst asm.Reg, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
	size := dst.Size()
	switch s := src.(type) {
	case asm.Reg:
		forceBase, err := requiresRexBase(dst, s)
		if err != nil {
			return a.fail(err)
		}
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, size, forceBase, plan, 0x0F, 0xAF)
	case asm.Mem:
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, size, false, plan, 0x0F, 0xAF)
	default:
		return a.fail(newEncodeError("imul2 source must be a register or memory location"))
	}
	return nil
}

// Cdq sign-extends EAX into EDX:EAX.
func (a *Assembler) Cdq() error {
	if a.halted() {
		return a.err
	}
	a.buf.AppendByte(0x99)
	return nil
}

// Cqo sign-extends RAX into RDX:RAX.
func (a *Assembler) Cqo() error {
	if a.halted() {
		return a.err
	}
	a.buf.AppendByte(byte(rexW))
	a.buf.AppendByte(0x99)
	return nil
}

// incDecGrp implements the shared INC/DEC family: in 64-bit mode these
// always take the Grp5/Grp4 ModR/M form (0xFE/0xFF), since the legacy
// single-byte 0x40-0x4F opcodes were repurposed as the REX prefix range
// and can never be emitted in 64-bit mode (spec.md §4.3.2's "must be
// implemented" shortcuts call this out explicitly for the 32-bit
// counterpart).
func (a *Assembler) incDecGrp(extDigit byte, operand asm.Operand) error {
	if a.halted() {
		return a.err
	}
	size := operand.Size()
	if size == asm.SizeUnspecified {
		return a.fail(newEncodeError("operand requires an explicit size"))
	}
	regField := asm.Reg{Index: extDigit, Kind: asm.RegKindGP32}
	var plan operandPlan
	var forceBase bool
	var err error
	switch v := operand.(type) {
	case asm.Reg:
		forceBase, err = requiresRexBase(v)
		if err != nil {
			return a.fail(err)
		}
		plan, err = planOperand(regField, v)
	case asm.Mem:
		plan, err = planOperand(regField, v)
	default:
		return a.fail(newEncodeError("operand must be a register or memory location"))
	}
	if err != nil {
		return a.fail(err)
	}
	opcode := byte(0xFF)
	if size == asm.Size8 {
		opcode = 0xFE
	}
	a.emitWithPlan(0, size, forceBase, plan, opcode)
	return nil
}

// Inc emits an in-place increment.
func (a *Assembler) Inc(operand asm.Operand) error { return a.incDecGrp(0, operand) }

// Dec emits an in-place decrement.
func (a *Assembler) Dec(operand asm.Operand) error { return a.incDecGrp(1, operand) }

// shiftOp is the Grp2 shift/rotate family (0xC0/0xC1/0xD0/0xD1/0xD2/0xD3),
// selected by extDigit: ROL(0), ROR(1), SHL/SAL(4), SHR(5), SAR(7).
type shiftOp struct{ extDigit byte }

var (
	opRol = shiftOp{0}
	opRor = shiftOp{1}
	opShl = shiftOp{4}
	opShr = shiftOp{5}
	opSar = shiftOp{7}
)

// shift emits dst <op>= count, where count is CL, an imm8, or the implicit
// shift-by-1 opcode. A count immediate that carries a relocation is
// rejected with an invalid-operand error, so it never reaches either the
// shift-by-1 shortcut or the imm8 form.
func (a *Assembler) shift(op shiftOp, dst asm.Operand, count asm.Operand) error {
	if a.halted() {
		return a.err
	}
	size := dst.Size()
	if size == asm.SizeUnspecified {
		return a.fail(newEncodeError("shift destination requires an explicit size"))
	}
	regField := asm.Reg{Index: op.extDigit, Kind: asm.RegKindGP32}
	var plan operandPlan
	var forceBase bool
	var err error
	switch v := dst.(type) {
	case asm.Reg:
		forceBase, err = requiresRexBase(v)
		if err != nil {
			return a.fail(err)
		}
		plan, err = planOperand(regField, v)
	case asm.Mem:
		plan, err = planOperand(regField, v)
	default:
		return a.fail(newEncodeError("shift destination must be a register or memory location"))
	}
	if err != nil {
		return a.fail(err)
	}

	switch c := count.(type) {
	case asm.Reg:
		if c.Kind != asm.RegKindGP8L || c.Index != 1 {
			return a.fail(newEncodeError("shift count register must be CL"))
		}
		opcode := byte(0xD3)
		if size == asm.Size8 {
			opcode = 0xD2
		}
		a.emitWithPlan(0, size, forceBase, plan, opcode)
	case asm.Imm:
		if c.HasRelocation() {
			return a.fail(newEncodeError("shift count must not carry a relocation"))
		}
		if c.Value == 1 {
			opcode := byte(0xD1)
			if size == asm.Size8 {
				opcode = 0xD0
			}
			a.emitWithPlan(0, size, forceBase, plan, opcode)
		} else {
			opcode := byte(0xC1)
			if size == asm.Size8 {
				opcode = 0xC0
			}
			a.emitWithPlan(0, size, forceBase, plan, opcode)
			a.buf.AppendByte(byte(c.Value))
		}
	default:
		return a.fail(newEncodeError("shift count must be CL or an immediate"))
	}
	return nil
}

// Rol emits a left rotate.
func (a *Assembler) Rol(dst, count asm.Operand) error { return a.shift(opRol, dst, count) }

// Ror emits a right rotate.
func (a *Assembler) Ror(dst, count asm.Operand) error { return a.shift(opRor, dst, count) }

// Shl emits a logical/arithmetic left shift.
func (a *Assembler) Shl(dst, count asm.Operand) error { return a.shift(opShl, dst, count) }

// Shr emits a logical right shift.
func (a *Assembler) Shr(dst, count asm.Operand) error { return a.shift(opShr, dst, count) }

// Sar emits an arithmetic right shift.
func (a *Assembler) Sar(dst, count asm.Operand) error { return a.shift(opSar, dst, count) }
