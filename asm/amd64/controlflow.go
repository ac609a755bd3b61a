package amd64

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm"

// Push emits a push of a 64-bit register, a 32-bit immediate (sign-extended
// to 64 bits on the stack), or a memory operand (spec.md §4.3.1 stack
// family; AsmJit's Push only ever operates on the machine word width in
// 64-bit mode).
func (a *Assembler) Push(src asm.Operand) error {
	if a.halted() {
		return a.err
	}
	switch s := src.(type) {
	case asm.Reg:
		bits, p, err := register3Bits(s, posModRMRM)
		if err != nil {
			return a.fail(err)
		}
		if p != rexNone {
			a.buf.AppendByte(byte(p))
		}
		a.buf.AppendByte(0x50 + bits)
		return nil
	case asm.Imm:
		if fitsSigned8(s.Value) {
			a.buf.AppendByte(0x6A)
			a.buf.AppendByte(byte(int8(s.Value)))
		} else {
			a.buf.AppendByte(0x68)
			a.buf.AppendDword(uint32(s.Value))
		}
		return nil
	case asm.Mem:
		regField := asm.Reg{Index: 6, Kind: asm.RegKindGP32}
		plan, err := planOperand(regField, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, asm.Size64, false, plan, 0xFF)
		return nil
	default:
		return a.fail(newEncodeError("push operand must be a register, immediate, or memory location"))
	}
}

// Pop emits a pop into a 64-bit register or memory operand.
func (a *Assembler) Pop(dst asm.Operand) error {
	if a.halted() {
		return a.err
	}
	switch d := dst.(type) {
	case asm.Reg:
		bits, p, err := register3Bits(d, posModRMRM)
		if err != nil {
			return a.fail(err)
		}
		if p != rexNone {
			a.buf.AppendByte(byte(p))
		}
		a.buf.AppendByte(0x58 + bits)
		return nil
	case asm.Mem:
		regField := asm.Reg{Index: 0, Kind: asm.RegKindGP32}
		plan, err := planOperand(regField, d)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, asm.Size64, false, plan, 0x8F)
		return nil
	default:
		return a.fail(newEncodeError("pop operand must be a register or memory location"))
	}
}

// Ret emits a near return, optionally popping n extra bytes of arguments
// from the stack (n == 0 emits the plain 0xC3 form).
func (a *Assembler) Ret(n uint16) error {
	if a.halted() {
		return a.err
	}
	if n == 0 {
		a.buf.AppendByte(0xC3)
	} else {
		a.buf.AppendByte(0xC2)
		a.buf.AppendWord(n)
	}
	return nil
}

// Nop emits a single-byte no-op.
func (a *Assembler) Nop() error {
	if a.halted() {
		return a.err
	}
	a.buf.AppendByte(0x90)
	return nil
}

// Int3 emits a breakpoint trap.
func (a *Assembler) Int3() error {
	if a.halted() {
		return a.err
	}
	a.buf.AppendByte(0xCC)
	return nil
}

// Ud2 emits the guaranteed-invalid-instruction trap.
func (a *Assembler) Ud2() error {
	if a.halted() {
		return a.err
	}
	a.buf.AppendByte(0x0F)
	a.buf.AppendByte(0x0B)
	return nil
}

// Call emits a near call to a register, memory operand holding a function
// pointer, or a bound/forward label (spec.md §4.3.1 control-flow family).
func (a *Assembler) Call(target asm.Operand) error {
	return a.unaryControl(target, 2, 0xE8)
}

// Jmp emits an unconditional near jump. When target is a Label, the relative
// displacement slot is tagged ChainKindUnconditionalJump; Bind still patches
// it as a rel32 displacement, and no short form is ever emitted.
func (a *Assembler) Jmp(target asm.Operand) error {
	if label, ok := target.(*asm.Label); ok {
		if a.halted() {
			return a.err
		}
		a.buf.AppendByte(0xE9)
		a.emitLabelDisplacement(label, asm.ChainKindUnconditionalJump, 0)
		return nil
	}
	return a.unaryControl(target, 4, 0)
}

// unaryControl implements the shared Call/Jmp-to-register-or-memory
// encoding (Grp5: opcode 0xFF with extDigit in ModR/M.reg), and the
// rel32 label/direct forms for whichever of the two carries a single-byte
// primary opcode (0xE8 for Call).
func (a *Assembler) unaryControl(target asm.Operand, extDigit byte, directOpcode byte) error {
	if a.halted() {
		return a.err
	}
	switch t := target.(type) {
	case *asm.Label:
		if directOpcode == 0 {
			return a.fail(newEncodeError("this instruction has no direct rel32 form"))
		}
		a.buf.AppendByte(directOpcode)
		a.emitLabelDisplacement(t, asm.ChainKindOther, 0)
		return nil
	case asm.Reg:
		regField := asm.Reg{Index: extDigit, Kind: asm.RegKindGP32}
		plan, err := planOperand(regField, t)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, asm.Size64, false, plan, 0xFF)
		return nil
	case asm.Mem:
		regField := asm.Reg{Index: extDigit, Kind: asm.RegKindGP32}
		plan, err := planOperand(regField, t)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, asm.Size64, false, plan, 0xFF)
		return nil
	default:
		return a.fail(newEncodeError("call/jmp target must be a label, register, or memory location"))
	}
}

// Jcc emits a conditional near jump (0x0F 0x80+cc rel32). The short
// 0x70+cc rel8 form is never emitted, whether the label is bound or not.
func (a *Assembler) Jcc(cc ConditionCode, target *asm.Label) error {
	if a.halted() {
		return a.err
	}
	a.buf.AppendByte(0x0F)
	a.buf.AppendByte(0x80 + cc.opcodeTail())
	a.emitLabelDisplacement(target, asm.ChainKindOther, 0)
	return nil
}

// Setcc emits the byte-register conditional set (0x0F 0x90+cc /0).
func (a *Assembler) Setcc(cc ConditionCode, dst asm.Operand) error {
	if a.halted() {
		return a.err
	}
	regField := asm.Reg{Index: 0, Kind: asm.RegKindGP32}
	switch d := dst.(type) {
	case asm.Reg:
		forceBase, err := requiresRexBase(d)
		if err != nil {
			return a.fail(err)
		}
		plan, err := planOperand(regField, d)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, asm.Size8, forceBase, plan, 0x0F, 0x90+cc.opcodeTail())
	case asm.Mem:
		plan, err := planOperand(regField, d)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, asm.Size8, false, plan, 0x0F, 0x90+cc.opcodeTail())
	default:
		return a.fail(newEncodeError("setcc destination must be a register or memory location"))
	}
	return nil
}

// Cmovcc emits a conditional move (0x0F 0x40+cc /r), available at 32- and
// 64-bit widths (spec.md §8 scenario 6's conditional-move sequence).
func (a *Assembler) Cmovcc(cc ConditionCode, dst asm.Reg, src asm.Operand) error {
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
		a.emitWithPlan(0, size, forceBase, plan, 0x0F, 0x40+cc.opcodeTail())
	case asm.Mem:
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, size, false, plan, 0x0F, 0x40+cc.opcodeTail())
	default:
		return a.fail(newEncodeError("cmovcc source must be a register or memory location"))
	}
	return nil
}
