package amd64

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm"

// binaryOp is the standard 8-opcode-block layout shared by ADD/OR/ADC/SBB/
// AND/SUB/XOR/CMP (Intel manual table "Grp1"): the same extDigit selects
// this operation in the 0x80/0x81/0x83 immediate-group opcodes, and the
// four direction/width opcodes follow a fixed +0x08*n stride.
type binaryOp struct {
	extDigit          byte
	rmFromReg8        byte // op r/m8,  r8   (dst may be mem or reg)
	rmFromReg32       byte // op r/m32, r32  (also r/m16, r/m64 with prefixes)
	regFromRM8        byte // op r8,  r/m8   (dst is always a register)
	regFromRM32       byte // op r32, r/m32
	accumImm8         byte // op AL,  imm8
	accumImm32        byte // op eAX/rAX, imm32
}

var (
	opAdd = binaryOp{0, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05}
	opOr  = binaryOp{1, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D}
	opAdc = binaryOp{2, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15}
	opSbb = binaryOp{3, 0x18, 0x19, 0x1A, 0x1B, 0x1C, 0x1D}
	opAnd = binaryOp{4, 0x20, 0x21, 0x22, 0x23, 0x24, 0x25}
	opSub = binaryOp{5, 0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D}
	opXor = binaryOp{6, 0x30, 0x31, 0x32, 0x33, 0x34, 0x35}
	opCmp = binaryOp{7, 0x38, 0x39, 0x3A, 0x3B, 0x3C, 0x3D}
)

// Add emits dst += src (spec.md §1 integer arithmetic family).
func (a *Assembler) Add(dst, src asm.Operand) error { return a.binary(opAdd, dst, src) }

// Or emits dst |= src.
func (a *Assembler) Or(dst, src asm.Operand) error { return a.binary(opOr, dst, src) }

// Adc emits dst += src + CF.
func (a *Assembler) Adc(dst, src asm.Operand) error { return a.binary(opAdc, dst, src) }

// Sbb emits dst -= src + CF.
func (a *Assembler) Sbb(dst, src asm.Operand) error { return a.binary(opSbb, dst, src) }

// And emits dst &= src.
func (a *Assembler) And(dst, src asm.Operand) error { return a.binary(opAnd, dst, src) }

// Sub emits dst -= src.
func (a *Assembler) Sub(dst, src asm.Operand) error { return a.binary(opSub, dst, src) }

// Xor emits dst ^= src.
func (a *Assembler) Xor(dst, src asm.Operand) error { return a.binary(opXor, dst, src) }

// Cmp emits a comparison of dst against src, setting flags as dst - src
// without storing the result.
func (a *Assembler) Cmp(dst, src asm.Operand) error { return a.binary(opCmp, dst, src) }

// binary dispatches dst/src to the register-register, register-memory,
// memory-register, or register/memory-immediate encoding of op, validating
// operand kinds and immediate range along the way (spec.md §4.3.2).
func (a *Assembler) binary(op binaryOp, dst, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
	size := sizeOf(dst, src)
	if size == asm.SizeUnspecified {
		return a.fail(newEncodeError("binary operation requires an explicit operand size"))
	}

	switch s := src.(type) {
	case asm.Reg:
		d, ok := dst.(asm.Reg)
		if !ok {
			dm, ok := dst.(asm.Mem)
			if !ok {
				return a.fail(newEncodeError("destination must be a register or memory location"))
			}
			return a.emitRegToRM(op.rmFromReg8, op.rmFromReg32, size, s, dm)
		}
		forceBase, err := requiresRexBase(d, s)
		if err != nil {
			return a.fail(err)
		}
		plan, err := planOperand(s, d)
		if err != nil {
			return a.fail(err)
		}
		// ModR/M.reg = src, ModR/M.rm = dst: the "op r/m, reg" direction
		// (e.g. ADD r/m32, r32 = 0x01), which is what dst += src needs.
		opcode := op.rmFromReg32
		if size == asm.Size8 {
			opcode = op.rmFromReg8
		}
		a.emitWithPlan(0, size, forceBase, plan, opcode)
		return nil

	case asm.Mem:
		d, ok := dst.(asm.Reg)
		if !ok {
			return a.fail(newEncodeError("when source is memory, destination must be a register"))
		}
		return a.emitRMToReg(op.regFromRM8, op.regFromRM32, size, d, s)

	case asm.Imm:
		return a.binaryImm(op, dst, size, s)

	default:
		return a.fail(newEncodeError("unsupported source operand kind"))
	}
}

// emitRegToRM encodes `op r/m, reg`: reg supplies ModR/M.reg, rm supplies
// ModR/M.rm (register form) or the memory addressing mode.
func (a *Assembler) emitRegToRM(opcode8, opcode32 byte, size asm.Size, reg asm.Reg, rm asm.Mem) error {
	forceBase, err := requiresRexBase(reg)
	if err != nil {
		return a.fail(err)
	}
	plan, err := planOperand(reg, rm)
	if err != nil {
		return a.fail(err)
	}
	opcode := opcode32
	if size == asm.Size8 {
		opcode = opcode8
	}
	a.emitWithPlan(0, size, forceBase, plan, opcode)
	return nil
}

// emitRMToReg encodes `op reg, r/m`.
func (a *Assembler) emitRMToReg(opcode8, opcode32 byte, size asm.Size, reg asm.Reg, rm asm.Mem) error {
	return a.emitRegToRM(opcode8, opcode32, size, reg, rm)
}

// binaryImm encodes the `op r/m, imm` forms: the Grp1 0x80/0x81/0x83
// opcodes with op.extDigit in ModR/M.reg, plus the AL/eAX/rAX accumulator
// shortcuts (spec.md §4.3.2 "must be implemented" shortcuts).
func (a *Assembler) binaryImm(op binaryOp, dst asm.Operand, size asm.Size, imm asm.Imm) error {
	if imm.HasRelocation() {
		return a.fail(newEncodeError("relocatable immediate cannot use the binary-op immediate form"))
	}
	// The immediate must fit its slot: imm8 for byte operands, imm16 for
	// word operands, imm32 (sign-extended for qword operands) otherwise.
	switch v := imm.Value; {
	case size == asm.Size8 && (v < -1<<7 || v > 1<<8-1),
		size == asm.Size16 && (v < -1<<15 || v > 1<<16-1),
		size == asm.Size32 && (v < -1<<31 || v > 1<<32-1),
		size == asm.Size64 && !fitsSigned32(v):
		return a.fail(asm.NewInvalidImmediateError("immediate does not fit the operand size"))
	}

	if r, ok := dst.(asm.Reg); ok && r.Index == 0 && isAccumulatorKind(r.Kind) && size != asm.Size8 {
		// rAX/eAX/AX accumulator shortcut.
		var rexBits rex
		if size == asm.Size64 {
			rexBits = rexW
		}
		if size == asm.Size16 {
			a.buf.AppendByte(0x66)
		}
		if rexBits != rexNone {
			a.buf.AppendByte(byte(rexBits))
		}
		a.buf.AppendByte(op.accumImm32)
		a.appendImmForSize(size, imm.Value)
		return nil
	}
	if r, ok := dst.(asm.Reg); ok && r.Kind == asm.RegKindGP8L && r.Index == 0 {
		a.buf.AppendByte(op.accumImm8)
		a.buf.AppendByte(byte(imm.Value))
		return nil
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
		return a.fail(newEncodeError("destination must be a register or memory location"))
	}
	if err != nil {
		return a.fail(err)
	}

	switch {
	case size != asm.Size8 && fitsSigned8(imm.Value):
		a.emitWithPlan(0, size, forceBase, plan, 0x83)
		a.buf.AppendByte(byte(int8(imm.Value)))
	case size == asm.Size8:
		a.emitWithPlan(0, size, forceBase, plan, 0x80)
		a.buf.AppendByte(byte(imm.Value))
	default:
		a.emitWithPlan(0, size, forceBase, plan, 0x81)
		a.appendImmForSize(size, imm.Value)
	}
	return nil
}

// appendImmForSize appends the literal immediate bytes for a 16/32/64-bit
// slot (64-bit binary-op immediates are always sign-extended from 32 bits
// per the instruction set, so Size64 reuses the dword encoding).
func (a *Assembler) appendImmForSize(size asm.Size, v int64) {
	switch size {
	case asm.Size16:
		a.buf.AppendWord(uint16(v))
	default:
		a.buf.AppendDword(uint32(v))
	}
}

// Test emits the logical comparison dst & src, setting flags without
// storing the result.
func (a *Assembler) Test(dst, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
	size := sizeOf(dst, src)
	if size == asm.SizeUnspecified {
		return a.fail(newEncodeError("test requires an explicit operand size"))
	}

	if imm, ok := src.(asm.Imm); ok {
		if imm.HasRelocation() {
			return a.fail(newEncodeError("relocatable immediate cannot use the test-immediate form"))
		}
		regField := asm.Reg{Index: 0, Kind: asm.RegKindGP32}
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
			return a.fail(newEncodeError("destination must be a register or memory location"))
		}
		if err != nil {
			return a.fail(err)
		}
		opcode := byte(0xF7)
		if size == asm.Size8 {
			opcode = 0xF6
		}
		a.emitWithPlan(0, size, forceBase, plan, opcode)
		a.appendTestImm(size, imm.Value)
		return nil
	}

	reg, ok := src.(asm.Reg)
	if !ok {
		return a.fail(newEncodeError("test's second operand must be a register or immediate"))
	}
	if dm, ok := dst.(asm.Mem); ok {
		return a.emitRegToRM(0x84, 0x85, size, reg, dm)
	}
	dr, ok := dst.(asm.Reg)
	if !ok {
		return a.fail(newEncodeError("test's destination must be a register or memory location"))
	}
	forceBase, err := requiresRexBase(dr, reg)
	if err != nil {
		return a.fail(err)
	}
	plan, err := planOperand(reg, dr)
	if err != nil {
		return a.fail(err)
	}
	opcode := byte(0x85)
	if size == asm.Size8 {
		opcode = 0x84
	}
	a.emitWithPlan(0, size, forceBase, plan, opcode)
	return nil
}

// isAccumulatorKind reports whether kind is one of the GP16/32/64 register
// files, which share the AX/EAX/RAX accumulator immediate shortcuts.
func isAccumulatorKind(kind asm.RegKind) bool {
	switch kind {
	case asm.RegKindGP16, asm.RegKindGP32, asm.RegKindGP64:
		return true
	default:
		return false
	}
}

func (a *Assembler) appendTestImm(size asm.Size, v int64) {
	switch size {
	case asm.Size8:
		a.buf.AppendByte(byte(v))
	case asm.Size16:
		a.buf.AppendWord(uint16(v))
	default:
		a.buf.AppendDword(uint32(v))
	}
}
