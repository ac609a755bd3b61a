package amd64

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm"

// Mov emits a move between any combination of register, memory, and
// immediate operands (spec.md §4.3.1's MOV family), including the
// mov-register-imm64 shortcut (0xB8+reg) and the relocation-aware
// mov-imm-to-register/memory forms used to materialize label addresses.
func (a *Assembler) Mov(dst, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
	size := sizeOf(dst, src)
	if size == asm.SizeUnspecified {
		return a.fail(newEncodeError("mov requires an explicit operand size"))
	}

	switch s := src.(type) {
	case asm.Reg:
		switch d := dst.(type) {
		case asm.Reg:
			forceBase, err := requiresRexBase(d, s)
			if err != nil {
				return a.fail(err)
			}
			plan, err := planOperand(s, d)
			if err != nil {
				return a.fail(err)
			}
			a.emitWithPlan(0, size, forceBase, plan, movOpcode(size, true))
			return nil
		case asm.Mem:
			return a.emitRegToRM(0x88, 0x89, size, s, d)
		default:
			return a.fail(newEncodeError("mov destination must be a register or memory location"))
		}

	case asm.Mem:
		d, ok := dst.(asm.Reg)
		if !ok {
			return a.fail(newEncodeError("mov from memory requires a register destination"))
		}
		return a.emitRMToReg(0x8A, 0x8B, size, d, s)

	case asm.Imm:
		return a.movImm(dst, size, s)

	default:
		return a.fail(newEncodeError("unsupported mov source operand kind"))
	}
}

// movOpcode picks the "r/m, r" (toRM) or "r, r/m" opcode for an 8-bit vs
// wider MOV. Both directions share 0x88/0x89 (toRM) and 0x8A/0x8B (fromRM);
// Mov always uses the toRM direction for register-register since either
// direction produces identical bytes for that case.
func movOpcode(size asm.Size, toRM bool) byte {
	switch {
	case size == asm.Size8 && toRM:
		return 0x88
	case size == asm.Size8:
		return 0x8A
	case toRM:
		return 0x89
	default:
		return 0x8B
	}
}

// movImm encodes `mov r/m, imm` (opcode 0xC6/0xC7) or the shorter
// `mov r, imm` form (0xB0+r / 0xB8+r), the latter extended to a full
// 64-bit immediate when dst is a 64-bit register (spec.md §4.3.2's
// "mov r64, imm64" shortcut).
func (a *Assembler) movImm(dst asm.Operand, size asm.Size, imm asm.Imm) error {
	if r, ok := dst.(asm.Reg); ok {
		forceBase, err := requiresRexBase(r)
		if err != nil {
			return a.fail(err)
		}
		bits, p, err := register3Bits(r, posModRMRM)
		if err != nil {
			return a.fail(err)
		}
		if size == asm.Size16 {
			a.buf.AppendByte(0x66)
		}
		finalRex := p
		if size == asm.Size64 {
			finalRex |= rexW
		}
		if forceBase {
			finalRex |= rexBase
		}
		if finalRex != rexNone {
			a.buf.AppendByte(byte(finalRex))
		}
		switch size {
		case asm.Size8:
			a.buf.AppendByte(0xB0 + bits)
			a.buf.AppendByte(byte(imm.Value))
		case asm.Size16:
			a.buf.AppendByte(0xB8 + bits)
			a.buf.AppendWord(uint16(imm.Value))
		case asm.Size32:
			a.buf.AppendByte(0xB8 + bits)
			a.buf.AppendDword(uint32(imm.Value))
		case asm.Size64:
			a.buf.AppendByte(0xB8 + bits)
			if imm.HasRelocation() {
				a.recordRelocAt(a.buf.Len(), 8, imm)
			}
			a.buf.AppendQword(uint64(imm.Value))
		}
		return nil
	}

	mem, ok := dst.(asm.Mem)
	if !ok {
		return a.fail(newEncodeError("mov immediate destination must be a register or memory location"))
	}
	if imm.HasRelocation() && size != asm.Size32 {
		return a.fail(newEncodeError("relocatable immediate to memory requires a 32-bit slot"))
	}
	regField := asm.Reg{Index: 0, Kind: asm.RegKindGP32}
	plan, err := planOperand(regField, mem)
	if err != nil {
		return a.fail(err)
	}
	opcode := byte(0xC7)
	if size == asm.Size8 {
		opcode = 0xC6
	}
	a.emitWithPlan(0, size, false, plan, opcode)
	switch size {
	case asm.Size8:
		a.buf.AppendByte(byte(imm.Value))
	case asm.Size16:
		a.buf.AppendWord(uint16(imm.Value))
	default:
		if imm.HasRelocation() {
			a.recordRelocAt(a.buf.Len(), 4, imm)
		}
		a.buf.AppendDword(uint32(imm.Value))
	}
	return nil
}

// recordRelocAt records a relocation for the 4- or 8-byte immediate slot
// that is about to be written at the buffer's current offset.
func (a *Assembler) recordRelocAt(offset, sizeInBytes int, imm asm.Imm) {
	a.recordReloc(asm.RelocEntry{
		Offset: offset, SizeInBytes: sizeInBytes, Mode: imm.Reloc,
		Label: imm.Label, Symbol: imm.Symbol, InstructionStart: offset,
	})
}

// Movzx emits a zero-extending move from a narrower register or memory
// operand into a wider register (MOVZX).
func (a *Assembler) Movzx(dst asm.Reg, src asm.Operand) error {
	return a.extendingMove(dst, src, 0x0F, 0xB6, 0xB7)
}

// Movsx emits a sign-extending move from a narrower register or memory
// operand into a wider register (MOVSX / MOVSXD).
func (a *Assembler) Movsx(dst asm.Reg, src asm.Operand) error {
	if src.Size() == asm.Size32 {
		return a.movsxd(dst, src)
	}
	return a.extendingMove(dst, src, 0x0F, 0xBE, 0xBF)
}

func (a *Assembler) extendingMove(dst asm.Reg, src asm.Operand, escape, opcode8, opcode16 byte) error {
	if a.halted() {
		return a.err
	}
	srcSize := src.Size()
	opcode := opcode16
	if srcSize == asm.Size8 {
		opcode = opcode8
	}
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
		a.emitWithPlan(0, dst.Size(), forceBase, plan, escape, opcode)
	case asm.Mem:
		forceBase, err := requiresRexBase(dst)
		if err != nil {
			return a.fail(err)
		}
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, dst.Size(), forceBase, plan, escape, opcode)
	default:
		return a.fail(newEncodeError("movzx/movsx source must be a register or memory location"))
	}
	return nil
}

func (a *Assembler) movsxd(dst asm.Reg, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
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
		a.emitWithPlan(0, dst.Size(), forceBase, plan, 0x63)
	case asm.Mem:
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0, dst.Size(), false, plan, 0x63)
	default:
		return a.fail(newEncodeError("movsxd source must be a register or memory location"))
	}
	return nil
}

// Popcnt emits a population-count instruction (POPCNT r32/r64, r/m32/r/m64,
// opcode F3 0F B8 /r): dst receives the number of set bits in src. This is
// one of the "handful of AMD/Intel extensions" spec.md §1 scopes in, gated
// at the Compiler layer on the CPU info collaborator (spec.md §6) rather
// than unconditionally, since unlike the baseline integer/SSE2 catalog it
// is not guaranteed present on every amd64 host.
func (a *Assembler) Popcnt(dst asm.Reg, src asm.Operand) error {
	if a.halted() {
		return a.err
	}
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
		a.emitWithPlan(0xF3, dst.Size(), forceBase, plan, 0x0F, 0xB8)
	case asm.Mem:
		forceBase, err := requiresRexBase(dst)
		if err != nil {
			return a.fail(err)
		}
		plan, err := planOperand(dst, s)
		if err != nil {
			return a.fail(err)
		}
		a.emitWithPlan(0xF3, dst.Size(), forceBase, plan, 0x0F, 0xB8)
	default:
		return a.fail(newEncodeError("popcnt source must be a register or memory location"))
	}
	return nil
}

// Lea emits the effective address of mem into dst, without dereferencing it
// (spec.md §4.3.1 data movement family).
func (a *Assembler) Lea(dst asm.Reg, mem asm.Mem) error {
	if a.halted() {
		return a.err
	}
	forceBase, err := requiresRexBase(dst)
	if err != nil {
		return a.fail(err)
	}
	plan, err := planOperand(dst, mem)
	if err != nil {
		return a.fail(err)
	}
	a.emitWithPlan(0, dst.Size(), forceBase, plan, 0x8D)
	return nil
}
