package amd64

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm"

// operandPlan is the fully-resolved ModR/M/SIB/displacement/REX plan for one
// operand slot, computed before a single byte is written so that the REX
// prefix (which must precede the opcode) can be assembled from information
// that, for a Mem operand, is only known after walking its addressing mode
// (spec.md §4.3.2 step 3 and step 5 happen in that order on paper but must
// be emitted in the opposite order).
type operandPlan struct {
	modRM       byte
	hasSIB      bool
	sib         byte
	dispWidth   byte
	disp        int32
	label       *asm.Label
	ripRelative bool
	rex         rex
}

// planOperand resolves rm (a Reg or a Mem) against regField, the operand
// that will occupy ModR/M.reg.
func planOperand(regField asm.Reg, rm asm.Operand) (operandPlan, error) {
	switch v := rm.(type) {
	case asm.Reg:
		modRM, p, err := modRMRegReg(regField, v)
		if err != nil {
			return operandPlan{}, err
		}
		return operandPlan{modRM: modRM, rex: p}, nil
	case asm.Mem:
		enc, err := memLocation(v, regField)
		if err != nil {
			return operandPlan{}, err
		}
		return operandPlan{
			modRM: enc.modRM, hasSIB: enc.hasSIB, sib: enc.sib,
			dispWidth: enc.dispWidth, disp: enc.disp,
			label: v.Label, ripRelative: enc.ripRelative, rex: enc.rexExt,
		}, nil
	default:
		return operandPlan{}, newEncodeError("operand must be a register or a memory location")
	}
}

// requiresRexBase enforces the GP8 family's REX interaction (spec.md §3):
// SPL/BPL/SIL/DIL need a bare REX prefix to be reachable at all, while
// AH/CH/DH/BH become architecturally unavailable the moment any REX prefix
// is present, forced or not.
func requiresRexBase(regs ...asm.Reg) (forceBase bool, err error) {
	hasHighByte := false
	hasLowByte4to7 := false
	for _, r := range regs {
		if r.Kind == asm.RegKindGP8H {
			hasHighByte = true
		}
		if r.Kind == asm.RegKindGP8L && r.Index >= 4 && r.Index < 8 {
			hasLowByte4to7 = true
		}
	}
	if hasHighByte && hasLowByte4to7 {
		return false, newEncodeError("AH/CH/DH/BH cannot be combined with SPL/BPL/SIL/DIL in the same instruction")
	}
	return hasLowByte4to7, nil
}

// emitWithPlan writes the mandatory prefix (if any), the 0x66 operand-size
// prefix for 16-bit operands, the REX prefix (if any bit is set, from
// either extension or the SPL/BPL/SIL/DIL forced-base case, or the
// instruction operates on 64-bit data), the opcode bytes, then the
// ModR/M/SIB/displacement encoded in plan (spec.md §4.3.2's prefix/REX/
// opcode/ModRM/SIB/disp/imm ordering).
func (a *Assembler) emitWithPlan(mandatory byte, size asm.Size, forceRexBase bool, plan operandPlan, opcode ...byte) {
	if mandatory != 0 {
		a.buf.AppendByte(mandatory)
	}
	if size == asm.Size16 {
		a.buf.AppendByte(0x66)
	}
	finalRex := plan.rex
	if size == asm.Size64 {
		finalRex |= rexW
	}
	if forceRexBase {
		finalRex |= rexBase
	}
	if finalRex != rexNone {
		a.buf.AppendByte(byte(finalRex))
	}
	a.buf.AppendBytes(opcode)
	a.emitModRMTail(plan)
}

// emitModRMTail writes the ModR/M byte, the SIB byte if present, and the
// displacement (either a literal value or a forward/backward label
// reference resolved through the Buffer's displacement chain).
func (a *Assembler) emitModRMTail(plan operandPlan) {
	a.buf.AppendByte(plan.modRM)
	if plan.hasSIB {
		a.buf.AppendByte(plan.sib)
	}
	switch {
	case plan.label != nil:
		a.emitLabelDisplacement(plan.label, asm.ChainKindOther, 0)
	case plan.dispWidth == 8:
		a.buf.AppendByte(byte(int8(plan.disp)))
	case plan.dispWidth == 32:
		a.buf.AppendDword(uint32(plan.disp))
	}
}

// sizeOf picks the explicit operand size carried by whichever of a/b is not
// SizeUnspecified; used when one side is an immediate.
func sizeOf(a, b asm.Operand) asm.Size {
	if s := a.Size(); s != asm.SizeUnspecified {
		return s
	}
	return b.Size()
}
