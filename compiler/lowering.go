package compiler

import (
	"github.com/tunnelvisionlabs/nasmjit-sub000/asm"
	"github.com/tunnelvisionlabs/nasmjit-sub000/asm/amd64"
)

// lower walks the finalized Emittable list and turns each node into calls
// against a, running register allocation and prologue/epilogue synthesis
// once per function body as it goes (spec.md §4.4.5).
func lower(a *amd64.Assembler, head Emittable) error {
	targets := map[*Target]*asm.Label{}
	labelFor := func(t *Target) *asm.Label {
		if l, ok := targets[t]; ok {
			return l
		}
		l := a.NewLabel()
		targets[t] = l
		return l
	}

	var fr *frame
	var decl *FunctionDecl

	for e := head; e != nil; e = e.emittableNode().next {
		switch n := e.(type) {
		case *FunctionDecl:
			decl = n
			body := referencedVariables(n, e)
			alloc := allocateFunction(n, body, n.Conv)
			fr = buildFrame(a, n, alloc)
			if err := emitPrologue(a, fr); err != nil {
				return err
			}

		case *FunctionEnd:
			if err := emitEpilogue(a, fr); err != nil {
				return err
			}
			fr, decl = nil, nil

		case *Comment:
			a.Comment(n.Text)

		case *Target:
			if err := a.Bind(labelFor(n)); err != nil {
				return err
			}

		case *Align:
			if err := a.Align(n.N); err != nil {
				return err
			}

		case *EmbeddedData:
			if err := a.Embed(n.Data); err != nil {
				return err
			}

		case *JumpTable:
			for _, t := range n.Targets {
				if err := a.EmbedAbsoluteLabel(labelFor(t)); err != nil {
					return err
				}
			}

		case *Call:
			if err := lowerCall(a, n, labelFor, fr); err != nil {
				return err
			}

		case *Instruction:
			if err := lowerInstruction(a, n, labelFor, fr, decl); err != nil {
				return err
			}
		}
	}
	return nil
}

// referencedVariables collects every Variable read or written between a
// FunctionDecl and its matching FunctionEnd, in first-use order, plus the
// declaration's own arguments and result so unused arguments still get a
// home (spec.md §4.4.2).
func referencedVariables(decl *FunctionDecl, start Emittable) []*Variable {
	seen := map[*Variable]bool{}
	var out []*Variable
	add := func(v *Variable) {
		if v != nil && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range decl.Args {
		add(v)
	}
	add(decl.Result)

	depth := 0
	for e := start; e != nil; e = e.emittableNode().next {
		if _, ok := e.(*FunctionDecl); ok {
			depth++
			if depth > 1 {
				continue
			}
		}
		if _, ok := e.(*FunctionEnd); ok {
			depth--
			if depth == 0 {
				break
			}
			continue
		}
		n := e.emittableNode()
		for _, v := range n.reads {
			add(v)
		}
		for _, v := range n.writes {
			add(v)
		}
	}
	return out
}

// operandFor resolves v's allocated location to a concrete asm.Operand.
func operandFor(v *Variable, fr *frame) asm.Operand {
	if v.loc.inRegister {
		if v.Kind.RegisterType() == RegisterTypeXMM {
			return v.loc.reg
		}
		kind := asm.RegKindGP32
		if v.Kind == VarInt64 {
			kind = asm.RegKindGP64
		}
		return asm.Reg{Index: v.loc.reg.Index, Kind: kind}
	}

	if v.loc.incoming {
		return memPtrFor(v.Kind, int32(v.loc.stackSlot))
	}
	spillBase := -8 * (1 + len(fr.alloc.clobberedCalleeSaved))
	disp := int32(spillBase - 8 - v.loc.stackSlot)
	return memPtrFor(v.Kind, disp)
}

func memPtrFor(kind VarKind, disp int32) asm.Mem {
	if kind == VarInt64 || kind == VarFloat64 {
		return asm.QwordPtr(asm.RBP, disp)
	}
	return asm.DwordPtr(asm.RBP, disp)
}

func lowerInstruction(a *amd64.Assembler, in *Instruction, labelFor func(*Target) *asm.Label, fr *frame, decl *FunctionDecl) error {
	switch in.Mnemonic {
	case amd64.JMP:
		return a.Jmp(labelFor(in.Target))
	case amd64.JCC:
		return a.Jcc(in.Cond, labelFor(in.Target))
	case amd64.RET:
		if in.Src != nil {
			returnReg := asm.RAX
			if in.Src.Kind.RegisterType() == RegisterTypeXMM {
				returnReg = asm.XMM0
			}
			if err := movInto(a, returnReg, in.Src, fr); err != nil {
				return err
			}
		}
		return a.Jmp(fr.epilogue)
	}

	dst := operandFor(in.Dst, fr)
	if in.HasImm {
		return binaryImmOp(a, in.Mnemonic, dst, in.ImmValue)
	}
	src := operandFor(in.Src, fr)
	return binaryOp(a, in.Mnemonic, dst, src)
}

func movInto(a *amd64.Assembler, reg asm.Reg, v *Variable, fr *frame) error {
	src := operandFor(v, fr)
	if r, ok := src.(asm.Reg); ok && r == reg {
		return nil
	}
	return a.Mov(reg, src)
}

// binaryOp and binaryImmOp dispatch a Variable-level Instruction to its
// concrete Assembler method; the width-specific Mnemonic constants chosen
// by compiler.amd64op already encode which of these applies.
func binaryOp(a *amd64.Assembler, mn amd64.Mnemonic, dst, src asm.Operand) error {
	switch mn {
	case amd64.ADDL, amd64.ADDQ, amd64.ADDSD, amd64.ADDSS:
		return a.Add(dst, src)
	case amd64.SUBL, amd64.SUBQ, amd64.SUBSD, amd64.SUBSS:
		return a.Sub(dst, src)
	case amd64.IMULL, amd64.IMULQ:
		reg, ok := dst.(asm.Reg)
		if !ok {
			return unsupportedMnemonic(mn)
		}
		return a.Imul2(reg, src)
	case amd64.POPCNTL, amd64.POPCNTQ:
		reg, ok := dst.(asm.Reg)
		if !ok {
			return unsupportedMnemonic(mn)
		}
		return a.Popcnt(reg, src)
	case amd64.MULSD:
		reg, ok := dst.(asm.Reg)
		if !ok {
			return unsupportedMnemonic(mn)
		}
		return a.Mulsd(reg, src)
	case amd64.MULSS:
		reg, ok := dst.(asm.Reg)
		if !ok {
			return unsupportedMnemonic(mn)
		}
		return a.Mulss(reg, src)
	case amd64.XORL, amd64.XORQ:
		return a.Xor(dst, src)
	case amd64.XORPS:
		reg, ok := dst.(asm.Reg)
		if !ok {
			return unsupportedMnemonic(mn)
		}
		return a.Xorps(reg, src)
	case amd64.ANDL, amd64.ANDQ:
		return a.And(dst, src)
	case amd64.ANDPS:
		reg, ok := dst.(asm.Reg)
		if !ok {
			return unsupportedMnemonic(mn)
		}
		return a.Andps(reg, src)
	case amd64.ORL, amd64.ORQ:
		return a.Or(dst, src)
	case amd64.CMPL, amd64.CMPQ:
		return a.Cmp(dst, src)
	case amd64.COMISD:
		reg, ok := dst.(asm.Reg)
		if !ok {
			return unsupportedMnemonic(mn)
		}
		return a.Comisd(reg, src)
	case amd64.COMISS:
		reg, ok := dst.(asm.Reg)
		if !ok {
			return unsupportedMnemonic(mn)
		}
		return a.Comiss(reg, src)
	case amd64.MOVL, amd64.MOVQ:
		return a.Mov(dst, src)
	case amd64.MOVSD:
		return a.Movsd(dst, src)
	case amd64.MOVSS:
		return a.Movss(dst, src)
	default:
		return unsupportedMnemonic(mn)
	}
}

func binaryImmOp(a *amd64.Assembler, mn amd64.Mnemonic, dst asm.Operand, imm int64) error {
	v := asm.ImmValue(imm)
	switch mn {
	case amd64.ADDL, amd64.ADDQ:
		return a.Add(dst, v)
	case amd64.SUBL, amd64.SUBQ:
		return a.Sub(dst, v)
	case amd64.CMPL, amd64.CMPQ:
		return a.Cmp(dst, v)
	case amd64.MOVL, amd64.MOVQ:
		return a.Mov(dst, v)
	default:
		return unsupportedMnemonic(mn)
	}
}

func lowerCall(a *amd64.Assembler, call *Call, labelFor func(*Target) *asm.Label, fr *frame) error {
	conv := SystemVAMD64
	if fr != nil {
		conv = fr.conv
	}
	gi, fi := 0, 0
	for _, arg := range call.Args {
		src := operandFor(arg, fr)
		if arg.Kind.RegisterType() == RegisterTypeXMM {
			if fi < len(conv.FloatArgRegs) {
				if err := a.Mov(conv.FloatArgRegs[fi], src); err != nil {
					return err
				}
				fi++
			}
			continue
		}
		if gi < len(conv.IntArgRegs) {
			if err := a.Mov(conv.IntArgRegs[gi], src); err != nil {
				return err
			}
			gi++
		}
	}

	if call.Target != nil {
		if err := a.Call(labelFor(call.Target)); err != nil {
			return err
		}
	} else {
		// An external function pointer has no label to jump through; load
		// it into a scratch register the calling convention doesn't use
		// for arguments, then call through that register.
		if err := a.Mov(asm.RAX, asm.ImmValue(int64(call.External))); err != nil {
			return err
		}
		if err := a.Call(asm.RAX); err != nil {
			return err
		}
	}

	if call.Result != nil {
		returnReg := asm.RAX
		if call.Result.Kind.RegisterType() == RegisterTypeXMM {
			returnReg = asm.XMM0
		}
		dst := operandFor(call.Result, fr)
		if r, ok := dst.(asm.Reg); !ok || r != returnReg {
			if err := a.Mov(dst, returnReg); err != nil {
				return err
			}
		}
	}
	return nil
}

type unsupportedMnemonicError struct{ mn amd64.Mnemonic }

func (e unsupportedMnemonicError) Error() string { return "compiler: unsupported mnemonic in lowering" }

func unsupportedMnemonic(mn amd64.Mnemonic) error { return unsupportedMnemonicError{mn: mn} }
