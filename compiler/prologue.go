package compiler

import (
	"github.com/tunnelvisionlabs/nasmjit-sub000/asm"
	"github.com/tunnelvisionlabs/nasmjit-sub000/asm/amd64"
)

// frame carries everything the prologue, body, and epilogue of one function
// need to agree on: the single shared exit point every Ret lowers to a jump
// toward (spec.md §4.4.4 "one epilogue, not one per return"), and the final
// stack-adjustment size after alignment.
type frame struct {
	epilogue  *asm.Label
	alloc     *allocation
	adjust    int // bytes subtracted from rsp after the pushed registers
	conv      CallingConvention
}

// buildFrame rounds alloc's spill area (plus any ABI shadow space) up to
// the calling convention's required stack alignment, accounting for the
// pushed rbp and callee-saved registers already on the stack by the time
// the `sub rsp` executes (spec.md §4.4.4).
func buildFrame(a *amd64.Assembler, decl *FunctionDecl, alloc *allocation) *frame {
	pushed := 8 * (1 + len(alloc.clobberedCalleeSaved)) // rbp + callee-saved
	need := alloc.frameSize + decl.Conv.ShadowSpaceBytes
	if alloc.frameSize > 0 {
		// operandFor places spill slot 0 one qword below the last saved
		// register, so the reserved area covers that qword as well.
		need += 8
	}
	total := pushed + need
	align := decl.Conv.StackAlignment
	if align > 0 {
		if rem := total % align; rem != 0 {
			need += align - rem
		}
	}
	return &frame{epilogue: a.NewLabel(), alloc: alloc, adjust: need, conv: decl.Conv}
}

// emitPrologue pushes rbp, establishes it as the frame base, saves every
// callee-saved register the body actually clobbers, and reserves the
// frame's spill/shadow space, in that order (spec.md §4.4.4).
func emitPrologue(a *amd64.Assembler, fr *frame) error {
	if err := a.Push(asm.RBP); err != nil {
		return err
	}
	if err := a.Mov(asm.RBP, asm.RSP); err != nil {
		return err
	}
	for _, reg := range fr.alloc.clobberedCalleeSaved {
		if err := a.Push(reg); err != nil {
			return err
		}
	}
	if fr.adjust > 0 {
		if err := a.Sub(asm.RSP, asm.ImmValue(int64(fr.adjust))); err != nil {
			return err
		}
	}
	return nil
}

// emitEpilogue binds the frame's shared exit label, unwinds the frame in
// the mirror order of emitPrologue, and returns.
func emitEpilogue(a *amd64.Assembler, fr *frame) error {
	if err := a.Bind(fr.epilogue); err != nil {
		return err
	}
	if fr.adjust > 0 {
		if err := a.Add(asm.RSP, asm.ImmValue(int64(fr.adjust))); err != nil {
			return err
		}
	}
	for i := len(fr.alloc.clobberedCalleeSaved) - 1; i >= 0; i-- {
		if err := a.Pop(fr.alloc.clobberedCalleeSaved[i]); err != nil {
			return err
		}
	}
	if err := a.Pop(asm.RBP); err != nil {
		return err
	}
	return a.Ret(0)
}
