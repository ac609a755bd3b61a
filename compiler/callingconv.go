package compiler

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm"

// CallingConvention describes where a function's arguments arrive, which
// registers survive a call unscathed, and how much stack a call requires
// a caller to reserve before it, independent of any one function body
// (spec.md §4.4.4).
type CallingConvention struct {
	Name string

	// IntArgRegs and FloatArgRegs are consulted in order as each
	// argument is bound; once exhausted, further arguments arrive on the
	// stack (spec.md §8 scenario 3, "eight-argument fastcall").
	IntArgRegs   []asm.Reg
	FloatArgRegs []asm.Reg

	// CalleeSaved lists the general-purpose registers a callee must
	// restore before returning; the prologue/epilogue save and restore
	// exactly the subset actually clobbered by the function body.
	CalleeSaved []asm.Reg

	// ShadowSpaceBytes is the caller-reserved scratch area below the
	// return address that Win64 requires even when every argument
	// arrives in a register (0 on System V).
	ShadowSpaceBytes int

	// RedZoneBytes is the leaf-function scratch area below the stack
	// pointer that a callee may use without adjusting rsp (128 on System
	// V, 0 on Win64).
	RedZoneBytes int

	// StackAlignment is the required alignment, in bytes, of the stack
	// pointer at the point of a `call` instruction (16 on both ABIs this
	// package implements).
	StackAlignment int
}

// SystemVAMD64 is the calling convention used by every non-Windows amd64
// target (spec.md §4.4.4, recovered ABI detail: argument registers,
// callee-saved set, and the System V red zone).
var SystemVAMD64 = CallingConvention{
	Name:             "sysv",
	IntArgRegs:       []asm.Reg{asm.RDI, asm.RSI, asm.RDX, asm.RCX, asm.R8, asm.R9},
	FloatArgRegs:     []asm.Reg{asm.XMM0, asm.XMM1, asm.XMM2, asm.XMM3, asm.XMM4, asm.XMM5, asm.XMM6, asm.XMM7},
	CalleeSaved:      []asm.Reg{asm.RBX, asm.RBP, asm.R12, asm.R13, asm.R14, asm.R15},
	ShadowSpaceBytes: 0,
	RedZoneBytes:     128,
	StackAlignment:   16,
}

// Win64 is the Microsoft x64 calling convention: four register slots
// shared between integer and floating-point arguments by position, a
// mandatory 32-byte shadow space, and no red zone (spec.md §4.4.4).
var Win64 = CallingConvention{
	Name:             "win64",
	IntArgRegs:       []asm.Reg{asm.RCX, asm.RDX, asm.R8, asm.R9},
	FloatArgRegs:     []asm.Reg{asm.XMM0, asm.XMM1, asm.XMM2, asm.XMM3},
	CalleeSaved:      []asm.Reg{asm.RBX, asm.RBP, asm.RDI, asm.RSI, asm.R12, asm.R13, asm.R14, asm.R15},
	ShadowSpaceBytes: 32,
	RedZoneBytes:     0,
	StackAlignment:   16,
}

// Cdecl and Stdcall are carried for parity with the source's 32-bit
// calling conventions (spec.md's union-of-behavior note in §9); this
// module only lowers function bodies for amd64, so these two exist as
// descriptors a caller may inspect, but Compiler.DeclareFunction rejects
// them with an invalid-operand error, since no 32-bit argument-on-stack
// lowering is implemented.
var (
	Cdecl   = CallingConvention{Name: "cdecl", StackAlignment: 4}
	Stdcall = CallingConvention{Name: "stdcall", StackAlignment: 4}
)
