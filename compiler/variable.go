// Package compiler implements the high-level Compiler described in
// spec.md §4.4: a deferred IR of "emittables" over abstract Variables,
// lowered to the asm/amd64 encoder by a linear-scan-style register
// allocator with stack-slot spilling (a spilled Variable is addressed in
// its slot for the whole function; no reload moves are inserted) and
// calling-convention-aware prologue and epilogue synthesis.
package compiler

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm"

// RegisterType distinguishes the two disjoint register files a Variable can
// be allocated to, mirroring the teacher's registerType split between
// general-purpose and vector registers (compiler_value_location.go).
type RegisterType byte

const (
	RegisterTypeGP RegisterType = iota
	RegisterTypeXMM
)

func (t RegisterType) String() string {
	if t == RegisterTypeXMM {
		return "xmm"
	}
	return "gp"
}

// VarKind classifies a Variable's contents for the purposes of register-file
// selection and the 32-bit INT64-aliasing open question (spec.md §9).
type VarKind byte

const (
	VarInt32 VarKind = iota
	VarInt64
	VarFloat32
	VarFloat64
)

func (k VarKind) RegisterType() RegisterType {
	if k == VarFloat32 || k == VarFloat64 {
		return RegisterTypeXMM
	}
	return RegisterTypeGP
}

func (k VarKind) Size() asm.Size {
	switch k {
	case VarInt32, VarFloat32:
		return asm.Size32
	case VarInt64:
		return asm.Size64
	case VarFloat64:
		return asm.Size64
	default:
		return asm.Size32
	}
}

// Variable is an abstract compiler-managed value: a unique id, a kind, an
// optional home register preference, a liveness interval computed by the
// liveness pass, and the register allocator's live bookkeeping (current
// location, pin, modified-since-spill flag).
//
// This module targets amd64 only, so the 32-bit "VARIABLE_TYPE_INT64 alias"
// open question in spec.md §9 does not arise: every Variable, regardless of
// VarKind, always fits a single physical register (DESIGN.md records this
// decision).
type Variable struct {
	ID       int
	Kind     VarKind
	Priority int // on a spill-time tie in lastUse, the lower Priority is evicted first

	// preferredReg, when non-nil, is consulted by the allocator before
	// falling back to the free-register search (spec.md §4.4.3).
	preferredReg *asm.Reg

	// pin, when true, forbids the allocator from evicting this variable's
	// current register; when every active register is held by a pinned
	// variable, the variable being allocated gets a stack slot instead and
	// no error is raised.
	pin bool

	// Liveness, filled in by the liveness pass.
	firstUse int
	lastUse  int

	// Allocator state, valid only during lowering.
	loc      location
	modified bool // written-since-spill flag; the allocator never sets or reads it
}

// location is where a Variable currently lives: either a physical register
// or a stack slot (spec.md §4.4.2/§4.4.3).
type location struct {
	placed     bool // true once the allocator has given this variable a home
	inRegister bool
	reg        asm.Reg

	// stackSlot is valid when !inRegister: either a spill-area offset
	// (0, 8, 16, ... below the frame, sign applied at lowering time) or,
	// when incoming is true, a fixed positive offset from rbp into the
	// caller's argument area (rbp+16, rbp+24, ...).
	stackSlot int
	incoming  bool
}

// newVariable allocates a fresh Variable of the given kind. Variables are
// created through Compiler.NewVariable, which assigns IDs; this
// constructor is unexported so every Variable is known to exactly one
// Compiler (spec.md §7 "variable misuse ... using a variable outside its
// function").
func newVariable(id int, kind VarKind) *Variable {
	return &Variable{ID: id, Kind: kind}
}

// Pin requests that the allocator never evict this variable's register
// until Unpin is called; a variable that finds every register held by a
// pinned variable is given a stack slot instead, with no error.
func (v *Variable) Pin() { v.pin = true }

// Unpin releases a previous Pin.
func (v *Variable) Unpin() { v.pin = false }

// PreferRegister hints the allocator to prefer reg for this variable when
// it is first materialized into a register.
func (v *Variable) PreferRegister(reg asm.Reg) { v.preferredReg = &reg }

// OnRegister reports whether the variable is currently resident in a
// register (valid only during/after lowering).
func (v *Variable) OnRegister() bool { return v.loc.inRegister }
