package asm

// Size is the bit width an operand occupies.
type Size byte

const (
	SizeUnspecified Size = iota
	Size8
	Size16
	Size32
	Size64
	Size128
)

func (s Size) String() string {
	switch s {
	case Size8:
		return "byte"
	case Size16:
		return "word"
	case Size32:
		return "dword"
	case Size64:
		return "qword"
	case Size128:
		return "xmmword"
	default:
		return "unspecified"
	}
}

// RegKind is the type tag of a Register operand (spec.md §3). The tag,
// together with the register Index, uniquely identifies an architectural
// register and fixes its operand size.
type RegKind byte

const (
	// RegKindGP8L is a low byte general-purpose register: AL, CL, ..., and,
	// only in 64-bit mode with a REX prefix present, SPL/BPL/SIL/DIL and
	// R8B-R15B.
	RegKindGP8L RegKind = iota
	// RegKindGP8H is a high byte general-purpose register: AH, CH, DH, BH.
	// These are disjoint from the REX-extended byte registers: an
	// instruction must fail to encode if both appear together (spec.md §3).
	RegKindGP8H
	RegKindGP16
	RegKindGP32
	RegKindGP64
	RegKindX87
	RegKindMMX
	RegKindXMM
	RegKindSegment
	RegKindControl
	RegKindDebug
)

// Operand is the tagged union of every value the encoder accepts: a
// Register, a Mem, an Imm, or a Label reference used as a branch target.
//
// This is the language-neutral replacement for AsmJit's inheritance-plus-
// union Operand layout (spec.md §9): the tag lives in the Go type itself
// (a type switch dispatches on it) rather than in a discriminator field.
type Operand interface {
	// Size returns the operand's size, or SizeUnspecified if it must be
	// inferred from the other operand in the instruction.
	Size() Size
	isOperand()
}

// Reg is a Register operand: an index (0..15) and a RegKind type tag.
type Reg struct {
	Index uint8
	Kind  RegKind
}

func (Reg) isOperand() {}

// Size returns the operand size implied by the register's kind.
func (r Reg) Size() Size {
	switch r.Kind {
	case RegKindGP8L, RegKindGP8H:
		return Size8
	case RegKindGP16:
		return Size16
	case RegKindGP32:
		return Size32
	case RegKindGP64, RegKindMMX:
		return Size64
	case RegKindXMM:
		return Size128
	default:
		return SizeUnspecified
	}
}

// NeedsREXForExtension reports whether encoding this register's 3-bit field
// requires setting a REX.R/X/B extension bit (index 8..15).
func (r Reg) NeedsREXForExtension() bool {
	switch r.Kind {
	case RegKindGP64, RegKindGP32, RegKindGP16, RegKindGP8L, RegKindXMM:
		return r.Index >= 8
	default:
		return false
	}
}

// Bits3 returns the 3 low bits of the register's encoding, used in ModR/M
// and SIB bytes; the 4th (extension) bit is carried separately in a REX
// prefix bit by NeedsREXForExtension.
func (r Reg) Bits3() byte { return r.Index & 0x7 }

// gpRegisters builds the 16 general-purpose registers of a given kind.
func gpRegisters(kind RegKind, n int) []Reg {
	regs := make([]Reg, n)
	for i := range regs {
		regs[i] = Reg{Index: uint8(i), Kind: kind}
	}
	return regs
}

// The architectural general-purpose, vector, and high-byte register files.
// Indexing follows the standard x86-64 encoding order: AX/CX/DX/BX/SP/BP/SI/DI,
// then R8-R15.
var (
	GP8L = gpRegisters(RegKindGP8L, 16) // AL,CL,DL,BL,SPL,BPL,SIL,DIL,R8B..R15B
	GP8H = gpRegisters(RegKindGP8H, 4)  // AH,CH,DH,BH
	GP16 = gpRegisters(RegKindGP16, 16)
	GP32 = gpRegisters(RegKindGP32, 16)
	GP64 = gpRegisters(RegKindGP64, 16)
	XMM  = gpRegisters(RegKindXMM, 16)
	MMX  = gpRegisters(RegKindMMX, 8)
	X87  = gpRegisters(RegKindX87, 8)

	Segment = gpRegisters(RegKindSegment, 6) // ES,CS,SS,DS,FS,GS
	Control = gpRegisters(RegKindControl, 9) // CR0,CR2..CR4,CR8 sparsely used; sized for CR0..CR8
	Debug   = gpRegisters(RegKindDebug, 8)   // DR0..DR7
)

// Named registers for the common 64-bit and 32-bit general purpose forms,
// matching the Go assembler naming convention the teacher follows
// (https://go.dev/doc/asm), adapted to full-width names.
var (
	RAX, RCX, RDX, RBX, RSP, RBP, RSI, RDI = GP64[0], GP64[1], GP64[2], GP64[3], GP64[4], GP64[5], GP64[6], GP64[7]
	R8, R9, R10, R11, R12, R13, R14, R15   = GP64[8], GP64[9], GP64[10], GP64[11], GP64[12], GP64[13], GP64[14], GP64[15]

	EAX, ECX, EDX, EBX, ESP, EBP, ESI, EDI = GP32[0], GP32[1], GP32[2], GP32[3], GP32[4], GP32[5], GP32[6], GP32[7]
	R8D, R9D, R10D, R11D, R12D, R13D, R14D, R15D = GP32[8], GP32[9], GP32[10], GP32[11], GP32[12], GP32[13], GP32[14], GP32[15]

	AX, CX, DX, BX, SP, BP, SI, DI = GP16[0], GP16[1], GP16[2], GP16[3], GP16[4], GP16[5], GP16[6], GP16[7]

	AL, CL, DL, BL             = GP8L[0], GP8L[1], GP8L[2], GP8L[3]
	SPL, BPL, SIL, DIL         = GP8L[4], GP8L[5], GP8L[6], GP8L[7]
	AH, CH, DH, BH             = GP8H[0], GP8H[1], GP8H[2], GP8H[3]

	XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7 = XMM[0], XMM[1], XMM[2], XMM[3], XMM[4], XMM[5], XMM[6], XMM[7]
)

// Mem is a memory operand: (segment?, base?, index?, scale, displacement,
// size). Either Base or Index or both may be absent (nil). Label, when set,
// means the displacement is not yet known and must be resolved by the
// encoder either to a RIP-relative form (preferred in 64-bit mode) or an
// absolute 32-bit form carrying a relocation record (spec.md §4.1).
type Mem struct {
	Segment *Reg
	Base    *Reg
	Index   *Reg
	Scale   byte // one of 1, 2, 4, 8; meaningless if Index == nil
	Disp    int32
	SizeTag Size

	Label       *Label
	Absolute    bool // force absolute addressing instead of RIP-relative in 64-bit mode
}

func (Mem) isOperand() {}

// Size returns the memory operand's explicit size tag, or SizeUnspecified
// if it must be inferred from the other operand (spec.md §3).
func (m Mem) Size() Size { return m.SizeTag }

// BytePtr, WordPtr, DwordPtr, QwordPtr, and XmmwordPtr are size-qualified
// memory operand builders (spec.md §4.1).
func BytePtr(base Reg, disp int32) Mem      { return Mem{Base: &base, Disp: disp, SizeTag: Size8} }
func WordPtr(base Reg, disp int32) Mem      { return Mem{Base: &base, Disp: disp, SizeTag: Size16} }
func DwordPtr(base Reg, disp int32) Mem     { return Mem{Base: &base, Disp: disp, SizeTag: Size32} }
func QwordPtr(base Reg, disp int32) Mem     { return Mem{Base: &base, Disp: disp, SizeTag: Size64} }
func XmmwordPtr(base Reg, disp int32) Mem   { return Mem{Base: &base, Disp: disp, SizeTag: Size128} }

// Indexed builds a base+index*scale+disp memory operand.
func Indexed(base Reg, index Reg, scale byte, disp int32, size Size) Mem {
	return Mem{Base: &base, Index: &index, Scale: scale, Disp: disp, SizeTag: size}
}

// LabelMem builds a memory operand whose address is the (not yet known)
// offset bound to label, resolved at encode time to RIP-relative
// addressing or to an absolute form with a relocation record.
func LabelMem(label *Label, size Size) Mem {
	return Mem{Label: label, SizeTag: size}
}

// RelocMode identifies what an Imm's relocation marker asks the encoder to
// later patch (spec.md §3).
type RelocMode byte

const (
	// RelocNone means the immediate carries no relocation: it is a literal
	// constant to encode and forget.
	RelocNone RelocMode = iota
	// RelocAbsoluteLabel means "absolute address of a label".
	RelocAbsoluteLabel
	// RelocRelativeLabel means "relative address of a label".
	RelocRelativeLabel
	// RelocAbsoluteSymbol means "absolute address of an external symbol".
	RelocAbsoluteSymbol
)

// Imm is an immediate operand: a machine-word-wide signed integer, an
// unsigned interpretation flag, and an optional relocation marker
// (spec.md §3). Immediates carrying a relocation marker must always take
// the generic (non-shortcut) encoding, because their bytes will be
// rewritten later (spec.md §9).
type Imm struct {
	Value    int64
	Unsigned bool
	Reloc    RelocMode
	// Label carries the target for RelocAbsoluteLabel/RelocRelativeLabel.
	Label *Label
	// Symbol carries the auxiliary data for RelocAbsoluteSymbol: the target
	// pointer and the instruction's maximum byte length. The relocator
	// writes the target pointer; it does not downsize the instruction.
	Symbol *ExternalSymbol
}

// ImmLabelAddr builds an immediate whose encoded bytes will be patched, once
// label is bound and the code installed, to label's absolute runtime
// address (spec.md §3's RelocAbsoluteLabel).
func ImmLabelAddr(label *Label) Imm { return Imm{Reloc: RelocAbsoluteLabel, Label: label} }

func (Imm) isOperand() {}

// Size reports SizeUnspecified: an immediate's encoded width is determined
// by the instruction form, not carried on the operand itself.
func (Imm) Size() Size { return SizeUnspecified }

// ImmValue builds a plain, non-relocatable signed immediate.
func ImmValue(v int64) Imm { return Imm{Value: v} }

// ExternalSymbol names a process address outside the code buffer that a
// relocation entry may target (spec.md §3).
type ExternalSymbol struct {
	Name             string
	Addr             uintptr
	MaxInstrByteLen  int
}

// HasRelocation reports whether this immediate must suppress shortcut
// encodings because its slot will be patched later (spec.md §9).
func (i Imm) HasRelocation() bool { return i.Reloc != RelocNone }
