package compiler

import (
	"github.com/tunnelvisionlabs/nasmjit-sub000/asm"
	"github.com/tunnelvisionlabs/nasmjit-sub000/asm/amd64"
	"github.com/tunnelvisionlabs/nasmjit-sub000/cpuid"
	"github.com/tunnelvisionlabs/nasmjit-sub000/logging"
	"github.com/tunnelvisionlabs/nasmjit-sub000/memory"
)

// Compiler accumulates a deferred IR of Emittables over abstract Variables
// (spec.md §4.4): nothing is encoded until Make runs liveness analysis,
// register allocation, and lowering in sequence.
//
// Like the Assembler, a Compiler is single-threaded and non-reentrant
// (spec.md §5) and latches its first error, after which every further call
// is a no-op (spec.md §7).
type Compiler struct {
	logger logging.Logger
	cpu    cpuid.Info

	head, tail Emittable
	cursor     Emittable // Emittable most recently appended; nil before the first

	nextVarID int
	variables []*Variable

	decl *FunctionDecl // the currently open function, nil outside one

	err error
}

// NewCompiler returns an empty Compiler.
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{logger: logging.Noop{}, cpu: cpuid.Host}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompilerOption configures a Compiler at construction time.
type CompilerOption func(*Compiler)

// WithCompilerLogger attaches a Logger (spec.md §6).
func WithCompilerLogger(l logging.Logger) CompilerOption {
	return func(c *Compiler) { c.logger = l }
}

// WithCPUInfo overrides the CPU info collaborator (spec.md §6) a Compiler
// consults to decide whether an extension instruction like POPCNT may be
// emitted. Defaults to cpuid.Host; tests substitute a fixed Info to exercise
// both the hardware and unsupported paths deterministically.
func WithCPUInfo(info cpuid.Info) CompilerOption {
	return func(c *Compiler) { c.cpu = info }
}

func (c *Compiler) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return c.err
}

func (c *Compiler) halted() bool { return c.err != nil }

// Err returns the latched error, or nil.
func (c *Compiler) Err() error { return c.err }

// append links e onto the tail of the Emittable list.
func (c *Compiler) append(e Emittable) {
	n := e.emittableNode()
	if c.head == nil {
		c.head, c.tail = e, e
	} else {
		tailNode := c.tail.emittableNode()
		tailNode.next = e
		n.prev = c.tail
		c.tail = e
	}
	c.cursor = e
}

// NewVariable allocates a fresh Variable of kind and records it in this
// Compiler (spec.md §4.4.2). No check is made that a Variable passed to a
// Compiler method was created by that Compiler or belongs to the open
// function.
func (c *Compiler) NewVariable(kind VarKind) *Variable {
	v := newVariable(c.nextVarID, kind)
	c.nextVarID++
	c.variables = append(c.variables, v)
	return v
}

// DeclareFunction opens a new function body using conv, binding args (in
// order) to freshly created Variables already resident in their calling
// convention's argument registers or stack slots. resultKind, if non-nil,
// creates the function's Result Variable, whose value each Ret moves into
// the return register.
func (c *Compiler) DeclareFunction(name string, conv CallingConvention, argKinds []VarKind, resultKind *VarKind) (*FunctionDecl, []*Variable, error) {
	if c.halted() {
		return nil, nil, c.err
	}
	if conv.Name == "cdecl" || conv.Name == "stdcall" {
		return nil, nil, c.fail(asm.NewInvalidOperandError("32-bit calling conventions are not lowered by this module"))
	}
	if c.decl != nil {
		return nil, nil, c.fail(asm.NewInvalidOperandError("a function is already open; call EndFunction first"))
	}

	args := make([]*Variable, len(argKinds))
	for i, k := range argKinds {
		args[i] = c.NewVariable(k)
	}

	var result *Variable
	if resultKind != nil {
		result = c.NewVariable(*resultKind)
	}

	decl := &FunctionDecl{Name: name, Conv: conv, Args: args, Result: result}
	c.append(decl)
	c.decl = decl
	return decl, args, nil
}

// EndFunction closes the function opened by the matching DeclareFunction.
func (c *Compiler) EndFunction(decl *FunctionDecl) error {
	if c.halted() {
		return c.err
	}
	if c.decl != decl {
		return c.fail(asm.NewInvalidOperandError("EndFunction does not match the currently open function"))
	}
	c.append(&FunctionEnd{Decl: decl})
	c.decl = nil
	return nil
}

// NewTarget allocates a branch destination not yet bound to a position in
// the instruction stream (spec.md §4.4.1 Emittable "Target").
func (c *Compiler) NewTarget(name string) *Target {
	return &Target{Name: name}
}

// Bind places target at the current cursor position in the Emittable
// stream; every Instruction/JumpTable that referenced it before this call
// resolves against this position during lowering.
func (c *Compiler) Bind(target *Target) error {
	if c.halted() {
		return c.err
	}
	c.append(target)
	return nil
}

// emit appends a generic Instruction over Variables.
func (c *Compiler) emit(in *Instruction) error {
	if c.halted() {
		return c.err
	}
	if in.Dst != nil {
		in.writes = append(in.writes, in.Dst)
	}
	if in.Src != nil {
		in.reads = append(in.reads, in.Src)
	}
	c.append(in)
	return nil
}

// Add, Sub, Mul, and friends append a Variable-level arithmetic Instruction
// lowered to the corresponding asm/amd64 mnemonic once register allocation
// has assigned dst and src their physical locations.
func (c *Compiler) Add(dst, src *Variable) error { return c.binaryVar(amd64op(dst.Kind, mnemAdd), dst, src) }
func (c *Compiler) Sub(dst, src *Variable) error { return c.binaryVar(amd64op(dst.Kind, mnemSub), dst, src) }
func (c *Compiler) Mul(dst, src *Variable) error { return c.binaryVar(amd64op(dst.Kind, mnemMul), dst, src) }
func (c *Compiler) Xor(dst, src *Variable) error { return c.binaryVar(amd64op(dst.Kind, mnemXor), dst, src) }
func (c *Compiler) And(dst, src *Variable) error { return c.binaryVar(amd64op(dst.Kind, mnemAnd), dst, src) }
func (c *Compiler) Or(dst, src *Variable) error  { return c.binaryVar(amd64op(dst.Kind, mnemOr), dst, src) }
func (c *Compiler) Cmp(dst, src *Variable) error { return c.binaryVar(amd64op(dst.Kind, mnemCmp), dst, src) }

func (c *Compiler) binaryVar(mn amd64.Mnemonic, dst, src *Variable) error {
	return c.emit(&Instruction{Mnemonic: mn, Dst: dst, Src: src})
}

// PopulationCount writes the number of set bits in src into dst, lowering
// to the POPCNT instruction. Unlike the baseline arithmetic family above,
// POPCNT is an extension (spec.md §1): before emitting it, the Compiler
// consults its CPU info collaborator (spec.md §6, set via WithCPUInfo or
// defaulted to cpuid.Host) and latches an error instead of emitting an
// instruction the host CPU does not advertise.
func (c *Compiler) PopulationCount(dst, src *Variable) error {
	if c.halted() {
		return c.err
	}
	if dst.Kind != src.Kind || dst.Kind.RegisterType() != RegisterTypeGP {
		return c.fail(asm.NewInvalidOperandError("PopulationCount requires matching general-purpose variable kinds"))
	}
	if !c.cpu.Has(cpuid.FeaturePOPCNT) {
		return c.fail(asm.NewInvalidOperandError("host CPU does not advertise the POPCNT feature bit"))
	}
	mn := amd64.POPCNTL
	if dst.Kind == VarInt64 {
		mn = amd64.POPCNTQ
	}
	return c.emit(&Instruction{Mnemonic: mn, Dst: dst, Src: src})
}

// AddImm adds an immediate constant into dst in place.
func (c *Compiler) AddImm(dst *Variable, imm int64) error {
	return c.emit(&Instruction{Mnemonic: amd64op(dst.Kind, mnemAdd), Dst: dst, HasImm: true, ImmValue: imm})
}

// SubImm subtracts an immediate constant from dst in place.
func (c *Compiler) SubImm(dst *Variable, imm int64) error {
	return c.emit(&Instruction{Mnemonic: amd64op(dst.Kind, mnemSub), Dst: dst, HasImm: true, ImmValue: imm})
}

// CmpImm compares dst against an immediate constant, setting flags.
func (c *Compiler) CmpImm(dst *Variable, imm int64) error {
	return c.emit(&Instruction{Mnemonic: amd64op(dst.Kind, mnemCmp), Dst: dst, HasImm: true, ImmValue: imm})
}

// Mov copies src into dst.
func (c *Compiler) Mov(dst, src *Variable) error {
	return c.emit(&Instruction{Mnemonic: amd64op(dst.Kind, mnemMov), Dst: dst, Src: src})
}

// MovImm materializes an immediate constant into dst.
func (c *Compiler) MovImm(dst *Variable, imm int64) error {
	return c.emit(&Instruction{Mnemonic: amd64op(dst.Kind, mnemMov), Dst: dst, HasImm: true, ImmValue: imm})
}

// Jmp appends an unconditional jump to target.
func (c *Compiler) Jmp(target *Target) error {
	if c.halted() {
		return c.err
	}
	c.append(&Instruction{Mnemonic: amd64.JMP, Target: target})
	return nil
}

// Jcc appends a conditional jump to target.
func (c *Compiler) Jcc(cond amd64.ConditionCode, target *Target) error {
	if c.halted() {
		return c.err
	}
	c.append(&Instruction{Mnemonic: amd64.JCC, Cond: cond, Target: target})
	return nil
}

// Ret appends a return of the current function's Result variable (or a
// bare return for a void function).
func (c *Compiler) Ret() error {
	if c.halted() {
		return c.err
	}
	if c.decl == nil {
		return c.fail(asm.NewInvalidOperandError("return outside of an open function"))
	}
	in := &Instruction{Mnemonic: amd64.RET}
	if c.decl.Result != nil {
		in.Src = c.decl.Result
		in.reads = append(in.reads, c.decl.Result)
	}
	c.append(in)
	return nil
}

// CallFunction emits a Call to another Compiler-managed function entered
// at target, passing args through the active calling convention and
// writing its return value into result (which may be nil for a void
// call).
func (c *Compiler) CallFunction(target *Target, args []*Variable, result *Variable) error {
	if c.halted() {
		return c.err
	}
	call := &Call{Target: target, Args: args, Result: result}
	call.reads = append(call.reads, args...)
	if result != nil {
		call.writes = append(call.writes, result)
	}
	c.append(call)
	return nil
}

// CallExternal emits a Call to a fixed, already-resolved function pointer
// (e.g. a libc or host-runtime entry point), bypassing the Target/label
// indirection CallFunction uses for Compiler-managed functions.
func (c *Compiler) CallExternal(fn uintptr, args []*Variable, result *Variable) error {
	if c.halted() {
		return c.err
	}
	call := &Call{External: fn, Args: args, Result: result}
	call.reads = append(call.reads, args...)
	if result != nil {
		call.writes = append(call.writes, result)
	}
	c.append(call)
	return nil
}

// EmitJumpTable appends a table of absolute code addresses, one per target,
// in the order given. Targets may be bound before or after this call.
func (c *Compiler) EmitJumpTable(targets []*Target) error {
	if c.halted() {
		return c.err
	}
	c.append(&JumpTable{Targets: targets})
	return nil
}

// Comment forwards text to the logger when the function is lowered; it has
// no effect on the generated bytes (spec.md §4.4.7).
func (c *Compiler) Comment(text string) error {
	if c.halted() {
		return c.err
	}
	c.append(&Comment{Text: text})
	return nil
}

// Align requests padding to the given byte boundary at lowering time
// (spec.md §4.4.1's Align Emittable, corroborated by original_source's
// testalign.cpp; see SPEC_FULL.md §4).
func (c *Compiler) Align(n int) error {
	if c.halted() {
		return c.err
	}
	c.append(&Align{N: n})
	return nil
}

// EmbedData appends a raw constant blob directly into the code stream, e.g.
// a jump table's byte payload laid out by hand instead of via EmitJumpTable.
func (c *Compiler) EmbedData(data []byte) error {
	if c.halted() {
		return c.err
	}
	c.append(&EmbeddedData{Data: data})
	return nil
}

// Make runs liveness analysis, register allocation, prologue/epilogue
// synthesis, and lowering, in that order, then hands the resulting machine
// code to mgr exactly as Assembler.Make does (spec.md §4.4.5).
func (c *Compiler) Make(mgr *memory.Manager) (*memory.Code, error) {
	if c.err != nil {
		return nil, c.err
	}
	numberEmittables(c.head)
	computeLiveness(c.head, c.variables)

	asmbl := amd64.NewAssembler(amd64.WithLogger(c.logger))
	if err := lower(asmbl, c.head); err != nil {
		return nil, c.fail(err)
	}
	code, err := asmbl.Make(mgr)
	if err != nil {
		return nil, c.fail(err)
	}
	return code, nil
}
