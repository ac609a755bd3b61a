package compiler

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm/amd64"

// Emittable is one node of the Compiler's deferred IR (spec.md §4.4.1,
// GLOSSARY "Emittable"): the Compiler builds a doubly-linked list of these
// while the caller issues high-level operations, and only turns them into
// bytes during Make, once liveness and register allocation have run.
type Emittable interface {
	emittableNode() *node
}

// node is the doubly-linked-list plumbing embedded in every concrete
// Emittable, plus the per-node read/write Variable sets the liveness pass
// consumes.
type node struct {
	prev, next Emittable
	index      int // assigned by the liveness numbering pass

	reads  []*Variable
	writes []*Variable
}

func (n *node) emittableNode() *node { return n }

// Comment carries a free-text annotation with no byte-stream effect; it is
// forwarded to the attached logging.Logger during lowering (spec.md §4.4.7).
type Comment struct {
	node
	Text string
}

// FunctionDecl opens a new function body: its calling convention and
// argument variables drive prologue synthesis (spec.md §4.4.4).
type FunctionDecl struct {
	node
	Name   string
	Conv   CallingConvention
	Args   []*Variable
	Result *Variable // nil for a void function
}

// FunctionEnd closes the function body opened by the matching FunctionDecl,
// triggering epilogue synthesis (spec.md §4.4.4).
type FunctionEnd struct {
	node
	Decl *FunctionDecl
}

// Instruction is a single lowered machine operation over Variables and/or
// raw operands, recorded here in variable-referencing form and only turned
// into an asm/amd64 call once each Variable's register/spill slot is known.
type Instruction struct {
	node
	Mnemonic amd64.Mnemonic
	Cond     amd64.ConditionCode // valid for JCC/CMOVCC/SETCC
	Dst      *Variable
	Src      *Variable
	ImmValue int64
	HasImm   bool
	Target   *Target // valid for JMP/JCC/CALL against a Compiler-managed label
}

// Call emits a call to either an external function pointer or a
// Compiler-managed function, passing Args through the active calling
// convention (spec.md §4.4.4).
type Call struct {
	node
	Target   *Target
	External uintptr
	Args     []*Variable
	Result   *Variable
}

// JumpTable is a sequence of Compiler-managed Targets emitted inline as
// absolute code addresses, one per entry, each patched once its Target is
// bound (spec.md §4.4.6, recovered from original_source's
// testjumptable.cpp; see SPEC_FULL.md §4). A caller indexes the table with
// a computed Mov/Jmp-through-memory sequence of its own; the Compiler only
// guarantees the entries are laid out contiguously in Targets order.
type JumpTable struct {
	node
	Targets []*Target
}

// Align requests padding to the given byte boundary at lowering time.
type Align struct {
	node
	N int
}

// EmbeddedData appends a raw constant blob (e.g. a jump table's byte
// payload) directly into the code stream.
type EmbeddedData struct {
	node
	Data []byte
}

// Target is a Compiler-managed branch destination, lowered to an
// asm.Label. Multiple Instructions/JumpTables may reference the same
// Target before it is placed by a later Compiler.Bind call.
type Target struct {
	node
	Name string
}
