package amd64

import (
	"fmt"

	"github.com/tunnelvisionlabs/nasmjit-sub000/asm"
	"github.com/tunnelvisionlabs/nasmjit-sub000/logging"
	"github.com/tunnelvisionlabs/nasmjit-sub000/memory"
)

// Assembler is the per-mnemonic x86-64 encoder described in spec.md §4.3. It
// is single-threaded and non-reentrant (spec.md §5): every exported method
// belongs to whichever goroutine constructed it.
//
// The first illegal operand combination, out-of-range immediate, or label
// misuse latches an error (spec.md §4.3.5, §7): subsequent calls remain
// valid to make but become no-ops, so that user code which doesn't check
// every return value still "compiles" without panicking. Make reports the
// latched error.
type Assembler struct {
	buf    *asm.Buffer
	relocs []asm.RelocEntry
	err    error
	logger logging.Logger

	// linkedLabels exists purely so Make can detect a linked label that was
	// never bound (spec.md §7 "label misuse").
	linkedLabels map[*asm.Label]struct{}
}

// Option configures an Assembler at construction time.
type Option func(*Assembler)

// WithLogger attaches a Logger that receives a callback for every label
// bind, alignment, and comment (spec.md §6). The Assembler makes no
// LogInstruction call for emitted instructions. When no logger is attached,
// logging.Noop is used and no formatting work happens.
func WithLogger(l logging.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// NewAssembler returns a ready-to-use Assembler with an empty Buffer.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		buf:          asm.NewBuffer(256),
		logger:       logging.Noop{},
		linkedLabels: make(map[*asm.Label]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Err returns the latched error, or nil if nothing has gone wrong.
func (a *Assembler) Err() error { return a.err }

// fail latches the first error it is given; later calls are ignored, so the
// Assembler's error state reflects the *earliest* failure (spec.md §4.3.5).
func (a *Assembler) fail(err error) error {
	if a.err == nil {
		a.err = err
	}
	return a.err
}

// halted reports whether emission should be skipped because an earlier call
// already failed.
func (a *Assembler) halted() bool { return a.err != nil }

// Offset returns the current write offset in the assembled buffer.
func (a *Assembler) Offset() int { return a.buf.Len() }

// NewLabel returns a fresh, unused Label scoped to this Assembler.
func (a *Assembler) NewLabel() *asm.Label { return asm.NewLabel() }

// Bind binds label to the current offset, patching every pending forward
// reference's displacement chain slot (spec.md §3, the "Binding invariance"
// testable property in spec.md §8).
func (a *Assembler) Bind(label *asm.Label) error {
	if a.halted() {
		return a.err
	}
	if err := label.Bind(a.buf, a.buf.Len()); err != nil {
		return a.fail(err)
	}
	delete(a.linkedLabels, label)
	a.logger.LogLabel(label)
	return nil
}

// Align emits 0x90 (NOP) bytes until the current offset is a multiple of n.
// n must be one of 1, 2, 4, 8, 16, 32 (spec.md §4.3.1).
func (a *Assembler) Align(n int) error {
	if a.halted() {
		return a.err
	}
	switch n {
	case 1, 2, 4, 8, 16, 32:
	default:
		return a.fail(asm.NewInvalidOperandError("align factor must be one of 1,2,4,8,16,32"))
	}
	for a.buf.Len()%n != 0 {
		a.buf.AppendByte(0x90)
	}
	a.logger.LogAlign(n)
	return nil
}

// Embed appends raw bytes verbatim, e.g. for a jump table or embedded
// constant pool entry (spec.md §4.3.1, §4.4.6).
func (a *Assembler) Embed(data []byte) error {
	if a.halted() {
		return a.err
	}
	a.buf.AppendBytes(data)
	return nil
}

// Comment forwards text to the attached Logger without affecting the byte
// stream (spec.md §4.4.7: Comment emittables become logger callbacks).
func (a *Assembler) Comment(text string) {
	a.logger.LogComment(text)
}

// EmbedAbsoluteLabel appends an 8-byte placeholder and records a
// RelocAbsoluteLabel patch site resolving it to label's final address once
// Make installs the code (spec.md §4.4.6's jump-table entries: each table
// slot holds a pointer to its Target, patched exactly like any other
// absolute label relocation).
func (a *Assembler) EmbedAbsoluteLabel(label *asm.Label) error {
	if a.halted() {
		return a.err
	}
	offset := a.buf.Len()
	a.buf.AppendQword(0)
	a.recordReloc(asm.RelocEntry{Offset: offset, SizeInBytes: 8, Mode: asm.RelocAbsoluteLabel, Label: label})
	return nil
}

// reserveDword32 reserves a 32-bit slot for a later patch (either a label
// displacement or a relocation) and returns its offset.
func (a *Assembler) reserveDword32(placeholder uint32) int {
	offset := a.buf.Len()
	a.buf.AppendDword(placeholder)
	return offset
}

// emitLabelDisplacement writes the 32-bit placeholder for a forward
// reference to label, or the resolved displacement if label is already
// bound (spec.md §3, §4.3.3).
func (a *Assembler) emitLabelDisplacement(label *asm.Label, kind asm.ChainKind, instrStart int) {
	if label.IsBound() {
		disp := int32(label.BoundOffset() - (a.buf.Len() + 4))
		a.buf.AppendDword(uint32(disp))
		return
	}
	slotOffset := a.buf.Len()
	a.buf.AppendDword(0) // placeholder, overwritten below once linked
	packed := label.LinkChainAt(slotOffset, kind)
	a.buf.OverwriteDword(slotOffset, packed)
	a.linkedLabels[label] = struct{}{}
	_ = instrStart
}

// Make finalizes the assembled instruction stream: it requests an
// executable block from mgr sized to the buffer's length, copies the
// buffer into it, applies every pending relocation, and returns a pointer
// to the installed code (spec.md §4.3.4).
//
// Make fails if any error was latched during emission, if a linked label
// was never bound, or if the memory manager cannot satisfy the allocation.
// A successful call leaves the Assembler ready for Reset and reuse.
func (a *Assembler) Make(mgr *memory.Manager) (*memory.Code, error) {
	if a.err != nil {
		return nil, a.err
	}
	if len(a.linkedLabels) != 0 {
		return nil, a.fail(asm.NewLabelMisuseError("label left unbound at Make"))
	}

	size := a.buf.Len()
	block, err := mgr.Alloc(size, memory.Freeable)
	if err != nil {
		return nil, a.fail(asm.NewAllocationError(err.Error()))
	}
	code := block.Bytes()
	copy(code, a.buf.Bytes())

	if err := a.applyRelocations(code, block.Addr()); err != nil {
		mgr.Free(block)
		return nil, a.fail(err)
	}

	return block, nil
}

// Reset clears the Assembler back to an empty, error-free state so it can
// be reused for another build (spec.md §4.3.4).
func (a *Assembler) Reset() {
	a.buf.Clear()
	a.relocs = a.relocs[:0]
	a.err = nil
	for l := range a.linkedLabels {
		delete(a.linkedLabels, l)
	}
}

func (a *Assembler) String() string {
	return fmt.Sprintf("Assembler{offset=%d, relocs=%d, err=%v}", a.buf.Len(), len(a.relocs), a.err)
}
