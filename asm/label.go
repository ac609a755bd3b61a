package asm

// ChainKind distinguishes the two kinds of forward-reference slots that can
// sit on a Label's displacement chain (spec.md §3): unconditional jumps and
// every other relative reference. The kind bit is recorded in each slot;
// Bind patches every slot as a 32-bit displacement whatever its kind.
type ChainKind byte

const (
	// ChainKindOther is any relative reference that must stay at its
	// originally emitted width (32-bit near jumps, Jcc, LEA, etc.).
	ChainKindOther ChainKind = 0
	// ChainKindUnconditionalJump marks an unconditional JMP slot. Bind does
	// not relax it to the 2-byte short form.
	ChainKindUnconditionalJump ChainKind = 1
)

// Label is an opaque forward/backward branch target, bound at most once to
// a byte offset in the code being assembled.
//
// Internally this is the single signed integer described in spec.md §3:
//
//	pos == 0  -> unused (never linked, never bound)
//	pos < 0   -> bound; the bound offset is -pos-1
//	pos > 0   -> linked; pos-1 is the buffer offset of the head of a
//	             singly-linked chain of 4-byte placeholder slots living
//	             inside the code buffer itself.
//
// Each chain slot holds (nextPos<<1)|kindBit, where nextPos==0 terminates
// the chain. Binding walks the chain once, patching every slot to the
// correct `target - (slotOffset+4)` displacement.
type Label struct {
	pos int32
}

// NewLabel returns a fresh, unused Label.
func NewLabel() *Label { return &Label{} }

// isOperand lets a *Label be passed wherever an Operand is accepted, so
// branch instructions (Jmp, Call, Jcc) take a Label the same way they take
// a register or memory target.
func (*Label) isOperand() {}

// Size reports SizeUnspecified: a Label carries no operand width of its
// own.
func (*Label) Size() Size { return SizeUnspecified }

// IsUnused reports whether the label has never been referenced or bound.
func (l *Label) IsUnused() bool { return l.pos == 0 }

// IsBound reports whether Bind has already been called on this label.
func (l *Label) IsBound() bool { return l.pos < 0 }

// IsLinked reports whether the label has at least one pending forward
// reference and has not yet been bound.
func (l *Label) IsLinked() bool { return l.pos > 0 }

// BoundOffset returns the offset the label was bound to. Only valid when
// IsBound() is true.
func (l *Label) BoundOffset() int {
	return int(-l.pos - 1)
}

// LinkChainAt threads the 4-byte slot at slotOffset onto the label's
// existing chain and returns the packed value that must be written into
// that slot; it does not write to any buffer itself.
//
// Callers emit the returned value with Buffer.AppendDword immediately
// after calling LinkChainAt, so that slotOffset == the offset the appended
// dword ends up at.
func (l *Label) LinkChainAt(slotOffset int, kind ChainKind) uint32 {
	packed := (uint32(l.pos) << 1) | uint32(kind&1)
	l.pos = int32(slotOffset + 1)
	return packed
}

// Bind walks the label's displacement chain inside buf, patching every slot
// to point at targetOffset, then marks the label bound. It returns
// ErrLabelMisuse if the label was already bound.
func (l *Label) Bind(buf *Buffer, targetOffset int) error {
	if l.IsBound() {
		return newError(ErrCodeLabelMisuse, "label already bound")
	}
	cur := l.pos
	for cur != 0 {
		slotOffset := int(cur) - 1
		stored := buf.ReadDword(slotOffset)
		nextPos := int32(stored >> 1)
		disp := int32(targetOffset - (slotOffset + 4))
		buf.OverwriteDword(slotOffset, uint32(disp))
		cur = nextPos
	}
	l.pos = int32(-targetOffset - 1)
	return nil
}
