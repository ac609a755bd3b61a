package asm

// RelocMode values above describe what a relocation patches; RelocEntry
// is the actual pending patch record an Assembler accumulates while
// emitting, applied once the destination address is known (spec.md §3,
// §4.3.4).
type RelocEntry struct {
	// Offset is the byte offset, within the assembled buffer, of the slot
	// to patch.
	Offset int
	// SizeInBytes is the width of the slot: 4 for a 32-bit displacement or
	// absolute address, 8 for a 64-bit absolute address.
	SizeInBytes int
	Mode        RelocMode
	// Label is set for RelocAbsoluteLabel/RelocRelativeLabel.
	Label *Label
	// Symbol is set for RelocAbsoluteSymbol; its Addr is written into the
	// slot. No instruction is downsized or padded when the patch is applied.
	Symbol *ExternalSymbol
	// InstructionStart is the offset of the first byte of the instruction
	// this relocation belongs to. It is recorded for reference only: relative
	// displacements are computed from Offset+SizeInBytes.
	InstructionStart int
}
