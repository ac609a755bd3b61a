package amd64

import (
	"encoding/binary"

	"github.com/tunnelvisionlabs/nasmjit-sub000/asm"
)

// recordReloc appends a pending patch site. Relocations patch the *installed*
// copy of the code (baseAddr-relative), unlike label displacement chains,
// which are resolved while still inside the growable Buffer (spec.md §3).
func (a *Assembler) recordReloc(entry asm.RelocEntry) {
	a.relocs = append(a.relocs, entry)
}

// applyRelocations patches every pending RelocEntry into code, which is the
// freshly copied, installed instruction stream living at baseAddr
// (spec.md §3, §4.3.4).
func (a *Assembler) applyRelocations(code []byte, baseAddr uintptr) error {
	for _, e := range a.relocs {
		switch e.Mode {
		case asm.RelocAbsoluteLabel:
			if e.Label == nil || !e.Label.IsBound() {
				return asm.NewLabelMisuseError("relocation references an unbound label")
			}
			target := uint64(baseAddr) + uint64(e.Label.BoundOffset())
			if err := writeRelocSlot(code, e.Offset, e.SizeInBytes, target); err != nil {
				return err
			}

		case asm.RelocRelativeLabel:
			if e.Label == nil || !e.Label.IsBound() {
				return asm.NewLabelMisuseError("relocation references an unbound label")
			}
			rel := int64(e.Label.BoundOffset()) - int64(e.Offset+e.SizeInBytes)
			if err := writeRelocSlot(code, e.Offset, e.SizeInBytes, uint64(uint32(rel))); err != nil {
				return err
			}

		case asm.RelocAbsoluteSymbol:
			if e.Symbol == nil {
				return asm.NewInvalidOperandError("relocation to an external symbol is missing its symbol")
			}
			if err := writeRelocSlot(code, e.Offset, e.SizeInBytes, uint64(e.Symbol.Addr)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRelocSlot(code []byte, offset, size int, value uint64) error {
	if offset < 0 || offset+size > len(code) {
		return asm.NewInvalidOperandError("relocation slot out of bounds")
	}
	switch size {
	case 4:
		binary.LittleEndian.PutUint32(code[offset:], uint32(value))
	case 8:
		binary.LittleEndian.PutUint64(code[offset:], value)
	default:
		return asm.NewInvalidOperandError("relocation slot size must be 4 or 8")
	}
	return nil
}
