package asm

import "encoding/binary"

// growThreshold is the point at which Buffer switches from doubling its
// capacity to growing by fixed 64KiB steps (spec.md §4.2).
const growThreshold = 64 * 1024

// Buffer is a growable, contiguous byte buffer that the Assembler emits
// into. Unlike memory.Code, a Buffer is ordinary heap memory: code is only
// copied into an executable page once Make() relocates it (spec.md §4.3.4).
//
// The zero value is a ready-to-use empty Buffer.
type Buffer struct {
	data []byte
}

// NewBuffer returns a Buffer with capacity pre-reserved.
func NewBuffer(capacityHint int) *Buffer {
	b := &Buffer{}
	if capacityHint > 0 {
		b.data = make([]byte, 0, capacityHint)
	}
	return b
}

// Len returns the current write offset, i.e. the number of bytes emitted so
// far.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the buffer contents. The slice is only valid until the next
// mutating call.
func (b *Buffer) Bytes() []byte { return b.data }

// Take transfers ownership of the underlying byte slice out of the Buffer,
// leaving it empty. Use this to hand the raw bytes to a relocator without a
// copy.
func (b *Buffer) Take() []byte {
	out := b.data
	b.data = nil
	return out
}

// Clear resets the write offset to zero but keeps the allocated capacity,
// so a Buffer can be reused across Assembler.Reset calls without
// reallocating.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
}

// ensureSpace grows the buffer so that n more bytes can be appended without
// reallocating again immediately. Growth doubles the capacity until it
// reaches 64KiB, then proceeds in fixed 64KiB steps (spec.md §4.2).
func (b *Buffer) ensureSpace(n int) {
	need := len(b.data) + n
	if need <= cap(b.data) {
		return
	}
	newCap := cap(b.data)
	if newCap == 0 {
		newCap = 256
	}
	for newCap < need {
		if newCap < growThreshold {
			newCap *= 2
		} else {
			newCap += growThreshold
		}
	}
	grown := make([]byte, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(v byte) {
	b.ensureSpace(1)
	b.data = append(b.data, v)
}

// AppendBytes appends a slice of raw bytes verbatim, used for opcode bytes,
// embedded data, and NOP padding.
func (b *Buffer) AppendBytes(v []byte) {
	b.ensureSpace(len(v))
	b.data = append(b.data, v...)
}

// AppendWord appends a little-endian 16-bit word.
func (b *Buffer) AppendWord(v uint16) {
	b.ensureSpace(2)
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// AppendDword appends a little-endian 32-bit doubleword.
func (b *Buffer) AppendDword(v uint32) {
	b.ensureSpace(4)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// AppendQword appends a little-endian 64-bit quadword.
func (b *Buffer) AppendQword(v uint64) {
	b.ensureSpace(8)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// OverwriteDword patches a previously-written 32-bit slot in place. Used to
// resolve label displacements and relocation targets after the fact.
func (b *Buffer) OverwriteDword(offset int, v uint32) {
	binary.LittleEndian.PutUint32(b.data[offset:offset+4], v)
}

// ReadDword reads a previously-written 32-bit slot, used to walk the
// self-linked displacement chain (spec.md §3).
func (b *Buffer) ReadDword(offset int) uint32 {
	return binary.LittleEndian.Uint32(b.data[offset : offset+4])
}
