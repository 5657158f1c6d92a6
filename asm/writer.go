// Package asm encodes x86-64 machine instructions into a byte buffer,
// covering the narrow instruction subset a stack-machine code generator
// needs: register/immediate moves, arithmetic, stack push/pop, indirect
// call, and ret.
package asm

import "encoding/binary"

// Writer is an append-only little-endian byte buffer with patch-at-offset
// support, mirroring the teacher's big-endian bytecode writer narrowed to
// the widths x86-64 encoding actually needs.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer with a small initial capacity.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 4096)}
}

// Bytes returns the accumulated instruction stream.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the current buffer length, i.e. the offset the next
// emitted byte will land at.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Emit8 appends a single byte.
func (w *Writer) Emit8(v uint8) {
	w.buf = append(w.buf, v)
}

// Emit16 appends a 16-bit little-endian value.
func (w *Writer) Emit16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// EmitBytes appends a raw byte slice.
func (w *Writer) EmitBytes(p []byte) {
	w.buf = append(w.buf, p...)
}

// Emit32 appends a 32-bit little-endian value.
func (w *Writer) Emit32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// Emit64 appends a 64-bit little-endian value.
func (w *Writer) Emit64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// Emit64At overwrites the 8 bytes starting at offset with v, used to
// patch a previously-emitted placeholder absolute address.
func (w *Writer) Emit64At(offset int, v uint64) {
	binary.LittleEndian.PutUint64(w.buf[offset:offset+8], v)
}
