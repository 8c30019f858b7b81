// Package dcmtest builds synthetic Explicit VR Little Endian DICOM buffers
// for tests.
package dcmtest

import (
	"bytes"
	"encoding/binary"
)

// Builder accumulates the bytes of a synthetic DICOM buffer
type Builder struct {
	buf bytes.Buffer
}

// New returns a Builder holding a zeroed 128 byte preamble and the DICM magic
func New() *Builder {
	b := &Builder{}
	b.buf.Write(make([]byte, 128))
	b.buf.WriteString("DICM")
	return b
}

// NewRaw returns an empty Builder, without preamble or magic
func NewRaw() *Builder {
	return &Builder{}
}

func isLongForm(vr string) bool {
	switch vr {
	case "OB", "OW", "OF", "SQ", "UT", "UN":
		return true
	}
	return false
}

// Header writes an element header: tag, VR and a length field whose width
// follows the VR. `length` is written as given, so it may disagree with
// whatever follows.
func (b *Builder) Header(group, element uint16, vr string, length uint32) *Builder {
	b.tag(group, element)
	b.buf.WriteString(vr)
	if isLongForm(vr) {
		b.buf.Write([]byte{0x00, 0x00})
		b.uint32(length)
	} else {
		b.uint16(uint16(length))
	}
	return b
}

// Element writes a complete element with an explicit length
func (b *Builder) Element(group, element uint16, vr string, value []byte) *Builder {
	b.Header(group, element, vr, uint32(len(value)))
	b.buf.Write(value)
	return b
}

// Item writes an 8 byte item header (tag + 32 bit length)
func (b *Builder) Item(group, element uint16, length uint32) *Builder {
	b.tag(group, element)
	b.uint32(length)
	return b
}

// Raw appends `p` verbatim
func (b *Builder) Raw(p ...byte) *Builder {
	b.buf.Write(p)
	return b
}

// Len returns the number of bytes written so far
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Build returns a copy of the accumulated bytes
func (b *Builder) Build() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}

func (b *Builder) tag(group, element uint16) {
	b.uint16(group)
	b.uint16(element)
}

func (b *Builder) uint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
}

func (b *Builder) uint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
}
