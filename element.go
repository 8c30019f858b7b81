// Package dcmscan decodes the data element stream of DICOM files.
//
// Decoding operates over a fully materialised byte buffer with a single
// read cursor. Each decoded Element borrows its value from that buffer;
// nothing is copied. Only Explicit VR Little Endian is understood.
package dcmscan

import (
	"fmt"
	"strconv"
	"strings"
)

/*
===============================================================================
    Constants
===============================================================================
*/

// UndefinedLength is the reserved length value signalling that the end of
// a value is marked by a delimiter rather than a declared size,
// as per http://dicom.nema.org/dicom/2013/output/chtml/part05/sect_7.1.html
const UndefinedLength uint32 = 0xFFFFFFFF

const (
	preambleSize = 128
	magicSize    = 4
	headerStart  = preambleSize + magicSize

	tagSize      = 4
	vrSize       = 2
	reservedSize = 2
	shortLenSize = 2
	longLenSize  = 4

	// minElementHeader is the smallest header the outer loop will attempt to decode
	minElementHeader = 8
)

// dicmMagic contains the dicom magic value found at bytes 128-132
var dicmMagic = []byte("DICM")

// framing tags used inside undefined-length values
var (
	ItemTag                     = Tag{0xFFFE, 0xE000}
	ItemDelimitationItemTag     = Tag{0xFFFE, 0xE00D}
	SequenceDelimitationItemTag = Tag{0xFFFE, 0xE0DD}
)

/*
===============================================================================
    Tag
===============================================================================
*/

// Tag is the (group, element) pair identifying a Data Element.
type Tag struct {
	Group   uint16
	Element uint16
}

func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// ParseTag parses a tag written as "(gggg,eeee)", "gggg,eeee" or "ggggeeee",
// with hexadecimal digits.
func ParseTag(s string) (Tag, error) {
	hex := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "("), ")")
	hex = strings.Replace(hex, ",", "", 1)
	if len(hex) != 8 {
		return Tag{}, fmt.Errorf("invalid tag %q: want (gggg,eeee)", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Tag{}, fmt.Errorf("invalid tag %q: %v", s, err)
	}
	return Tag{Group: uint16(v >> 16), Element: uint16(v)}, nil
}

/*
===============================================================================
    VR
===============================================================================
*/

// VR holds the two raw bytes of a Value Representation.
// Unrecognised or non-ASCII codes are kept verbatim.
type VR [2]byte

// unknownVR is displayed in place of VR codes that are not printable ASCII
const unknownVR = "??"

// NewVR returns the VR for a two-character code
func NewVR(code string) VR {
	var vr VR
	copy(vr[:], code)
	return vr
}

// String returns the VR code, or "??" if either byte is not printable ASCII.
func (vr VR) String() string {
	for _, b := range vr {
		if b < 0x20 || b > 0x7E {
			return unknownVR
		}
	}
	return string(vr[:])
}

// IsLongForm returns whether the VR is followed by two reserved bytes and a
// 32-bit length rather than a 16-bit length.
func (vr VR) IsLongForm() bool {
	switch string(vr[:]) {
	case "OB", "OW", "OF", "SQ", "UT", "UN":
		return true
	default:
		return false
	}
}

/*
===============================================================================
    Element
===============================================================================
*/

// Element represents a Data Element,
// as per http://dicom.nema.org/dicom/2013/output/chtml/part05/chapter_7.html#sect_7.1
type Element struct {
	Tag    Tag
	VR     VR
	Length uint32

	// Offset is the position of the first value byte within the source buffer
	Offset int

	// Value is a view of the source buffer. It is nil if and only if
	// Length is UndefinedLength.
	Value []byte
}

// IsUndefinedLength returns whether the element's end was found by delimiter scanning
func (e *Element) IsUndefinedLength() bool {
	return e.Length == UndefinedLength
}
