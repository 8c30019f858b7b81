package dcmscan

import (
	"errors"
	"fmt"
)

/*
===============================================================================
    Error Types
===============================================================================
*/

// NotDicomError indicates that the input does not carry the DICM magic at
// bytes 128-132. No elements are decoded when it is returned.
type NotDicomError struct {
	Name  string
	Found []byte
}

func (e *NotDicomError) Error() string {
	if e.Found == nil {
		return fmt.Sprintf("%s: not a dicom: too short to hold preamble and magic", e.Name)
	}
	return fmt.Sprintf("%s: not a dicom: magic = %q (!= %q)", e.Name, e.Found, dicmMagic)
}

// TruncatedError indicates that fewer bytes remained than a header field requires.
type TruncatedError struct {
	Name      string
	Field     string
	Offset    int
	Need      int
	Remaining int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%s: truncated %s at offset %d: need %d bytes, %d remaining",
		e.Name, e.Field, e.Offset, e.Need, e.Remaining)
}

// OverrunError indicates that a declared value or item length runs past the
// end of the buffer.
type OverrunError struct {
	Name      string
	Offset    int
	Length    uint32
	Remaining int
}

func (e *OverrunError) Error() string {
	return fmt.Sprintf("%s: value at offset %d overruns buffer: length %d, %d remaining",
		e.Name, e.Offset, e.Length, e.Remaining)
}

// ScanLimitError indicates that an undefined-length scan exceeded one of the
// configured caps.
type ScanLimitError struct {
	Name   string
	What   string
	Offset int
	Limit  int
}

func (e *ScanLimitError) Error() string {
	return fmt.Sprintf("%s: %s limit (%d) exceeded at offset %d", e.Name, e.What, e.Limit, e.Offset)
}

// CorruptError indicates structurally impossible input inside an
// undefined-length value.
type CorruptError struct {
	Name   string
	Offset int
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("%s: corrupt element stream at offset %d: %s", e.Name, e.Offset, e.Reason)
}

// IsRecoverable returns whether `err` was raised partway through the element
// stream, in which case elements decoded before it remain valid.
func IsRecoverable(err error) bool {
	var (
		truncated *TruncatedError
		overrun   *OverrunError
		limit     *ScanLimitError
		corrupt   *CorruptError
	)
	return errors.As(err, &truncated) ||
		errors.As(err, &overrun) ||
		errors.As(err, &limit) ||
		errors.As(err, &corrupt)
}
