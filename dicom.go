package dcmscan

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

/*
===============================================================================
    Decoding
===============================================================================
*/

// Sink receives decoded elements in stream order. The Element, and the
// buffer its Value borrows from, are only guaranteed for the duration of
// the call unless the caller keeps the buffer alive.
type Sink interface {
	HandleElement(e *Element) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(e *Element) error

// HandleElement calls f(e)
func (f SinkFunc) HandleElement(e *Element) error {
	return f(e)
}

// Decode decodes every element of `buf` into `sink`.
//
// It stops at the first decode or sink error. Elements handed to the sink
// before a recoverable error (see IsRecoverable) were decoded correctly.
func Decode(buf []byte, name string, sink Sink, opts ...Option) error {
	d, err := NewDecoder(buf, name, opts...)
	if err != nil {
		return err
	}
	for {
		e, err := d.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sink.HandleElement(&e); err != nil {
			return err
		}
	}
}

// DecodeAll decodes `buf` and returns its elements in stream order.
// On a recoverable error the elements decoded before it are returned
// along with the error.
func DecodeAll(buf []byte, name string, opts ...Option) ([]Element, error) {
	var elements []Element
	err := Decode(buf, name, SinkFunc(func(e *Element) error {
		elements = append(elements, *e)
		return nil
	}), opts...)
	return elements, err
}

/*
===============================================================================
    Source
===============================================================================
*/

// Load reads `source` to completion so it can be decoded
func Load(source io.Reader) ([]byte, error) {
	buf, err := io.ReadAll(source)
	if err != nil {
		return nil, errors.Wrap(err, "reading dicom source")
	}
	return buf, nil
}

// ReadFile reads the file at `path` into memory
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	buf, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return buf, nil
}

// DecodeFile reads the file at `path` and decodes it into `sink`
func DecodeFile(path string, sink Sink, opts ...Option) error {
	buf, err := ReadFile(path)
	if err != nil {
		return err
	}
	return Decode(buf, path, sink, opts...)
}
