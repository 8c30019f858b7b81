package dcmscan

import (
	"bytes"
	"encoding/binary"
	"io"

	"go.uber.org/zap"
)

/*
===============================================================================
    Decoder
===============================================================================
*/

// Decoder walks the data element stream of a single buffer.
//
// A Decoder owns its cursor exclusively and is not safe for concurrent use.
// Decoding several buffers in parallel requires one Decoder per buffer.
type Decoder struct {
	buf    []byte
	name   string
	cursor int
	err    error
	log    *zap.SugaredLogger

	maxItems int
	maxDepth int
	// items counts item headers scanned on behalf of the current element
	items int
}

// Option configures a Decoder
type Option func(*Decoder)

// WithLogger sets the logger receiving debug traces of the decode
func WithLogger(log *zap.SugaredLogger) Option {
	return func(d *Decoder) {
		if log != nil {
			d.log = log
		}
	}
}

// WithConfig applies the scan limits held in `cfg`. Limits that are not
// positive leave the defaults in place.
func WithConfig(cfg Config) Option {
	return func(d *Decoder) {
		if cfg.MaxScanItems > 0 {
			d.maxItems = cfg.MaxScanItems
		}
		if cfg.MaxNestingDepth > 0 {
			d.maxDepth = cfg.MaxNestingDepth
		}
	}
}

// NewDecoder verifies the DICM magic of `buf` and returns a Decoder positioned
// at the first data element. `name` identifies the buffer in errors and logs.
//
// `buf` is borrowed: it must not be modified while the Decoder or any
// Element it produced is in use.
func NewDecoder(buf []byte, name string, opts ...Option) (*Decoder, error) {
	if len(buf) < headerStart {
		return nil, &NotDicomError{Name: name}
	}
	if magic := buf[preambleSize:headerStart]; !bytes.Equal(magic, dicmMagic) {
		return nil, &NotDicomError{Name: name, Found: append([]byte(nil), magic...)}
	}
	def := DefaultConfig()
	d := &Decoder{
		buf:      buf,
		name:     name,
		cursor:   headerStart,
		log:      zap.NewNop().Sugar(),
		maxItems: def.MaxScanItems,
		maxDepth: def.MaxNestingDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log.Debugw("DICM magic found", "name", name, "size", len(buf))
	return d, nil
}

// Offset returns the current cursor position within the buffer
func (d *Decoder) Offset() int {
	return d.cursor
}

// Next decodes the element at the cursor. It returns io.EOF once fewer bytes
// remain than the smallest element header; those trailing bytes are ignored.
//
// After a decode error the cursor is left where the failure occurred and
// every later call returns the same error.
func (d *Decoder) Next() (Element, error) {
	if d.err != nil {
		return Element{}, d.err
	}
	if d.cursor+minElementHeader >= len(d.buf) {
		return Element{}, io.EOF
	}
	d.items = 0

	tag, vr, length, err := d.readHeader()
	if err != nil {
		d.err = err
		return Element{}, err
	}
	offset := d.cursor
	value, err := d.readValue(length, 0)
	if err != nil {
		d.err = err
		return Element{}, err
	}
	return Element{
		Tag:    tag,
		VR:     vr,
		Length: length,
		Offset: offset,
		Value:  value,
	}, nil
}

func (d *Decoder) remaining() int {
	return len(d.buf) - d.cursor
}

// need returns a TruncatedError unless `n` bytes remain for `field`
func (d *Decoder) need(field string, n int) error {
	if d.remaining() < n {
		return &TruncatedError{
			Name:      d.name,
			Field:     field,
			Offset:    d.cursor,
			Need:      n,
			Remaining: d.remaining(),
		}
	}
	return nil
}

// readHeader reads the tag, VR and length of an explicit VR element
func (d *Decoder) readHeader() (Tag, VR, uint32, error) {
	tag, err := d.readTag("tag")
	if err != nil {
		return tag, VR{}, 0, err
	}
	vr, err := d.readVR()
	if err != nil {
		return tag, vr, 0, err
	}
	length, err := d.readLength(vr)
	return tag, vr, length, err
}

// readTag reads a little endian (group, element) pair
func (d *Decoder) readTag(field string) (Tag, error) {
	if err := d.need(field, tagSize); err != nil {
		return Tag{}, err
	}
	b := d.buf[d.cursor : d.cursor+tagSize]
	d.cursor += tagSize
	return Tag{
		Group:   binary.LittleEndian.Uint16(b[0:2]),
		Element: binary.LittleEndian.Uint16(b[2:4]),
	}, nil
}

// readVR reads the two raw VR bytes
func (d *Decoder) readVR() (VR, error) {
	var vr VR
	if err := d.need("vr", vrSize); err != nil {
		return vr, err
	}
	copy(vr[:], d.buf[d.cursor:d.cursor+vrSize])
	d.cursor += vrSize
	return vr, nil
}

// readLength reads the value length, whose width depends on `vr`.
// UndefinedLength is returned as an ordinary value.
func (d *Decoder) readLength(vr VR) (uint32, error) {
	if vr.IsLongForm() {
		if err := d.need("reserved", reservedSize); err != nil {
			return 0, err
		}
		d.cursor += reservedSize
		return d.readUint32("length")
	}
	if err := d.need("length", shortLenSize); err != nil {
		return 0, err
	}
	length := binary.LittleEndian.Uint16(d.buf[d.cursor:])
	d.cursor += shortLenSize
	return uint32(length), nil
}

func (d *Decoder) readUint32(field string) (uint32, error) {
	if err := d.need(field, longLenSize); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.buf[d.cursor:])
	d.cursor += longLenSize
	return v, nil
}

// readValue returns a view of the next `length` bytes. For UndefinedLength
// the nested items are skipped and no value is returned.
func (d *Decoder) readValue(length uint32, depth int) ([]byte, error) {
	if length == UndefinedLength {
		return nil, d.skipUndefined(depth)
	}
	start := d.cursor
	if err := d.skip(length); err != nil {
		return nil, err
	}
	return d.buf[start:d.cursor:d.cursor], nil
}

// skip advances the cursor by `length` bytes if the buffer holds them
func (d *Decoder) skip(length uint32) error {
	if uint64(length) > uint64(d.remaining()) {
		return &OverrunError{
			Name:      d.name,
			Offset:    d.cursor,
			Length:    length,
			Remaining: d.remaining(),
		}
	}
	d.cursor += int(length)
	return nil
}
