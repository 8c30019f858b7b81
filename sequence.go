package dcmscan

/*
===============================================================================
    Undefined Length Scanning
===============================================================================
*/

// An undefined-length value is a run of items, each introduced by an 8 byte
// header (tag + 32 bit length), closed by a Sequence Delimitation Item.
// See http://dicom.nema.org/dicom/2013/output/chtml/part05/sect_7.5.html
//
// Items are never materialised; they are only walked so the cursor lands on
// the element following the delimiter.

type scanState int

const (
	scanItems scanState = iota
	scanDone
)

// skipUndefined advances the cursor past every item of an undefined-length
// value, up to and including its Sequence Delimitation Item.
func (d *Decoder) skipUndefined(depth int) error {
	if depth >= d.maxDepth {
		return &ScanLimitError{Name: d.name, What: "nesting depth", Offset: d.cursor, Limit: d.maxDepth}
	}
	for state := scanItems; state != scanDone; {
		tag, length, err := d.readItemHeader()
		if err != nil {
			return err
		}
		switch tag {
		case SequenceDelimitationItemTag:
			state = scanDone
		case ItemTag:
			if length != UndefinedLength {
				if err := d.skip(length); err != nil {
					return err
				}
				continue
			}
			ended, err := d.skipItemBody(depth + 1)
			if err != nil {
				return err
			}
			if ended {
				state = scanDone
			}
		default:
			// unknown header: skip its declared length and carry on
			if err := d.skipUnknown(tag, length); err != nil {
				return err
			}
		}
	}
	return nil
}

// skipItemBody walks the elements of an undefined-length item until its Item
// Delimitation Item. Element values are skipped; undefined-length elements
// inside the item recurse into skipUndefined.
//
// `ended` is true if a Sequence Delimitation Item closed the item instead,
// in which case the enclosing sequence is finished too.
func (d *Decoder) skipItemBody(depth int) (ended bool, err error) {
	if depth >= d.maxDepth {
		return false, &ScanLimitError{Name: d.name, What: "nesting depth", Offset: d.cursor, Limit: d.maxDepth}
	}
	for {
		if err := d.countItem(); err != nil {
			return false, err
		}
		start := d.cursor
		tag, err := d.readTag("item tag")
		if err != nil {
			return false, err
		}
		if tag.Group == ItemTag.Group {
			// delimiters and other framing tags carry no VR
			length, err := d.readUint32("item length")
			if err != nil {
				return false, err
			}
			d.log.Debugw("item body delimiter", "name", d.name, "tag", tag, "length", length, "offset", start)
			switch tag {
			case ItemDelimitationItemTag:
				return false, nil
			case SequenceDelimitationItemTag:
				return true, nil
			}
			if err := d.skipUnknown(tag, length); err != nil {
				return false, err
			}
			continue
		}
		vr, err := d.readVR()
		if err != nil {
			return false, err
		}
		length, err := d.readLength(vr)
		if err != nil {
			return false, err
		}
		if _, err := d.readValue(length, depth); err != nil {
			return false, err
		}
	}
}

// readItemHeader reads the tag and 32 bit length of the next item
func (d *Decoder) readItemHeader() (Tag, uint32, error) {
	if err := d.countItem(); err != nil {
		return Tag{}, 0, err
	}
	start := d.cursor
	tag, err := d.readTag("item tag")
	if err != nil {
		return tag, 0, err
	}
	length, err := d.readUint32("item length")
	if err != nil {
		return tag, 0, err
	}
	d.log.Debugw("item", "name", d.name, "tag", tag, "length", length, "offset", start)
	return tag, length, nil
}

// skipUnknown skips an unrecognised header by its declared length
func (d *Decoder) skipUnknown(tag Tag, length uint32) error {
	if length == UndefinedLength {
		return &CorruptError{
			Name:   d.name,
			Offset: d.cursor,
			Reason: "undefined length on unrecognised item " + tag.String(),
		}
	}
	return d.skip(length)
}

func (d *Decoder) countItem() error {
	if d.items >= d.maxItems {
		return &ScanLimitError{Name: d.name, What: "item count", Offset: d.cursor, Limit: d.maxItems}
	}
	d.items++
	return nil
}
