package dcmscan

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

/*
===============================================================================
    Printer
===============================================================================
*/

// Printer is a Sink that writes one human-readable line per element:
//
//	Tag: (0002,0010), VR: UI, Length: 20, Offset: 200, Value: <...>
//
// Values up to ElideAbove bytes are listed in full, longer values are
// replaced with "<...>" and undefined-length values with "<undefined length>".
type Printer struct {
	w          io.Writer
	elideAbove int
	tag        *color.Color
	marker     *color.Color
	count      int
}

// NewPrinter returns a Printer writing to `w`, configured from `cfg`
func NewPrinter(w io.Writer, cfg Config) *Printer {
	p := &Printer{
		w:          w,
		elideAbove: cfg.ElideAbove,
		tag:        color.New(color.FgCyan),
		marker:     color.New(color.FgYellow),
	}
	if !cfg.Color {
		p.tag.DisableColor()
		p.marker.DisableColor()
	}
	return p
}

// HandleElement writes `e`
func (p *Printer) HandleElement(e *Element) error {
	_, err := fmt.Fprintf(p.w, "Tag: %s, VR: %s, Length: %d, Offset: %d, Value: %s\n",
		p.tag.Sprint(e.Tag), e.VR, e.Length, e.Offset, p.describeValue(e))
	if err != nil {
		return err
	}
	p.count++
	return nil
}

// Count returns the number of elements written so far
func (p *Printer) Count() int {
	return p.count
}

func (p *Printer) describeValue(e *Element) string {
	switch {
	case e.Value == nil:
		return p.marker.Sprint("<undefined length>")
	case len(e.Value) > p.elideAbove:
		return p.marker.Sprint("<...>")
	}
	return formatBytes(e.Value)
}

// formatBytes renders `b` as a decimal list, e.g. "[1, 2, 3]"
func formatBytes(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteByte(']')
	return sb.String()
}
