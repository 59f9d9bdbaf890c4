// Package text draws grid layouts as fixed-width text.
//
// Every row becomes three lines: a top connector line, a content line with
// the row's label, and a bottom connector line. Each column is three
// characters wide:
//
//	 | \        top: links arriving from the previous row
//	 *  |  b    content: active column, other columns, label
//	   /        bottom: links leaving towards the next row
//
// Rendering is a pure function of one row; printing consecutive rows next to
// each other produces a continuous diagram.
package text

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/gitlane/pkg/grid"
)

// Cell glyphs for the content line.
const (
	CellActive = " * "
	CellPass   = " | "
)

// Lines holds the rendered text of one row.
type Lines struct {
	Top     string
	Content string
	Bottom  string
}

// String joins the three lines with newlines, without a trailing newline.
func (l Lines) String() string {
	return l.Top + "\n" + l.Content + "\n" + l.Bottom
}

// Connector reports, for one column, whether any link reaches it from a
// column to its left (Less), the same column (Eq) or a column to its right
// (More).
type Connector struct {
	Less bool
	Eq   bool
	More bool
}

// Top renders the connector as it appears on a top line.
func (c Connector) Top() string {
	return string([]byte{pick(c.Less, '\\'), pick(c.Eq, '|'), pick(c.More, '/')})
}

// Bottom renders the connector as it appears on a bottom line, with the
// diagonals mirrored.
func (c Connector) Bottom() string {
	return string([]byte{pick(c.Less, '/'), pick(c.Eq, '|'), pick(c.More, '\\')})
}

func pick(ok bool, glyph byte) byte {
	if ok {
		return glyph
	}
	return ' '
}

// Glyphs derives one [Connector] per column of a row of the given width.
//
// With top set, links are grouped by their target (the row's TopLinks) and
// compared against their source; otherwise they are grouped by their source
// (the row's BotLinks) and compared against their target. Links pointing
// outside [0, width) are ignored.
func Glyphs(links []grid.Link, width int, top bool) []Connector {
	out := make([]Connector, width)
	for _, l := range links {
		col, other := l.To, l.From
		if !top {
			col, other = l.From, l.To
		}
		if col < 0 || int(col) >= width {
			continue
		}
		c := &out[col]
		switch {
		case other < col:
			c.Less = true
		case other == col:
			c.Eq = true
		default:
			c.More = true
		}
	}
	return out
}

// Option configures rendering.
type Option func(*options)

type options struct {
	cellStyle func(col int, cell string) string
}

// WithCellStyle decorates every three-character column chunk of all three
// lines, for example to color columns. The label is never decorated.
func WithCellStyle(fn func(col int, cell string) string) Option {
	return func(o *options) { o.cellStyle = fn }
}

// RenderRow renders one row. label is appended to the content line after a
// single space.
func RenderRow[ID comparable](row grid.Row[ID], label string, opts ...Option) Lines {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	style := func(col int, s string) string {
		if o.cellStyle == nil {
			return s
		}
		return o.cellStyle(col, s)
	}

	width := row.Width()
	var top, mid, bot strings.Builder
	for i, c := range Glyphs(row.TopLinks, width, true) {
		top.WriteString(style(i, c.Top()))
	}
	for i := range width {
		cell := CellPass
		if grid.CellID(i) == row.Active {
			cell = CellActive
		}
		mid.WriteString(style(i, cell))
	}
	for i, c := range Glyphs(row.BotLinks, width, false) {
		bot.WriteString(style(i, c.Bottom()))
	}

	mid.WriteByte(' ')
	mid.WriteString(label)
	return Lines{Top: top.String(), Content: mid.String(), Bottom: bot.String()}
}

// Write renders rows and writes top, content and bottom lines for each, with
// no separators between rows. labels[i] labels rows[i]; missing labels are
// rendered empty.
func Write[ID comparable](w io.Writer, rows []grid.Row[ID], labels []string, opts ...Option) error {
	bw := bufio.NewWriter(w)
	for i, row := range rows {
		var label string
		if i < len(labels) {
			label = labels[i]
		}
		l := RenderRow(row, label, opts...)
		if _, err := fmt.Fprintf(bw, "%s\n%s\n%s\n", l.Top, l.Content, l.Bottom); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String renders rows into a single string, as [Write] would.
func String[ID comparable](rows []grid.Row[ID], labels []string, opts ...Option) string {
	var sb strings.Builder
	_ = Write(&sb, rows, labels, opts...)
	return sb.String()
}
