// Package text maps between byte offsets and LSP positions.
//
// Columns are counted in UTF-16 code units, matching what LSP clients send
// and expect. Counting scalar values or raw bytes instead breaks on any
// line containing a multi-byte character.
package text

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Document pairs source text with a line-start index so position
// conversion is cheap for repeated lookups.
type Document struct {
	text       string
	lineStarts []int
}

func NewDocument(text string) *Document {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Document{text: text, lineStarts: starts}
}

func (d *Document) Text() string { return d.text }

// PositionAt converts a byte offset to an LSP position. Offsets past the
// end of the document clamp to the final position.
func (d *Document) PositionAt(offset int) protocol.Position {
	if offset > len(d.text) {
		offset = len(d.text)
	}
	if offset < 0 {
		offset = 0
	}
	line := d.lineForOffset(offset)
	lineStart := d.lineStarts[line]
	col := utf16Len(d.text[lineStart:offset])
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

// OffsetAt converts an LSP position back to a byte offset. A character
// past the end of its line clamps to the line end, as clients routinely
// send such positions; only a line beyond the document returns -1.
func (d *Document) OffsetAt(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(d.lineStarts) {
		return -1
	}
	lineStart := d.lineStarts[line]
	lineEnd := len(d.text)
	if line+1 < len(d.lineStarts) {
		lineEnd = d.lineStarts[line+1]
	}
	slice := d.text[lineStart:lineEnd]
	if len(slice) > 0 && slice[len(slice)-1] == '\n' {
		slice = slice[:len(slice)-1]
	}

	units := 0
	for i, r := range slice {
		if units >= int(pos.Character) {
			return lineStart + i
		}
		units += utf16.RuneLen(r)
	}
	return lineStart + len(slice)
}

// Range converts a byte range to an LSP range.
func (d *Document) Range(start, end int) protocol.Range {
	return protocol.Range{Start: d.PositionAt(start), End: d.PositionAt(end)}
}

// FullRange covers the entire document.
func (d *Document) FullRange() protocol.Range {
	return d.Range(0, len(d.text))
}

func (d *Document) lineForOffset(offset int) int {
	i := sort.SearchInts(d.lineStarts, offset)
	if i < len(d.lineStarts) && d.lineStarts[i] == offset {
		return i
	}
	return i - 1
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= utf8.RuneSelf {
			n += utf16.RuneLen(r)
		} else {
			n++
		}
	}
	return n
}
