// Package position converts wire positions (1-based line, 1-based column)
// into absolute offsets within a document and computes range overlaps.
//
// Offsets count bytes. Lines are split on LF; a CR preceding the LF is kept
// as part of the line content, so callers that want CR-insensitive offsets
// must normalize the text first.
package position

import (
	"errors"
	"fmt"
	"sort"
)

// ErrLineOutOfRange is returned when a line does not exist in the document.
var ErrLineOutOfRange = errors.New("line out of range")

// LineIndex converts a 1-based wire line number to a 0-based line index.
func LineIndex(line int) int {
	return line - 1
}

// ColumnAdjust converts a wire column into an offset from the start of its line.
// Columns are 1-based, except column 0 which also means "start of line".
func ColumnAdjust(col int) int {
	if col == 0 {
		return 0
	}
	return col - 1
}

// Mapper is an immutable line index over a document's text.
type Mapper struct {
	length     int
	lineStarts []int
}

// NewMapper builds a line index for text.
// An empty text has exactly one (empty) line.
func NewMapper(text string) *Mapper {
	starts := []int{0}
	for idx := 0; idx < len(text); idx++ {
		if text[idx] == '\n' {
			starts = append(starts, idx+1)
		}
	}

	return &Mapper{
		length:     len(text),
		lineStarts: starts,
	}
}

// LineCount returns the number of lines in the document.
func (m *Mapper) LineCount() int {
	return len(m.lineStarts)
}

// Len returns the length of the document in bytes.
func (m *Mapper) Len() int {
	return m.length
}

// LineStart returns the offset of the first byte of the 0-based line idx.
func (m *Mapper) LineStart(idx int) (int, error) {
	if idx < 0 || idx >= len(m.lineStarts) {
		return 0, fmt.Errorf("%w: line %d of %d", ErrLineOutOfRange, idx+1, len(m.lineStarts))
	}
	return m.lineStarts[idx], nil
}

// Offset converts a wire position into an absolute offset.
// It fails only when the line no longer exists; a column past the end of
// its line is not clamped.
func (m *Mapper) Offset(line, col int) (int, error) {
	start, err := m.LineStart(LineIndex(line))
	if err != nil {
		return 0, err
	}
	return start + ColumnAdjust(col), nil
}

// LineCol converts an absolute offset back into a 1-based line and column.
// Offsets outside the document are clamped to its bounds.
func (m *Mapper) LineCol(offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > m.length {
		offset = m.length
	}

	idx := sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > offset
	}) - 1

	return idx + 1, offset - m.lineStarts[idx] + 1
}

// Offset converts a wire position into an absolute offset within text.
// Prefer building a Mapper once when converting many positions.
func Offset(line, col int, text string) (int, error) {
	return NewMapper(text).Offset(line, col)
}
