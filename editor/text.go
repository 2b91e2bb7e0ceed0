package editor

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
)

// getLineEnding returns the appropriate line ending for the current OS
func getLineEnding() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// TextBuffer owns the text rows and the cursor. It knows nothing about the
// screen; every mutation records the smallest affected line so the editor
// can forward it to the dirty tracker and the highlighter.
type TextBuffer struct {
	cx, cy   int
	rows     []Row
	dirty    int // captures if and how much edits are made
	filename string
	tabStop  int

	// smallest line changed since the last TakeModified, -1 when none
	modified int
}

func NewTextBuffer(tabStop int) *TextBuffer {
	if tabStop <= 0 {
		tabStop = DEFAULT_TAB_STOP
	}
	return &TextBuffer{tabStop: tabStop, modified: -1}
}

func (b *TextBuffer) Rows() []Row {
	return b.rows
}

func (b *TextBuffer) NumRows() int {
	return len(b.rows)
}

// Cursor returns the cursor position as raw character index and row.
func (b *TextBuffer) Cursor() (int, int) {
	return b.cx, b.cy
}

func (b *TextBuffer) SetCursor(cx, cy int) {
	b.cx, b.cy = cx, cy
}

func (b *TextBuffer) Filename() string {
	return b.filename
}

func (b *TextBuffer) SetFilename(name string) {
	b.filename = name
}

// Modified reports whether the buffer has unsaved edits.
func (b *TextBuffer) Modified() bool {
	return b.dirty > 0
}

func (b *TextBuffer) touch(line int) {
	if b.modified == -1 || line < b.modified {
		b.modified = line
	}
	b.dirty++
}

// TakeModified returns the smallest line edited since the previous call and
// clears it.
func (b *TextBuffer) TakeModified() (int, bool) {
	line := b.modified
	b.modified = -1
	return line, line != -1
}

/*** row operations ***/

func (b *TextBuffer) insertRow(at int, chars []rune) {
	if at < 0 || at > len(b.rows) {
		return
	}
	b.rows = slices.Insert(b.rows, at, NewRow(chars, b.tabStop))
	b.touch(at)
}

func (b *TextBuffer) deleteRow(at int) {
	if at < 0 || at >= len(b.rows) {
		return
	}
	b.rows = slices.Delete(b.rows, at, at+1)
	b.touch(at)
}

/*** editor operations ***/

func (b *TextBuffer) InsertRune(r rune) {
	if b.cy == len(b.rows) {
		b.insertRow(len(b.rows), nil)
	}
	b.rows[b.cy].insertChar(b.cx, r)
	b.touch(b.cy)
	b.cx++
}

func (b *TextBuffer) InsertNewline() {
	if b.cx == 0 {
		b.insertRow(b.cy, nil)
	} else {
		row := &b.rows[b.cy]

		// Move text right of the cursor to a new row below
		remaining := slices.Clone(row.chars[b.cx:])
		b.insertRow(b.cy+1, remaining)

		row = &b.rows[b.cy]
		row.truncate(b.cx)
		b.touch(b.cy)
	}
	b.cy++
	b.cx = 0
}

func (b *TextBuffer) DeleteChar() {
	if b.cy == len(b.rows) {
		return
	}
	if b.cx == 0 && b.cy == 0 {
		return
	}

	row := &b.rows[b.cy]
	if b.cx > 0 {
		row.deleteChar(b.cx - 1)
		b.touch(b.cy)
		b.cx--
	} else {
		// Join with the previous row
		b.cx = len(b.rows[b.cy-1].chars)
		b.rows[b.cy-1].appendRunes(row.chars)
		b.deleteRow(b.cy)
		b.touch(b.cy - 1)
		b.cy--
	}
}

// MoveCursor moves the cursor one step and snaps it back inside the current
// row when the move lands past its end.
func (b *TextBuffer) MoveCursor(key rune) {
	var row *Row
	if b.cy < len(b.rows) {
		row = &b.rows[b.cy]
	}

	switch key {
	case ARROW_LEFT:
		if b.cx != 0 {
			b.cx--
		} else if b.cy > 0 {
			b.cy--
			b.cx = len(b.rows[b.cy].chars)
		}
	case ARROW_RIGHT:
		if row != nil && b.cx < len(row.chars) {
			b.cx++
		} else if row != nil && b.cx == len(row.chars) {
			b.cy++
			b.cx = 0
		}
	case ARROW_UP:
		if b.cy != 0 {
			b.cy--
		}
	case ARROW_DOWN:
		if b.cy < len(b.rows) {
			b.cy++
		}
	}

	rowlen := 0
	if b.cy < len(b.rows) {
		rowlen = len(b.rows[b.cy].chars)
	}
	if b.cx > rowlen {
		b.cx = rowlen
	}
}

/*** file i/o ***/

func (b *TextBuffer) rowsToString() string {
	var buf strings.Builder
	lineEnding := getLineEnding()

	totalSize := 0
	for _, row := range b.rows {
		totalSize += len(row.chars) + len(lineEnding)
	}
	buf.Grow(totalSize)

	for _, row := range b.rows {
		buf.WriteString(string(row.chars))
		buf.WriteString(lineEnding)
	}
	return buf.String()
}

// Open replaces the buffer contents with the given file.
func (b *TextBuffer) Open(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open file '%s': %w", filename, err)
	}
	defer file.Close()

	b.filename = filename
	b.rows = b.rows[:0]
	b.cx, b.cy = 0, 0

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
			line = line[:len(line)-1]
		}
		b.rows = append(b.rows, NewRow([]rune(line), b.tabStop))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading file '%s': %w", filename, err)
	}

	b.dirty = 0
	b.modified = 0 // force full repaint of the new contents
	return nil
}

// Save writes the buffer to its file and returns the byte count.
func (b *TextBuffer) Save() (int, error) {
	content := b.rowsToString()

	file, err := os.OpenFile(b.filename, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	if err := file.Truncate(int64(len(content))); err != nil {
		return 0, err
	}

	n, err := file.WriteString(content)
	if err != nil {
		return n, err
	}
	if n != len(content) {
		return n, fmt.Errorf("partial write: %d/%d bytes", n, len(content))
	}

	b.dirty = 0
	return n, nil
}
