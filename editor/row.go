package editor

import (
	"slices"

	"github.com/mattn/go-runewidth"
)

const (
	DEFAULT_TAB_STOP       = 4
	CONTROL_SEQUENCE_WIDTH = 2
)

// Row is one line of text. chars holds the raw characters; render holds the
// text as it appears on screen, with tabs expanded to spaces and control
// characters expanded to caret notation (^A). Highlighting and the screen
// painter both work on the rendered text, one tag per rendered rune.
type Row struct {
	chars   []rune
	render  []rune
	tabStop int
}

func NewRow(chars []rune, tabStop int) Row {
	row := Row{chars: slices.Clone(chars), tabStop: tabStop}
	row.update()
	return row
}

// Chars returns the raw characters of the row.
func (row *Row) Chars() []rune {
	return row.chars
}

// Render returns the rendered characters of the row.
func (row *Row) Render() []rune {
	return row.render
}

// renderWidth is the display width of a rendered character. Wide glyphs
// occupy two terminal columns.
func renderWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// update rebuilds the rendered text from the raw characters.
func (row *Row) update() {
	if row.tabStop <= 0 {
		row.tabStop = DEFAULT_TAB_STOP
	}

	// col tracks display columns, not rune counts, so tab stops stay
	// aligned after double-width glyphs.
	col := 0
	row.render = make([]rune, 0, len(row.chars))
	for _, char := range row.chars {
		switch {
		case char == '\t':
			// Add spaces until the next tab stop boundary
			row.render = append(row.render, ' ')
			col++
			for col%row.tabStop != 0 {
				row.render = append(row.render, ' ')
				col++
			}
		case isControl(char):
			row.render = append(row.render, '^')
			switch char {
			case 127: // DEL
				row.render = append(row.render, '?')
			case '\x1b': // ESC
				row.render = append(row.render, '[')
			default:
				row.render = append(row.render, char+'@')
			}
			col += CONTROL_SEQUENCE_WIDTH
		default:
			row.render = append(row.render, char)
			col += renderWidth(char)
		}
	}
}

// CxToRx maps a cursor index in the raw characters to the display column of
// that character in the rendered text. The result is always a glyph
// boundary: it accumulates whole glyph widths and never lands inside a
// double-width character.
func (row *Row) CxToRx(cx int) int {
	rx := 0
	for j := 0; j < cx && j < len(row.chars); j++ {
		c := row.chars[j]
		switch {
		case c == '\t':
			rx += row.tabStop - (rx % row.tabStop)
		case isControl(c):
			rx += CONTROL_SEQUENCE_WIDTH
		default:
			rx += renderWidth(c)
		}
	}
	return rx
}

// RxToCx is the inverse mapping, used to place the cursor on a search match
// found in the rendered text.
func (row *Row) RxToCx(rx int) int {
	curRx := 0
	var cx int
	for cx = 0; cx < len(row.chars); cx++ {
		c := row.chars[cx]
		switch {
		case c == '\t':
			curRx += row.tabStop - (curRx % row.tabStop)
		case isControl(c):
			curRx += CONTROL_SEQUENCE_WIDTH
		default:
			curRx += renderWidth(c)
		}

		if curRx > rx {
			return cx
		}
	}
	return cx
}

func (row *Row) insertChar(at int, r rune) {
	if at < 0 || at > len(row.chars) {
		at = len(row.chars)
	}
	row.chars = slices.Insert(row.chars, at, r)
	row.update()
}

func (row *Row) deleteChar(at int) {
	if at < 0 || at >= len(row.chars) {
		return
	}
	row.chars = slices.Delete(row.chars, at, at+1)
	row.update()
}

func (row *Row) appendRunes(s []rune) {
	row.chars = append(row.chars, s...)
	row.update()
}

func (row *Row) truncate(at int) {
	row.chars = row.chars[:at]
	row.update()
}
