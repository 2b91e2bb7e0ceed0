package editor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

const HELP = `
    Ctrl-Q                : Quit
    Ctrl-S                : Save to file
    Arrow keys            : Move cursor
    Home/End              : Move cursor to head/end of line
    Page Up/Down          : Move cursor by one page
    Backspace             : Delete character
    Delete                : Delete next character
    Enter                 : New line
    Ctrl-F                : Search text
    Ctrl-L                : Refresh screen
    Ctrl-H                : Show this help`

// DrawHelp paints the key binding reference centered over the text region,
// with the key column in cyan. The whole overlay is one buffered write; the
// text region is stale afterwards and the caller must mark it dirty.
func (s *Screen) DrawHelp() error {
	var help []string
	for _, line := range strings.Split(HELP, "\n") {
		if strings.Contains(line, ":") {
			help = append(help, strings.TrimSpace(line))
		}
	}

	verticalMargin := 0
	if len(help) < s.numRows {
		verticalMargin = (s.numRows - len(help)) / 2
	}
	maxWidth := 0
	for _, line := range help {
		maxWidth = max(maxWidth, len(line))
	}
	leftMargin := 0
	if maxWidth < s.numCols {
		leftMargin = (s.numCols - maxWidth) / 2
	}

	var buf bytes.Buffer

	for y := 0; y < verticalMargin; y++ {
		fmt.Fprintf(&buf, CURSOR_LINE_FORMAT, y+1)
		buf.WriteString(CLEAR_LINE)
	}

	leftPad := strings.Repeat(" ", leftMargin)
	helpHeight := min(verticalMargin+len(help), s.numRows)
	for y := verticalMargin; y < helpHeight; y++ {
		line := runewidth.Truncate(help[y-verticalMargin], s.numCols, "")

		fmt.Fprintf(&buf, CURSOR_LINE_FORMAT, y+1)
		buf.WriteString(leftPad)

		key, desc, found := strings.Cut(line, ":")
		buf.Write(ColorCyan.Sequence(s.colors))
		buf.WriteString(key)
		buf.Write(ColorReset.Sequence(s.colors))
		if found {
			buf.WriteByte(':')
			buf.WriteString(desc)
		}
		buf.WriteString(CLEAR_LINE)
	}

	for y := helpHeight; y < s.numRows; y++ {
		fmt.Fprintf(&buf, CURSOR_LINE_FORMAT, y+1)
		buf.WriteString(CLEAR_LINE)
	}

	_, err := s.out.Write(buf.Bytes())
	return err
}
