package editor

import (
	"os"
	"strings"
)

// ANSI escape sequences for terminal control
const (
	CLEAR_SCREEN = "\x1b[2J" // Clear entire screen
	CLEAR_LINE   = "\x1b[K"  // Clear line from cursor to end
	CURSOR_HOME  = "\x1b[H"  // Move cursor to top-left (1,1)

	CURSOR_HIDE = "\x1b[?25l" // Hide cursor
	CURSOR_SHOW = "\x1b[?25h" // Show cursor

	ALT_SCREEN_ENTER = "\x1b[?47h" // Switch to alternate screen buffer
	ALT_SCREEN_LEAVE = "\x1b[?47l" // Restore primary screen buffer

	// Move the cursor to the far corner ('C' right, 'B' down, clamped by the
	// terminal), then query its position. Used by the window size probe.
	CURSOR_FAR_CORNER   = "\x1b[9999C\x1b[9999B"
	CURSOR_GET_POSITION = "\x1b[6n"

	// Format strings for dynamic positioning
	CURSOR_LINE_FORMAT     = "\x1b[%dH"     // Move cursor to start of physical line
	CURSOR_POSITION_FORMAT = "\x1b[%d;%dH"  // Move cursor to specific row;col
)

// ColorSupport is the color depth the terminal advertises.
type ColorSupport int

const (
	Colors16 ColorSupport = iota
	Colors256
)

// ColorSupportFromEnv derives the color depth from $COLORTERM and $TERM.
func ColorSupportFromEnv() ColorSupport {
	if os.Getenv("COLORTERM") != "" {
		return Colors256
	}
	if strings.Contains(os.Getenv("TERM"), "256color") {
		return Colors256
	}
	return Colors16
}

// AnsiColor is a logical color/attribute tag. The renderer tracks the last
// emitted tag per frame and only emits a sequence on transitions.
type AnsiColor int

const (
	ColorReset AnsiColor = iota
	ColorInvert
	ColorRedBG
	ColorRed
	ColorGreen
	ColorYellow
	ColorPurple
	ColorCyan
	ColorCyanUnderline
	ColorGray
)

var colorSequences16 = [...]string{
	ColorReset:         "\x1b[0m",
	ColorInvert:        "\x1b[7m",
	ColorRedBG:         "\x1b[41m",
	ColorRed:           "\x1b[31m",
	ColorGreen:         "\x1b[32m",
	ColorYellow:        "\x1b[33m",
	ColorPurple:        "\x1b[35m",
	ColorCyan:          "\x1b[36m",
	ColorCyanUnderline: "\x1b[4m\x1b[36m",
	ColorGray:          "\x1b[37m",
}

var colorSequences256 = [...]string{
	ColorReset:         "\x1b[0m",
	ColorInvert:        "\x1b[7m",
	ColorRedBG:         "\x1b[48;5;124m",
	ColorRed:           "\x1b[38;5;167m",
	ColorGreen:         "\x1b[38;5;108m",
	ColorYellow:        "\x1b[38;5;222m",
	ColorPurple:        "\x1b[38;5;139m",
	ColorCyan:          "\x1b[38;5;109m",
	ColorCyanUnderline: "\x1b[4m\x1b[38;5;109m",
	ColorGray:          "\x1b[38;5;246m",
}

// Sequence returns the escape bytes for the tag at the given color depth.
func (c AnsiColor) Sequence(support ColorSupport) []byte {
	if support == Colors256 {
		return []byte(colorSequences256[c])
	}
	return []byte(colorSequences16[c])
}

// Underlined reports whether the tag carries the underline attribute.
// Underline does not clear on a plain color change and must be reset
// explicitly before switching to a non-underlined tag.
func (c AnsiColor) Underlined() bool {
	return c == ColorCyanUnderline
}
