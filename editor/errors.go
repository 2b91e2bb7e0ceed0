package editor

import (
	"errors"
	"fmt"
)

// ErrUnknownWindowSize is returned by the window size probe when the
// environment does not report terminal dimensions and no cursor position
// report ever arrives on the input stream.
var ErrUnknownWindowSize = errors.New("could not detect terminal window size")

// TooSmallWindowError is returned when the probed window cannot hold the
// editor layout: 2 rows are reserved for the status and message bars, so at
// least 3 rows and a non-zero width are required.
type TooSmallWindowError struct {
	Cols int
	Rows int
}

func (e TooSmallWindowError) Error() string {
	return fmt.Sprintf("terminal window %dx%d is too small to run the editor", e.Cols, e.Rows)
}
