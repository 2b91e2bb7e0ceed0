package editor

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const QUIT_TIMES = 3

// Options are the tunables the editor accepts from configuration.
type Options struct {
	TabStop         int
	QuitTimes       int
	SyntaxHighlight bool
}

func DefaultOptions() Options {
	return Options{
		TabStop:         DEFAULT_TAB_STOP,
		QuitTimes:       QUIT_TIMES,
		SyntaxHighlight: true,
	}
}

// Editor ties the text buffer, the highlighter and the screen together and
// drives the outer loop: refresh, read one key, apply it, poll for resize.
type Editor struct {
	text   *TextBuffer
	hl     *Highlighting
	screen *Screen
	keys   *KeyReader
	out    io.Writer
	opts   Options

	quitTimes  int
	lastStatus string

	originalState *term.State
}

func New(opts Options, in io.Reader, out io.Writer) *Editor {
	if opts.TabStop <= 0 {
		opts.TabStop = DEFAULT_TAB_STOP
	}
	if opts.QuitTimes <= 0 {
		opts.QuitTimes = QUIT_TIMES
	}
	return &Editor{
		text:      NewTextBuffer(opts.TabStop),
		hl:        NewHighlighting(nil),
		keys:      NewKeyReader(in),
		out:       out,
		opts:      opts,
		quitTimes: opts.QuitTimes,
	}
}

/*** terminal ***/

// Enable raw mode for terminal input.
// This allows us to read every input key and position the cursor freely.
func (e *Editor) enableRawMode() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("not running in a terminal")
	}

	var err error
	e.originalState, err = term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("enabling terminal raw mode: %w", err)
	}
	return nil
}

// restoreTerminal disables raw mode again.
func (e *Editor) restoreTerminal() {
	if e.originalState != nil {
		term.Restore(int(os.Stdin.Fd()), e.originalState)
		e.originalState = nil // Prevent multiple restoration attempts
	}
}

// Init puts the terminal into raw mode, switches to the alternate screen
// buffer and probes the window size.
func (e *Editor) Init() error {
	if err := e.enableRawMode(); err != nil {
		return err
	}
	if _, err := io.WriteString(e.out, ALT_SCREEN_ENTER); err != nil {
		e.restoreTerminal()
		return err
	}

	screen, err := NewScreen(e.keys, e.out)
	if err != nil {
		io.WriteString(e.out, ALT_SCREEN_LEAVE)
		e.restoreTerminal()
		return err
	}
	e.screen = screen
	return nil
}

// Close restores the primary screen buffer and the terminal state. Teardown
// is best effort; secondary failures are ignored.
func (e *Editor) Close() {
	if e.screen != nil {
		e.screen.Clear()
		e.screen.Close()
	}
	io.WriteString(e.out, ALT_SCREEN_LEAVE)
	e.restoreTerminal()
}

// OpenFile loads a file into the buffer. A file that does not exist yet
// opens as an empty buffer with that name.
func (e *Editor) OpenFile(filename string) error {
	if err := e.text.Open(filename); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		e.text.SetFilename(filename)
	}
	e.selectSyntax()
	return nil
}

func (e *Editor) selectSyntax() {
	if !e.opts.SyntaxHighlight {
		return
	}
	e.hl.SetSyntax(DetectSyntax(e.text.Filename(), []byte(e.text.rowsToString())))
	if e.screen != nil {
		e.screen.MarkRegionDirty(0)
	}
}

/*** status bar content ***/

func (e *Editor) statusLine() StatusLine {
	filename := e.text.Filename()
	if filename == "" {
		filename = "[No Name]"
	}
	modified := ""
	if e.text.Modified() {
		modified = "(modified)"
	}
	left := fmt.Sprintf("%.20s - %d lines %s", filename, e.text.NumRows(), modified)

	lang := "no ft"
	if s := e.hl.Syntax(); s != nil {
		lang = s.Name()
	}
	_, cy := e.text.Cursor()
	right := fmt.Sprintf("%s %d/%d", lang, cy+1, e.text.NumRows())

	redraw := left+right != e.lastStatus
	e.lastStatus = left + right
	return StatusLine{Left: left, Right: right, Redraw: redraw}
}

/*** main loop ***/

// Run drives the editor until quit or an unrecoverable error.
func (e *Editor) Run() error {
	for {
		if err := e.screen.Refresh(e.text, e.hl, e.statusLine()); err != nil {
			return err
		}

		seq, err := e.keys.ReadSeq()
		if err != nil {
			return err
		}

		quit, err := e.processKeypress(seq)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
		e.syncDirty()

		// Resize arrives as an out-of-band signal; it is only ever
		// observed here, once per loop iteration.
		if _, err := e.screen.MaybeResize(e.keys); err != nil {
			return err
		}
	}
}

// syncDirty forwards buffer edits to the highlighter and the dirty tracker.
func (e *Editor) syncDirty() {
	if line, ok := e.text.TakeModified(); ok {
		e.hl.Invalidate(line)
		e.screen.MarkRegionDirty(line)
	}
}

func (e *Editor) processKeypress(seq InputSeq) (bool, error) {
	key := seq.Key

	switch key {
	case HOME_KEY:
		_, cy := e.text.Cursor()
		e.text.SetCursor(0, cy)

	case END_KEY:
		_, cy := e.text.Cursor()
		if cy < e.text.NumRows() {
			e.text.SetCursor(len(e.text.Rows()[cy].Chars()), cy)
		}

	case DELETE_KEY:
		e.text.MoveCursor(ARROW_RIGHT)
		e.text.DeleteChar()

	case BACKSPACE:
		e.text.DeleteChar()

	case PAGE_UP:
		cx, _ := e.text.Cursor()
		e.text.SetCursor(cx, e.screen.rowOff)
		for i := 0; i < e.screen.Rows(); i++ {
			e.text.MoveCursor(ARROW_UP)
		}

	case PAGE_DOWN:
		cx, _ := e.text.Cursor()
		e.text.SetCursor(cx, min(e.screen.rowOff+e.screen.Rows()-1, e.text.NumRows()))
		for i := 0; i < e.screen.Rows(); i++ {
			e.text.MoveCursor(ARROW_DOWN)
		}

	case ARROW_LEFT, ARROW_RIGHT, ARROW_UP, ARROW_DOWN:
		e.text.MoveCursor(key)

	case '\r':
		e.text.InsertNewline()

	case '\x1b':
		// Bare escape resets the quit confirmation below

	case withControlKey('q'):
		if e.text.Modified() && e.quitTimes > 0 {
			e.screen.SetErrorMessage(fmt.Sprintf(
				"WARNING: File has unsaved changes. Press Ctrl-Q %d more times to quit.", e.quitTimes))
			e.quitTimes--
			return false, nil
		}
		return true, nil

	case withControlKey('s'):
		if err := e.save(); err != nil {
			return false, err
		}

	case withControlKey('f'):
		if err := e.find(); err != nil {
			return false, err
		}

	case withControlKey('l'):
		e.screen.ForceRedraw()

	case withControlKey('h'):
		if err := e.help(); err != nil {
			return false, err
		}

	default:
		// Insert regular characters, including multi-byte Unicode. Decoded
		// special keys (cursor reports and friends) live above the rune
		// range terminals send and must never reach the buffer.
		if !isControl(key) && key < ARROW_LEFT {
			e.text.InsertRune(key)
		}
	}

	e.quitTimes = e.opts.QuitTimes // Reset after any other key
	return false, nil
}

/*** save ***/

func (e *Editor) save() error {
	if e.text.Filename() == "" {
		name, err := e.prompt("Save as: %s (ESC to cancel)", nil)
		if err != nil {
			return err
		}
		if name == "" {
			e.screen.SetInfoMessage("Save aborted")
			return nil
		}
		e.text.SetFilename(name)
		e.selectSyntax()
	}

	n, err := e.text.Save()
	if err != nil {
		e.screen.SetErrorMessage(fmt.Sprintf("Can't save! I/O error: %v", err))
		return nil
	}
	e.screen.SetInfoMessage(fmt.Sprintf("%d bytes written to disk", n))
	return nil
}

/*** prompt ***/

// prompt collects a line of input through the message bar. The callback, if
// given, sees the buffer after every keypress.
func (e *Editor) prompt(format string, callback func(string, rune)) (string, error) {
	var buf []rune

	for {
		e.screen.SetInfoMessage(fmt.Sprintf(format, string(buf)))
		if err := e.screen.Refresh(e.text, e.hl, e.statusLine()); err != nil {
			return "", err
		}

		seq, err := e.keys.ReadSeq()
		if err != nil {
			return "", err
		}
		key := seq.Key

		switch key {
		case DELETE_KEY, BACKSPACE:
			if len(buf) != 0 {
				buf = buf[:len(buf)-1]
			}

		case '\x1b':
			e.screen.SetInfoMessage("")
			if callback != nil {
				callback(string(buf), key)
			}
			return "", nil

		case '\r':
			if len(buf) != 0 {
				e.screen.SetInfoMessage("")
				if callback != nil {
					callback(string(buf), key)
				}
				return string(buf), nil
			}
			continue

		case ARROW_LEFT, ARROW_RIGHT, ARROW_UP, ARROW_DOWN:
			// Passed to the callback for search navigation

		default:
			if isControl(key) || key >= ARROW_LEFT {
				continue
			}
			buf = append(buf, key)
		}

		if callback != nil {
			callback(string(buf), key)
		}
	}
}

/*** find ***/

// runeIndexOf finds the index of the first occurrence of needle in haystack
func runeIndexOf(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		found := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}

// find runs an incremental search over the rendered text. Arrow keys step
// through matches; escape restores the previous cursor and scroll position.
func (e *Editor) find() error {
	savedCx, savedCy := e.text.Cursor()
	savedRowOff := e.screen.rowOff
	savedColOff := e.screen.colOff

	lastMatch := -1
	direction := 1

	query, err := e.prompt("Search: %s (Use ESC/Arrows/Enter)", func(q string, key rune) {
		if line := e.hl.ClearMatch(); line >= 0 {
			e.screen.MarkRegionDirty(line)
		}

		switch key {
		case '\r', '\x1b':
			lastMatch = -1
			direction = 1
			return
		case ARROW_RIGHT, ARROW_DOWN:
			direction = 1
		case ARROW_LEFT, ARROW_UP:
			direction = -1
		default:
			lastMatch = -1
			direction = 1
		}

		if lastMatch == -1 {
			direction = 1
		}
		if q == "" {
			return
		}

		queryRunes := []rune(q)
		rows := e.text.Rows()
		current := lastMatch
		for i := 0; i < len(rows); i++ {
			current += direction
			if current == -1 {
				current = len(rows) - 1
			} else if current == len(rows) {
				current = 0
			}

			row := &rows[current]
			idx := runeIndexOf(row.Render(), queryRunes)
			if idx == -1 {
				continue
			}

			lastMatch = current
			// Display column of the match, then back to a raw index
			col := 0
			for _, c := range row.Render()[:idx] {
				col += renderWidth(c)
			}
			e.text.SetCursor(row.RxToCx(col), current)
			// Force the match row to the top of the viewport on the
			// next scroll
			e.screen.rowOff = len(rows)

			e.hl.SetMatch(current, idx, len(queryRunes))
			e.screen.MarkRegionDirty(current)
			break
		}
	})
	if err != nil {
		return err
	}

	if line := e.hl.ClearMatch(); line >= 0 {
		e.screen.MarkRegionDirty(line)
	}
	if query == "" {
		// Cancelled: put everything back
		e.text.SetCursor(savedCx, savedCy)
		e.screen.rowOff = savedRowOff
		e.screen.colOff = savedColOff
		e.screen.MarkRegionDirty(savedRowOff)
	}
	return nil
}

/*** help ***/

// help paints the key binding overlay and waits for dismissal.
func (e *Editor) help() error {
	if err := e.screen.DrawHelp(); err != nil {
		return err
	}
	for {
		seq, err := e.keys.ReadSeq()
		if err != nil {
			return err
		}
		if seq.Key == 'q' || seq.Key == '\x1b' || seq.Key == withControlKey('h') {
			break
		}
	}
	// The overlay painted over the whole text region
	e.screen.MarkRegionDirty(0)
	return nil
}
