package editor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const VERSION = "1.0.0"

// Two rows are reserved for the status and message bars; at least one row
// must remain for text.
const minWindowRows = 3

// messageTimeout is how long a message stays visible, measured from the
// frame that first painted it.
const messageTimeout = 5 * time.Second

// dirtyNone marks the dirty tracker as clean.
const dirtyNone = -1

/*** status message ***/

type MessageKind int

const (
	MessageInfo MessageKind = iota
	MessageError
)

type messageState int

const (
	// msgPending: set but not yet painted. The visibility window starts
	// from the first paint, not from the triggering edit.
	msgPending messageState = iota
	msgShown
	msgHidden
)

// StatusMessage is the transient one-line notice above nothing and below
// everything: it occupies the last screen row while visible and gives the
// row back to the text viewport when it expires.
type StatusMessage struct {
	text    string
	kind    MessageKind
	state   messageState
	shownAt time.Time // valid only in state msgShown
}

/*** status bar ***/

// StatusLine is the externally supplied status bar content. The screen lays
// it out but does not own what it says; Redraw signals the content changed
// since the last frame.
type StatusLine struct {
	Left   string
	Right  string
	Redraw bool
}

/*** window size probe ***/

// osWindowSize asks the operating system for the terminal dimensions of the
// output sink. Reports ok=false when the sink is not a terminal.
func osWindowSize(out io.Writer) (cols, rows int, ok bool) {
	f, isFile := out.(*os.File)
	if !isFile || !term.IsTerminal(int(f.Fd())) {
		return 0, 0, false
	}
	cols, rows, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, 0, false
	}
	return cols, rows, true
}

// probeWindowSize measures the terminal through the terminal itself: move
// the cursor to the far corner (terminals clamp the move to their real last
// cell, which is safer than assuming any fixed size) and query the cursor
// position, discarding every input sequence until the report arrives. No
// timeout is imposed here; timeout policy belongs to the caller.
func probeWindowSize(input *KeyReader, out io.Writer) (cols, rows int, err error) {
	if _, err := io.WriteString(out, CURSOR_FAR_CORNER+CURSOR_GET_POSITION); err != nil {
		return 0, 0, err
	}
	for {
		seq, err := input.ReadSeq()
		if err != nil {
			return 0, 0, ErrUnknownWindowSize
		}
		if seq.Key == CURSOR_REPORT {
			return seq.Col, seq.Row, nil
		}
	}
}

// getWindowSize resolves the terminal dimensions, preferring the OS query
// and falling back to the escape sequence round trip.
func getWindowSize(input *KeyReader, out io.Writer) (cols, rows int, err error) {
	if cols, rows, ok := osWindowSize(out); ok {
		return cols, rows, nil
	}
	return probeWindowSize(input, out)
}

/*** screen ***/

// Screen owns the terminal output: the scrollable text viewport, the dirty
// tracker, the status bar and the message bar. All drawing for one refresh
// is composed into a single buffer and written with one flushed write so a
// frame can never interleave with another.
type Screen struct {
	out io.Writer

	// X coordinate in rendered text of the cursor row
	rx int
	// Text viewport size. numRows excludes the status bar and, while a
	// message is visible, the message bar.
	numRows int
	numCols int
	// Scroll position (row/col offset)
	rowOff int
	colOff int
	// Cursor row within the text, captured during scroll
	cursorRow int

	// First line that needs repainting. Lines after it must be repainted
	// too since an edit may shift highlights of succeeding lines.
	dirtyStart int

	message StatusMessage
	// msgVisible tracks whether the message bar currently occupies a row
	msgVisible bool
	// statusToggled forces a status bar repaint after anything that moved
	// its physical line (message bar toggle, resize)
	statusToggled bool

	firstPaintDone bool
	// Last cursor position written to the terminal, 1-based; 0 when the
	// cursor has not been placed yet
	lastCurRow int
	lastCurCol int

	colors   ColorSupport
	sigwinch *SigwinchWatcher

	now func() time.Time
}

// NewScreen probes the window size and sets up a screen writing to out.
func NewScreen(input *KeyReader, out io.Writer) (*Screen, error) {
	cols, rows, err := getWindowSize(input, out)
	if err != nil {
		return nil, err
	}
	return NewScreenWithSize(cols, rows, out)
}

// NewScreenWithSize sets up a screen with known window dimensions.
func NewScreenWithSize(cols, rows int, out io.Writer) (*Screen, error) {
	if cols == 0 || rows < minWindowRows {
		return nil, TooSmallWindowError{Cols: cols, Rows: rows}
	}
	return &Screen{
		out: out,
		// One row for the status bar, one for the startup message
		numRows:    rows - 2,
		numCols:    cols,
		dirtyStart: 0, // render entire screen at first paint
		message: StatusMessage{
			text:  "Ctrl-H for help",
			kind:  MessageInfo,
			state: msgPending,
		},
		msgVisible: true,
		colors:     ColorSupportFromEnv(),
		sigwinch:   NewSigwinchWatcher(),
		now:        time.Now,
	}, nil
}

// Rows returns the current text viewport height.
func (s *Screen) Rows() int {
	return s.numRows
}

// Cols returns the current text viewport width.
func (s *Screen) Cols() int {
	return s.numCols
}

// MessageText returns the current message text, shown or not.
func (s *Screen) MessageText() string {
	return s.message.text
}

// Close stops the resize watcher.
func (s *Screen) Close() {
	s.sigwinch.Stop()
}

/*** dirty tracking ***/

// MarkRegionDirty requests a repaint from the given line to the bottom of
// the viewport. Marks merge by keeping the smallest start line.
func (s *Screen) MarkRegionDirty(start int) {
	if s.dirtyStart != dirtyNone && s.dirtyStart <= start {
		return
	}
	s.dirtyStart = start
}

// ForceRedraw schedules a full repaint of the text area and the bars.
func (s *Screen) ForceRedraw() {
	s.MarkRegionDirty(0)
	s.statusToggled = true
}

/*** messages ***/

// SetInfoMessage replaces the current message with an informational one.
func (s *Screen) SetInfoMessage(text string) {
	s.setMessage(text, MessageInfo)
}

// SetErrorMessage replaces the current message with an error notice.
func (s *Screen) SetErrorMessage(text string) {
	s.setMessage(text, MessageError)
}

func (s *Screen) setMessage(text string, kind MessageKind) {
	s.message = StatusMessage{text: text, kind: kind, state: msgPending}
	if !s.msgVisible {
		// The message bar takes the bottom row back from the viewport and
		// pushes the status bar up one line.
		s.msgVisible = true
		s.numRows--
		s.statusToggled = true
	}
}

// ClearMessage hides the message immediately.
func (s *Screen) ClearMessage() {
	s.message.state = msgHidden
	if s.msgVisible {
		s.hideMessageBar()
	}
}

// hideMessageBar gives the message row back to the text viewport. The
// revealed row held the status bar until now and must be repainted.
func (s *Screen) hideMessageBar() {
	s.msgVisible = false
	s.numRows++
	s.statusToggled = true
	s.MarkRegionDirty(s.rowOff + s.numRows - 1)
}

// expireMessage hides a shown message once it has been visible longer than
// the timeout. A non-positive elapsed reading (wall clock stepped backwards)
// counts as still visible rather than failing the frame.
func (s *Screen) expireMessage() {
	if !s.msgVisible || s.message.state != msgShown {
		return
	}
	if s.now().Sub(s.message.shownAt) > messageTimeout {
		s.message.state = msgHidden
		s.hideMessageBar()
	}
}

/*** scrolling ***/

// nextColOff finds the smallest rendered-column boundary at or past
// wantStop, so the viewport never starts in the middle of a double-width
// glyph.
func nextColOff(row *Row, wantStop int) int {
	colOff := 0
	for _, c := range row.Render() {
		colOff += renderWidth(c)
		if colOff >= wantStop {
			break
		}
	}
	return colOff
}

// scroll recomputes the render-column cursor position and moves the scroll
// offsets so the cursor stays inside the viewport. Any offset change makes
// the whole visible region stale.
func (s *Screen) scroll(text *TextBuffer) bool {
	prevRowOff := s.rowOff
	prevColOff := s.colOff

	cx, cy := text.Cursor()
	s.cursorRow = cy

	// Render-column position of the cursor, considering tab stops and
	// glyph widths; 0 when the cursor sits on the line past the last row.
	s.rx = 0
	rows := text.Rows()
	if cy < len(rows) {
		s.rx = rows[cy].CxToRx(cx)
	}

	if cy < s.rowOff {
		// Scroll up when cursor is above the top of the window
		s.rowOff = cy
	}
	if cy >= s.rowOff+s.numRows {
		// Scroll down when cursor is below the bottom of the window
		s.rowOff = cy - s.numRows + 1
	}
	if s.rx < s.colOff {
		// rx accumulates whole glyph widths, so it is itself a glyph
		// boundary and cannot split a wide character when scrolling left
		s.colOff = s.rx
	}
	if s.rx >= s.colOff+s.numCols {
		s.colOff = nextColOff(&rows[cy], s.rx-s.numCols+1)
	}

	if prevRowOff != s.rowOff || prevColOff != s.colOff {
		s.MarkRegionDirty(s.rowOff)
		return true
	}
	return false
}

/*** painting ***/

func (s *Screen) drawWelcome(buf *bytes.Buffer) {
	welcome := "Kiro editor -- version " + VERSION
	welcome = runewidth.Truncate(welcome, s.numCols, "")
	padding := (s.numCols - runewidth.StringWidth(welcome)) / 2
	if padding > 0 {
		buf.WriteByte('~')
		padding--
	}
	for i := 0; i < padding; i++ {
		buf.WriteByte(' ')
	}
	buf.WriteString(welcome)
}

// drawRows repaints every visible row from the dirty start line down. The
// previously emitted color threads through the pass so sequences are only
// written on transitions, and never leak past the region.
func (s *Screen) drawRows(buf *bytes.Buffer, text *TextBuffer, hl *Highlighting) {
	if s.dirtyStart == dirtyNone {
		return
	}

	prevColor := ColorReset
	buf.Write(ColorReset.Sequence(s.colors))

	rows := text.Rows()
	for y := 0; y < s.numRows; y++ {
		fileRow := y + s.rowOff
		if fileRow < s.dirtyStart {
			continue // still correct on screen
		}

		fmt.Fprintf(buf, CURSOR_LINE_FORMAT, y+1)

		if fileRow >= len(rows) {
			if len(rows) == 0 && !s.firstPaintDone && y == s.numRows/3 {
				s.drawWelcome(buf)
			} else {
				if prevColor != ColorReset {
					buf.Write(ColorReset.Sequence(s.colors))
					prevColor = ColorReset
				}
				buf.WriteByte('~')
			}
		} else {
			row := &rows[fileRow]
			line := hl.Line(fileRow)

			col := 0
			for i, c := range row.Render() {
				col += renderWidth(c)
				if col <= s.colOff {
					continue
				}
				if col > s.colOff+s.numCols {
					break
				}

				color := HL_NORMAL.Color()
				if i < len(line) {
					color = line[i].Color()
				}
				if color != prevColor {
					if prevColor.Underlined() {
						// Underline survives color changes and must be
						// cancelled explicitly
						buf.Write(ColorReset.Sequence(s.colors))
					}
					buf.Write(color.Sequence(s.colors))
					prevColor = color
				}
				buf.WriteRune(c)
			}
		}

		// Erase stale content right of what was written
		buf.WriteString(CLEAR_LINE)
	}

	if prevColor != ColorReset {
		// Never bleed an active color into the status or message bars
		buf.Write(ColorReset.Sequence(s.colors))
	}
}

// drawMessageBar paints the message bar line. A pending message starts its
// visibility window on first paint. A shown message only repaints when a
// full repaint moved or clobbered its line (resize, forced redraw); its
// timestamp is kept, the window still dates from the first paint. Expired
// messages were already hidden before scrolling.
func (s *Screen) drawMessageBar(buf *bytes.Buffer) {
	if !s.msgVisible {
		return
	}
	switch s.message.state {
	case msgPending:
	case msgShown:
		if !s.statusToggled {
			return
		}
	default:
		return
	}

	fmt.Fprintf(buf, CURSOR_LINE_FORMAT, s.numRows+2)
	text := runewidth.Truncate(s.message.text, s.numCols, "")
	if s.message.kind == MessageError {
		buf.Write(ColorRedBG.Sequence(s.colors))
		buf.WriteString(text)
		buf.Write(ColorReset.Sequence(s.colors))
	} else {
		buf.WriteString(text)
	}
	buf.WriteString(CLEAR_LINE)

	if s.message.state == msgPending {
		s.message.state = msgShown
		s.message.shownAt = s.now()
	}
}

// drawStatusBar lays the supplied fragments out over one inverted line of
// exactly the viewport width.
func (s *Screen) drawStatusBar(buf *bytes.Buffer, status StatusLine) {
	fmt.Fprintf(buf, CURSOR_LINE_FORMAT, s.numRows+1)
	buf.Write(ColorInvert.Sequence(s.colors))

	left := runewidth.Truncate(status.Left, s.numCols, "")
	buf.WriteString(left)

	rest := s.numCols - runewidth.StringWidth(left)
	rightWidth := runewidth.StringWidth(status.Right)
	switch {
	case rest <= 0:
	case rightWidth > rest:
		// Right fragment does not fit, pad the line out with spaces
		for i := 0; i < rest; i++ {
			buf.WriteByte(' ')
		}
	default:
		for i := 0; i < rest-rightWidth; i++ {
			buf.WriteByte(' ')
		}
		buf.WriteString(status.Right)
	}

	buf.Write(ColorReset.Sequence(s.colors))
}

func (s *Screen) cursorPosition() (row, col int) {
	return s.cursorRow - s.rowOff + 1, s.rx - s.colOff + 1
}

// placeCursor emits only a cursor move, and nothing at all when the cursor
// has not moved since the last frame.
func (s *Screen) placeCursor() error {
	row, col := s.cursorPosition()
	if row == s.lastCurRow && col == s.lastCurCol {
		return nil
	}
	if _, err := fmt.Fprintf(s.out, CURSOR_POSITION_FORMAT, row, col); err != nil {
		return err
	}
	s.lastCurRow, s.lastCurCol = row, col
	return nil
}

/*** refresh cycle ***/

// Refresh runs one refresh cycle: adjust the viewport to the cursor, extend
// highlighting to the new bottom line, then either reposition the cursor
// (nothing else changed) or compose and write one atomic frame.
func (s *Screen) Refresh(text *TextBuffer, hl *Highlighting, status StatusLine) error {
	// Resolve the message lifecycle before layout so scrolling sees the
	// final viewport height; the revealed row is marked dirty here.
	s.expireMessage()

	s.scroll(text)
	hl.Extend(text.Rows(), s.rowOff+s.numRows)

	needMessage := s.msgVisible &&
		(s.message.state == msgPending || (s.message.state == msgShown && s.statusToggled))
	needStatus := status.Redraw || s.statusToggled

	if s.dirtyStart == dirtyNone && !needMessage && !needStatus {
		return s.placeCursor()
	}

	// Hide the cursor ahead of composition so a slow frame build never
	// shows it wandering.
	if _, err := io.WriteString(s.out, CURSOR_HIDE); err != nil {
		return err
	}

	var buf bytes.Buffer
	s.drawRows(&buf, text, hl)
	// Message bar first: hiding or showing it decides which physical line
	// the status bar occupies.
	s.drawMessageBar(&buf)
	if needStatus {
		s.drawStatusBar(&buf, status)
	}

	curRow, curCol := s.cursorPosition()
	fmt.Fprintf(&buf, CURSOR_POSITION_FORMAT, curRow, curCol)
	buf.WriteString(CURSOR_SHOW)

	if _, err := s.out.Write(buf.Bytes()); err != nil {
		return err
	}

	s.lastCurRow, s.lastCurCol = curRow, curCol
	s.dirtyStart = dirtyNone
	s.statusToggled = false
	s.firstPaintDone = true
	return nil
}

// MaybeResize polls the resize flag and, when set, re-probes the window
// size and forces a full repaint.
func (s *Screen) MaybeResize(input *KeyReader) (bool, error) {
	if !s.sigwinch.Notified() {
		return false, nil
	}

	cols, rows, err := getWindowSize(input, s.out)
	if err != nil {
		return false, err
	}
	if cols == 0 || rows < minWindowRows {
		return false, TooSmallWindowError{Cols: cols, Rows: rows}
	}

	s.numCols = cols
	s.numRows = rows - 1
	if s.msgVisible {
		s.numRows--
	}
	s.dirtyStart = 0
	s.statusToggled = true
	return true, nil
}

// Clear erases the whole screen and homes the cursor; used on shutdown.
func (s *Screen) Clear() error {
	_, err := io.WriteString(s.out, CLEAR_SCREEN+CURSOR_HOME)
	return err
}
