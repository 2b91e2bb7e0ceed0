package editor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func newTestScreen(t *testing.T, cols, rows int) (*Screen, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s, err := NewScreenWithSize(cols, rows, &out)
	if err != nil {
		t.Fatalf("Expected screen, got error %v", err)
	}
	s.colors = Colors16
	t.Cleanup(s.Close)
	return s, &out
}

func bufferWithLines(lines ...string) *TextBuffer {
	b := NewTextBuffer(DEFAULT_TAB_STOP)
	for _, l := range lines {
		b.insertRow(b.NumRows(), []rune(l))
	}
	b.TakeModified()
	return b
}

func TestNewScreenWithSizeTooSmall(t *testing.T) {
	cases := []struct{ cols, rows int }{
		{0, 24},
		{80, 2},
		{80, 0},
	}
	for _, c := range cases {
		_, err := NewScreenWithSize(c.cols, c.rows, &bytes.Buffer{})
		var tooSmall TooSmallWindowError
		if !errors.As(err, &tooSmall) {
			t.Errorf("Expected TooSmallWindowError for %dx%d, got %v", c.cols, c.rows, err)
		}
	}
}

func TestViewportExcludesBars(t *testing.T) {
	s, _ := newTestScreen(t, 80, 24)
	// Status bar plus startup message each take one row
	if s.Rows() != 22 {
		t.Errorf("Expected 22 text rows, got %d", s.Rows())
	}
	if s.Cols() != 80 {
		t.Errorf("Expected 80 columns, got %d", s.Cols())
	}
}

func TestMarkRegionDirtyKeepsSmallest(t *testing.T) {
	s, _ := newTestScreen(t, 80, 24)
	s.dirtyStart = dirtyNone

	s.MarkRegionDirty(10)
	s.MarkRegionDirty(5)
	s.MarkRegionDirty(7)
	if s.dirtyStart != 5 {
		t.Errorf("Expected dirty start 5, got %d", s.dirtyStart)
	}
}

func TestScrollCursorBelowViewport(t *testing.T) {
	s, _ := newTestScreen(t, 80, 24)
	s.dirtyStart = dirtyNone

	lines := make([]string, 60)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	text := bufferWithLines(lines...)
	text.SetCursor(0, 50)

	s.scroll(text)

	// 22 text rows: line 50 lands on the bottom row with rowOff 29
	if s.rowOff != 29 {
		t.Errorf("Expected row offset 29, got %d", s.rowOff)
	}
	if s.dirtyStart != 29 {
		t.Errorf("Expected dirty start 29, got %d", s.dirtyStart)
	}
}

func TestScrollNoChangeKeepsClean(t *testing.T) {
	s, _ := newTestScreen(t, 80, 24)
	s.dirtyStart = dirtyNone

	text := bufferWithLines("one", "two", "three")
	text.SetCursor(2, 1)

	if s.scroll(text) {
		t.Errorf("Expected no scroll for cursor inside viewport")
	}
	if s.dirtyStart != dirtyNone {
		t.Errorf("Expected screen to stay clean, got dirty start %d", s.dirtyStart)
	}
}

func TestScrollWideGlyphBoundary(t *testing.T) {
	s, _ := newTestScreen(t, 10, 24)
	s.dirtyStart = dirtyNone

	text := bufferWithLines(strings.Repeat("あ", 10))

	// Cursor at glyph 6: rx 12, past the right edge. The offset must land
	// on a glyph boundary, never inside a double-width character.
	text.SetCursor(6, 0)
	s.scroll(text)
	if s.colOff != 4 {
		t.Errorf("Expected column offset 4, got %d", s.colOff)
	}
	if s.colOff%2 != 0 {
		t.Errorf("Expected offset on a glyph boundary, got %d", s.colOff)
	}

	// Scrolling back left also lands on a boundary
	text.SetCursor(1, 0)
	s.scroll(text)
	if s.colOff != 2 {
		t.Errorf("Expected column offset 2, got %d", s.colOff)
	}
}

func TestRefreshPaintsWelcomeOnce(t *testing.T) {
	s, out := newTestScreen(t, 80, 24)
	text := NewTextBuffer(DEFAULT_TAB_STOP)
	hl := NewHighlighting(nil)

	if err := s.Refresh(text, hl, StatusLine{Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if !strings.Contains(out.String(), "Kiro editor -- version") {
		t.Errorf("Expected welcome banner on first paint")
	}

	out.Reset()
	s.MarkRegionDirty(0)
	if err := s.Refresh(text, hl, StatusLine{}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if strings.Contains(out.String(), "Kiro editor -- version") {
		t.Errorf("Expected no welcome banner after the first paint")
	}
}

func TestRefreshIdempotent(t *testing.T) {
	s, out := newTestScreen(t, 80, 24)
	text := bufferWithLines("hello", "world")
	hl := NewHighlighting(nil)

	if err := s.Refresh(text, hl, StatusLine{Left: "x", Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}

	out.Reset()
	if err := s.Refresh(text, hl, StatusLine{Left: "x"}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output when nothing changed, got %q", out.String())
	}
}

func TestRefreshCursorOnlyMove(t *testing.T) {
	s, out := newTestScreen(t, 80, 24)
	text := bufferWithLines("hello", "world")
	hl := NewHighlighting(nil)

	if err := s.Refresh(text, hl, StatusLine{Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}

	out.Reset()
	text.SetCursor(3, 1)
	if err := s.Refresh(text, hl, StatusLine{}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if got := out.String(); got != "\x1b[2;4H" {
		t.Errorf("Expected a lone cursor move %q, got %q", "\x1b[2;4H", got)
	}
}

func TestRefreshFrameBracketsCursorVisibility(t *testing.T) {
	s, out := newTestScreen(t, 80, 24)
	text := bufferWithLines("hello")
	hl := NewHighlighting(nil)

	if err := s.Refresh(text, hl, StatusLine{Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, CURSOR_HIDE) {
		t.Errorf("Expected frame to start with cursor hide, got %q", got[:8])
	}
	if !strings.HasSuffix(got, CURSOR_SHOW) {
		t.Errorf("Expected frame to end with cursor show")
	}
}

func TestMessageTimeoutCountsFromFirstPaint(t *testing.T) {
	s, _ := newTestScreen(t, 80, 24)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	text := bufferWithLines("hello")
	hl := NewHighlighting(nil)

	s.SetInfoMessage("saved")
	// A long pause before the first paint must not count against the
	// visibility window.
	clock = clock.Add(10 * time.Second)
	if err := s.Refresh(text, hl, StatusLine{Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if !s.msgVisible {
		t.Fatalf("Expected message visible after first paint")
	}

	clock = clock.Add(4 * time.Second)
	if err := s.Refresh(text, hl, StatusLine{}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if !s.msgVisible {
		t.Errorf("Expected message still visible 4s after paint")
	}

	clock = clock.Add(2 * time.Second)
	if err := s.Refresh(text, hl, StatusLine{}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if s.msgVisible {
		t.Errorf("Expected message hidden more than 5s after paint")
	}
}

func TestHiddenMessageRevealsViewportRow(t *testing.T) {
	s, out := newTestScreen(t, 80, 24)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	text := bufferWithLines("hello")
	hl := NewHighlighting(nil)

	s.SetErrorMessage("disk full")
	if err := s.Refresh(text, hl, StatusLine{Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	rowsBefore := s.Rows()

	clock = clock.Add(6 * time.Second)
	out.Reset()
	if err := s.Refresh(text, hl, StatusLine{}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}

	if s.Rows() != rowsBefore+1 {
		t.Errorf("Expected viewport to grow by one row, got %d then %d", rowsBefore, s.Rows())
	}
	got := out.String()
	// The revealed bottom row and the relocated status bar both repaint
	if !strings.Contains(got, fmt.Sprintf("\x1b[%dH", s.Rows())) {
		t.Errorf("Expected revealed row %d to repaint, got %q", s.Rows(), got)
	}
	if !strings.Contains(got, fmt.Sprintf("\x1b[%dH", s.Rows()+1)) {
		t.Errorf("Expected status bar on row %d to repaint, got %q", s.Rows()+1, got)
	}
}

func TestForceRedrawRepaintsShownMessage(t *testing.T) {
	s, out := newTestScreen(t, 80, 24)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	text := bufferWithLines("hello")
	hl := NewHighlighting(nil)

	s.SetInfoMessage("saved")
	if err := s.Refresh(text, hl, StatusLine{Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	shownAt := s.message.shownAt

	clock = clock.Add(3 * time.Second)
	out.Reset()
	s.ForceRedraw()
	if err := s.Refresh(text, hl, StatusLine{}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}

	got := out.String()
	if !strings.Contains(got, fmt.Sprintf("\x1b[%dH", s.Rows()+2)) || !strings.Contains(got, "saved") {
		t.Errorf("Expected message bar rewritten in the full repaint, got %q", got)
	}
	if !s.message.shownAt.Equal(shownAt) {
		t.Errorf("Expected visibility window to keep dating from the first paint")
	}

	// The repaint did not restart the 5 second window
	clock = clock.Add(3 * time.Second)
	if err := s.Refresh(text, hl, StatusLine{}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if s.msgVisible {
		t.Errorf("Expected message hidden 6s after the first paint")
	}
}

func TestResizeRepaintsShownMessage(t *testing.T) {
	s, out := newTestScreen(t, 80, 24)
	text := bufferWithLines("hello")
	hl := NewHighlighting(nil)

	s.SetErrorMessage("disk full")
	if err := s.Refresh(text, hl, StatusLine{Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}

	s.sigwinch.notified.Store(true)
	input := NewKeyReader(strings.NewReader("\x1b[30;100R"))
	resized, err := s.MaybeResize(input)
	if err != nil || !resized {
		t.Fatalf("Expected resize to 100x30, got %v (%v)", resized, err)
	}

	out.Reset()
	if err := s.Refresh(text, hl, StatusLine{}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}

	got := out.String()
	// The bar moved to the new bottom line and carries the message
	if !strings.Contains(got, fmt.Sprintf("\x1b[%dH", s.Rows()+2)) || !strings.Contains(got, "disk full") {
		t.Errorf("Expected message on line %d after resize, got %q", s.Rows()+2, got)
	}
}

func TestUnderlineResetBeforeNextColor(t *testing.T) {
	s, out := newTestScreen(t, 80, 24)
	text := bufferWithLines("abc return")
	hl := NewHighlighting(goSyntax())
	hl.Extend(text.Rows(), 1)
	hl.SetMatch(0, 0, 3)

	if err := s.Refresh(text, hl, StatusLine{Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}

	// The underline attribute survives plain color changes, so the frame
	// must carry an explicit reset right after the underlined run
	want := string(ColorCyanUnderline.Sequence(Colors16)) + "abc" + string(ColorReset.Sequence(Colors16))
	if !strings.Contains(out.String(), want) {
		t.Errorf("Expected underline cancelled before the next color, got %q", out.String())
	}
}

func TestErrorMessagePaintedOnRedBackground(t *testing.T) {
	s, out := newTestScreen(t, 80, 24)
	text := bufferWithLines("hello")
	hl := NewHighlighting(nil)

	s.SetErrorMessage("boom")
	if err := s.Refresh(text, hl, StatusLine{Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}

	want := string(ColorRedBG.Sequence(Colors16)) + "boom" + string(ColorReset.Sequence(Colors16))
	if !strings.Contains(out.String(), want) {
		t.Errorf("Expected error message wrapped in red background, got %q", out.String())
	}
}

func TestSetMessageReclaimsBottomRow(t *testing.T) {
	s, _ := newTestScreen(t, 80, 24)
	s.ClearMessage()
	if s.Rows() != 23 {
		t.Fatalf("Expected 23 rows with no message bar, got %d", s.Rows())
	}

	s.SetInfoMessage("hi")
	if s.Rows() != 22 {
		t.Errorf("Expected 22 rows with message bar visible, got %d", s.Rows())
	}
	if !s.statusToggled {
		t.Errorf("Expected status bar repaint after bar toggle")
	}
}

func TestDrawStatusBarLayout(t *testing.T) {
	s, _ := newTestScreen(t, 20, 24)

	var buf bytes.Buffer
	s.drawStatusBar(&buf, StatusLine{Left: "abc", Right: "xy"})

	want := fmt.Sprintf("\x1b[%dH", s.Rows()+1) +
		string(ColorInvert.Sequence(Colors16)) +
		"abc" + strings.Repeat(" ", 15) + "xy" +
		string(ColorReset.Sequence(Colors16))
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestDrawStatusBarRightTooWide(t *testing.T) {
	s, _ := newTestScreen(t, 10, 24)

	var buf bytes.Buffer
	s.drawStatusBar(&buf, StatusLine{Left: "abcdef", Right: "too long here"})

	want := fmt.Sprintf("\x1b[%dH", s.Rows()+1) +
		string(ColorInvert.Sequence(Colors16)) +
		"abcdef" + strings.Repeat(" ", 4) +
		string(ColorReset.Sequence(Colors16))
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestDrawStatusBarTruncatesLeft(t *testing.T) {
	s, _ := newTestScreen(t, 8, 24)

	var buf bytes.Buffer
	s.drawStatusBar(&buf, StatusLine{Left: "a very long file name", Right: "r"})

	want := fmt.Sprintf("\x1b[%dH", s.Rows()+1) +
		string(ColorInvert.Sequence(Colors16)) +
		"a very l" +
		string(ColorReset.Sequence(Colors16))
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestProbeWindowSize(t *testing.T) {
	// Noise before the report must be consumed and discarded
	input := NewKeyReader(strings.NewReader("a\x1b[A\x1b[24;80R"))
	var out bytes.Buffer

	cols, rows, err := probeWindowSize(input, &out)
	if err != nil {
		t.Fatalf("Expected probe to succeed, got %v", err)
	}
	if cols != 80 || rows != 24 {
		t.Errorf("Expected 80x24, got %dx%d", cols, rows)
	}
	if out.String() != "\x1b[9999C\x1b[9999B\x1b[6n" {
		t.Errorf("Expected far corner move and position query, got %q", out.String())
	}
}

func TestProbeWindowSizeNoReport(t *testing.T) {
	input := NewKeyReader(strings.NewReader(""))
	_, _, err := probeWindowSize(input, &bytes.Buffer{})
	if !errors.Is(err, ErrUnknownWindowSize) {
		t.Errorf("Expected ErrUnknownWindowSize, got %v", err)
	}
}

func TestRefreshClearsEveryRepaintedLine(t *testing.T) {
	s, out := newTestScreen(t, 80, 24)
	text := bufferWithLines("hello", "world")
	hl := NewHighlighting(nil)

	if err := s.Refresh(text, hl, StatusLine{Redraw: true}); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	// Every text row ends with an erase so stale content cannot survive
	if got := strings.Count(out.String(), CLEAR_LINE); got < s.Rows() {
		t.Errorf("Expected at least %d line erases, got %d", s.Rows(), got)
	}
}
