package editor

import (
	"strings"
	"testing"
)

func readOne(t *testing.T, input string) InputSeq {
	t.Helper()
	seq, err := NewKeyReader(strings.NewReader(input)).ReadSeq()
	if err != nil {
		t.Fatalf("Expected a sequence for %q, got error %v", input, err)
	}
	return seq
}

func TestReadSeqPlainKeys(t *testing.T) {
	cases := []struct {
		in   string
		want rune
	}{
		{"a", 'a'},
		{"\r", '\r'},
		{"\x11", withControlKey('q')},
		{"\x7f", BACKSPACE},
	}
	for _, c := range cases {
		if got := readOne(t, c.in); got.Key != c.want {
			t.Errorf("Expected key %d for %q, got %d", c.want, c.in, got.Key)
		}
	}
}

func TestReadSeqEscapeSequences(t *testing.T) {
	cases := []struct {
		in   string
		want rune
	}{
		{"\x1b[A", ARROW_UP},
		{"\x1b[B", ARROW_DOWN},
		{"\x1b[C", ARROW_RIGHT},
		{"\x1b[D", ARROW_LEFT},
		{"\x1b[H", HOME_KEY},
		{"\x1b[F", END_KEY},
		{"\x1b[1~", HOME_KEY},
		{"\x1b[3~", DELETE_KEY},
		{"\x1b[4~", END_KEY},
		{"\x1b[5~", PAGE_UP},
		{"\x1b[6~", PAGE_DOWN},
		{"\x1b[7~", HOME_KEY},
		{"\x1b[8~", END_KEY},
		{"\x1bOH", HOME_KEY},
		{"\x1bOF", END_KEY},
	}
	for _, c := range cases {
		if got := readOne(t, c.in); got.Key != c.want {
			t.Errorf("Expected key %d for %q, got %d", c.want, c.in, got.Key)
		}
	}
}

func TestReadSeqCursorReport(t *testing.T) {
	seq := readOne(t, "\x1b[24;80R")
	if seq.Key != CURSOR_REPORT {
		t.Fatalf("Expected cursor report, got key %d", seq.Key)
	}
	if seq.Row != 24 || seq.Col != 80 {
		t.Errorf("Expected position 24;80, got %d;%d", seq.Row, seq.Col)
	}
}

func TestReadSeqMalformedReport(t *testing.T) {
	// Missing the column parameter decodes as a bare escape
	seq := readOne(t, "\x1b[24R")
	if seq.Key != '\x1b' {
		t.Errorf("Expected bare escape for malformed report, got key %d", seq.Key)
	}
}

func TestReadSeqLoneEscape(t *testing.T) {
	if got := readOne(t, "\x1b"); got.Key != '\x1b' {
		t.Errorf("Expected bare escape, got key %d", got.Key)
	}
}

func TestReadSeqUTF8(t *testing.T) {
	cases := []struct {
		in   string
		want rune
	}{
		{"é", 'é'},
		{"あ", 'あ'},
		{"🎉", '🎉'},
	}
	for _, c := range cases {
		if got := readOne(t, c.in); got.Key != c.want {
			t.Errorf("Expected key %q, got %q", c.want, got.Key)
		}
	}
}

func TestReadSeqInvalidUTF8(t *testing.T) {
	if _, err := NewKeyReader(strings.NewReader("\xff")).ReadSeq(); err == nil {
		t.Errorf("Expected error for invalid UTF-8 lead byte")
	}
	if _, err := NewKeyReader(strings.NewReader("\xe3\x81")).ReadSeq(); err == nil {
		t.Errorf("Expected error for truncated UTF-8 sequence")
	}
}
