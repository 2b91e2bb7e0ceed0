package editor

import (
	"errors"
	"io"
	"unicode/utf8"
)

// Key aliases. Printable keys are their rune value; special keys start
// above the Unicode range used by terminals.
const (
	BACKSPACE  = 127 // ASCII backspace
	ARROW_LEFT = iota + 1000
	ARROW_RIGHT
	ARROW_UP
	ARROW_DOWN
	DELETE_KEY
	HOME_KEY
	END_KEY
	PAGE_UP
	PAGE_DOWN
	CURSOR_REPORT // cursor position report, carries Row/Col
)

// InputSeq is one decoded input sequence. Row and Col are only meaningful
// when Key is CURSOR_REPORT.
type InputSeq struct {
	Key rune
	Row int
	Col int
}

// KeyReader decodes raw terminal bytes into input sequences.
type KeyReader struct {
	r io.Reader
}

func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{r: r}
}

func (k *KeyReader) readByte() (byte, error) {
	buf := make([]byte, 1)
	n, err := k.r.Read(buf)
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, errors.New("reading keyboard input")
	}
	return buf[0], nil
}

// ReadSeq blocks until one full input sequence is available. Unknown escape
// sequences decode as a bare escape key.
func (k *KeyReader) ReadSeq() (InputSeq, error) {
	c, err := k.readByte()
	if err != nil {
		return InputSeq{}, err
	}

	if c == '\x1b' {
		return k.readEscapeSeq()
	}

	// For ASCII characters, return directly
	if c < 128 {
		return InputSeq{Key: rune(c)}, nil
	}

	return k.readUTF8(c)
}

func (k *KeyReader) readEscapeSeq() (InputSeq, error) {
	esc := InputSeq{Key: '\x1b'}

	c, err := k.readByte()
	if err != nil {
		return esc, nil // Lone escape
	}

	switch c {
	case '[':
		// Collect numeric parameters up to the final byte
		var params []byte
		final := byte(0)
		for i := 0; i < 32; i++ {
			b, err := k.readByte()
			if err != nil {
				return esc, nil
			}
			if (b >= '0' && b <= '9') || b == ';' {
				params = append(params, b)
				continue
			}
			final = b
			break
		}

		switch final {
		case 'A':
			return InputSeq{Key: ARROW_UP}, nil
		case 'B':
			return InputSeq{Key: ARROW_DOWN}, nil
		case 'C':
			return InputSeq{Key: ARROW_RIGHT}, nil
		case 'D':
			return InputSeq{Key: ARROW_LEFT}, nil
		case 'H':
			return InputSeq{Key: HOME_KEY}, nil
		case 'F':
			return InputSeq{Key: END_KEY}, nil
		case 'R':
			// Cursor position report: ESC [ row ; col R
			row, col, ok := parsePosition(params)
			if !ok {
				return esc, nil
			}
			return InputSeq{Key: CURSOR_REPORT, Row: row, Col: col}, nil
		case '~':
			if len(params) == 1 {
				switch params[0] {
				case '1', '7':
					return InputSeq{Key: HOME_KEY}, nil
				case '3':
					return InputSeq{Key: DELETE_KEY}, nil
				case '4', '8':
					return InputSeq{Key: END_KEY}, nil
				case '5':
					return InputSeq{Key: PAGE_UP}, nil
				case '6':
					return InputSeq{Key: PAGE_DOWN}, nil
				}
			}
		}
		return esc, nil

	case 'O':
		b, err := k.readByte()
		if err != nil {
			return esc, nil
		}
		switch b {
		case 'H':
			return InputSeq{Key: HOME_KEY}, nil
		case 'F':
			return InputSeq{Key: END_KEY}, nil
		}
		return esc, nil
	}

	return esc, nil
}

func parsePosition(params []byte) (int, int, bool) {
	row, col := 0, 0
	cur := &row
	for _, b := range params {
		if b == ';' {
			if cur == &col {
				return 0, 0, false
			}
			cur = &col
			continue
		}
		*cur = *cur*10 + int(b-'0')
	}
	if cur != &col {
		return 0, 0, false
	}
	return row, col, true
}

func (k *KeyReader) readUTF8(first byte) (InputSeq, error) {
	var buf [4]byte
	buf[0] = first

	var total int
	switch {
	case first&0xE0 == 0xC0:
		total = 2
	case first&0xF0 == 0xE0:
		total = 3
	case first&0xF8 == 0xF0:
		total = 4
	default:
		return InputSeq{}, errors.New("invalid UTF-8 sequence")
	}

	for i := 1; i < total; i++ {
		b, err := k.readByte()
		if err != nil {
			return InputSeq{}, errors.New("reading UTF-8 sequence")
		}
		buf[i] = b
	}

	r, size := utf8.DecodeRune(buf[:total])
	if r == utf8.RuneError || size != total {
		return InputSeq{}, errors.New("invalid UTF-8 character")
	}

	return InputSeq{Key: r}, nil
}

// Check if the rune is a control character
func isControl(r rune) bool {
	return r < 32 || r == 127
}

// Check if the rune is a digit character
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Convert a character to its control key equivalent
func withControlKey(c rune) rune {
	return c & 0x1f
}
