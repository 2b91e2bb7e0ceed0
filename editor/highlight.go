package editor

import (
	"slices"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Highlight is the color tag of one rendered character.
type Highlight byte

const (
	HL_NORMAL Highlight = iota
	HL_COMMENT
	HL_MLCOMMENT
	HL_KEYWORD1
	HL_KEYWORD2
	HL_STRING
	HL_NUMBER
	HL_MATCH
)

// Color maps a highlight tag to its terminal color.
func (h Highlight) Color() AnsiColor {
	switch h {
	case HL_COMMENT, HL_MLCOMMENT:
		return ColorGray
	case HL_KEYWORD1:
		return ColorYellow
	case HL_KEYWORD2:
		return ColorGreen
	case HL_STRING:
		return ColorPurple
	case HL_NUMBER:
		return ColorRed
	case HL_MATCH:
		return ColorCyanUnderline
	default:
		return ColorReset
	}
}

// Syntax describes one supported language.
type Syntax struct {
	name                   string
	keywords               [2][]string
	singlelineCommentStart string
	multilineCommentStart  string
	multilineCommentEnd    string
	highlightNumbers       bool
	highlightStrings       bool
}

// Name returns the language name shown in the status bar.
func (s *Syntax) Name() string {
	return s.name
}

var syntaxTable = []Syntax{
	{
		name: "Go",
		keywords: [2][]string{
			{"break", "case", "chan", "const", "continue", "default", "defer", "else",
				"fallthrough", "for", "go", "goto", "if", "import", "map", "package",
				"range", "return", "select", "struct", "switch", "type", "var"},
			{"interface", "func"},
		},
		singlelineCommentStart: "//",
		multilineCommentStart:  "/*",
		multilineCommentEnd:    "*/",
		highlightNumbers:       true,
		highlightStrings:       true,
	},
	{
		name: "C",
		keywords: [2][]string{
			{"switch", "if", "while", "for", "break", "continue", "return", "else",
				"struct", "union", "typedef", "static", "enum", "class", "case"},
			{"int", "long", "double", "float", "char", "unsigned", "signed", "void"},
		},
		singlelineCommentStart: "//",
		multilineCommentStart:  "/*",
		multilineCommentEnd:    "*/",
		highlightNumbers:       true,
		highlightStrings:       true,
	},
}

// DetectSyntax picks the syntax for a file from its name and contents.
// Language identification is delegated to go-enry; only languages present in
// the syntax table highlight, everything else renders plain.
func DetectSyntax(filename string, contents []byte) *Syntax {
	if filename == "" {
		return nil
	}
	lang := enry.GetLanguage(filename, contents)
	switch lang {
	case "Go":
		return &syntaxTable[0]
	case "C", "C++":
		return &syntaxTable[1]
	}
	return nil
}

// Check if the character is a separator (whitespace, null, or punctuation)
func isSeparator(c rune) bool {
	if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f' || c == 0 {
		return true
	}
	return strings.ContainsRune(",.()+-/*=~%<>[];", c)
}

// Highlighting assigns one color tag per rendered character per line. Lines
// are computed lazily: the renderer calls Extend up to the bottom of the
// viewport before painting, and edits invalidate from the edited line down
// because multiline comment state carries across lines.
type Highlighting struct {
	syntax *Syntax
	lines  [][]Highlight
	// openComment[i] reports whether line i ends inside a block comment
	openComment []bool
	// lines below valid have stale tags and are recomputed on demand
	valid int

	matchLine  int
	matchStart int
	matchLen   int
	matchSaved []Highlight
}

func NewHighlighting(syntax *Syntax) *Highlighting {
	return &Highlighting{syntax: syntax, matchLine: -1}
}

// SetSyntax switches language and invalidates every line.
func (h *Highlighting) SetSyntax(syntax *Syntax) {
	h.syntax = syntax
	h.valid = 0
	h.matchLine = -1
	h.matchSaved = nil
}

// Syntax returns the active syntax, nil when highlighting is off.
func (h *Highlighting) Syntax() *Syntax {
	return h.syntax
}

// Invalidate marks tags from the given line downward as stale.
func (h *Highlighting) Invalidate(line int) {
	if line < h.valid {
		h.valid = line
	}
}

// Line returns the tags for one line, or nil when the line has none
// computed. The renderer treats missing tags as normal text.
func (h *Highlighting) Line(i int) []Highlight {
	if i < 0 || i >= len(h.lines) {
		return nil
	}
	return h.lines[i]
}

// Extend ensures tags exist for every line up to bottom (exclusive),
// recomputing stale lines. Must be called before painting.
func (h *Highlighting) Extend(rows []Row, bottom int) {
	if bottom > len(rows) {
		bottom = len(rows)
	}
	for len(h.lines) < len(rows) {
		h.lines = append(h.lines, nil)
		h.openComment = append(h.openComment, false)
	}
	if len(h.lines) > len(rows) {
		h.lines = h.lines[:len(rows)]
		h.openComment = h.openComment[:len(rows)]
	}
	if h.valid > len(rows) {
		h.valid = len(rows)
	}
	for i := h.valid; i < bottom; i++ {
		h.highlightLine(rows, i)
	}
	if bottom > h.valid {
		h.valid = bottom
	}
}

func (h *Highlighting) highlightLine(rows []Row, idx int) {
	render := rows[idx].Render()
	line := make([]Highlight, len(render))
	h.lines[idx] = line

	if h.syntax == nil {
		h.openComment[idx] = false
		return
	}

	scs := h.syntax.singlelineCommentStart
	mcs := h.syntax.multilineCommentStart
	mce := h.syntax.multilineCommentEnd

	prevSep := true
	var inString rune
	inComment := idx > 0 && h.openComment[idx-1]

	for i := 0; i < len(render); {
		c := render[i]
		prevHl := HL_NORMAL
		if i > 0 {
			prevHl = line[i-1]
		}

		if len(scs) > 0 && inString == 0 && !inComment && hasRunePrefix(render[i:], scs) {
			for j := i; j < len(render); j++ {
				line[j] = HL_COMMENT
			}
			break
		}

		if len(mcs) > 0 && len(mce) > 0 && inString == 0 {
			if inComment {
				line[i] = HL_MLCOMMENT
				if hasRunePrefix(render[i:], mce) {
					for j := 0; j < len(mce); j++ {
						if i+j < len(render) {
							line[i+j] = HL_MLCOMMENT
						}
					}
					inComment = false
					i += len(mce)
					continue
				}
				i++
				continue
			} else if hasRunePrefix(render[i:], mcs) {
				inComment = true
				for j := 0; j < len(mcs); j++ {
					if i+j < len(render) {
						line[i+j] = HL_MLCOMMENT
					}
				}
				i += len(mcs)
				continue
			}
		}

		if h.syntax.highlightStrings {
			if inString != 0 {
				line[i] = HL_STRING
				if c == '\\' && i+1 < len(render) {
					line[i+1] = HL_STRING
					i += 2
					continue
				}
				if c == inString {
					inString = 0
				}
				i++
				prevSep = true
				continue
			}
			if c == '"' || c == '\'' {
				inString = c
				line[i] = HL_STRING
				i++
				continue
			}
		}

		if h.syntax.highlightNumbers {
			if (isDigit(c) && (prevSep || prevHl == HL_NUMBER)) || (c == '.' && prevHl == HL_NUMBER) {
				line[i] = HL_NUMBER
				i++
				prevSep = false
				continue
			}
		}

		if prevSep {
			if n, kind := h.matchKeyword(render[i:]); n > 0 {
				for k := 0; k < n; k++ {
					line[i+k] = kind
				}
				i += n
				prevSep = false
				continue
			}
			prevSep = false
		} else {
			prevSep = isSeparator(c)
		}
		i++
	}

	h.openComment[idx] = inComment

	// Reapply the search match overlay when this line was recomputed
	if h.matchLine == idx {
		h.applyMatch(idx)
	}
}

// matchKeyword reports the length and tag of a keyword starting the given
// text, requiring a separator (or end of line) after it.
func (h *Highlighting) matchKeyword(text []rune) (int, Highlight) {
	for group, list := range h.syntax.keywords {
		for _, kw := range list {
			klen := len([]rune(kw))
			if !hasRunePrefix(text, kw) {
				continue
			}
			if klen < len(text) && !isSeparator(text[klen]) {
				continue
			}
			if group == 0 {
				return klen, HL_KEYWORD1
			}
			return klen, HL_KEYWORD2
		}
	}
	return 0, HL_NORMAL
}

func hasRunePrefix(text []rune, prefix string) bool {
	p := []rune(prefix)
	if len(p) > len(text) {
		return false
	}
	for i, r := range p {
		if text[i] != r {
			return false
		}
	}
	return true
}

// SetMatch overlays the search match tag onto a range of rendered
// characters, remembering the previous tags so ClearMatch can restore them.
// The overlay survives recomputation of the line.
func (h *Highlighting) SetMatch(line, start, length int) {
	h.ClearMatch()
	if line < 0 || line >= len(h.lines) {
		return
	}
	h.matchLine = line
	h.matchStart = start
	h.matchLen = length
	if h.lines[line] != nil {
		h.applyMatch(line)
	}
}

func (h *Highlighting) applyMatch(idx int) {
	line := h.lines[idx]
	h.matchSaved = slices.Clone(line)
	for k := h.matchStart; k < h.matchStart+h.matchLen && k < len(line); k++ {
		line[k] = HL_MATCH
	}
}

// ClearMatch restores the tags saved by SetMatch. It returns the restored
// line so the caller can repaint it, or -1 when there was no match.
func (h *Highlighting) ClearMatch() int {
	if h.matchLine < 0 {
		return -1
	}
	line := h.matchLine
	if line < len(h.lines) && h.matchSaved != nil {
		copy(h.lines[line], h.matchSaved)
	}
	h.matchLine = -1
	h.matchSaved = nil
	return line
}
