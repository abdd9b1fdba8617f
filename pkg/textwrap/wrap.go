package textwrap

import (
	"sort"
	"strings"
	"unicode"
)

// OverflowMode selects what marks truncated text.
type OverflowMode string

// Overflow modes, named after the CSS text-overflow values.
const (
	Ellipsis OverflowMode = "ellipsis"
	Clip     OverflowMode = "clip"
)

// WordBreak selects where lines may break, named after CSS word-break.
type WordBreak string

// Word break modes.
const (
	BreakWord WordBreak = "break-word"
	BreakAll  WordBreak = "break-all"
)

// ParseOverflow returns the overflow mode for s, defaulting to Ellipsis.
func ParseOverflow(s string) OverflowMode {
	if OverflowMode(strings.TrimSpace(s)) == Clip {
		return Clip
	}
	return Ellipsis
}

// ParseWordBreak returns the word break mode for s, defaulting to BreakWord.
func ParseWordBreak(s string) WordBreak {
	if WordBreak(strings.TrimSpace(s)) == BreakAll {
		return BreakAll
	}
	return BreakWord
}

// Options configure a wrap.
type Options struct {
	Width     float64
	Size      float64
	Overflow  OverflowMode
	WordBreak WordBreak
}

func (o Options) mark() string {
	if o.Overflow == Clip {
		return ""
	}
	return "…"
}

// WrapSingleLine returns the part of text that fits into one line and the
// overflow. A newline always ends the line; the overflow then starts with it.
func WrapSingleLine(m Measurer, text string, o Options) (line, overflow string) {
	suffix := ""
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text, suffix = text[:i], text[i:]
	}
	if m.Width(text, o.Size) <= o.Width {
		return text, suffix
	}
	if o.WordBreak == BreakAll || !strings.Contains(text, " ") {
		line, overflow = wrapCharacters(m, text, o, o.mark())
	} else {
		line, overflow = wrapWords(m, text, o)
	}
	return line, overflow + suffix
}

// wrapCharacters finds the longest rune prefix which, with trailing
// whitespace removed and mark appended, fits the width.
func wrapCharacters(m Measurer, text string, o Options, mark string) (string, string) {
	runes := []rune(text)
	fits := func(n int) bool {
		return m.Width(rTrim(string(runes[:n]))+mark, o.Size) <= o.Width
	}
	// largest n in [0, len] with fits(n); fits is monotone in n
	n := sort.Search(len(runes)+1, func(n int) bool { return !fits(n) }) - 1
	if n < 0 {
		n = 0
	}
	return rTrim(string(runes[:n])) + mark, string(runes[n:])
}

// wrapWords breaks after the last whole word that fits. A first word that
// does not fit on its own is split with a hyphen.
func wrapWords(m Measurer, text string, o Options) (string, string) {
	mark := o.mark()
	last := -1
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != ' ' {
			continue
		}
		if m.Width(rTrim(text[:i])+mark, o.Size) > o.Width {
			break
		}
		last = i
	}
	if last <= 0 {
		return wrapCharacters(m, text, o, "-")
	}
	return rTrim(text[:last]) + mark, text[last:]
}

// Wrap fills at most maxLines lines. Only the last line carries the overflow
// mark; a maxLines below 1 means a single line. It reports whether text was
// truncated.
func Wrap(m Measurer, text string, o Options, maxLines int) (lines []string, truncated bool) {
	if maxLines < 1 {
		maxLines = 1
	}
	rest := text
	for i := 0; i < maxLines; i++ {
		lo := o
		if i < maxLines-1 {
			lo.Overflow = Clip
		}
		var line string
		line, rest = WrapSingleLine(m, rest, lo)
		lines = append(lines, line)
		rest = lTrim(rest)
		if rest == "" {
			return lines, false
		}
	}
	return lines, true
}

// MaxLines returns how many lines of the given font size fit into height.
func MaxLines(height, size float64) int {
	if size <= 0 || height <= 0 {
		return 1
	}
	return max(1, int(height/(size*1.2)))
}

func rTrim(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }
func lTrim(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }
