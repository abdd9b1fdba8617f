package textwrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// unit measures one pixel per rune at size 1.
var unit = FixedMeasurer{Ratio: 1}

func TestWrapSingleLine(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		opts         Options
		wantLine     string
		wantOverflow string
	}{
		{"fits", "hello", Options{Width: 10, Size: 1}, "hello", ""},
		{"break all ellipsis", "abcdefghij", Options{Width: 5, Size: 1, WordBreak: BreakAll}, "abcd…", "efghij"},
		{"break all clip", "abcdefghij", Options{Width: 5, Size: 1, Overflow: Clip, WordBreak: BreakAll}, "abcde", "fghij"},
		{"break word", "hello big world", Options{Width: 10, Size: 1, Overflow: Ellipsis, WordBreak: BreakWord}, "hello big…", " world"},
		{"single long word", "abcdefghij", Options{Width: 5, Size: 1, WordBreak: BreakWord}, "abcd…", "efghij"},
		{"first word too long", "abcdefghijkl xy", Options{Width: 5, Size: 1, WordBreak: BreakWord}, "abcd-", "efghijkl xy"},
		{"newline", "ab\ncd", Options{Width: 10, Size: 1}, "ab", "\ncd"},
		{"trailing space trimmed", "abc  defgh", Options{Width: 6, Size: 1, WordBreak: BreakAll}, "abc…", "defgh"},
		{"nothing fits", "abc", Options{Width: 0.5, Size: 1, WordBreak: BreakAll}, "…", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, overflow := WrapSingleLine(unit, tt.text, tt.opts)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantOverflow, overflow)
		})
	}
}

func TestWrapMultiLine(t *testing.T) {
	opts := Options{Width: 9, Size: 1, Overflow: Ellipsis, WordBreak: BreakWord}
	lines, truncated := Wrap(unit, "one two three four", opts, 2)
	assert.Equal(t, []string{"one two", "three…"}, lines)
	assert.True(t, truncated)

	lines, truncated = Wrap(unit, "one two", opts, 3)
	assert.Equal(t, []string{"one two"}, lines)
	assert.False(t, truncated)
}

func TestParseModes(t *testing.T) {
	assert.Equal(t, Clip, ParseOverflow("clip"))
	assert.Equal(t, Ellipsis, ParseOverflow(""))
	assert.Equal(t, BreakAll, ParseWordBreak("break-all"))
	assert.Equal(t, BreakWord, ParseWordBreak("normal"))
}

func TestMaxLines(t *testing.T) {
	assert.Equal(t, 3, MaxLines(30, 8))
	assert.Equal(t, 1, MaxLines(0, 8))
	assert.Equal(t, 1, MaxLines(5, 8))
}

func TestFontMeasurer(t *testing.T) {
	m := NewFontMeasurer()
	assert.Zero(t, m.Width("", 12))
	assert.Less(t, m.Width("iiii", 12), m.Width("MMMM", 12))
	assert.InDelta(t, 2*m.Width("abc", 8), m.Width("abc", 16), 0.5)
}
