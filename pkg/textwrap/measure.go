package textwrap

import (
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Measurer reports the advance width of text rendered at a font size in
// pixels.
type Measurer interface {
	Width(text string, size float64) float64
}

// charWidthRatio approximates the average glyph advance of a sans-serif font
// relative to its size.
const charWidthRatio = 0.55

// FixedMeasurer assumes every rune has the same advance, Ratio times the
// font size. The zero value uses a typical sans-serif ratio.
type FixedMeasurer struct {
	Ratio float64
}

// Width implements Measurer.
func (m FixedMeasurer) Width(text string, size float64) float64 {
	r := m.Ratio
	if r == 0 {
		r = charWidthRatio
	}
	return float64(utf8.RuneCountInString(text)) * size * r
}

// FontMeasurer measures text with the Go Regular font. Faces are created
// lazily per size and shared; it is safe for concurrent use.
type FontMeasurer struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFontMeasurer returns a measurer backed by the embedded Go Regular font.
// If the font cannot be parsed it falls back to FixedMeasurer.
func NewFontMeasurer() Measurer {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return FixedMeasurer{}
	}
	return &FontMeasurer{font: f, faces: make(map[float64]font.Face)}
}

// Width implements Measurer.
func (m *FontMeasurer) Width(text string, size float64) float64 {
	face, err := m.face(size)
	if err != nil {
		return FixedMeasurer{}.Width(text, size)
	}
	return float64(font.MeasureString(face, text)) / 64
}

func (m *FontMeasurer) face(size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}
