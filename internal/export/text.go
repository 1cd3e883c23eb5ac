package export

import (
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"ReviewBoard/internal/state"
)

// LineHeightFactor is the line pitch relative to the font size.
const LineHeightFactor = 1.25

// Typesetter lays out and draws annotation text with Go Regular. Faces are
// cached per pixel size. An opentype face is not safe for concurrent use, so
// every measurement and draw holds mu.
type Typesetter struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[float64]font.Face
}

func NewTypesetter() (*Typesetter, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Typesetter{font: f, faces: make(map[float64]font.Face)}, nil
}

func (t *Typesetter) faceLocked(size float64) (font.Face, error) {
	if f, ok := t.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(t.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face of size %.1f: %w", size, err)
	}
	t.faces[size] = f
	return f, nil
}

// Wrap breaks text into lines no wider than maxWidth pixels at the given
// size. Words are only split when a single word is wider than a line.
func (t *Typesetter) Wrap(text string, size, maxWidth float64) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wrapLocked(text, size, maxWidth)
}

func (t *Typesetter) wrapLocked(text string, size, maxWidth float64) ([]string, error) {
	face, err := t.faceLocked(size)
	if err != nil {
		return nil, err
	}
	measure := func(s string) float64 {
		return fixedToFloat(font.MeasureString(face, s))
	}
	return wrapLines(text, maxWidth, measure), nil
}

func wrapLines(text string, maxWidth float64, measure func(string) float64) []string {
	paragraphs := strings.Split(text, "\n")
	if maxWidth <= 0 {
		return paragraphs
	}

	var lines []string
	for _, paragraph := range paragraphs {
		if paragraph == "" {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range strings.Split(paragraph, " ") {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if measure(candidate) <= maxWidth {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			if measure(word) <= maxWidth {
				current = word
				continue
			}
			chunk := ""
			for _, r := range word {
				next := chunk + string(r)
				if measure(next) > maxWidth && chunk != "" {
					lines = append(lines, chunk)
					chunk = string(r)
				} else {
					chunk = next
				}
			}
			current = chunk
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

// Layout is the visible part of an annotation's text.
type Layout struct {
	Lines      []string
	LineHeight float64
}

// Layout wraps the annotation to its usable width and keeps only the lines
// that fit its usable height. At least one line is always kept.
func (t *Typesetter) Layout(a state.TextAnnotation) (Layout, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.layoutLocked(a)
}

func (t *Typesetter) layoutLocked(a state.TextAnnotation) (Layout, error) {
	lineHeight := a.FontSize * LineHeightFactor
	usableWidth := max(1, a.Width-2*state.TextPaddingX)
	lines, err := t.wrapLocked(a.Text, a.FontSize, usableWidth)
	if err != nil {
		return Layout{}, err
	}
	capacity := max(1, int(math.Floor((a.Height-2*state.TextPaddingY)/lineHeight)))
	if len(lines) > capacity {
		lines = lines[:capacity]
	}
	return Layout{LineHeight: lineHeight, Lines: lines}, nil
}

// Draw renders the annotation into dst, clipped to its box. Each line's top
// sits at the box origin plus padding plus its line offset.
func (t *Typesetter) Draw(dst *image.RGBA, a state.TextAnnotation) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	layout, err := t.layoutLocked(a)
	if err != nil {
		return err
	}
	face, err := t.faceLocked(a.FontSize)
	if err != nil {
		return err
	}
	box := image.Rect(
		int(math.Floor(a.X)), int(math.Floor(a.Y)),
		int(math.Ceil(a.Right())), int(math.Ceil(a.Bottom())),
	).Intersect(dst.Bounds())
	if box.Empty() {
		return nil
	}
	clip, ok := dst.SubImage(box).(*image.RGBA)
	if !ok {
		return nil
	}

	ascent := face.Metrics().Ascent
	d := &font.Drawer{
		Dst:  clip,
		Src:  image.NewUniform(a.Color.NRGBA()),
		Face: face,
	}
	for i, line := range layout.Lines {
		top := a.Y + state.TextPaddingY + float64(i)*layout.LineHeight
		d.Dot = fixed.Point26_6{
			X: floatToFixed(a.X + state.TextPaddingX),
			Y: floatToFixed(top) + ascent,
		}
		d.DrawString(line)
	}
	return nil
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
