package state

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

type Point struct{ X, Y float64 }

// Tool is the active input tool of a review session.
type Tool string

const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
	ToolText   Tool = "text"
)

func (t Tool) Valid() bool {
	return t == ToolPen || t == ToolEraser || t == ToolText
}

// ReviewKind is the declared kind of the source file.
type ReviewKind string

const (
	KindImage ReviewKind = "image"
	KindPDF   ReviewKind = "pdf"
)

// ReviewAsset identifies the file to annotate, as handed over by the
// submissions service.
type ReviewAsset struct {
	SourceFileName         string     `json:"source_file_name" yaml:"source_file_name"`
	ReviewKind             ReviewKind `json:"review_kind" yaml:"review_kind"`
	ReviewFilePath         string     `json:"review_file_path" yaml:"review_file_path"`
	SubmissionFileID       int        `json:"submission_file_id" yaml:"submission_file_id"`
	SourceSubmissionFileID *int       `json:"source_submission_file_id,omitempty" yaml:"source_submission_file_id,omitempty"`
}

// Page is one decoded page of the source document. Immutable once decoded.
type Page struct {
	Width  int
	Height int
	Base   image.Image
}

func NewPage(img image.Image) Page {
	b := img.Bounds()
	return Page{Width: b.Dx(), Height: b.Dy(), Base: img}
}

// Color is an opaque stroke or text colour, kept as its #rrggbb form so it
// round-trips through the toolbar and scripts unchanged.
type Color struct {
	hex  string
	rgba color.NRGBA
}

var DefaultColor = MustParseColor("#ff2d55")

// ParseColor accepts #rgb or #rrggbb.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if len(s) == 4 && s[0] == '#' {
		s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{hex: c.Hex(), rgba: color.NRGBA{R: r, G: g, B: b, A: 255}}, nil
}

func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) Hex() string {
	if c.hex == "" {
		return DefaultColor.hex
	}
	return c.hex
}

func (c Color) NRGBA() color.NRGBA {
	if c.hex == "" {
		return DefaultColor.rgba
	}
	return c.rgba
}

func (c Color) String() string { return c.Hex() }

const (
	DefaultStrokeWidth = 4
	MinStrokeWidth     = 1
	MaxStrokeWidth     = 24
	MinFontSize        = 10
	MaxFontSize        = 96
)

// ToolState is the per-session tool selection. It is reset whenever a new
// asset is loaded.
type ToolState struct {
	Tool       Tool
	Color      Color
	Width      float64
	ActivePage int
	ActiveText string
}

func NewToolState(c Color, width float64) ToolState {
	return ToolState{
		Tool:  ToolPen,
		Color: c,
		Width: ClampWidth(width),
	}
}

func ClampWidth(w float64) float64 {
	return clamp(w, MinStrokeWidth, MaxStrokeWidth)
}

func ClampFontSize(s float64) float64 {
	return clamp(s, MinFontSize, MaxFontSize)
}

// DefaultFontSize derives a text box font size from the stroke width.
func DefaultFontSize(strokeWidth float64) float64 {
	return ClampFontSize(max(16, strokeWidth*4))
}
