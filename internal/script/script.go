// Package script replays reviewer marks described in YAML against an
// editor session, so a review can be baked without the desktop UI.
package script

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ReviewBoard/internal/editor"
	"ReviewBoard/internal/state"
)

// Script is one review: the asset, where the result goes, and the marks.
type Script struct {
	Asset                 state.ReviewAsset `yaml:"asset"`
	SubmissionID          int               `yaml:"submission_id"`
	ReplaceFeedbackFileID *int              `yaml:"replace_feedback_file_id,omitempty"`
	Marks                 []Mark            `yaml:"marks"`
}

// Mark is a single stroke or text box. Coordinates are page raster pixels.
type Mark struct {
	Page     int         `yaml:"page"`
	Tool     state.Tool  `yaml:"tool"`
	Color    string      `yaml:"color,omitempty"`
	Width    float64     `yaml:"width,omitempty"`
	Points   [][]float64 `yaml:"points,omitempty"`
	At       []float64   `yaml:"at,omitempty"`
	Size     []float64   `yaml:"size,omitempty"`
	Text     string      `yaml:"text,omitempty"`
	FontSize float64     `yaml:"font_size,omitempty"`
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the script without touching any page.
func (s *Script) Validate() error {
	if s.Asset.ReviewFilePath == "" {
		return errors.New("asset.review_file_path is required")
	}
	if s.Asset.ReviewKind != state.KindImage && s.Asset.ReviewKind != state.KindPDF {
		return fmt.Errorf("%w: kind %q", state.ErrUnsupportedFormat, s.Asset.ReviewKind)
	}
	for i, m := range s.Marks {
		if err := m.validate(); err != nil {
			return fmt.Errorf("mark %d: %w", i+1, err)
		}
	}
	return nil
}

func (m Mark) validate() error {
	if !m.Tool.Valid() {
		return fmt.Errorf("unknown tool %q", m.Tool)
	}
	if m.Color != "" {
		if _, err := state.ParseColor(m.Color); err != nil {
			return err
		}
	}
	if m.Tool == state.ToolText {
		if len(m.At) != 2 {
			return errors.New("text needs at: [x, y]")
		}
		if m.Size != nil && len(m.Size) != 2 {
			return errors.New("size must be [width, height]")
		}
		return nil
	}
	if len(m.Points) == 0 {
		return errors.New("stroke needs at least one point")
	}
	for _, p := range m.Points {
		if len(p) != 2 {
			return fmt.Errorf("point %v must be [x, y]", p)
		}
	}
	return nil
}

func point(v []float64) state.Point {
	return state.Point{X: v[0], Y: v[1]}
}

// Apply replays every mark in order on a loaded editor.
func (s *Script) Apply(e *editor.Editor) error {
	for i, m := range s.Marks {
		if err := apply(e, m); err != nil {
			return fmt.Errorf("mark %d: %w", i+1, err)
		}
	}
	return nil
}

func apply(e *editor.Editor, m Mark) error {
	if err := e.SetTool(m.Tool); err != nil {
		return err
	}
	if m.Color != "" {
		c, err := state.ParseColor(m.Color)
		if err != nil {
			return err
		}
		e.SetColor(c)
	}
	if m.Width > 0 {
		e.SetWidth(m.Width)
	}

	if m.Tool != state.ToolText {
		if _, _, err := e.PointerDown(m.Page, point(m.Points[0])); err != nil {
			return err
		}
		for _, p := range m.Points[1:] {
			e.PointerMove(m.Page, point(p))
		}
		e.PointerUp(m.Page)
		return nil
	}

	a, _, err := e.PointerDown(m.Page, point(m.At))
	if err != nil {
		return err
	}
	defer e.Blur(a.ID)

	if err := e.SetText(a.ID, m.Text); err != nil {
		return err
	}
	if m.FontSize > 0 {
		if err := e.SetFontSize(a.ID, m.FontSize); err != nil {
			return err
		}
	}
	if len(m.Size) == 2 {
		corner := state.Point{X: a.Right(), Y: a.Bottom()}
		if err := e.BeginResize(a.ID, corner); err != nil {
			return err
		}
		e.GestureTo(state.Point{X: corner.X + m.Size[0] - a.Width, Y: corner.Y + m.Size[1] - a.Height})
		e.EndGesture()
	}
	return nil
}

// SaveOptions is where the baked file of this script goes.
func (s *Script) SaveOptions() editor.SaveOptions {
	return editor.SaveOptions{
		SubmissionID:          s.SubmissionID,
		ReplaceFeedbackFileID: s.ReplaceFeedbackFileID,
	}
}
