package export

import (
	"fmt"
	"image"
	"image/draw"

	"ReviewBoard/internal/state"
)

// Compositor merges a page's base raster, ink overlay and text annotations
// into one raster of the page's size.
type Compositor struct {
	text *Typesetter
}

func NewCompositor(text *Typesetter) *Compositor {
	return &Compositor{text: text}
}

// Compose draws base, then overlay at 1:1, then every non-empty annotation
// in order. overlay may be nil for pages that were never inked.
func (c *Compositor) Compose(page state.Page, overlay *image.RGBA, texts []state.TextAnnotation) (*image.RGBA, error) {
	rect := image.Rect(0, 0, page.Width, page.Height)
	out := image.NewRGBA(rect)
	if page.Base != nil {
		draw.Draw(out, rect, page.Base, page.Base.Bounds().Min, draw.Src)
	}
	if overlay != nil {
		draw.Draw(out, rect, overlay, overlay.Bounds().Min, draw.Over)
	}
	for _, a := range texts {
		if !a.Visible() {
			continue
		}
		if err := c.text.Draw(out, a); err != nil {
			return nil, fmt.Errorf("failed to render text %s: %w", a.ID, err)
		}
	}
	return out, nil
}
