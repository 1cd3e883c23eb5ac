package decode

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// DefaultScale is the render scale applied to PDF pages, relative to 72 DPI.
const DefaultScale = 1.4

// PageRenderer rasterizes the pages of an opened document.
type PageRenderer interface {
	NumPages() int
	RenderPage(n int) (image.Image, error)
	Close() error
}

// Opener opens a document held in memory.
type Opener func(data []byte) (PageRenderer, error)

type fitzRenderer struct {
	doc *fitz.Document
	dpi float64
}

// FitzOpener returns an Opener backed by MuPDF, rendering at 72*scale DPI.
func FitzOpener(scale float64) Opener {
	if scale <= 0 {
		scale = DefaultScale
	}
	return func(data []byte) (PageRenderer, error) {
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, fmt.Errorf("failed to open pdf: %w", err)
		}
		return &fitzRenderer{doc: doc, dpi: 72 * scale}, nil
	}
}

func (r *fitzRenderer) NumPages() int { return r.doc.NumPage() }

func (r *fitzRenderer) RenderPage(n int) (image.Image, error) {
	img, err := r.doc.ImageDPI(n, r.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", n+1, err)
	}
	return img, nil
}

func (r *fitzRenderer) Close() error { return r.doc.Close() }
