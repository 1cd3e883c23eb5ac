// Package decode turns a submitted file into the ordered page rasters a
// review works on.
package decode

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"ReviewBoard/internal/state"
)

// DefaultMaxBytes bounds the size of a source payload.
const DefaultMaxBytes = 50 << 20

var kindByExt = map[string]state.ReviewKind{
	".pdf":  state.KindPDF,
	".doc":  state.KindPDF,
	".docx": state.KindPDF,
	".jpg":  state.KindImage,
	".jpeg": state.KindImage,
	".png":  state.KindImage,
	".webp": state.KindImage,
	".bmp":  state.KindImage,
	".gif":  state.KindImage,
}

// KindForFileName reports how a submitted file is reviewed. Word documents
// are converted to PDF before they reach a reviewer.
func KindForFileName(name string) (state.ReviewKind, error) {
	kind, ok := kindByExt[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", state.ErrUnsupportedFormat, name)
	}
	return kind, nil
}

type Decoder struct {
	open     Opener
	maxBytes int
	log      zerolog.Logger
}

func NewDecoder(open Opener, maxBytes int, log zerolog.Logger) *Decoder {
	if open == nil {
		open = FitzOpener(DefaultScale)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Decoder{
		open:     open,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "decode").Logger(),
	}
}

// Decode produces the pages of data. Images yield one page at native
// resolution. PDF pages that fail to render are skipped.
func (d *Decoder) Decode(data []byte, kind state.ReviewKind) ([]state.Page, error) {
	if len(data) > d.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", state.ErrUnsupportedFormat, len(data), d.maxBytes)
	}
	switch kind {
	case state.KindImage:
		return d.decodeImage(data)
	case state.KindPDF:
		return d.decodePDF(data)
	default:
		return nil, fmt.Errorf("%w: kind %q", state.ErrUnsupportedFormat, kind)
	}
}

func (d *Decoder) decodeImage(data []byte) ([]state.Page, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", state.ErrUnsupportedFormat, err)
	}
	page := state.NewPage(img)
	if page.Width == 0 || page.Height == 0 {
		return nil, fmt.Errorf("%w: empty image", state.ErrUnsupportedFormat)
	}
	d.log.Debug().Str("format", format).Int("width", page.Width).Int("height", page.Height).Msg("decoded image")
	return []state.Page{page}, nil
}

func (d *Decoder) decodePDF(data []byte) ([]state.Page, error) {
	doc, err := d.open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", state.ErrUnsupportedFormat, err)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			d.log.Warn().Err(err).Msg("failed to close document")
		}
	}()

	n := doc.NumPages()
	pages := make([]state.Page, 0, n)
	for i := 0; i < n; i++ {
		img, err := doc.RenderPage(i)
		if err != nil {
			d.log.Warn().Err(err).Int("page", i+1).Msg("skipping page")
			continue
		}
		page := state.NewPage(img)
		if page.Width == 0 || page.Height == 0 {
			d.log.Warn().Int("page", i+1).Msg("skipping empty page")
			continue
		}
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no renderable pages", state.ErrUnsupportedFormat)
	}
	d.log.Debug().Int("pages", len(pages)).Int("total", n).Msg("decoded pdf")
	return pages, nil
}
