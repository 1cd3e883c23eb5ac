// Package export composites reviewed pages and encodes them into the
// feedback file attached to a submission.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"ReviewBoard/internal/state"
)

const (
	MIMEPNG = "image/png"
	MIMEPDF = "application/pdf"
)

// Artifact is a produced feedback file.
type Artifact struct {
	Name  string
	MIME  string
	Data  []byte
	Pages int
}

// Exporter encodes composited pages as a PNG (image sources) or a
// multi-page PDF (pdf sources).
type Exporter struct {
	newDocument func() DocumentWriter
	log         zerolog.Logger
}

func NewExporter(log zerolog.Logger) *Exporter {
	return &Exporter{
		newDocument: func() DocumentWriter { return NewPDFWriter() },
		log:         log.With().Str("component", "export").Logger(),
	}
}

// WithDocumentWriter swaps the PDF assembler.
func (e *Exporter) WithDocumentWriter(fn func() DocumentWriter) *Exporter {
	e.newDocument = fn
	return e
}

// BaseName strips one trailing extension from a file name, falling back to
// "submission".
func BaseName(fileName string) string {
	name := fileName
	if ext := path.Ext(name); len(ext) > 1 {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "" {
		return "submission"
	}
	return name
}

func (e *Exporter) Export(asset state.ReviewAsset, pages []*image.RGBA) (Artifact, error) {
	if len(pages) == 0 {
		return Artifact{}, state.ErrNoPagesToExport
	}
	base := BaseName(asset.SourceFileName)

	if asset.ReviewKind == state.KindImage {
		var buf bytes.Buffer
		if err := png.Encode(&buf, pages[0]); err != nil {
			return Artifact{}, fmt.Errorf("%w: %v", state.ErrEncodingFailed, err)
		}
		a := Artifact{Name: base + "_checked.png", MIME: MIMEPNG, Data: buf.Bytes(), Pages: 1}
		e.log.Info().Str("file", a.Name).Int("bytes", len(a.Data)).Msg("exported image")
		return a, nil
	}

	doc := e.newDocument()
	for i, p := range pages {
		b := p.Bounds()
		if err := doc.AddPage(p, b.Dx(), b.Dy()); err != nil {
			return Artifact{}, fmt.Errorf("%w: page %d: %v", state.ErrEncodingFailed, i+1, err)
		}
	}
	data, err := doc.Bytes()
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", state.ErrEncodingFailed, err)
	}
	a := Artifact{Name: base + "_checked.pdf", MIME: MIMEPDF, Data: data, Pages: len(pages)}
	e.log.Info().Str("file", a.Name).Int("pages", a.Pages).Int("bytes", len(a.Data)).Msg("exported pdf")
	return a, nil
}
