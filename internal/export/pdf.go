package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/jung-kurt/gofpdf"
)

// DocumentWriter assembles a multi-page document from page images.
type DocumentWriter interface {
	AddPage(img image.Image, width, height int) error
	Bytes() ([]byte, error)
}

// PDFWriter builds a PDF where every page is one full-bleed PNG, sized in
// points to the image's pixel dimensions.
type PDFWriter struct {
	pdf   *gofpdf.Fpdf
	pages int
}

func NewPDFWriter() *PDFWriter {
	return &PDFWriter{}
}

func (w *PDFWriter) init(width, height float64) {
	w.pdf = gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	w.pdf.SetMargins(0, 0, 0)
	w.pdf.SetAutoPageBreak(false, 0)
	w.pdf.SetCreator("ReviewBoard", true)
}

func (w *PDFWriter) AddPage(img image.Image, width, height int) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode page %d: %w", w.pages+1, err)
	}
	wd, ht := float64(width), float64(height)
	if w.pdf == nil {
		w.init(wd, ht)
	}

	name := fmt.Sprintf("page-%d", w.pages+1)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	w.pdf.RegisterImageOptionsReader(name, opts, &buf)
	w.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: wd, Ht: ht})
	w.pdf.ImageOptions(name, 0, 0, wd, ht, false, opts, 0, "")
	if err := w.pdf.Error(); err != nil {
		return fmt.Errorf("failed to add page %d: %w", w.pages+1, err)
	}
	w.pages++
	return nil
}

// PageCount returns the number of pages added so far.
func (w *PDFWriter) PageCount() int { return w.pages }

// PageSize returns the size in points of a 1-based page.
func (w *PDFWriter) PageSize(page int) (float64, float64) {
	if w.pdf == nil {
		return 0, 0
	}
	wd, ht, _ := w.pdf.PageSize(page)
	return wd, ht
}

func (w *PDFWriter) Bytes() ([]byte, error) {
	if w.pdf == nil {
		return nil, fmt.Errorf("document has no pages")
	}
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
