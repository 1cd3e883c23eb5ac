package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"ReviewBoard/internal/editor"
	"ReviewBoard/internal/state"
)

// handleSize is the square, in page pixels, at a box's bottom-right corner
// that starts a resize instead of a drag.
const handleSize = 14

var focusColor = color.NRGBA{R: 0x1e, G: 0x90, B: 0xff, A: 0xff}

// PageWidget shows one page of the asset with its ink and text boxes, and
// forwards pointer input on it to the editor.
type PageWidget struct {
	widget.BaseWidget
	ed    *editor.Editor
	index int
	page  state.Page
	zoom  float32
	log   zerolog.Logger

	pressed bool
	gesture bool
	inkImg  *canvas.Image

	// OnChanged fires after any edit made through this page. It is
	// responsible for redrawing; without it the page redraws itself.
	OnChanged func()
}

var _ fyne.Widget = (*PageWidget)(nil)
var _ fyne.Draggable = (*PageWidget)(nil)
var _ desktop.Mouseable = (*PageWidget)(nil)
var _ desktop.Hoverable = (*PageWidget)(nil)

func NewPageWidget(ed *editor.Editor, index int, page state.Page, zoom float32, log zerolog.Logger) *PageWidget {
	p := &PageWidget{ed: ed, index: index, page: page, zoom: zoom, log: log}
	p.ExtendBaseWidget(p)
	return p
}

func (p *PageWidget) displaySize() fyne.Size {
	return fyne.NewSize(float32(p.page.Width)*p.zoom, float32(p.page.Height)*p.zoom)
}

// toPage maps a widget position to page raster coordinates.
func (p *PageWidget) toPage(pos fyne.Position) state.Point {
	return state.Point{X: float64(pos.X / p.zoom), Y: float64(pos.Y / p.zoom)}
}

// hit finds the topmost box under pt and whether pt is on its resize handle.
func (p *PageWidget) hit(pt state.Point) (state.TextAnnotation, bool, bool) {
	texts := p.ed.Texts(p.index)
	for i := len(texts) - 1; i >= 0; i-- {
		a := texts[i]
		if pt.X < a.X || pt.Y < a.Y || pt.X > a.Right() || pt.Y > a.Bottom() {
			continue
		}
		onHandle := pt.X >= a.Right()-handleSize && pt.Y >= a.Bottom()-handleSize
		return a, onHandle, true
	}
	return state.TextAnnotation{}, false, false
}

func (p *PageWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	pt := p.toPage(e.Position)
	p.pressed = true

	if a, onHandle, ok := p.hit(pt); ok {
		var err error
		if onHandle {
			err = p.ed.BeginResize(a.ID, pt)
		} else {
			err = p.ed.BeginDrag(a.ID, pt)
		}
		if err != nil {
			p.log.Warn().Err(err).Str("id", a.ID).Msg("failed to grab text box")
			return
		}
		_ = p.ed.SetActivePage(p.index)
		p.gesture = true
		p.changed()
		return
	}

	if _, _, err := p.ed.PointerDown(p.index, pt); err != nil {
		p.log.Warn().Err(err).Int("page", p.index).Msg("pointer down ignored")
		return
	}
	p.changed()
}

func (p *PageWidget) Dragged(e *fyne.DragEvent) {
	if !p.pressed {
		return
	}
	pt := p.toPage(e.Position)
	if p.gesture {
		if _, ok := p.ed.GestureTo(pt); ok {
			p.Refresh()
		}
		return
	}
	p.ed.PointerMove(p.index, pt)
	p.refreshInk()
}

func (p *PageWidget) DragEnd() { p.release() }

func (p *PageWidget) MouseUp(*desktop.MouseEvent) { p.release() }

func (p *PageWidget) MouseIn(*desktop.MouseEvent)    {}
func (p *PageWidget) MouseMoved(*desktop.MouseEvent) {}

// MouseOut ends a stroke the same way releasing the button does.
func (p *PageWidget) MouseOut() {
	if p.pressed && !p.gesture {
		p.release()
	}
}

func (p *PageWidget) release() {
	if !p.pressed {
		return
	}
	p.pressed = false
	if p.gesture {
		p.gesture = false
		p.ed.EndGesture()
	} else {
		p.ed.PointerUp(p.index)
	}
	p.changed()
}

func (p *PageWidget) changed() {
	if p.OnChanged != nil {
		p.OnChanged()
		return
	}
	p.Refresh()
}

func (p *PageWidget) refreshInk() {
	if p.inkImg == nil {
		return
	}
	if p.inkImg.Image == nil {
		if ov := p.ed.Overlay(p.index); ov != nil {
			p.inkImg.Image = ov
		}
	}
	p.inkImg.Refresh()
}

func (p *PageWidget) MinSize() fyne.Size {
	return p.displaySize()
}

func (p *PageWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &pageRenderer{page: p}
	r.base = canvas.NewImageFromImage(p.page.Base)
	r.ink = canvas.NewImageFromImage(nil)
	r.text = canvas.NewImageFromImage(nil)
	for _, img := range []*canvas.Image{r.base, r.ink, r.text} {
		img.FillMode = canvas.ImageFillStretch
		img.ScaleMode = canvas.ImageScaleFastest
	}
	r.focus = canvas.NewRectangle(color.Transparent)
	r.focus.StrokeColor = focusColor
	r.focus.StrokeWidth = 1.5
	r.handle = canvas.NewRectangle(focusColor)
	p.inkImg = r.ink
	r.sync()
	return r
}

type pageRenderer struct {
	page   *PageWidget
	base   *canvas.Image
	ink    *canvas.Image
	text   *canvas.Image
	focus  *canvas.Rectangle
	handle *canvas.Rectangle
}

func (r *pageRenderer) sync() {
	p := r.page
	r.ink.Image = nil
	if ov := p.ed.Overlay(p.index); ov != nil {
		r.ink.Image = ov
	}

	var textImg image.Image
	if img, err := p.ed.TextPreview(p.index); err == nil {
		textImg = img
	} else {
		p.log.Warn().Err(err).Int("page", p.index).Msg("failed to render text boxes")
	}
	r.text.Image = textImg

	r.focus.Hide()
	r.handle.Hide()
	tools := p.ed.Tools()
	if tools.ActiveText == "" {
		return
	}
	for _, a := range p.ed.Texts(p.index) {
		if a.ID != tools.ActiveText {
			continue
		}
		z := p.zoom
		r.focus.Move(fyne.NewPos(float32(a.X)*z, float32(a.Y)*z))
		r.focus.Resize(fyne.NewSize(float32(a.Width)*z, float32(a.Height)*z))
		r.handle.Move(fyne.NewPos(float32(a.Right()-handleSize/2)*z, float32(a.Bottom()-handleSize/2)*z))
		r.handle.Resize(fyne.NewSize(handleSize/2*z, handleSize/2*z))
		r.focus.Show()
		r.handle.Show()
	}
}

func (r *pageRenderer) Layout(size fyne.Size) {
	for _, img := range []*canvas.Image{r.base, r.ink, r.text} {
		img.Move(fyne.NewPos(0, 0))
		img.Resize(size)
	}
}

func (r *pageRenderer) MinSize() fyne.Size { return r.page.displaySize() }

func (r *pageRenderer) Refresh() {
	r.sync()
	for _, o := range r.Objects() {
		o.Refresh()
	}
}

func (r *pageRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.base, r.ink, r.text, r.focus, r.handle}
}

func (r *pageRenderer) Destroy() {}
