package state

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TextAnnotation is a positioned text note on one page. It lives outside the
// raster history and is only baked into the page on export.
type TextAnnotation struct {
	ID       string
	Page     int
	Box
	Text     string
	FontSize float64
	Color    Color
}

// Visible reports whether the annotation renders anything.
func (a TextAnnotation) Visible() bool {
	return strings.TrimSpace(a.Text) != ""
}

type gestureKind int

const (
	gestureNone gestureKind = iota
	gestureDrag
	gestureResize
)

// gesture tracks an in-flight drag or resize of a single box.
type gesture struct {
	kind   gestureKind
	id     string
	offset Point // drag: pointer minus box origin
	start  Point // resize: pointer at gesture start
	startW float64
	startH float64
}

// TextLayer holds the text annotations of every page of one document.
type TextLayer struct {
	mu      sync.RWMutex
	sizes   []Point
	items   map[string]*TextAnnotation
	order   []string
	gesture gesture
	newID   IDSource
	log     zerolog.Logger
}

func NewTextLayer(pages []Page, log zerolog.Logger) *TextLayer {
	sizes := make([]Point, len(pages))
	for i, p := range pages {
		sizes[i] = Point{X: float64(p.Width), Y: float64(p.Height)}
	}
	return &TextLayer{
		sizes: sizes,
		items: make(map[string]*TextAnnotation),
		newID: newAnnotationID,
		log:   log.With().Str("component", "text").Logger(),
	}
}

// SetIDSource replaces the id generator.
func (l *TextLayer) SetIDSource(src IDSource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.newID = src
}

func (l *TextLayer) pageSize(page int) (Point, error) {
	if page < 0 || page >= len(l.sizes) {
		return Point{}, fmt.Errorf("%w: %d", ErrUnknownPage, page)
	}
	return l.sizes[page], nil
}

func (l *TextLayer) lookup(id string) (*TextAnnotation, error) {
	a, ok := l.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnnotation, id)
	}
	return a, nil
}

// Create adds an empty default-size box at p, kept inside the page.
func (l *TextLayer) Create(page int, p Point, fontSize float64, c Color) (TextAnnotation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	size, err := l.pageSize(page)
	if err != nil {
		return TextAnnotation{}, err
	}
	a := &TextAnnotation{
		ID:       l.newID(),
		Page:     page,
		Box:      defaultBox(p, size.X, size.Y),
		FontSize: ClampFontSize(fontSize),
		Color:    c,
	}
	l.items[a.ID] = a
	l.order = append(l.order, a.ID)
	l.log.Debug().Str("id", a.ID).Int("page", page).Msg("text box created")
	return *a, nil
}

func (l *TextLayer) Get(id string) (TextAnnotation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.items[id]
	if !ok {
		return TextAnnotation{}, false
	}
	return *a, true
}

// ForPage returns the annotations of a page in creation order, which is
// also their rendering order.
func (l *TextLayer) ForPage(page int) []TextAnnotation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []TextAnnotation
	for _, id := range l.order {
		if a := l.items[id]; a.Page == page {
			out = append(out, *a)
		}
	}
	return out
}

func (l *TextLayer) All() []TextAnnotation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]TextAnnotation, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.items[id])
	}
	return out
}

func (l *TextLayer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// BeginDrag starts moving a box; pointer is in page-local coordinates.
func (l *TextLayer) BeginDrag(id string, pointer Point) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.lookup(id)
	if err != nil {
		return err
	}
	l.gesture = gesture{
		kind:   gestureDrag,
		id:     id,
		offset: Point{X: pointer.X - a.X, Y: pointer.Y - a.Y},
	}
	return nil
}

// DragTo moves the dragged box so the initiating offset is kept.
func (l *TextLayer) DragTo(pointer Point) (TextAnnotation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gesture.kind != gestureDrag {
		return TextAnnotation{}, false
	}
	a, ok := l.items[l.gesture.id]
	if !ok {
		l.gesture = gesture{}
		return TextAnnotation{}, false
	}
	size := l.sizes[a.Page]
	a.Box = movedBox(a.Box, pointer.X-l.gesture.offset.X, pointer.Y-l.gesture.offset.Y, size.X, size.Y)
	return *a, true
}

// BeginResize starts resizing a box from its bottom-right handle.
func (l *TextLayer) BeginResize(id string, pointer Point) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.lookup(id)
	if err != nil {
		return err
	}
	l.gesture = gesture{
		kind:   gestureResize,
		id:     id,
		start:  pointer,
		startW: a.Width,
		startH: a.Height,
	}
	return nil
}

func (l *TextLayer) ResizeTo(pointer Point) (TextAnnotation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gesture.kind != gestureResize {
		return TextAnnotation{}, false
	}
	a, ok := l.items[l.gesture.id]
	if !ok {
		l.gesture = gesture{}
		return TextAnnotation{}, false
	}
	size := l.sizes[a.Page]
	w := l.gesture.startW + pointer.X - l.gesture.start.X
	h := l.gesture.startH + pointer.Y - l.gesture.start.Y
	a.Box = resizedBox(a.Box, w, h, size.X, size.Y)
	return *a, true
}

// EndGesture finishes any drag or resize.
func (l *TextLayer) EndGesture() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gesture = gesture{}
}

// InGesture reports whether a drag or resize is running.
func (l *TextLayer) InGesture() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gesture.kind != gestureNone
}

func (l *TextLayer) update(id string, fn func(a *TextAnnotation)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.lookup(id)
	if err != nil {
		return err
	}
	fn(a)
	return nil
}

func (l *TextLayer) SetText(id, text string) error {
	return l.update(id, func(a *TextAnnotation) { a.Text = text })
}

func (l *TextLayer) SetFontSize(id string, size float64) error {
	return l.update(id, func(a *TextAnnotation) { a.FontSize = ClampFontSize(size) })
}

func (l *TextLayer) SetColor(id string, c Color) error {
	return l.update(id, func(a *TextAnnotation) { a.Color = c })
}

// Delete removes a box. Unknown ids are ignored.
func (l *TextLayer) Delete(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.items[id]; !ok {
		return false
	}
	delete(l.items, id)
	for i, other := range l.order {
		if other == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	if l.gesture.id == id {
		l.gesture = gesture{}
	}
	l.log.Debug().Str("id", id).Msg("text box removed")
	return true
}

// Blur is called when a box loses focus; empty boxes are dropped.
func (l *TextLayer) Blur(id string) bool {
	a, ok := l.Get(id)
	if !ok || a.Visible() {
		return false
	}
	return l.Delete(id)
}

// Reset drops every annotation and any running gesture.
func (l *TextLayer) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.items)
	l.order = nil
	l.gesture = gesture{}
}
