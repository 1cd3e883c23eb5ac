package ink

import (
	"github.com/rs/zerolog"

	"ReviewBoard/internal/state"
)

// Recorder is the slice of the history manager the engine drives.
type Recorder interface {
	Init(page int)
	Push(page int)
}

// Brush is the tool configuration applied to a stroke.
type Brush struct {
	Tool  state.Tool
	Color state.Color
	Width float64
}

type stroke struct {
	active bool
	page   int
	last   state.Point
	brush  Brush
}

// Engine rasterizes pointer gestures straight into the overlays. There is
// no vector model of a stroke: once drawn it can only be undone as a whole.
type Engine struct {
	store    *Store
	history  Recorder
	current  stroke
	segments int
	log      zerolog.Logger
}

func NewEngine(store *Store, history Recorder, log zerolog.Logger) *Engine {
	return &Engine{
		store:   store,
		history: history,
		log:     log.With().Str("component", "ink").Logger(),
	}
}

// Drawing reports whether a stroke is in progress.
func (e *Engine) Drawing() bool { return e.current.active }

// PointerDown starts a pen or eraser stroke and leaves a dot at p.
func (e *Engine) PointerDown(page int, p state.Point, b Brush) bool {
	if b.Tool != state.ToolPen && b.Tool != state.ToolEraser {
		return false
	}
	if e.store.Overlay(page) == nil {
		return false
	}
	e.history.Init(page)
	e.current = stroke{active: true, page: page, last: p, brush: b}
	e.segments = 0
	e.segment(p, p)
	return true
}

// PointerMove extends the stroke on the same page.
func (e *Engine) PointerMove(page int, p state.Point) {
	if !e.current.active || e.current.page != page {
		return
	}
	e.segment(e.current.last, p)
	e.current.last = p
}

// PointerUp ends the stroke and records one history entry for it. Leaving
// the page is treated the same way.
func (e *Engine) PointerUp(page int) {
	if !e.current.active || e.current.page != page {
		return
	}
	e.current = stroke{}
	e.history.Push(page)
	e.log.Debug().Int("page", page).Int("segments", e.segments).Msg("stroke committed")
}

func (e *Engine) segment(a, b state.Point) {
	overlay := e.store.Overlay(e.current.page)
	if overlay == nil {
		return
	}
	mask, area := segmentMask(a, b, e.current.brush.Width)
	if !area.Overlaps(overlay.Bounds()) {
		return
	}
	if e.current.brush.Tool == state.ToolEraser {
		erase(overlay, area, mask)
	} else {
		paint(overlay, area, mask, e.current.brush.Color.NRGBA())
	}
	e.segments++
}
