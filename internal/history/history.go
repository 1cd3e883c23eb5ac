// Package history keeps a bounded undo/redo stack of overlay snapshots per
// page.
package history

import (
	"bytes"
	"compress/flate"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Limit is the number of snapshots retained per page.
const Limit = 50

// Surfaces resolves the overlay raster of a page.
type Surfaces interface {
	Overlay(page int) *image.RGBA
}

// Entry is the history of one page. stack[index] always matches the
// overlay's current pixels. Snapshots are deflated overlay pixels.
type Entry struct {
	stack [][]byte
	index int
}

func (e *Entry) Len() int   { return len(e.stack) }
func (e *Entry) Index() int { return e.index }

type Manager struct {
	mu       sync.Mutex
	surfaces Surfaces
	entries  map[int]*Entry
	log      zerolog.Logger
}

func NewManager(s Surfaces, log zerolog.Logger) *Manager {
	return &Manager{
		surfaces: s,
		entries:  make(map[int]*Entry),
		log:      log.With().Str("component", "history").Logger(),
	}
}

func snapshot(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(img.Pix); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(snap, dst []byte) error {
	zr := flate.NewReader(bytes.NewReader(snap))
	defer zr.Close()
	if _, err := io.ReadFull(zr, dst); err != nil {
		return fmt.Errorf("failed to inflate snapshot: %w", err)
	}
	return nil
}

// Init seeds a page's history with its current overlay if it has none yet.
func (m *Manager) Init(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initLocked(page)
}

func (m *Manager) initLocked(page int) bool {
	if _, ok := m.entries[page]; ok {
		return false
	}
	overlay := m.surfaces.Overlay(page)
	if overlay == nil {
		return false
	}
	snap, err := snapshot(overlay)
	if err != nil {
		m.log.Error().Err(err).Int("page", page).Msg("failed to snapshot overlay")
		return false
	}
	m.entries[page] = &Entry{stack: [][]byte{snap}}
	return true
}

// Push records the overlay after a stroke. Unchanged overlays are not
// recorded.
func (m *Manager) Push(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initLocked(page) {
		return
	}
	e, ok := m.entries[page]
	if !ok {
		return
	}
	overlay := m.surfaces.Overlay(page)
	if overlay == nil {
		return
	}
	next, err := snapshot(overlay)
	if err != nil {
		m.log.Error().Err(err).Int("page", page).Msg("failed to snapshot overlay")
		return
	}
	if bytes.Equal(e.stack[e.index], next) {
		return
	}

	stack := append(e.stack[:e.index+1:e.index+1], next)
	if len(stack) > Limit {
		stack = stack[len(stack)-Limit:]
	}
	e.stack = stack
	e.index = len(stack) - 1
	m.log.Debug().Int("page", page).Int("depth", len(stack)).Int("bytes", len(next)).Msg("snapshot pushed")
}

// Undo steps one snapshot back and restores it. It is a no-op at the
// oldest snapshot or on a page without history.
func (m *Manager) Undo(page int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[page]
	if !ok || e.index == 0 {
		return false
	}
	e.index--
	m.restore(page, e.stack[e.index])
	return true
}

func (m *Manager) Redo(page int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[page]
	if !ok || e.index >= len(e.stack)-1 {
		return false
	}
	e.index++
	m.restore(page, e.stack[e.index])
	return true
}

// restore replaces the whole overlay: it is cleared first so nothing of the
// previous content survives.
func (m *Manager) restore(page int, snap []byte) {
	overlay := m.surfaces.Overlay(page)
	if overlay == nil {
		return
	}
	clear(overlay.Pix)
	if err := inflate(snap, overlay.Pix); err != nil {
		m.log.Error().Err(err).Int("page", page).Msg("failed to restore overlay")
	}
}

func (m *Manager) CanUndo(page int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[page]
	return ok && e.index > 0
}

func (m *Manager) CanRedo(page int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[page]
	return ok && e.index < len(e.stack)-1
}

// Len returns the number of snapshots kept for a page.
func (m *Manager) Len(page int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[page]; ok {
		return e.Len()
	}
	return 0
}

func (m *Manager) Index(page int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[page]; ok {
		return e.Index()
	}
	return 0
}

// Reset drops every page's history.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[int]*Entry)
}
