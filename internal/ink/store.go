// Package ink holds the per-page overlay rasters and turns pointer gestures
// into pen and eraser strokes on them.
package ink

import (
	"image"
	"sync"

	"ReviewBoard/internal/state"
)

// Store owns one transparent overlay per page, allocated on first use.
type Store struct {
	mu       sync.Mutex
	sizes    []image.Point
	overlays []*image.RGBA
}

func NewStore(pages []state.Page) *Store {
	sizes := make([]image.Point, len(pages))
	for i, p := range pages {
		sizes[i] = image.Pt(p.Width, p.Height)
	}
	return &Store{
		sizes:    sizes,
		overlays: make([]*image.RGBA, len(pages)),
	}
}

// Overlay returns the overlay of a page, or nil for an unknown page.
func (s *Store) Overlay(page int) *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 0 || page >= len(s.sizes) {
		return nil
	}
	if s.overlays[page] == nil {
		s.overlays[page] = image.NewRGBA(image.Rectangle{Max: s.sizes[page]})
	}
	return s.overlays[page]
}

// Peek returns the overlay only if it was ever drawn on.
func (s *Store) Peek(page int) *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 0 || page >= len(s.overlays) {
		return nil
	}
	return s.overlays[page]
}

func (s *Store) Pages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sizes)
}

// Release drops every overlay.
func (s *Store) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes = nil
	s.overlays = nil
}
