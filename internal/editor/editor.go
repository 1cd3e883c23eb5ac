// Package editor is one review session: it loads a submitted file, routes
// reviewer input to the ink and text layers, and bakes the result into a
// feedback file.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"

	"ReviewBoard/internal/decode"
	"ReviewBoard/internal/export"
	"ReviewBoard/internal/history"
	"ReviewBoard/internal/ink"
	"ReviewBoard/internal/net"
	"ReviewBoard/internal/state"
)

// Fetcher retrieves the bytes of a file under review.
type Fetcher interface {
	Fetch(ctx context.Context, filePath string) ([]byte, error)
}

// Uploader stores a produced feedback file.
type Uploader interface {
	Save(ctx context.Context, r net.UploadRequest) (net.FeedbackFile, error)
}

type Status int

const (
	StatusClosed Status = iota
	StatusPreparing
	StatusReady
	StatusFailed
	StatusSaving
)

func (s Status) String() string {
	switch s {
	case StatusPreparing:
		return "preparing"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	case StatusSaving:
		return "saving"
	default:
		return "closed"
	}
}

// Deps are the collaborators of a session.
type Deps struct {
	Fetcher    Fetcher
	Uploader   Uploader
	Decoder    *decode.Decoder
	Compositor *export.Compositor
	Exporter   *export.Exporter
	Tools      state.ToolState
}

// Editor owns every piece of state of the asset being reviewed. All methods
// are safe to call from the UI goroutine while Load or Save run on a worker.
type Editor struct {
	mu   sync.Mutex
	deps Deps
	root zerolog.Logger
	log  zerolog.Logger

	gen     uint64
	status  Status
	saving  bool
	loadErr error

	asset   *state.ReviewAsset
	pages   []state.Page
	store   *ink.Store
	history *history.Manager
	engine  *ink.Engine
	text    *state.TextLayer
	tools   state.ToolState
	idSrc   state.IDSource
}

func New(deps Deps, log zerolog.Logger) *Editor {
	return &Editor{
		deps:  deps,
		root:  log,
		log:   log.With().Str("component", "editor").Logger(),
		tools: deps.Tools,
	}
}

// SetIDSource overrides annotation ids for every subsequent load.
func (e *Editor) SetIDSource(src state.IDSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idSrc = src
	if e.text != nil {
		e.text.SetIDSource(src)
	}
}

// Load fetches and decodes asset, replacing whatever was open. A result
// that arrives after Close or a newer Load is dropped with
// ErrLoadSuperseded.
func (e *Editor) Load(ctx context.Context, asset state.ReviewAsset) error {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.releaseLocked()
	e.asset = &asset
	e.status = StatusPreparing
	e.tools = e.deps.Tools
	e.mu.Unlock()

	e.log.Info().Str("file", asset.SourceFileName).Str("kind", string(asset.ReviewKind)).Msg("loading asset")
	pages, err := e.prepare(ctx, asset)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.log.Debug().Str("file", asset.SourceFileName).Msg("discarding stale load")
		return state.ErrLoadSuperseded
	}
	if err != nil {
		e.status = StatusFailed
		e.loadErr = err
		e.log.Warn().Err(err).Str("file", asset.SourceFileName).Msg("failed to load asset")
		return err
	}

	e.pages = pages
	e.store = ink.NewStore(pages)
	e.history = history.NewManager(e.store, e.root)
	e.engine = ink.NewEngine(e.store, e.history, e.root)
	e.text = state.NewTextLayer(pages, e.root)
	if e.idSrc != nil {
		e.text.SetIDSource(e.idSrc)
	}
	e.status = StatusReady
	e.log.Info().Str("file", asset.SourceFileName).Int("pages", len(pages)).Msg("loaded asset")
	return nil
}

func (e *Editor) prepare(ctx context.Context, asset state.ReviewAsset) ([]state.Page, error) {
	data, err := e.deps.Fetcher.Fetch(ctx, asset.ReviewFilePath)
	if err != nil {
		if errors.Is(err, state.ErrFetchFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", state.ErrFetchFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.deps.Decoder.Decode(data, asset.ReviewKind)
}

// Close releases every resource of the open asset.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.releaseLocked()
	e.asset = nil
	e.status = StatusClosed
}

// Escape closes the session unless a save is running.
func (e *Editor) Escape() bool {
	e.mu.Lock()
	saving := e.saving
	e.mu.Unlock()
	if saving {
		return false
	}
	e.Close()
	return true
}

func (e *Editor) releaseLocked() {
	if e.store != nil {
		e.store.Release()
	}
	if e.history != nil {
		e.history.Reset()
	}
	if e.text != nil {
		e.text.Reset()
	}
	e.pages = nil
	e.store = nil
	e.history = nil
	e.engine = nil
	e.text = nil
	e.loadErr = nil
}

func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saving {
		return StatusSaving
	}
	return e.status
}

// LoadError is the failure of the last load, if any.
func (e *Editor) LoadError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

func (e *Editor) Asset() (state.ReviewAsset, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.asset == nil {
		return state.ReviewAsset{}, false
	}
	return *e.asset, true
}

func (e *Editor) Pages() []state.Page {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]state.Page(nil), e.pages...)
}

// Overlay returns the ink of a page, or nil if it was never drawn on.
func (e *Editor) Overlay(page int) *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil
	}
	return e.store.Peek(page)
}

// Texts returns the annotations of a page in rendering order.
func (e *Editor) Texts(page int) []state.TextAnnotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.text == nil {
		return nil
	}
	return e.text.ForPage(page)
}

// Composite renders a page as it will be exported.
func (e *Editor) Composite(page int) (*image.RGBA, error) {
	e.mu.Lock()
	if page < 0 || page >= len(e.pages) {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", state.ErrUnknownPage, page)
	}
	p := e.pages[page]
	overlay := cloneRGBA(e.store.Peek(page))
	texts := e.text.ForPage(page)
	e.mu.Unlock()

	return e.deps.Compositor.Compose(p, overlay, texts)
}

// TextPreview renders only the text boxes of a page, on a transparent
// raster of the page's size.
func (e *Editor) TextPreview(page int) (*image.RGBA, error) {
	e.mu.Lock()
	if page < 0 || page >= len(e.pages) {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", state.ErrUnknownPage, page)
	}
	p := state.Page{Width: e.pages[page].Width, Height: e.pages[page].Height}
	texts := e.text.ForPage(page)
	e.mu.Unlock()

	return e.deps.Compositor.Compose(p, nil, texts)
}

func cloneRGBA(img *image.RGBA) *image.RGBA {
	if img == nil {
		return nil
	}
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}
