package editor

import (
	"fmt"

	"ReviewBoard/internal/ink"
	"ReviewBoard/internal/state"
)

func (e *Editor) Tools() state.ToolState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tools
}

func (e *Editor) SetTool(t state.Tool) error {
	if !t.Valid() {
		return fmt.Errorf("unknown tool %q", t)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tools.Tool = t
	return nil
}

// SetColor changes the tool colour. The focused text box takes it too.
func (e *Editor) SetColor(c state.Color) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tools.Color = c
	if e.text != nil && e.tools.ActiveText != "" {
		_ = e.text.SetColor(e.tools.ActiveText, c)
	}
}

func (e *Editor) SetWidth(w float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tools.Width = state.ClampWidth(w)
}

// SetActivePage selects the page undo and redo apply to.
func (e *Editor) SetActivePage(page int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if page < 0 || page >= len(e.pages) {
		return fmt.Errorf("%w: %d", state.ErrUnknownPage, page)
	}
	e.tools.ActivePage = page
	return nil
}

// PointerDown starts a stroke, or with the text tool drops a new box at p
// and focuses it. The created box is returned when there is one. The
// previously focused box is blurred first.
func (e *Editor) PointerDown(page int, p state.Point) (state.TextAnnotation, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.engine == nil {
		return state.TextAnnotation{}, false, state.ErrNoAsset
	}
	if page < 0 || page >= len(e.pages) {
		return state.TextAnnotation{}, false, fmt.Errorf("%w: %d", state.ErrUnknownPage, page)
	}
	e.tools.ActivePage = page
	if prev := e.tools.ActiveText; prev != "" {
		e.tools.ActiveText = ""
		e.text.Blur(prev)
	}

	if e.tools.Tool == state.ToolText {
		a, err := e.text.Create(page, p, state.DefaultFontSize(e.tools.Width), e.tools.Color)
		if err != nil {
			return state.TextAnnotation{}, false, err
		}
		e.tools.ActiveText = a.ID
		return a, true, nil
	}

	e.engine.PointerDown(page, p, ink.Brush{Tool: e.tools.Tool, Color: e.tools.Color, Width: e.tools.Width})
	return state.TextAnnotation{}, false, nil
}

func (e *Editor) PointerMove(page int, p state.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.engine != nil {
		e.engine.PointerMove(page, p)
	}
}

// PointerUp ends a stroke. Leaving the page counts as releasing it.
func (e *Editor) PointerUp(page int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.engine != nil {
		e.engine.PointerUp(page)
	}
}

// Drawing reports whether a stroke or a text box drag or resize is running.
func (e *Editor) Drawing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.engine != nil && e.engine.Drawing() {
		return true
	}
	return e.text != nil && e.text.InGesture()
}

func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.history == nil {
		return false
	}
	return e.history.Undo(e.tools.ActivePage)
}

func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.history == nil {
		return false
	}
	return e.history.Redo(e.tools.ActivePage)
}

func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history != nil && e.history.CanUndo(e.tools.ActivePage)
}

func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history != nil && e.history.CanRedo(e.tools.ActivePage)
}

func (e *Editor) textLayer() (*state.TextLayer, error) {
	if e.text == nil {
		return nil, state.ErrNoAsset
	}
	return e.text, nil
}

// Focus makes a box the target of colour and font size changes.
func (e *Editor) Focus(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.textLayer()
	if err != nil {
		return err
	}
	a, ok := l.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", state.ErrUnknownAnnotation, id)
	}
	e.tools.ActiveText = id
	e.tools.ActivePage = a.Page
	return nil
}

// Blur unfocuses a box, dropping it if it holds no text. It reports
// whether the box was removed.
func (e *Editor) Blur(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.text == nil {
		return false
	}
	if e.tools.ActiveText == id {
		e.tools.ActiveText = ""
	}
	return e.text.Blur(id)
}

func (e *Editor) BeginDrag(id string, pointer state.Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.textLayer()
	if err != nil {
		return err
	}
	if err := l.BeginDrag(id, pointer); err != nil {
		return err
	}
	e.tools.ActiveText = id
	return nil
}

func (e *Editor) BeginResize(id string, pointer state.Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.textLayer()
	if err != nil {
		return err
	}
	if err := l.BeginResize(id, pointer); err != nil {
		return err
	}
	e.tools.ActiveText = id
	return nil
}

// GestureTo feeds a pointer position to the running drag or resize.
func (e *Editor) GestureTo(pointer state.Point) (state.TextAnnotation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.text == nil {
		return state.TextAnnotation{}, false
	}
	if a, ok := e.text.DragTo(pointer); ok {
		return a, true
	}
	return e.text.ResizeTo(pointer)
}

func (e *Editor) EndGesture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.text != nil {
		e.text.EndGesture()
	}
}

func (e *Editor) SetText(id, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.textLayer()
	if err != nil {
		return err
	}
	return l.SetText(id, text)
}

func (e *Editor) SetFontSize(id string, size float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.textLayer()
	if err != nil {
		return err
	}
	return l.SetFontSize(id, size)
}

func (e *Editor) DeleteText(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.text == nil {
		return false
	}
	if e.tools.ActiveText == id {
		e.tools.ActiveText = ""
	}
	return e.text.Delete(id)
}
