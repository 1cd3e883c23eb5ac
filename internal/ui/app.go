// Package ui is the desktop review window.
package ui

import (
	"context"
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"ReviewBoard/internal/editor"
	"ReviewBoard/internal/state"
)

// maxPageWidth is the on-screen width pages are fitted to.
const maxPageWidth = 900

// Window is the review window of one asset.
type Window struct {
	ed      *editor.Editor
	asset   state.ReviewAsset
	opts    editor.SaveOptions
	log     zerolog.Logger
	win     fyne.Window
	toolbar *Toolbar
	pages   *fyne.Container
	status  *widget.Label
	widgets []*PageWidget
}

// RunApp opens the review window for asset and blocks until it is closed.
func RunApp(ed *editor.Editor, asset state.ReviewAsset, opts editor.SaveOptions, log zerolog.Logger) {
	a := app.NewWithID("io.reviewboard.editor")
	w := &Window{
		ed:     ed,
		asset:  asset,
		opts:   opts,
		log:    log.With().Str("component", "ui").Logger(),
		win:    a.NewWindow("Review: " + asset.SourceFileName),
		pages:  container.NewVBox(),
		status: widget.NewLabel("Preparing document…"),
	}
	w.toolbar = NewToolbar(ed)
	w.toolbar.OnEdited = w.refreshPages
	w.toolbar.OnSave = w.save
	w.toolbar.SetSaving(true)

	w.win.SetContent(container.NewBorder(
		w.toolbar.Object(),
		w.status,
		nil, nil,
		container.NewScroll(w.pages),
	))
	w.win.Resize(fyne.NewSize(1100, 850))
	w.win.Canvas().SetOnTypedKey(func(k *fyne.KeyEvent) {
		if k.Name == fyne.KeyEscape {
			w.close()
		}
	})
	w.win.SetCloseIntercept(w.close)

	go w.load()
	w.win.ShowAndRun()
}

func (w *Window) close() {
	if !w.ed.Escape() {
		w.status.SetText("Saving, please wait…")
		return
	}
	w.win.Close()
}

func (w *Window) load() {
	err := w.ed.Load(context.Background(), w.asset)
	fyne.Do(func() {
		if errors.Is(err, state.ErrLoadSuperseded) {
			return
		}
		if err != nil {
			w.status.SetText("Could not open this file")
			dialog.ShowError(err, w.win)
			return
		}
		w.showPages()
	})
}

func (w *Window) showPages() {
	w.pages.RemoveAll()
	w.widgets = nil
	for i, page := range w.ed.Pages() {
		zoom := float32(1)
		if page.Width > maxPageWidth {
			zoom = float32(maxPageWidth) / float32(page.Width)
		}
		pw := NewPageWidget(w.ed, i, page, zoom, w.log)
		pw.OnChanged = w.edited
		w.widgets = append(w.widgets, pw)
		w.pages.Add(container.NewCenter(pw))
	}
	w.toolbar.Sync()
	w.toolbar.SetSaving(false)
	w.status.SetText(fmt.Sprintf("%s · %d page(s)", w.asset.SourceFileName, len(w.widgets)))
}

// edited runs after pointer input on a page. Focus moves can drop an empty
// box on another page, so every page is redrawn.
func (w *Window) edited() {
	w.toolbar.Sync()
	w.refreshPages()
}

func (w *Window) refreshPages() {
	for _, pw := range w.widgets {
		pw.Refresh()
	}
}

func (w *Window) save() {
	w.toolbar.SetSaving(true)
	w.status.SetText("Saving feedback…")
	go func() {
		res, err := w.ed.Save(context.Background(), w.opts)
		fyne.Do(func() {
			if errors.Is(err, state.ErrSaveInProgress) {
				return
			}
			if err != nil {
				w.toolbar.SetSaving(false)
				w.status.SetText("Save failed")
				dialog.ShowError(err, w.win)
				return
			}
			// The session is over; the save button stays disabled.
			w.status.SetText(fmt.Sprintf("%s: %s", res.Message, res.FileName))
			d := dialog.NewInformation("Feedback", res.Message, w.win)
			d.SetOnClosed(w.win.Close)
			d.Show()
		})
	}()
}
