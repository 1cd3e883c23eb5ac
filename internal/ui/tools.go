package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"ReviewBoard/internal/editor"
	"ReviewBoard/internal/state"
)

var palette = []string{"#ff2d55", "#111111", "#1e90ff", "#34c759", "#ff9500", "#af52de"}

var toolNames = map[string]state.Tool{
	"Pen":    state.ToolPen,
	"Eraser": state.ToolEraser,
	"Text":   state.ToolText,
}

type colorSwatch struct {
	widget.BaseWidget
	Color    state.Color
	OnTapped func(state.Color)
}

func newColorSwatch(c state.Color, tapped func(state.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color.NRGBA())
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// Toolbar holds the tool controls and the editor for the focused text box.
type Toolbar struct {
	ed *editor.Editor

	tools    *widget.RadioGroup
	width    *widget.Slider
	fontSize *widget.Slider
	undo     *widget.Button
	redo     *widget.Button
	save     *widget.Button
	remove   *widget.Button
	text     *widget.Entry

	syncing bool
	focused string

	// OnEdited fires after a change that needs the pages redrawn.
	OnEdited func()
	OnSave   func()
}

func NewToolbar(ed *editor.Editor) *Toolbar {
	t := &Toolbar{ed: ed}

	t.tools = widget.NewRadioGroup([]string{"Pen", "Eraser", "Text"}, func(name string) {
		if tool, ok := toolNames[name]; ok {
			_ = ed.SetTool(tool)
		}
	})
	t.tools.Horizontal = true
	t.tools.Required = true

	t.width = widget.NewSlider(state.MinStrokeWidth, state.MaxStrokeWidth)
	t.width.Step = 1
	t.width.OnChanged = func(v float64) { ed.SetWidth(v) }

	t.fontSize = widget.NewSlider(state.MinFontSize, state.MaxFontSize)
	t.fontSize.Step = 1
	t.fontSize.OnChanged = func(v float64) {
		if t.syncing || t.focused == "" {
			return
		}
		if err := ed.SetFontSize(t.focused, v); err == nil {
			t.edited()
		}
	}

	t.text = widget.NewMultiLineEntry()
	t.text.SetPlaceHolder("Select or create a text box")
	t.text.Wrapping = fyne.TextWrapWord
	t.text.OnChanged = func(s string) {
		if t.syncing || t.focused == "" {
			return
		}
		if err := ed.SetText(t.focused, s); err == nil {
			t.edited()
		}
	}

	t.undo = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), func() {
		if ed.Undo() {
			t.edited()
		}
	})
	t.redo = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), func() {
		if ed.Redo() {
			t.edited()
		}
	})
	t.remove = widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		if t.focused != "" && ed.DeleteText(t.focused) {
			t.focused = ""
			t.edited()
		}
	})
	t.save = widget.NewButtonWithIcon("Save feedback", theme.DocumentSaveIcon(), func() {
		if t.OnSave != nil {
			t.OnSave()
		}
	})
	t.save.Importance = widget.HighImportance
	return t
}

func (t *Toolbar) edited() {
	t.Sync()
	if t.OnEdited != nil {
		t.OnEdited()
	}
}

// Sync pulls the editor's tool state into the controls. A box that lost
// focus is blurred, which drops it when it holds no text. Nothing happens
// mid-stroke or mid-gesture; releasing the pointer syncs again.
func (t *Toolbar) Sync() {
	if t.ed.Drawing() {
		return
	}
	t.syncing = true
	defer func() { t.syncing = false }()

	tools := t.ed.Tools()
	if t.focused != "" && t.focused != tools.ActiveText {
		t.ed.Blur(t.focused)
	}
	t.focused = tools.ActiveText

	for name, tool := range toolNames {
		if tool == tools.Tool {
			t.tools.SetSelected(name)
		}
	}
	t.width.SetValue(tools.Width)

	var active *state.TextAnnotation
	if t.focused != "" {
		for _, a := range t.ed.Texts(tools.ActivePage) {
			if a.ID == t.focused {
				active = &a
				break
			}
		}
	}
	if active == nil {
		t.text.SetText("")
		t.text.Disable()
		t.fontSize.Disable()
		t.remove.Disable()
	} else {
		if t.text.Text != active.Text {
			t.text.SetText(active.Text)
		}
		t.fontSize.SetValue(active.FontSize)
		t.text.Enable()
		t.fontSize.Enable()
		t.remove.Enable()
	}

	setEnabled(t.undo, t.ed.CanUndo())
	setEnabled(t.redo, t.ed.CanRedo())
}

// SetSaving locks the save button while an upload runs.
func (t *Toolbar) SetSaving(saving bool) {
	setEnabled(t.save, !saving)
}

func setEnabled(w fyne.Disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}

func (t *Toolbar) Object() fyne.CanvasObject {
	swatches := container.NewHBox()
	for _, hex := range palette {
		swatches.Add(newColorSwatch(state.MustParseColor(hex), func(c state.Color) {
			t.ed.SetColor(c)
			t.edited()
		}))
	}

	sized := func(o fyne.CanvasObject) fyne.CanvasObject {
		return container.New(layout.NewGridWrapLayout(fyne.NewSize(140, 35)), o)
	}

	row := container.NewHBox(
		t.tools,
		widget.NewSeparator(),
		swatches,
		widget.NewSeparator(),
		widget.NewLabel("Width:"),
		sized(t.width),
		widget.NewLabel("Font:"),
		sized(t.fontSize),
		widget.NewSeparator(),
		t.undo,
		t.redo,
		layout.NewSpacer(),
		t.save,
	)
	textRow := container.NewBorder(nil, nil, nil, t.remove, t.text)
	return container.NewVBox(row, textRow)
}
