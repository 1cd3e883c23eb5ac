package export

import (
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewBoard/internal/state"
)

func newCompositor(t *testing.T) *Compositor {
	t.Helper()
	ts, err := NewTypesetter()
	require.NoError(t, err)
	return NewCompositor(ts)
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func annotation(x, y, w, h, size float64, text string) state.TextAnnotation {
	return state.TextAnnotation{
		ID:       "text-1",
		Box:      state.Box{X: x, Y: y, Width: w, Height: h},
		Text:     text,
		FontSize: size,
		Color:    state.MustParseColor("#000000"),
	}
}

func TestCompose_UntouchedPageMatchesBase(t *testing.T) {
	c := newCompositor(t)
	base := gradient(64, 48)
	page := state.NewPage(base)

	tests := map[string]struct {
		overlay *image.RGBA
		texts   []state.TextAnnotation
	}{
		"no overlay":       {},
		"blank overlay":    {overlay: image.NewRGBA(base.Rect)},
		"whitespace only":  {texts: []state.TextAnnotation{annotation(4, 4, 40, 30, 12, " \n\t")}},
		"empty annotation": {overlay: image.NewRGBA(base.Rect), texts: []state.TextAnnotation{annotation(0, 0, 64, 48, 12, "")}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := c.Compose(page, tt.overlay, tt.texts)
			require.NoError(t, err)
			assert.Equal(t, base.Rect, out.Rect)
			assert.Equal(t, base.Pix, out.Pix)
		})
	}
}

func TestCompose_OverlayDrawnAtNativeScale(t *testing.T) {
	c := newCompositor(t)
	base := solid(20, 20, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	overlay := image.NewRGBA(base.Rect)
	overlay.SetRGBA(7, 3, color.RGBA{B: 255, A: 255})

	out, err := c.Compose(state.NewPage(base), overlay, nil)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, out.RGBAAt(7, 3))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(8, 3))
}

func TestCompose_TextStaysInsideItsBox(t *testing.T) {
	c := newCompositor(t)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	base := solid(300, 200, white)
	a := annotation(50, 40, 140, 64, 16, strings.Repeat("lorem ipsum dolor sit amet ", 12))

	out, err := c.Compose(state.NewPage(base), nil, []state.TextAnnotation{a})
	require.NoError(t, err)

	box := image.Rect(50, 40, 190, 104)
	inside, outside := 0, 0
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			if out.RGBAAt(x, y) == white {
				continue
			}
			if image.Pt(x, y).In(box) {
				inside++
			} else {
				outside++
			}
		}
	}
	assert.Positive(t, inside)
	assert.Zero(t, outside)
}

func TestCompose_ConcurrentCallsShareTypesetter(t *testing.T) {
	c := newCompositor(t)
	page := state.NewPage(solid(200, 120, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	texts := []state.TextAnnotation{
		annotation(10, 10, 180, 100, 14, "Check the units in step two and show the working"),
	}
	want, err := c.Compose(page, nil, texts)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				got, err := c.Compose(page, nil, texts)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, want.Pix, got.Pix)
			}
		}()
	}
	wg.Wait()
}
