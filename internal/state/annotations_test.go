package state

import (
	"fmt"
	"image"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayer(t *testing.T, sizes ...image.Point) *TextLayer {
	t.Helper()
	pages := make([]Page, len(sizes))
	for i, s := range sizes {
		pages[i] = NewPage(image.NewRGBA(image.Rect(0, 0, s.X, s.Y)))
	}
	l := NewTextLayer(pages, zerolog.Nop())
	n := 0
	l.SetIDSource(func() string {
		n++
		return fmt.Sprintf("text-%d", n)
	})
	return l
}

func TestTextLayer_CreateClampsDefaultBox(t *testing.T) {
	l := testLayer(t, image.Pt(800, 600))

	a, err := l.Create(0, Point{X: 700, Y: 550}, 16, DefaultColor)
	require.NoError(t, err)
	assert.Equal(t, "text-1", a.ID)
	assert.Equal(t, Box{X: 540, Y: 480, Width: 260, Height: 120}, a.Box)
	assert.Equal(t, "", a.Text)
	assert.Equal(t, DefaultColor.Hex(), a.Color.Hex())
}

func TestTextLayer_CreateOnSmallPage(t *testing.T) {
	l := testLayer(t, image.Pt(200, 100))

	a, err := l.Create(0, Point{X: 50, Y: 50}, 16, DefaultColor)
	require.NoError(t, err)
	assert.Equal(t, Box{X: 0, Y: 0, Width: 200, Height: 100}, a.Box)
}

func TestTextLayer_CreateUnknownPage(t *testing.T) {
	l := testLayer(t, image.Pt(100, 100))
	_, err := l.Create(3, Point{}, 16, DefaultColor)
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestTextLayer_DragStaysOnPage(t *testing.T) {
	l := testLayer(t, image.Pt(800, 600))
	a, err := l.Create(0, Point{X: 100, Y: 100}, 16, DefaultColor)
	require.NoError(t, err)

	require.NoError(t, l.BeginDrag(a.ID, Point{X: 110, Y: 105}))

	moved, ok := l.DragTo(Point{X: 210, Y: 305})
	require.True(t, ok)
	assert.Equal(t, 200.0, moved.X)
	assert.Equal(t, 300.0, moved.Y)

	for _, p := range []Point{{-500, -500}, {5000, 5000}, {-10, 9000}, {9000, -10}} {
		moved, ok = l.DragTo(p)
		require.True(t, ok)
		assert.True(t, moved.Within(800, 600), "box %+v escaped the page", moved.Box)
	}

	l.EndGesture()
	_, ok = l.DragTo(Point{X: 1, Y: 1})
	assert.False(t, ok)
}

func TestTextLayer_ResizeBounds(t *testing.T) {
	l := testLayer(t, image.Pt(800, 600))
	a, err := l.Create(0, Point{X: 100, Y: 100}, 16, DefaultColor)
	require.NoError(t, err)

	require.NoError(t, l.BeginResize(a.ID, Point{X: 360, Y: 220}))

	grown, ok := l.ResizeTo(Point{X: 400, Y: 260})
	require.True(t, ok)
	assert.Equal(t, 300.0, grown.Width)
	assert.Equal(t, 160.0, grown.Height)

	shrunk, _ := l.ResizeTo(Point{X: -1000, Y: -1000})
	assert.Equal(t, float64(TextBoxMinWidth), shrunk.Width)
	assert.Equal(t, float64(TextBoxMinHeight), shrunk.Height)

	huge, _ := l.ResizeTo(Point{X: 5000, Y: 5000})
	assert.Equal(t, 700.0, huge.Width)
	assert.Equal(t, 500.0, huge.Height)
	assert.True(t, huge.Within(800, 600))
}

func TestTextLayer_GeometryInvariants(t *testing.T) {
	l := testLayer(t, image.Pt(640, 480))
	a, err := l.Create(0, Point{X: 320, Y: 240}, 16, DefaultColor)
	require.NoError(t, err)

	pointers := []Point{{0, 0}, {640, 480}, {-300, 100}, {900, -40}, {320, 240}, {1, 479}}
	for i, p := range pointers {
		if i%2 == 0 {
			require.NoError(t, l.BeginDrag(a.ID, Point{X: 320, Y: 240}))
			l.DragTo(p)
		} else {
			require.NoError(t, l.BeginResize(a.ID, Point{X: 320, Y: 240}))
			l.ResizeTo(p)
		}
		l.EndGesture()

		got, ok := l.Get(a.ID)
		require.True(t, ok)
		assert.True(t, got.Within(640, 480), "step %d: %+v", i, got.Box)
		assert.GreaterOrEqual(t, got.Width, float64(TextBoxMinWidth))
		assert.GreaterOrEqual(t, got.Height, float64(TextBoxMinHeight))
	}
}

func TestTextLayer_EditAndDelete(t *testing.T) {
	l := testLayer(t, image.Pt(800, 600), image.Pt(800, 600))
	a, _ := l.Create(0, Point{}, 16, DefaultColor)
	b, _ := l.Create(1, Point{}, 16, DefaultColor)
	c, _ := l.Create(0, Point{X: 300}, 16, DefaultColor)

	require.NoError(t, l.SetText(a.ID, "Good job"))
	require.NoError(t, l.SetFontSize(a.ID, 500))
	require.NoError(t, l.SetColor(a.ID, MustParseColor("#00ff00")))

	got, _ := l.Get(a.ID)
	assert.Equal(t, "Good job", got.Text)
	assert.Equal(t, float64(MaxFontSize), got.FontSize)
	assert.Equal(t, "#00ff00", got.Color.Hex())

	page0 := l.ForPage(0)
	require.Len(t, page0, 2)
	assert.Equal(t, a.ID, page0[0].ID)
	assert.Equal(t, c.ID, page0[1].ID)

	assert.True(t, l.Delete(b.ID))
	assert.False(t, l.Delete(b.ID))
	assert.ErrorIs(t, l.SetText(b.ID, "x"), ErrUnknownAnnotation)
	assert.Equal(t, 2, l.Len())
}

func TestTextLayer_BlurDropsEmptyBoxes(t *testing.T) {
	l := testLayer(t, image.Pt(800, 600))
	empty, _ := l.Create(0, Point{}, 16, DefaultColor)
	blank, _ := l.Create(0, Point{}, 16, DefaultColor)
	full, _ := l.Create(0, Point{}, 16, DefaultColor)
	require.NoError(t, l.SetText(blank.ID, "  \n "))
	require.NoError(t, l.SetText(full.ID, "note"))

	assert.True(t, l.Blur(empty.ID))
	assert.True(t, l.Blur(blank.ID))
	assert.False(t, l.Blur(full.ID))

	all := l.All()
	require.Len(t, all, 1)
	assert.Equal(t, full.ID, all[0].ID)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#FF2D55")
	require.NoError(t, err)
	assert.Equal(t, "#ff2d55", c.Hex())
	assert.Equal(t, uint8(0x2d), c.NRGBA().G)

	short, err := ParseColor("#0f0")
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", short.Hex())

	_, err = ParseColor("red")
	assert.Error(t, err)

	var zero Color
	assert.Equal(t, DefaultColor.Hex(), zero.Hex())
}

func TestDefaultFontSize(t *testing.T) {
	assert.Equal(t, 16.0, DefaultFontSize(1))
	assert.Equal(t, 40.0, DefaultFontSize(10))
	assert.Equal(t, 96.0, DefaultFontSize(24))
}
