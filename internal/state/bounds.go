package state

// Text box geometry, in page raster units.
const (
	TextBoxMinWidth      = 140
	TextBoxMinHeight     = 64
	TextBoxDefaultWidth  = 260
	TextBoxDefaultHeight = 120
	TextPaddingX         = 8
	TextPaddingY         = 4
)

// Box is an axis aligned rectangle in page-local coordinates.
type Box struct {
	X, Y, Width, Height float64
}

func (b Box) Right() float64  { return b.X + b.Width }
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Within reports whether the box lies inside a w×h page.
func (b Box) Within(w, h float64) bool {
	return b.X >= 0 && b.Y >= 0 && b.Right() <= w && b.Bottom() <= h
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// defaultBox places a new text box at p, shrinking the default size to the
// page and shifting it back inside the page when needed.
func defaultBox(p Point, pageW, pageH float64) Box {
	w := min(TextBoxDefaultWidth, pageW)
	h := min(TextBoxDefaultHeight, pageH)
	return Box{
		X:      clamp(p.X, 0, pageW-w),
		Y:      clamp(p.Y, 0, pageH-h),
		Width:  w,
		Height: h,
	}
}

// movedBox clamps a position so the whole box stays on the page.
func movedBox(b Box, x, y, pageW, pageH float64) Box {
	b.X = clamp(x, 0, max(0, pageW-b.Width))
	b.Y = clamp(y, 0, max(0, pageH-b.Height))
	return b
}

// resizedBox applies a new size, bounded by the page edge from the box's
// current position. The minimum size wins over the page bound; on pages
// smaller than the minimum the box is pinned to the origin side.
func resizedBox(b Box, w, h, pageW, pageH float64) Box {
	b.Width = max(TextBoxMinWidth, min(w, pageW-b.X))
	b.Height = max(TextBoxMinHeight, min(h, pageH-b.Y))
	return movedBox(b, b.X, b.Y, pageW, pageH)
}
