package ink

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"ReviewBoard/internal/state"
)

// capSteps is the number of polygon edges used for each round cap.
const capSteps = 16

// segmentMask rasterizes a round-capped line from a to b into an alpha mask
// covering the segment's whole bounding box, whose Min is the mask origin. A
// zero-length segment yields a dot. Callers clip against the overlay.
func segmentMask(a, b state.Point, width float64) (*image.Alpha, image.Rectangle) {
	r := max(width/2, 0.5)
	area := image.Rect(
		int(math.Floor(min(a.X, b.X)-r)), int(math.Floor(min(a.Y, b.Y)-r)),
		int(math.Ceil(max(a.X, b.X)+r)), int(math.Ceil(max(a.Y, b.Y)+r)),
	)

	z := vector.NewRasterizer(area.Dx(), area.Dy())
	ox, oy := float64(area.Min.X), float64(area.Min.Y)
	theta := 0.0
	if a != b {
		theta = math.Atan2(b.Y-a.Y, b.X-a.X)
	}
	pt := func(c state.Point, angle float64) (float32, float32) {
		return float32(c.X + r*math.Cos(angle) - ox), float32(c.Y + r*math.Sin(angle) - oy)
	}

	z.MoveTo(pt(b, theta-math.Pi/2))
	for i := 1; i <= capSteps; i++ {
		z.LineTo(pt(b, theta-math.Pi/2+math.Pi*float64(i)/capSteps))
	}
	for i := 0; i <= capSteps; i++ {
		z.LineTo(pt(a, theta+math.Pi/2+math.Pi*float64(i)/capSteps))
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, area.Dx(), area.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, area
}

// paint composes c through the mask over dst.
func paint(dst *image.RGBA, area image.Rectangle, mask *image.Alpha, c color.NRGBA) {
	clip := area.Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}
	draw.DrawMask(dst, clip, image.NewUniform(c), image.Point{}, mask, clip.Min.Sub(area.Min), draw.Over)
}

// erase removes coverage under the mask, whatever colour is there.
func erase(dst *image.RGBA, area image.Rectangle, mask *image.Alpha) {
	clip := area.Intersect(dst.Bounds())
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		for x := clip.Min.X; x < clip.Max.X; x++ {
			m := uint32(mask.AlphaAt(x-area.Min.X, y-area.Min.Y).A)
			if m == 0 {
				continue
			}
			keep := 255 - m
			i := dst.PixOffset(x, y)
			for k := 0; k < 4; k++ {
				dst.Pix[i+k] = uint8((uint32(dst.Pix[i+k])*keep + 127) / 255)
			}
		}
	}
}
