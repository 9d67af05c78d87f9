package annot

import "math"

// PixelRect is a box in pixel units, with a top-left origin and a size.
type PixelRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r PixelRect) X2() float64 {
	return r.X + r.Width
}

func (r PixelRect) Y2() float64 {
	return r.Y + r.Height
}

// Normalize converts a pixel-space (x, y, w, h) box into a normalized two-corner box.
// The box is clipped to the image, so a box that overflows the right or bottom edge
// is shortened rather than rejected. The returned box has CodePresent.
func Normalize(x, y, w, h, width, height int) Box {
	x1 := clamp(x, 0, width)
	y1 := clamp(y, 0, height)
	x2 := clamp(x+w, x1, width)
	y2 := clamp(y+h, y1, height)
	fw := float64(width)
	fh := float64(height)
	return Box{
		X1:   float64(x1) / fw,
		Y1:   float64(y1) / fh,
		X2:   float64(x2) / fw,
		Y2:   float64(y2) / fh,
		Code: CodePresent,
	}
}

// Denormalize returns the pixel-space rectangle of b, for an image of the given size.
// Corners that land within snapEpsilon of a whole pixel are snapped to it, so that a box
// produced by Normalize from integer pixels comes back exactly.
func Denormalize(b Box, width, height int) PixelRect {
	fw := float64(width)
	fh := float64(height)
	x1 := snapPixel(b.X1 * fw)
	y1 := snapPixel(b.Y1 * fh)
	x2 := snapPixel(b.X2 * fw)
	y2 := snapPixel(b.Y2 * fh)
	return PixelRect{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

const snapEpsilon = 1e-9

func snapPixel(v float64) float64 {
	r := math.Round(v)
	if math.Abs(v-r) <= snapEpsilon {
		return r
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
