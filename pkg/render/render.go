// Package render draws the canonical boxes of a sample over both of its images,
// for eyeballing the output of the loader.
package render

import (
	"errors"
	"image"
	"io"

	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/dataset"
	"github.com/fogleman/gg"
)

// Imager is implemented by decoded images that can hand out their pixels
type Imager interface {
	ToImage() image.Image
}

var ErrNoPixels = errors.New("Sample images do not expose their pixels")

// SampleImages returns the visible and thermal pixels of a sample
func SampleImages(s *dataset.Sample) (image.Image, image.Image, error) {
	vis, ok1 := s.Visible.(Imager)
	lwir, ok2 := s.Thermal.(Imager)
	if !ok1 || !ok2 {
		return nil, nil, ErrNoPixels
	}
	return vis.ToImage(), lwir.ToImage(), nil
}

type rgb struct {
	r, g, b float64
}

// Colors per label
var (
	ColorBoth    = rgb{0, 0, 1}
	ColorVisible = rgb{1, 0, 0}
	ColorThermal = rgb{0, 1, 0}
	ColorIgnore  = rgb{0.6, 0.6, 0.6}
)

func codeColor(c annot.Code) rgb {
	switch c {
	case annot.CodeBoth:
		return ColorBoth
	case annot.CodeVisible:
		return ColorVisible
	case annot.CodeThermal:
		return ColorThermal
	}
	return ColorIgnore
}

// Frame draws the visible image on the left and the thermal image on the right,
// with every box after the sentinel drawn on both. Ignored boxes are dashed.
func Frame(vis, lwir image.Image, boxes []annot.Box) image.Image {
	vw, vh := vis.Bounds().Dx(), vis.Bounds().Dy()
	lw, lh := lwir.Bounds().Dx(), lwir.Bounds().Dy()
	dc := gg.NewContext(vw+lw, max(vh, lh))
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.DrawImage(vis, 0, 0)
	dc.DrawImage(lwir, vw, 0)
	drawBoxes(dc, boxes, 0, vw, vh)
	drawBoxes(dc, boxes, float64(vw), lw, lh)
	return dc.Image()
}

func drawBoxes(dc *gg.Context, boxes []annot.Box, offsetX float64, width, height int) {
	w := float64(width)
	h := float64(height)
	dc.SetLineWidth(2)
	for _, b := range boxes {
		if b.IsSentinel() {
			continue
		}
		c := codeColor(b.Code)
		dc.SetRGB(c.r, c.g, c.b)
		if b.Code == annot.CodeIgnore {
			dc.SetDash(4, 3)
		} else {
			dc.SetDash()
		}
		dc.DrawRectangle(offsetX+b.X1*w, b.Y1*h, (b.X2-b.X1)*w, (b.Y2-b.Y1)*h)
		dc.Stroke()
	}
	dc.SetDash()
}

// Sample renders a sample whose images implement Imager
func Sample(s *dataset.Sample) (image.Image, error) {
	vis, lwir, err := SampleImages(s)
	if err != nil {
		return nil, err
	}
	return Frame(vis, lwir, s.Rows), nil
}

// WritePNG encodes img as a PNG
func WritePNG(w io.Writer, img image.Image) error {
	return gg.NewContextForImage(img).EncodePNG(w)
}

// SavePNG writes img to a PNG file
func SavePNG(filename string, img image.Image) error {
	return gg.SavePNG(filename, img)
}
