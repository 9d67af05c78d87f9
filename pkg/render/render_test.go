package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/dataset"
	"github.com/stretchr/testify/require"
)

type testImage struct {
	img image.Image
}

func (t *testImage) Size() (int, int) {
	return t.img.Bounds().Dx(), t.img.Bounds().Dy()
}

func (t *testImage) ToImage() image.Image {
	return t.img
}

func requireColor(t *testing.T, img image.Image, x, y int, want color.RGBA) {
	c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	require.InDelta(t, int(want.R), int(c.R), 40, "R at %v,%v", x, y)
	require.InDelta(t, int(want.G), int(c.G), 40, "G at %v,%v", x, y)
	require.InDelta(t, int(want.B), int(c.B), 40, "B at %v,%v", x, y)
}

func TestFrame(t *testing.T) {
	vis := image.NewRGBA(image.Rect(0, 0, 64, 48))
	lwir := image.NewGray(image.Rect(0, 0, 64, 48))
	boxes := []annot.Box{
		annot.Sentinel,
		{X1: 0.25, Y1: 0.25, X2: 0.75, Y2: 0.75, Code: annot.CodeBoth},
		{X1: 0.1, Y1: 0.1, X2: 0.2, Y2: 0.9, Code: annot.CodeThermal},
	}
	out := Frame(vis, lwir, boxes)
	require.Equal(t, 128, out.Bounds().Dx())
	require.Equal(t, 48, out.Bounds().Dy())

	blue := color.RGBA{0, 0, 255, 255}
	green := color.RGBA{0, 255, 0, 255}
	black := color.RGBA{0, 0, 0, 255}
	// Left edge of the "both" box, on both halves
	requireColor(t, out, 16, 24, blue)
	requireColor(t, out, 64+16, 24, blue)
	// Right edge of the thermal-only box
	requireColor(t, out, 12, 24, green)
	// Inside of a box is untouched
	requireColor(t, out, 32, 24, black)
	// The sentinel draws nothing at the origin
	requireColor(t, out, 0, 0, black)
}

func TestSampleAndPNG(t *testing.T) {
	s := &dataset.Sample{
		Visible: &testImage{image.NewRGBA(image.Rect(0, 0, 20, 10))},
		Thermal: &testImage{image.NewGray(image.Rect(0, 0, 20, 10))},
		Rows:    []annot.Box{annot.Sentinel},
	}
	img, err := Sample(s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 40, 10), decoded.Bounds())

	filename := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, SavePNG(filename, img))

	_, err = Sample(&dataset.Sample{})
	require.ErrorIs(t, err, ErrNoPixels)
}
