package dataset

import (
	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/pairing"
)

// Image is a decoded image. The dataset only needs to know its size.
type Image interface {
	Size() (width, height int)
}

// ImageDecoder turns the raw bytes of an image file into an Image.
// Thermal images are expected to come out as single channel.
type ImageDecoder interface {
	Decode(data []byte, modality Modality) (Image, error)
}

// Frame is the unit of work that flows through a Transform.
// A nil box slice means that the modality has been dropped, which is
// different to an empty (sentinel only) slice.
type Frame struct {
	Visible      Image
	Thermal      Image
	VisibleBoxes []annot.Box
	ThermalBoxes []annot.Box
	Pairing      pairing.Pairing
}

// Transform is a geometric/photometric augmentation applied jointly to both images
// and both box sets. It may modify the frame in place, or return a new one.
// Box order and sentinel placement need not be kept: after the transform, each
// non-nil box set is rebuilt with a single sentinel at index 0.
type Transform interface {
	Apply(f *Frame) (*Frame, error)
}

// TransformFunc adapts a function to the Transform interface
type TransformFunc func(f *Frame) (*Frame, error)

func (fn TransformFunc) Apply(f *Frame) (*Frame, error) {
	return fn(f)
}

// Pipeline runs transforms in order
type Pipeline []Transform

func (p Pipeline) Apply(f *Frame) (*Frame, error) {
	var err error
	for _, t := range p {
		f, err = t.Apply(f)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}
