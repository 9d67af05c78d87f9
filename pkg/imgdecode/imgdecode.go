// Package imgdecode decodes dataset JPEGs with cimg (libjpeg-turbo).
package imgdecode

import (
	"fmt"
	"image"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/pairedped/pkg/dataset"
)

// Image is a decoded dataset image
type Image struct {
	Width  int
	Height int
	// Either *image.RGBA or *image.Gray
	Pixels image.Image
}

func (i *Image) Size() (int, int) {
	return i.Width, i.Height
}

// Decoder implements dataset.ImageDecoder.
// Visible images are decoded to RGB, and thermal images to 8-bit gray.
type Decoder struct {
	// If true, thermal images keep all of their channels
	ThermalColor bool
}

func (d *Decoder) Decode(data []byte, modality dataset.Modality) (dataset.Image, error) {
	img, err := cimg.Decompress(data)
	if err != nil {
		return nil, err
	}
	nchan := img.NChan()
	if nchan != 1 && nchan != 3 && nchan != 4 {
		return nil, fmt.Errorf("Unsupported image with %v channels", nchan)
	}
	var pix image.Image
	if modality == dataset.Thermal && !d.ThermalColor {
		pix = ToGray(img)
	} else {
		pix = ToRGBA(img)
	}
	return &Image{
		Width:  img.Width,
		Height: img.Height,
		Pixels: pix,
	}, nil
}

// ToRGBA converts a 1, 3 or 4 channel cimg image to an image.RGBA.
// Multi channel images are assumed to be in RGB order.
// The image package has no 3 channel type, so this always copies.
func ToRGBA(src *cimg.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	nchan := src.NChan()
	for y := 0; y < src.Height; y++ {
		srcLine := src.Pixels[y*src.Stride:]
		dstLine := dst.Pix[y*dst.Stride:]
		for x := 0; x < src.Width; x++ {
			s := srcLine[x*nchan:]
			d := dstLine[x*4 : x*4+4]
			if nchan == 1 {
				d[0], d[1], d[2] = s[0], s[0], s[0]
			} else {
				d[0], d[1], d[2] = s[0], s[1], s[2]
			}
			d[3] = 255
		}
	}
	return dst
}

// ToGray converts a 1, 3 or 4 channel cimg image to an image.Gray,
// using ITU-R 601-2 luma weights.
// A single channel image is not copied: the result shares its pixels with src.
func ToGray(src *cimg.Image) *image.Gray {
	nchan := src.NChan()
	if nchan == 1 {
		return grayView(src.Pixels, src.Stride, src.Width, src.Height)
	}
	dst := image.NewGray(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		srcLine := src.Pixels[y*src.Stride:]
		dstLine := dst.Pix[y*dst.Stride:]
		for x := 0; x < src.Width; x++ {
			s := srcLine[x*nchan:]
			if nchan == 1 {
				dstLine[x] = s[0]
			} else {
				dstLine[x] = uint8((299*uint32(s[0]) + 587*uint32(s[1]) + 114*uint32(s[2]) + 500) / 1000)
			}
		}
	}
	return dst
}

func grayView(pix []byte, stride, width, height int) *image.Gray {
	return &image.Gray{
		Pix:    pix,
		Stride: stride,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// ToImage returns the decoded pixels
func (i *Image) ToImage() image.Image {
	return i.Pixels
}
