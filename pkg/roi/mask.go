// Package roi builds region-of-interest pixel masks for fundus images.
// A mask is derived data: it is recomputed from the landmarks, the
// geometry ratios and the exclusion inputs, and never mutated after
// construction.
package roi

import (
	"errors"
	"fmt"
	"image"
)

// Included is the raster value of an in-mask pixel.
const Included uint8 = 255

// ErrMaskDimensionMismatch indicates an exclusion mask whose shape
// disagrees with the source image. This strongly suggests an upstream
// pipeline desync, so it is reported loudly rather than resized away.
var ErrMaskDimensionMismatch = errors.New("mask dimensions do not match image dimensions")

// Shape selects the kind of region of interest a mask describes.
type Shape int

const (
	// Elliptic is the macula-centered elliptical ROI minus the disc
	// and fovea exclusion circles.
	Elliptic Shape = iota

	// PeripapillaryRing is the annulus around the optic disc.
	PeripapillaryRing
)

// String returns the name used for the shape in file stems and logs.
func (s Shape) String() string {
	switch s {
	case Elliptic:
		return "elliptic"
	case PeripapillaryRing:
		return "peripapillary"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// ParseShape maps a shape name to its Shape value.
func ParseShape(name string) (Shape, error) {
	switch name {
	case "elliptic":
		return Elliptic, nil
	case "peripapillary":
		return PeripapillaryRing, nil
	default:
		return 0, fmt.Errorf("unrecognized roi shape: %q", name)
	}
}

// Mask is a width x height grid of 0/255 pixel values, row-major,
// indexed the same way as the source image.
type Mask struct {
	Width, Height int
	Pix           []uint8
}

// NewMask returns an all-excluded mask of the given dimensions.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At reports whether the pixel at (x, y) is included.
func (m *Mask) At(x, y int) bool {
	return m.Pix[y*m.Width+x] != 0
}

// include marks the pixel at (x, y) as included.
func (m *Mask) include(x, y int) {
	m.Pix[y*m.Width+x] = Included
}

// IncludedCount returns the number of included pixels.
func (m *Mask) IncludedCount() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Intersect returns a new mask including exactly the pixels included in
// both m and other.
func (m *Mask) Intersect(other *Mask) (*Mask, error) {
	if other.Width != m.Width || other.Height != m.Height {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d",
			ErrMaskDimensionMismatch, other.Width, other.Height, m.Width, m.Height)
	}
	out := NewMask(m.Width, m.Height)
	for i, v := range m.Pix {
		if v != 0 && other.Pix[i] != 0 {
			out.Pix[i] = Included
		}
	}
	return out, nil
}

// FromGray converts a 0/255 grayscale raster into a mask. Any nonzero
// pixel counts as included.
func FromGray(img *image.Gray) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < m.Width; x++ {
			if row[x] != 0 {
				m.include(x, y)
			}
		}
	}
	return m
}
