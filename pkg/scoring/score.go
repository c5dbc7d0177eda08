// Package scoring computes the pixel score of a fundus image: the mean
// weighted absolute deviation of in-ROI pixel intensities from the
// corrected background mean. Dark deviations are weighted more heavily
// than bright ones, reflecting that hypo-autofluorescent lesions carry
// more signal in ABCA4-related retinopathy. The asymmetry is a
// domain-modeling decision.
package scoring

import (
	"errors"
	"fmt"
	"image"

	"fafscore/pkg/background"
	"fafscore/pkg/roi"
)

// ErrEmptyMask indicates a ROI mask selecting zero pixels, for which
// the score is undefined. The scorer fails rather than returning 0 or
// NaN silently.
var ErrEmptyMask = errors.New("roi mask selects no pixels")

// Weights are the per-direction deviation multipliers.
type Weights struct {
	// White scales deviations of pixels brighter than the corrected
	// background mean.
	White float64

	// Black scales deviations of darker pixels.
	Black float64
}

// DefaultWeights returns the established score weighting: dark
// deviations count tenfold.
func DefaultWeights() Weights {
	return Weights{White: 1, Black: 10}
}

// Matrix is an optional per-pixel diagnostic: channel 0 holds the dark
// deviation contribution, channel 1 the light one. Exactly one channel
// is nonzero for an in-mask pixel; both are zero outside the mask. A
// matrix is created fresh per scoring call and only ever rendered, not
// persisted.
type Matrix struct {
	Width, Height int
	data          []float64 // row-major, two channels per pixel
}

// NewMatrix returns a zeroed score matrix of the given dimensions.
func NewMatrix(width, height int) *Matrix {
	return &Matrix{
		Width:  width,
		Height: height,
		data:   make([]float64, width*height*2),
	}
}

// Dark returns the dark-deviation contribution at (x, y).
func (m *Matrix) Dark(x, y int) float64 {
	return m.data[(y*m.Width+x)*2]
}

// Light returns the light-deviation contribution at (x, y).
func (m *Matrix) Light(x, y int) float64 {
	return m.data[(y*m.Width+x)*2+1]
}

func (m *Matrix) setDark(x, y int, v float64)  { m.data[(y*m.Width+x)*2] = v }
func (m *Matrix) setLight(x, y int, v float64) { m.data[(y*m.Width+x)*2+1] = v }

// Score computes the pixel score of img over mask against the
// background model. When produceMatrix is true the per-pixel score
// matrix is returned alongside the scalar; otherwise the matrix is nil.
func Score(img *image.Gray, mask *roi.Mask, bg background.Params,
	weights Weights, produceMatrix bool) (float64, *Matrix, error) {

	b := img.Bounds()
	if b.Dx() != mask.Width || b.Dy() != mask.Height {
		return 0, nil, fmt.Errorf("%w: mask is %dx%d, image is %dx%d",
			roi.ErrMaskDimensionMismatch, mask.Width, mask.Height, b.Dx(), b.Dy())
	}

	var matrix *Matrix
	if produceMatrix {
		matrix = NewMatrix(mask.Width, mask.Height)
	}

	corrected := bg.CorrectedMean()
	sum := 0.0
	included := 0
	for y := 0; y < mask.Height; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < mask.Width; x++ {
			if !mask.At(x, y) {
				continue
			}
			included++
			v := float64(row[x])
			var contribution float64
			if v < corrected {
				contribution = weights.Black * (corrected - v)
				if matrix != nil {
					matrix.setDark(x, y, contribution)
				}
			} else {
				contribution = weights.White * (v - corrected)
				if matrix != nil {
					matrix.setLight(x, y, contribution)
				}
			}
			sum += contribution
		}
	}

	if included == 0 {
		return 0, nil, fmt.Errorf("%w: %dx%d image", ErrEmptyMask, mask.Width, mask.Height)
	}
	return sum / float64(included), matrix, nil
}
