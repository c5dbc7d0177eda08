// Package background characterizes the non-lesion baseline intensity
// of a fundus image from a background-sample histogram.
package background

import (
	"fmt"

	"fafscore/pkg/histogram"
	"fafscore/pkg/mixture"
)

// Params are the background distribution parameters consumed by the
// pixel scorer: the dominant Gaussian's mean and standard deviation,
// plus the additive gradient correction. The correction is a
// pipeline-wide calibration constant estimated offline from control
// histograms, not fitted per image.
type Params struct {
	Mean               float64
	Stdev              float64
	GradientCorrection float64
}

// CorrectedMean returns the background mean with the gradient
// correction applied.
func (p Params) CorrectedMean() float64 {
	return p.Mean + p.GradientCorrection
}

// FromHistogram fits a single-Gaussian model to the background-sample
// histogram and attaches the gradient correction. The fit goes through
// the same mixture code path as multi-component models, with the AIC
// selection degenerating to the sole candidate.
func FromHistogram(h *histogram.Histogram, gradientCorrection float64) (Params, error) {
	return FromHistogramFitter(mixture.NewFitter(), h, []int{1}, gradientCorrection)
}

// FromHistogramFitter is FromHistogram with a caller-configured fitter
// and candidate component counts, for runs that tune the EM settings or
// model a multimodal background sample. When the AIC-selected model has
// more than one component, the background is the heaviest one.
func FromHistogramFitter(f *mixture.Fitter, h *histogram.Histogram, componentCounts []int, gradientCorrection float64) (Params, error) {
	m, err := f.Fit(h, componentCounts)
	if err != nil {
		return Params{}, fmt.Errorf("background fit failed: %w", err)
	}
	c := m.Components[0]
	for _, cand := range m.Components[1:] {
		if cand.Weight > c.Weight {
			c = cand
		}
	}
	return Params{
		Mean:               c.Mean,
		Stdev:              c.Stdev,
		GradientCorrection: gradientCorrection,
	}, nil
}
