// Package mixture fits 1-D Gaussian mixtures to pixel-intensity
// histograms. Candidate component counts are fitted by
// expectation-maximization and the model with the lowest Akaike
// information criterion is selected. Fits are fully deterministic for a
// given histogram, candidate list and seed, so downstream scores are
// reproducible across runs.
package mixture

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"fafscore/pkg/histogram"
)

// MinSamples is the smallest sample count for which a mixture fit is
// attempted. Fits on tiny samples are unreliable.
const MinSamples = 100

// ErrInsufficientData indicates a histogram with too few counted
// pixels to support a mixture fit.
var ErrInsufficientData = errors.New("too few samples to fit a Gaussian mixture")

// minVariance keeps component variances away from zero when a
// component collapses onto a single bin.
const minVariance = 1e-6

// Component is one Gaussian of a fitted mixture.
type Component struct {
	Mean   float64
	Stdev  float64
	Weight float64
}

// Mixture is a fitted model: its components sorted by ascending mean,
// the sample size implied by the source histogram, and the selection
// statistics.
type Mixture struct {
	Components    []Component
	SampleSize    int64
	LogLikelihood float64
	AIC           float64
}

// Fitter configures the EM procedure. The zero value is not usable;
// construct with NewFitter.
type Fitter struct {
	// MaxIterations caps the EM loop per candidate model.
	MaxIterations int

	// Tolerance stops the EM loop when the log-likelihood improvement
	// falls below Tolerance * (1 + |logL|).
	Tolerance float64

	// Seed fixes the small perturbation applied to the initial
	// component means, keeping fits reproducible.
	Seed uint64
}

// NewFitter returns a fitter with the defaults used throughout the
// pipeline.
func NewFitter() *Fitter {
	return &Fitter{
		MaxIterations: 10000,
		Tolerance:     1e-9,
		Seed:          314,
	}
}

// Fit selects the best mixture for h among the candidate component
// counts. When componentCounts is empty, counts 1 through 5 are tried.
// The minimum-AIC model wins; on a tie the earlier candidate is kept,
// so with counts in ascending order the smaller model is preferred.
func (f *Fitter) Fit(h *histogram.Histogram, componentCounts []int) (*Mixture, error) {
	n := h.Total()
	if n < MinSamples {
		return nil, fmt.Errorf("%w: %d samples, need at least %d", ErrInsufficientData, n, MinSamples)
	}
	if len(componentCounts) == 0 {
		componentCounts = []int{1, 2, 3, 4, 5}
	}

	// Collapse the histogram into (value, count) pairs; empty bins
	// contribute nothing to the weighted EM.
	var xs, ws []float64
	for v, count := range h {
		if count > 0 {
			xs = append(xs, float64(v))
			ws = append(ws, float64(count))
		}
	}

	var best *Mixture
	for _, k := range componentCounts {
		if k < 1 {
			return nil, fmt.Errorf("component count must be positive, got %d", k)
		}
		m := f.fit(xs, ws, n, k)
		if best == nil || m.AIC < best.AIC {
			best = m
		}
	}
	return best, nil
}

// fit runs weighted EM for a fixed component count k over the nonempty
// bins (xs values with ws counts, summing to n).
func (f *Fitter) fit(xs, ws []float64, n int64, k int) *Mixture {
	comps := f.initialComponents(xs, ws, k)

	resp := make([][]float64, k)
	for j := range resp {
		resp[j] = make([]float64, len(xs))
	}

	logL := math.Inf(-1)
	for iter := 0; iter < f.MaxIterations; iter++ {
		// E step: responsibilities and log-likelihood.
		newLogL := 0.0
		for i, x := range xs {
			total := 0.0
			for j, c := range comps {
				d := distuv.Normal{Mu: c.Mean, Sigma: c.Stdev}
				p := c.Weight * d.Prob(x)
				resp[j][i] = p
				total += p
			}
			if total <= 0 {
				// All densities underflowed for this bin; share it
				// evenly so the M step stays finite.
				for j := range comps {
					resp[j][i] = 1.0 / float64(k)
				}
				total = math.SmallestNonzeroFloat64
			} else {
				for j := range comps {
					resp[j][i] /= total
				}
			}
			newLogL += ws[i] * math.Log(total)
		}

		// M step: weighted component updates.
		for j := range comps {
			nj := 0.0
			mean := 0.0
			for i, x := range xs {
				w := resp[j][i] * ws[i]
				nj += w
				mean += w * x
			}
			if nj <= 0 {
				continue
			}
			mean /= nj
			variance := 0.0
			for i, x := range xs {
				d := x - mean
				variance += resp[j][i] * ws[i] * d * d
			}
			variance = variance/nj + minVariance
			comps[j] = Component{
				Mean:   mean,
				Stdev:  math.Sqrt(variance),
				Weight: nj / float64(n),
			}
		}

		if math.Abs(newLogL-logL) < f.Tolerance*(1+math.Abs(newLogL)) {
			logL = newLogL
			break
		}
		logL = newLogL
	}

	sort.Slice(comps, func(a, b int) bool { return comps[a].Mean < comps[b].Mean })

	// AIC = 2p - 2 logL with p free parameters: k means, k variances
	// and k-1 independent weights.
	p := 3*k - 1
	return &Mixture{
		Components:    comps,
		SampleSize:    n,
		LogLikelihood: logL,
		AIC:           2*float64(p) - 2*logL,
	}
}

// initialComponents seeds EM with means at evenly spaced weighted
// quantiles of the sample, the pooled standard deviation, and uniform
// weights. A tiny seeded perturbation separates the means when the
// sample has fewer distinct values than components.
func (f *Fitter) initialComponents(xs, ws []float64, k int) []Component {
	rng := rand.New(rand.NewSource(f.Seed))

	pooledMean := stat.Mean(xs, ws)
	pooledStdev := math.Sqrt(stat.Variance(xs, ws) + minVariance)

	total := 0.0
	for _, w := range ws {
		total += w
	}

	comps := make([]Component, k)
	for j := 0; j < k; j++ {
		target := (float64(j) + 0.5) / float64(k) * total
		mean := pooledMean
		cum := 0.0
		for i, w := range ws {
			cum += w
			if cum >= target {
				mean = xs[i]
				break
			}
		}
		comps[j] = Component{
			Mean:   mean + 1e-3*(rng.Float64()-0.5),
			Stdev:  pooledStdev,
			Weight: 1.0 / float64(k),
		}
	}
	return comps
}
