package mixture

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"fafscore/pkg/histogram"
)

// syntheticHistogram bins n draws from a seeded normal distribution,
// clamped to the 8-bit intensity range.
func syntheticHistogram(mean, stdev float64, n int, seed uint64) *histogram.Histogram {
	dist := distuv.Normal{Mu: mean, Sigma: stdev, Src: rand.NewSource(seed)}
	h := &histogram.Histogram{}
	for i := 0; i < n; i++ {
		v := int(math.Round(dist.Rand()))
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		h[v]++
	}
	return h
}

// TestInsufficientData verifies the minimum-sample guard
func TestInsufficientData(t *testing.T) {
	h := &histogram.Histogram{}
	h[100] = MinSamples - 1
	_, err := NewFitter().Fit(h, []int{1})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("Expected ErrInsufficientData, got %v", err)
	}

	h[100] = MinSamples
	if _, err := NewFitter().Fit(h, []int{1}); err != nil {
		t.Fatalf("Expected a fit at exactly %d samples, got %v", MinSamples, err)
	}
}

// TestSingleGaussianRecovery verifies that a single-component fit
// recovers a tightly sampled background distribution
func TestSingleGaussianRecovery(t *testing.T) {
	h := syntheticHistogram(100, 3, 2000, 7)

	m, err := NewFitter().Fit(h, []int{1})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if len(m.Components) != 1 {
		t.Fatalf("Expected 1 component, got %d", len(m.Components))
	}
	c := m.Components[0]
	if math.Abs(c.Mean-100) > 1 {
		t.Errorf("Expected mean within 100±1, got %g", c.Mean)
	}
	if math.Abs(c.Stdev-3) > 1 {
		t.Errorf("Expected stdev within 3±1, got %g", c.Stdev)
	}
	if math.Abs(c.Weight-1) > 1e-9 {
		t.Errorf("Expected weight 1 for a sole component, got %g", c.Weight)
	}
	if m.SampleSize != 2000 {
		t.Errorf("Expected sample size 2000, got %d", m.SampleSize)
	}
}

// TestFitDeterminism verifies that repeated fits of the same histogram
// with the same candidates and seed are numerically identical
func TestFitDeterminism(t *testing.T) {
	h := syntheticHistogram(90, 12, 5000, 42)

	first, err := NewFitter().Fit(h, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("First fit failed: %v", err)
	}
	second, err := NewFitter().Fit(h, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("Second fit failed: %v", err)
	}

	if len(first.Components) != len(second.Components) {
		t.Fatalf("Selected component counts differ: %d vs %d",
			len(first.Components), len(second.Components))
	}
	if first.AIC != second.AIC {
		t.Errorf("AIC differs between runs: %g vs %g", first.AIC, second.AIC)
	}
	for i := range first.Components {
		if first.Components[i] != second.Components[i] {
			t.Errorf("Component %d differs between runs: %+v vs %+v",
				i, first.Components[i], second.Components[i])
		}
	}
}

// TestModelSelectionBimodal verifies that AIC picks two components for
// a clearly bimodal sample, with components sorted by ascending mean
func TestModelSelectionBimodal(t *testing.T) {
	h := &histogram.Histogram{}
	low := syntheticHistogram(60, 2, 1000, 11)
	high := syntheticHistogram(180, 2, 1000, 13)
	for i := range h {
		h[i] = low[i] + high[i]
	}

	m, err := NewFitter().Fit(h, []int{1, 2})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if len(m.Components) != 2 {
		t.Fatalf("Expected AIC to select 2 components, got %d", len(m.Components))
	}
	if m.Components[0].Mean >= m.Components[1].Mean {
		t.Errorf("Components not sorted by ascending mean: %g, %g",
			m.Components[0].Mean, m.Components[1].Mean)
	}
	if math.Abs(m.Components[0].Mean-60) > 2 {
		t.Errorf("Expected low mode near 60, got %g", m.Components[0].Mean)
	}
	if math.Abs(m.Components[1].Mean-180) > 2 {
		t.Errorf("Expected high mode near 180, got %g", m.Components[1].Mean)
	}

	weightSum := m.Components[0].Weight + m.Components[1].Weight
	if math.Abs(weightSum-1) > 1e-6 {
		t.Errorf("Component weights must sum to 1, got %g", weightSum)
	}
}

// TestDefaultCandidates verifies the 1..5 default candidate list
func TestDefaultCandidates(t *testing.T) {
	h := syntheticHistogram(120, 4, 1500, 5)
	m, err := NewFitter().Fit(h, nil)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if len(m.Components) < 1 || len(m.Components) > 5 {
		t.Errorf("Selected component count %d outside the default candidate range", len(m.Components))
	}
}

// TestRejectsNonPositiveComponentCount verifies candidate validation
func TestRejectsNonPositiveComponentCount(t *testing.T) {
	h := syntheticHistogram(100, 3, 500, 3)
	if _, err := NewFitter().Fit(h, []int{0}); err == nil {
		t.Error("Expected an error for a zero component count")
	}
}

// TestDegenerateSingleBin verifies a fit on a histogram concentrated in
// one bin: the mean is exact and the stdev collapses to the floor
func TestDegenerateSingleBin(t *testing.T) {
	h := &histogram.Histogram{}
	h[140] = 500

	m, err := NewFitter().Fit(h, []int{1})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	c := m.Components[0]
	if c.Mean != 140 {
		t.Errorf("Expected mean exactly 140, got %g", c.Mean)
	}
	if c.Stdev <= 0 || c.Stdev > 0.01 {
		t.Errorf("Expected a tiny positive stdev, got %g", c.Stdev)
	}
}
