package geometry

import (
	"errors"
	"math"
	"testing"
)

// TestNewDegenerateGeometry verifies that coincident landmarks are rejected
func TestNewDegenerateGeometry(t *testing.T) {
	p := Vector{X: 120, Y: 80}
	_, err := New(p, p, DefaultRatios())
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("Expected ErrDegenerateGeometry, got %v", err)
	}
}

// TestNewInvalidEllipse verifies that a < b ratio pairs are rejected
// as a configuration error
func TestNewInvalidEllipse(t *testing.T) {
	ratios := DefaultRatios()
	ratios.EllipseRadii = [2]float64{1, 2}
	_, err := New(Vector{}, Vector{X: 100}, ratios)
	if !errors.Is(err, ErrInvalidEllipse) {
		t.Fatalf("Expected ErrInvalidEllipse, got %v", err)
	}

	ratios = DefaultRatios()
	ratios.OuterEllipseRadii = [2]float64{2, 3}
	_, err = New(Vector{}, Vector{X: 100}, ratios)
	if !errors.Is(err, ErrInvalidEllipse) {
		t.Fatalf("Expected ErrInvalidEllipse for outer radii, got %v", err)
	}
}

// TestUnitDistance verifies the scale unit and the derived exclusion radii
func TestUnitDistance(t *testing.T) {
	g, err := New(Vector{X: 0, Y: 0}, Vector{X: 30, Y: 40}, DefaultRatios())
	if err != nil {
		t.Fatalf("Failed to create geometry: %v", err)
	}
	if g.UnitDistance() != 50 {
		t.Errorf("Expected unit distance 50, got %g", g.UnitDistance())
	}
	if want := 50.0 / 3.0; math.Abs(g.DiscExclusionRadius()-want) > 1e-12 {
		t.Errorf("Expected disc exclusion radius %g, got %g", want, g.DiscExclusionRadius())
	}
	if want := 50.0 / 9.0; math.Abs(g.FoveaExclusionRadius()-want) > 1e-12 {
		t.Errorf("Expected fovea exclusion radius %g, got %g", want, g.FoveaExclusionRadius())
	}
}

// TestFociSymmetry verifies that the foci are symmetric about the fovea
// along the disc-to-fovea axis
func TestFociSymmetry(t *testing.T) {
	disc := Vector{X: 100, Y: 200}
	fovea := Vector{X: 340, Y: 140}
	g, err := New(disc, fovea, DefaultRatios())
	if err != nil {
		t.Fatalf("Failed to create geometry: %v", err)
	}

	for _, outer := range []bool{false, true} {
		e := g.Ellipse(outer)

		mid := e.F1.Add(e.F2).Scale(0.5)
		if Distance(mid, fovea) > 1e-9 {
			t.Errorf("outer=%v: foci midpoint (%g,%g) is not the fovea (%g,%g)",
				outer, mid.X, mid.Y, fovea.X, fovea.Y)
		}

		axis := fovea.Sub(disc)
		if c := axis.Cross(e.F1.Sub(fovea)); math.Abs(c) > 1e-6 {
			t.Errorf("outer=%v: focus not on the disc-fovea axis, cross=%g", outer, c)
		}

		if !e.Contains(fovea) {
			t.Errorf("outer=%v: fovea center must be inside its own ellipse", outer)
		}
	}
}

// TestEllipseContainment verifies boundary-inclusive containment along
// the major axis
func TestEllipseContainment(t *testing.T) {
	disc := Vector{X: 0, Y: 0}
	fovea := Vector{X: 100, Y: 0}
	g, err := New(disc, fovea, DefaultRatios())
	if err != nil {
		t.Fatalf("Failed to create geometry: %v", err)
	}
	e := g.Ellipse(false) // a = 200, b = 100, centered at (100,0)

	onBoundary := Vector{X: 300, Y: 0}
	if !e.Contains(onBoundary) {
		t.Error("Point on the ellipse boundary must be contained")
	}
	outside := Vector{X: 301, Y: 0}
	if e.Contains(outside) {
		t.Error("Point outside the ellipse must not be contained")
	}
	inside := Vector{X: 100, Y: 99}
	if !e.Contains(inside) {
		t.Error("Point inside the ellipse must be contained")
	}
}

// TestPeripapillaryRing verifies the annulus test with inclusive bounds
func TestPeripapillaryRing(t *testing.T) {
	disc := Vector{X: 0, Y: 0}
	fovea := Vector{X: 120, Y: 0}
	g, err := New(disc, fovea, DefaultRatios())
	if err != nil {
		t.Fatalf("Failed to create geometry: %v", err)
	}
	r := g.DiscExclusionRadius() // 40

	cases := []struct {
		name string
		d    float64
		want bool
	}{
		{"inside disc", r - 1, false},
		{"inner boundary", r, true},
		{"mid ring", 1.1 * r, true},
		{"outer boundary", 1.25 * r, true},
		{"past outer boundary", 1.25*r + 1, false},
	}
	for _, tc := range cases {
		p := Vector{X: tc.d, Y: 0}
		if got := g.InPeripapillaryRing(p); got != tc.want {
			t.Errorf("%s (d=%g): expected %v, got %v", tc.name, tc.d, tc.want, got)
		}
	}
}

// TestExclusionCircles verifies the strict interiors of the disc and
// fovea exclusion circles
func TestExclusionCircles(t *testing.T) {
	disc := Vector{X: 0, Y: 0}
	fovea := Vector{X: 90, Y: 0}
	g, err := New(disc, fovea, DefaultRatios())
	if err != nil {
		t.Fatalf("Failed to create geometry: %v", err)
	}

	if !g.InsideDiscExclusion(disc) {
		t.Error("Disc center must be inside its own exclusion circle")
	}
	if !g.InsideFoveaExclusion(fovea) {
		t.Error("Fovea center must be inside its own exclusion circle")
	}
	// A point exactly on the circle is not in the strict interior.
	onDisc := Vector{X: g.DiscExclusionRadius(), Y: 0}
	if g.InsideDiscExclusion(onDisc) {
		t.Error("Point on the disc exclusion boundary is not inside it")
	}
}
