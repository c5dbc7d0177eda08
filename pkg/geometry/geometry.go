package geometry

import (
	"errors"
	"fmt"
	"math"
)

// peripapillaryOuterFactor is the fixed outer bound of the peripapillary
// ring, as a multiple of the disc exclusion radius.
const peripapillaryOuterFactor = 1.25

// ErrDegenerateGeometry indicates that the disc and fovea centers
// coincide, so no unit distance can be established for the image.
var ErrDegenerateGeometry = errors.New("degenerate geometry: disc and fovea centers coincide")

// ErrInvalidEllipse indicates a configured semi-axis pair with a < b,
// for which the focal distance would be imaginary. This is a
// configuration bug, not a per-image condition.
var ErrInvalidEllipse = errors.New("invalid ellipse: semi-major axis smaller than semi-minor axis")

// RatioConfig holds the geometry ratios shared by all images in a run.
// Every value is a multiple of the unit distance.
type RatioConfig struct {
	// DiscRadius is the radius of the exclusion circle around the
	// optic disc center.
	DiscRadius float64

	// FoveaRadius is the radius of the exclusion circle around the
	// fovea center.
	FoveaRadius float64

	// EllipseRadii are the (a, b) semi-axes of the inner ROI ellipse.
	EllipseRadii [2]float64

	// OuterEllipseRadii are the (a, b) semi-axes of the outer ROI ellipse.
	OuterEllipseRadii [2]float64
}

// DefaultRatios returns the ratios established for ABCA4 fundus images.
func DefaultRatios() RatioConfig {
	return RatioConfig{
		DiscRadius:        1.0 / 3.0,
		FoveaRadius:       1.0 / 9.0,
		EllipseRadii:      [2]float64{2, 1},
		OuterEllipseRadii: [2]float64{3, 2},
	}
}

// Validate checks that both ellipse radius pairs describe a physical
// ellipse. A failure here should abort the whole run, since every image
// would be wrong in the same way.
func (rc RatioConfig) Validate() error {
	for _, radii := range [][2]float64{rc.EllipseRadii, rc.OuterEllipseRadii} {
		if radii[0] < radii[1] {
			return fmt.Errorf("%w: a=%g b=%g", ErrInvalidEllipse, radii[0], radii[1])
		}
	}
	return nil
}

// Ellipse is a fully determined ROI ellipse: the two foci and the
// semi-major axis a. A point is inside when the sum of its distances to
// the foci does not exceed 2a.
type Ellipse struct {
	F1, F2 Vector
	A      float64
}

// Contains reports whether p lies inside or on the ellipse.
func (e Ellipse) Contains(p Vector) bool {
	return Distance(p, e.F1)+Distance(p, e.F2) <= 2*e.A
}

// Geometry derives all ROI measurements for one image from its two
// anatomical landmarks and the shared ratio configuration.
type Geometry struct {
	discCenter  Vector
	foveaCenter Vector
	unit        float64
	axis        Vector // unit vector, disc toward fovea
	ratios      RatioConfig
}

// New builds the geometry for one image. It fails with
// ErrDegenerateGeometry when the landmarks coincide and with
// ErrInvalidEllipse when the ratio configuration is non-physical.
func New(discCenter, foveaCenter Vector, ratios RatioConfig) (*Geometry, error) {
	if err := ratios.Validate(); err != nil {
		return nil, err
	}
	unit := Distance(discCenter, foveaCenter)
	if unit == 0 {
		return nil, fmt.Errorf("%w: disc=(%g,%g) fovea=(%g,%g)",
			ErrDegenerateGeometry, discCenter.X, discCenter.Y, foveaCenter.X, foveaCenter.Y)
	}
	return &Geometry{
		discCenter:  discCenter,
		foveaCenter: foveaCenter,
		unit:        unit,
		axis:        foveaCenter.Sub(discCenter).Normalized(),
		ratios:      ratios,
	}, nil
}

// DiscCenter returns the optic disc landmark.
func (g *Geometry) DiscCenter() Vector { return g.discCenter }

// FoveaCenter returns the fovea landmark.
func (g *Geometry) FoveaCenter() Vector { return g.foveaCenter }

// UnitDistance returns the disc-to-fovea pixel distance, the scale unit
// for all derived geometry.
func (g *Geometry) UnitDistance() float64 { return g.unit }

// DiscExclusionRadius returns the radius of the excluded circle around
// the disc center, in pixels.
func (g *Geometry) DiscExclusionRadius() float64 {
	return g.ratios.DiscRadius * g.unit
}

// FoveaExclusionRadius returns the radius of the excluded circle around
// the fovea center, in pixels.
func (g *Geometry) FoveaExclusionRadius() float64 {
	return g.ratios.FoveaRadius * g.unit
}

// Ellipse returns the inner ROI ellipse, or the outer one when outer is
// true. The ellipse is centered at the fovea with its major axis along
// the disc-to-fovea direction.
func (g *Geometry) Ellipse(outer bool) Ellipse {
	radii := g.ratios.EllipseRadii
	if outer {
		radii = g.ratios.OuterEllipseRadii
	}
	a := radii[0] * g.unit
	b := radii[1] * g.unit
	c := math.Sqrt(a*a - b*b)
	return Ellipse{
		F1: g.foveaCenter.Add(g.axis.Scale(c)),
		F2: g.foveaCenter.Sub(g.axis.Scale(c)),
		A:  a,
	}
}

// InsideDiscExclusion reports whether p falls strictly inside the
// excluded circle around the disc center.
func (g *Geometry) InsideDiscExclusion(p Vector) bool {
	return Distance(p, g.discCenter) < g.DiscExclusionRadius()
}

// InsideFoveaExclusion reports whether p falls strictly inside the
// excluded circle around the fovea center.
func (g *Geometry) InsideFoveaExclusion(p Vector) bool {
	return Distance(p, g.foveaCenter) < g.FoveaExclusionRadius()
}

// InPeripapillaryRing reports whether p lies in the annulus around the
// disc center, between the disc exclusion radius and 1.25 times that
// radius, both bounds inclusive.
func (g *Geometry) InPeripapillaryRing(p Vector) bool {
	d := Distance(p, g.discCenter)
	r := g.DiscExclusionRadius()
	return d >= r && d <= peripapillaryOuterFactor*r
}
