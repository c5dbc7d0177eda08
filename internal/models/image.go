// Package models holds the immutable value types describing a fundus
// image and its anatomical landmarks. Records are validated once at
// the boundary; the scoring packages only ever see valid landmarks.
package models

import (
	"errors"
	"fmt"

	"fafscore/pkg/geometry"
)

// ErrMissingLandmarks indicates a record with an absent disc or fovea
// coordinate. Such an image cannot be scored.
var ErrMissingLandmarks = errors.New("missing landmark coordinates")

// Landmarks are the validated disc and fovea centers of one image, in
// pixel coordinates.
type Landmarks struct {
	DiscX, DiscY   int
	FoveaX, FoveaY int
}

// DiscCenter returns the optic disc center as a vector.
func (l Landmarks) DiscCenter() geometry.Vector {
	return geometry.Vector{X: float64(l.DiscX), Y: float64(l.DiscY)}
}

// FoveaCenter returns the fovea center as a vector.
func (l Landmarks) FoveaCenter() geometry.Vector {
	return geometry.Vector{X: float64(l.FoveaX), Y: float64(l.FoveaY)}
}

// ImageRecord is one manifest entry: an image identity, its file
// paths, and the landmark coordinates. Coordinates are pointers so an
// absent value is distinguishable from zero.
type ImageRecord struct {
	// Alias identifies the image (typically case alias plus eye and
	// visit) in stores, work files and failure reports.
	Alias string `yaml:"alias"`

	// ImagePath is the grayscale FAF image.
	ImagePath string `yaml:"imagePath"`

	// UsableRegionPath is an optional artifact-free-region annotation
	// (flag in the blue channel). Empty means all pixels usable.
	UsableRegionPath string `yaml:"usableRegionPath,omitempty"`

	// VasculaturePath is an optional detected-blood-vessel mask.
	// Empty means no vessel exclusion.
	VasculaturePath string `yaml:"vasculaturePath,omitempty"`

	// BgSamplePath is the background-sample region annotation (flag in
	// the blue channel) used to estimate the background distribution.
	BgSamplePath string `yaml:"bgSamplePath"`

	DiscX  *int `yaml:"discX"`
	DiscY  *int `yaml:"discY"`
	FoveaX *int `yaml:"foveaX"`
	FoveaY *int `yaml:"foveaY"`
}

// Landmarks validates the coordinate fields. It fails with
// ErrMissingLandmarks naming the record and the absent coordinate.
func (r ImageRecord) Landmarks() (Landmarks, error) {
	coords := map[string]*int{
		"discX": r.DiscX, "discY": r.DiscY,
		"foveaX": r.FoveaX, "foveaY": r.FoveaY,
	}
	for _, name := range []string{"discX", "discY", "foveaX", "foveaY"} {
		if coords[name] == nil {
			return Landmarks{}, fmt.Errorf("%w: %s absent for %s", ErrMissingLandmarks, name, r.Alias)
		}
	}
	return Landmarks{
		DiscX:  *r.DiscX,
		DiscY:  *r.DiscY,
		FoveaX: *r.FoveaX,
		FoveaY: *r.FoveaY,
	}, nil
}
