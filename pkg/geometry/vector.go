// Package geometry provides the 2D vector math and the elliptical
// region-of-interest geometry used for fundus autofluorescence analysis.
// All derived lengths are expressed in multiples of the unit distance,
// the pixel distance between the optic disc center and the fovea center.
package geometry

import "math"

// Vector is an immutable 2D vector in image pixel coordinates
// (origin top-left, y pointing down).
type Vector struct {
	X, Y float64
}

// Add returns the vector sum v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{v.X + o.X, v.Y + o.Y}
}

// Sub returns the vector difference v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{v.X - o.X, v.Y - o.Y}
}

// Scale returns v multiplied by the scalar k.
func (v Vector) Scale(k float64) Vector {
	return Vector{v.X * k, v.Y * k}
}

// Dot returns the dot product of v and o.
func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z-component of the cross product of v and o.
func (v Vector) Cross(o Vector) float64 {
	return v.X*o.Y - v.Y*o.X
}

// Length returns the Euclidean norm of v.
func (v Vector) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalized returns the unit vector in the direction of v.
// The zero vector normalizes to the zero vector; callers dealing with
// landmark pairs must guard against coincident landmarks upstream.
func (v Vector) Normalized() Vector {
	n := v.Length()
	if n == 0 {
		return Vector{}
	}
	return Vector{v.X / n, v.Y / n}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vector) float64 {
	return a.Sub(b).Length()
}

// principalAngle returns the angle between u and v in [0, pi].
// The acos argument is clamped against values like -1.0000000000000002
// produced by rounding.
func principalAngle(u, v Vector) float64 {
	arg := u.Dot(v) / (u.Length() * v.Length())
	if arg > 1.0 {
		arg = 1.0
	}
	if arg < -1.0 {
		arg = -1.0
	}
	return math.Acos(arg)
}

// SignedAngle returns the angle from u to v in (-pi, pi], positive when
// the rotation from u to v is counterclockwise in the image coordinate
// frame.
func SignedAngle(u, v Vector) float64 {
	if u.Cross(v) >= 0 {
		return principalAngle(u, v)
	}
	return -principalAngle(u, v)
}

// UnsignedAngle returns the angle from u to v in [0, 2*pi).
func UnsignedAngle(u, v Vector) float64 {
	a := SignedAngle(u, v)
	if a >= 0 {
		return a
	}
	return 2*math.Pi + a
}
