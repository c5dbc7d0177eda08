package scoring

import (
	"image"
	"image/color"
)

// Render converts the score matrix to an RGBA illustration: dark
// deviations map to the red channel, light deviations to the blue one,
// each normalized to its own maximum. Very low values are clamped away
// and mid values lifted so the scoring map does not read as scattered
// black pixels. The clamping only affects the illustration, never the
// matrix itself.
func (m *Matrix) Render() *image.NRGBA {
	darkMax, lightMax := 0.0, 0.0
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if d := m.Dark(x, y); d > darkMax {
				darkMax = d
			}
			if l := m.Light(x, y); l > lightMax {
				lightMax = l
			}
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			dark, light := m.Dark(x, y), m.Light(x, y)
			if dark == 0 && light == 0 {
				continue
			}
			r := channelValue(dark, darkMax)
			b := channelValue(light, lightMax)
			var a uint8
			if r > 0 || b > 0 {
				a = 255
			}
			out.SetNRGBA(x, y, color.NRGBA{R: r, B: b, A: a})
		}
	}
	return out
}

// channelValue normalizes v against the channel maximum and applies
// the display clamping: below 20 drops to 0, below 100 lifts to 100.
func channelValue(v, channelMax float64) uint8 {
	if channelMax == 0 {
		return 0
	}
	c := int(v / channelMax * 255)
	switch {
	case c < 20:
		return 0
	case c < 100:
		return 100
	default:
		return uint8(c)
	}
}

// CropWindow returns the fovea-centered rectangle used to clip score
// illustrations, cropRadii expressed in multiples of the unit distance
// and the result clamped to the image bounds.
func CropWindow(foveaX, foveaY, unitDistance float64, cropRadii [2]float64, width, height int) image.Rectangle {
	x0 := clampInt(int(foveaX-cropRadii[0]*unitDistance), 0, width)
	x1 := clampInt(int(foveaX+cropRadii[0]*unitDistance), 0, width)
	y0 := clampInt(int(foveaY-cropRadii[1]*unitDistance), 0, height)
	y1 := clampInt(int(foveaY+cropRadii[1]*unitDistance), 0, height)
	return image.Rect(x0, y0, x1, y1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
