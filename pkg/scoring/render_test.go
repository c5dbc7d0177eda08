package scoring

import (
	"image"
	"testing"
)

// TestRenderChannels verifies the red/blue mapping and the display clamping
func TestRenderChannels(t *testing.T) {
	m := NewMatrix(4, 1)
	m.setDark(0, 0, 200) // channel max -> 255
	m.setDark(1, 0, 100) // half of max -> 127
	m.setDark(2, 0, 10)  // 12 after normalization -> clamped to 0
	m.setLight(3, 0, 50) // channel max -> 255

	out := m.Render()

	if c := out.NRGBAAt(0, 0); c.R != 255 || c.B != 0 || c.A != 255 {
		t.Errorf("Pixel 0: expected R=255 B=0 A=255, got %+v", c)
	}
	if c := out.NRGBAAt(1, 0); c.R != 127 || c.A != 255 {
		t.Errorf("Pixel 1: expected R=127 A=255, got %+v", c)
	}
	// A tiny value clamps away entirely, leaving a transparent pixel.
	if c := out.NRGBAAt(2, 0); c.R != 0 || c.A != 0 {
		t.Errorf("Pixel 2: expected clamped transparent pixel, got %+v", c)
	}
	if c := out.NRGBAAt(3, 0); c.B != 255 || c.R != 0 || c.A != 255 {
		t.Errorf("Pixel 3: expected B=255 R=0 A=255, got %+v", c)
	}
}

// TestRenderLiftsMidValues verifies the mid-range lift to 100
func TestRenderLiftsMidValues(t *testing.T) {
	m := NewMatrix(2, 1)
	m.setDark(0, 0, 255)
	m.setDark(1, 0, 50) // 50/255 of max -> 50, lifted to 100

	out := m.Render()
	if c := out.NRGBAAt(1, 0); c.R != 100 {
		t.Errorf("Expected mid value lifted to 100, got %d", c.R)
	}
}

// TestRenderEmptyMatrix verifies that an all-zero matrix renders fully
// transparent
func TestRenderEmptyMatrix(t *testing.T) {
	out := NewMatrix(3, 3).Render()
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if c := out.NRGBAAt(x, y); c.A != 0 || c.R != 0 || c.B != 0 {
				t.Fatalf("Expected transparent pixel at (%d,%d), got %+v", x, y, c)
			}
		}
	}
}

// TestCropWindow verifies the fovea-centered clipping window
func TestCropWindow(t *testing.T) {
	// Window fully inside the image.
	got := CropWindow(100, 100, 10, [2]float64{3, 2}, 400, 400)
	want := image.Rect(70, 80, 130, 120)
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}

	// Window clamped at the image edges.
	got = CropWindow(10, 10, 10, [2]float64{3, 2}, 40, 25)
	want = image.Rect(0, 0, 40, 25)
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
