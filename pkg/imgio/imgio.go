// Package imgio decodes fundus images and auxiliary masks into the
// pixel grids the scoring core consumes, and saves rendered
// illustrations. Supported formats are PNG, JPEG and TIFF; FAF exports
// are commonly TIFF. Images are never resized here; dimension checks
// live with the consumers.
package imgio

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	_ "image/jpeg"

	_ "golang.org/x/image/tiff"

	"fafscore/pkg/roi"
)

// LoadGray decodes the image at path into an 8-bit grayscale grid.
// Color inputs are converted channel-weighted, matching the usual
// luminance conversion.
func LoadGray(path string) (*image.Gray, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	if gray, ok := img.(*image.Gray); ok {
		return gray, nil
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray, nil
}

// LoadGrayMask decodes a 0/255 grayscale raster at path into a mask;
// any nonzero pixel counts as included. Used for vasculature and
// precomputed ROI masks.
func LoadGrayMask(path string) (*roi.Mask, error) {
	gray, err := LoadGray(path)
	if err != nil {
		return nil, err
	}
	return roi.FromGray(gray), nil
}

// LoadChannelMask decodes an RGBA annotation at path and thresholds a
// single channel (0=R, 1=G, 2=B, 3=A) into a mask. Usable-region and
// background-sample annotations store their flag in the blue channel.
func LoadChannelMask(path string, channel int) (*roi.Mask, error) {
	if channel < 0 || channel > 3 {
		return nil, fmt.Errorf("channel must be 0..3, got %d", channel)
	}
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	mask := roi.NewMask(b.Dx(), b.Dy())
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if nrgba.Pix[nrgba.PixOffset(x, y)+channel] != 0 {
				mask.Pix[y*mask.Width+x] = roi.Included
			}
		}
	}
	return mask, nil
}

// SavePNG writes img as a PNG at path, creating parent directories as
// needed.
func SavePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	return nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening image %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("error decoding image %s: %w", path, err)
	}
	return img, nil
}
