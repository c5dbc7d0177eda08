// Package histogram accumulates 256-bin intensity histograms over
// masked image regions and round-trips them through the plain-text
// cache format shared across pipeline stages.
package histogram

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"fafscore/pkg/roi"
)

// Bins is the number of intensity bins, one per 8-bit gray value.
const Bins = 256

// Histogram holds pixel counts indexed by 8-bit intensity.
type Histogram [Bins]int64

// FromImage counts the intensities of all pixels included in mask.
// The sum of the bins equals the included pixel count.
func FromImage(img *image.Gray, mask *roi.Mask) (*Histogram, error) {
	b := img.Bounds()
	if b.Dx() != mask.Width || b.Dy() != mask.Height {
		return nil, fmt.Errorf("%w: mask is %dx%d, image is %dx%d",
			roi.ErrMaskDimensionMismatch, mask.Width, mask.Height, b.Dx(), b.Dy())
	}
	h := &Histogram{}
	for y := 0; y < mask.Height; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < mask.Width; x++ {
			if mask.At(x, y) {
				h[row[x]]++
			}
		}
	}
	return h, nil
}

// Total returns the number of pixels counted into the histogram.
func (h *Histogram) Total() int64 {
	var n int64
	for _, c := range h {
		n += c
	}
	return n
}

// Write emits the cache format: exactly 256 lines, one non-negative
// integer per line, newline-terminated, in bin order 0..255.
func (h *Histogram) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, count := range h {
		if _, err := fmt.Fprintln(bw, count); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile persists the histogram at path, creating parent
// directories as needed.
func (h *Histogram) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating histogram directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating histogram file: %w", err)
	}
	defer f.Close()
	if err := h.Write(f); err != nil {
		return fmt.Errorf("error writing histogram %s: %w", path, err)
	}
	return nil
}

// Read parses the cache format back into a histogram. Reading a
// written histogram reproduces the identical 256-bin sequence.
func Read(r io.Reader) (*Histogram, error) {
	h := &Histogram{}
	scanner := bufio.NewScanner(r)
	bin := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if bin >= Bins {
			return nil, fmt.Errorf("histogram has more than %d bins", Bins)
		}
		count, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad count in histogram bin %d: %w", bin, err)
		}
		if count < 0 {
			return nil, fmt.Errorf("negative count %d in histogram bin %d", count, bin)
		}
		h[bin] = count
		bin++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if bin != Bins {
		return nil, fmt.Errorf("histogram has %d bins, expected %d", bin, Bins)
	}
	return h, nil
}

// ReadFile loads a cached histogram from path.
func ReadFile(path string) (*Histogram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening histogram file: %w", err)
	}
	defer f.Close()
	h, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("error reading histogram %s: %w", path, err)
	}
	return h, nil
}

// FromImageCached returns the cached histogram at cachePath verbatim
// when reuse is requested and a nonempty cache file exists; otherwise
// it computes the histogram and persists it at cachePath. Both paths
// yield the same numeric contract.
func FromImageCached(img *image.Gray, mask *roi.Mask, cachePath string, reuseExisting bool) (*Histogram, error) {
	if reuseExisting {
		if info, err := os.Stat(cachePath); err == nil && info.Size() > 0 {
			return ReadFile(cachePath)
		}
	}
	h, err := FromImage(img, mask)
	if err != nil {
		return nil, err
	}
	if err := h.WriteFile(cachePath); err != nil {
		return nil, err
	}
	return h, nil
}
