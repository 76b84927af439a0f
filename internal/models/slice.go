package models

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ScanImage represents a full ice-core cross-section scan with metadata
type ScanImage struct {
	// ID is the sample identifier the scan was loaded for (e.g. "NEEM_3661_1")
	ID string

	// Width and Height are the dimensions of the scan in pixels
	Width  int
	Height int

	// Channels is the channel depth of the source raster (1 for grayscale)
	Channels int

	// BitDepth is the number of significant bits per sample in Gray (8 or 16)
	BitDepth int

	// Gray is the luminance plane in row-major order
	Gray []uint16

	// Source is the decoded raster, kept for raw-crop output
	Source image.Image
}

// MaxValue returns the largest representable gray value for the scan's bit depth
func (s *ScanImage) MaxValue() float64 {
	if s.BitDepth <= 0 || s.BitDepth > 16 {
		return 65535
	}
	return float64(uint32(1)<<uint(s.BitDepth) - 1)
}

// SliceWindow is one fixed-height horizontal strip of a ScanImage.
// It covers the row range [Start, Start+Length).
type SliceWindow struct {
	// Scan is the image this window views; it is never modified through the window
	Scan *ScanImage

	// Index is the position of this window in the tiling sequence
	Index int

	// Start is the first row of the window
	Start int

	// Length is the number of rows in the window
	Length int
}

// Rows returns the window height
func (w SliceWindow) Rows() int { return w.Length }

// Cols returns the window width, which is always the scan width
func (w SliceWindow) Cols() int { return w.Scan.Width }

// End returns the exclusive end row of the window
func (w SliceWindow) End() int { return w.Start + w.Length }

// Float converts the window to a floating point plane scaled to [0, 1]
func (w SliceWindow) Float() *FloatImage {
	cols := w.Cols()
	out := NewFloatImage(w.Length, cols)
	maxVal := w.Scan.MaxValue()
	src := w.Scan.Gray[w.Start*cols : w.End()*cols]
	for i, v := range src {
		out.Pix[i] = float64(v) / maxVal
	}
	return out
}

// Raw returns the window cut from the original raster, colour channels included.
// Scans without a source raster are rendered from the luminance plane.
func (w SliceWindow) Raw() image.Image {
	if w.Scan.Source == nil {
		cols := w.Cols()
		img := image.NewGray16(image.Rect(0, 0, cols, w.Length))
		maxVal := w.Scan.MaxValue()
		for y := 0; y < w.Length; y++ {
			for x := 0; x < cols; x++ {
				v := float64(w.Scan.Gray[(w.Start+y)*cols+x]) / maxVal
				img.SetGray16(x, y, color.Gray16{Y: uint16(v*65535 + 0.5)})
			}
		}
		return img
	}

	b := w.Scan.Source.Bounds()
	rect := image.Rect(b.Min.X, b.Min.Y+w.Start, b.Max.X, b.Min.Y+w.End())
	return imaging.Crop(w.Scan.Source, rect)
}
