// Package tiling splits a scan into fixed-height overlapping strips.
package tiling

import (
	"fmt"
	"iter"
	"math"

	"grainable/internal/models"
	"grainable/pkg/imageio"
)

// Geometry describes how a scan is cut into windows
type Geometry struct {
	// Length is the height of every window in rows
	Length int

	// Overlap is the number of rows shared by consecutive windows
	Overlap int
}

// Stride is the row distance between consecutive window starts
func (g Geometry) Stride() int { return g.Length - g.Overlap }

// Validate rejects geometries that cannot produce a finite, advancing sequence
func (g Geometry) Validate() error {
	if g.Length <= 0 {
		return fmt.Errorf("window length must be positive, got %d", g.Length)
	}
	if g.Overlap < 0 || g.Overlap >= g.Length {
		return fmt.Errorf("overlap must be in [0, %d), got %d", g.Length, g.Overlap)
	}
	return nil
}

// Windows yields the windows of scan in order. Start rows are 0, stride,
// 2*stride... while the window fits; a trailing remainder shorter than
// Length is dropped. Ranging over the sequence again restarts it.
func Windows(scan *models.ScanImage, g Geometry) iter.Seq[models.SliceWindow] {
	return func(yield func(models.SliceWindow) bool) {
		if g.Validate() != nil || scan == nil {
			return
		}
		idx := 0
		for start := 0; start+g.Length <= scan.Height; start += g.Stride() {
			w := models.SliceWindow{Scan: scan, Index: idx, Start: start, Length: g.Length}
			if !yield(w) {
				return
			}
			idx++
		}
	}
}

// Crop returns every window of scan as a slice
func Crop(scan *models.ScanImage, length, overlap int) ([]models.SliceWindow, error) {
	g := Geometry{Length: length, Overlap: overlap}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	var out []models.SliceWindow
	for w := range Windows(scan, g) {
		out = append(out, w)
	}
	return out, nil
}

// ExpectedSlices returns floor((right-left-overlap)/(length-overlap)) for the
// usable pixel range of a slicing entry, clamped at zero
func ExpectedSlices(entry models.SlicingEntry, length, overlap int) int {
	stride := length - overlap
	if stride <= 0 {
		return 0
	}
	n := math.Floor((entry.PxRight - entry.PxLeft - float64(overlap)) / float64(stride))
	if n < 0 {
		return 0
	}
	return int(n)
}

// Load decodes the scan of sampleID from dir and reports how many slices its
// slicing entry announces.
//
// It fails with models.ErrInputNotFound when the table has no entry for the
// sample or no raster exists, and with models.ErrIOFailure when decoding fails.
func Load(sampleID, dir string, length, overlap int, table models.SlicingTable) (*models.ScanImage, int, error) {
	entry, ok := table[sampleID]
	if !ok {
		return nil, 0, fmt.Errorf("slicing entry for %s: %w", sampleID, models.ErrInputNotFound)
	}

	path, err := imageio.FindScan(dir, sampleID)
	if err != nil {
		return nil, 0, err
	}

	scan, err := imageio.LoadScan(path, sampleID)
	if err != nil {
		return nil, 0, err
	}

	return scan, ExpectedSlices(entry, length, overlap), nil
}
