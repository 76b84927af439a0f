// Package denoise smooths a slice while preserving grain boundaries and then
// equalizes its contrast locally.
package denoise

import "grainable/internal/models"

// Params controls the bilateral filter and the adaptive equalization
type Params struct {
	// SigmaColor is the intensity standard deviation, in [0,1] units
	SigmaColor float64

	// SigmaSpatial is the spatial standard deviation in pixels
	SigmaSpatial float64

	// ClipLimit bounds contrast amplification, normalized to [0,1]
	ClipLimit float64

	// TileGrid is the number of equalization tiles along each axis
	TileGrid int

	// Bins is the histogram resolution used for equalization
	Bins int
}

// DefaultParams returns the parameters used for ice-core scans
func DefaultParams() Params {
	return Params{
		SigmaColor:   0.05,
		SigmaSpatial: 15,
		ClipLimit:    0.03,
		TileGrid:     8,
		Bins:         256,
	}
}

// Denoise applies the bilateral filter followed by contrast limited adaptive
// histogram equalization. The result lies in [0,1]; a constant input is
// returned unchanged.
func Denoise(img *models.FloatImage, p Params) *models.FloatImage {
	return backend(img, p)
}

// Backend names the implementation compiled into the binary
func Backend() string { return backendName }
