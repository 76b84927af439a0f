//go:build !gocv

package denoise

import "grainable/internal/models"

const backendName = "go"

func backend(img *models.FloatImage, p Params) *models.FloatImage {
	return EqualizeAdaptive(Bilateral(img, p.SigmaColor, p.SigmaSpatial), p.ClipLimit, p.TileGrid, p.Bins)
}
