package ridge

import (
	"math"

	"grainable/internal/models"
	"grainable/internal/parallel"
)

// gaussianKernel returns a normalized 1D kernel truncated at four sigmas
func gaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// reflect maps an out-of-range index back into [0, n) mirroring about the
// edge with the edge sample repeated
func reflect(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

// smooth convolves img with a separable Gaussian of the given sigma
func smooth(img *models.FloatImage, sigma float64) *models.FloatImage {
	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2
	rows, cols := img.Rows, img.Cols

	tmp := models.NewFloatImage(rows, cols)
	parallel.Rows(rows, func(r int) {
		for c := 0; c < cols; c++ {
			var acc float64
			for k, w := range kernel {
				acc += w * img.Pix[r*cols+reflect(c+k-radius, cols)]
			}
			tmp.Pix[r*cols+c] = acc
		}
	})

	out := models.NewFloatImage(rows, cols)
	parallel.Rows(rows, func(r int) {
		for c := 0; c < cols; c++ {
			var acc float64
			for k, w := range kernel {
				acc += w * tmp.Pix[reflect(r+k-radius, rows)*cols+c]
			}
			out.Pix[r*cols+c] = acc
		}
	})
	return out
}

// gradient returns the derivatives along rows and columns using central
// differences inside the image and one-sided differences on its edges
func gradient(img *models.FloatImage) (dr, dc *models.FloatImage) {
	rows, cols := img.Rows, img.Cols
	dr = models.NewFloatImage(rows, cols)
	dc = models.NewFloatImage(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			dr.Pix[i] = diff(img.Pix, i, r, rows, cols)
			dc.Pix[i] = diff(img.Pix, i, c, cols, 1)
		}
	}
	return dr, dc
}

// diff differentiates pix at flat index i along an axis of length n where
// pos is the coordinate on that axis and stride the flat step between samples
func diff(pix []float64, i, pos, n, stride int) float64 {
	switch {
	case n < 2:
		return 0
	case pos == 0:
		return pix[i+stride] - pix[i]
	case pos == n-1:
		return pix[i] - pix[i-stride]
	default:
		return (pix[i+stride] - pix[i-stride]) / 2
	}
}
