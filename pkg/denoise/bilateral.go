package denoise

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"grainable/internal/models"
	"grainable/internal/parallel"
)

// rangeBins is the resolution of the intensity-distance weight table
const rangeBins = 10000

// WindowSize returns the side of the square bilateral window for sigmaSpatial
func WindowSize(sigmaSpatial float64) int {
	return max(5, 2*int(math.Ceil(3*sigmaSpatial))+1)
}

// Bilateral filters img with Gaussian spatial and intensity kernels.
// Neighbours outside the image are excluded from the weighted mean.
func Bilateral(img *models.FloatImage, sigmaColor, sigmaSpatial float64) *models.FloatImage {
	out := models.NewFloatImage(img.Rows, img.Cols)
	if len(img.Pix) == 0 {
		return out
	}

	lo, hi := floats.Min(img.Pix), floats.Max(img.Pix)
	if hi-lo < flatRange {
		copy(out.Pix, img.Pix)
		return out
	}

	half := WindowSize(sigmaSpatial) / 2
	side := 2*half + 1

	spatial := make([]float64, side*side)
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+half)*side+dx+half] = math.Exp(-d2 / (2 * sigmaSpatial * sigmaSpatial))
		}
	}

	// Intensity distances are tabulated over [0, valueRange]
	valueRange := hi - lo
	colorLUT := make([]float64, rangeBins+1)
	for i := range colorLUT {
		d := float64(i) / rangeBins * valueRange
		colorLUT[i] = math.Exp(-d * d / (2 * sigmaColor * sigmaColor))
	}

	rows, cols := img.Rows, img.Cols
	parallel.Rows(rows, func(r int) {
		for c := 0; c < cols; c++ {
			centre := img.Pix[r*cols+c]
			var sum, norm float64
			for dy := -half; dy <= half; dy++ {
				y := r + dy
				if y < 0 || y >= rows {
					continue
				}
				base := y * cols
				srow := (dy + half) * side
				for dx := -half; dx <= half; dx++ {
					x := c + dx
					if x < 0 || x >= cols {
						continue
					}
					v := img.Pix[base+x]
					bin := int(math.Abs(v-centre) / valueRange * rangeBins)
					if bin > rangeBins {
						bin = rangeBins
					}
					w := spatial[srow+dx+half] * colorLUT[bin]
					sum += w * v
					norm += w
				}
			}
			out.Pix[r*cols+c] = sum / norm
		}
	})

	return out
}
