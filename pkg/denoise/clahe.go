package denoise

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"grainable/internal/models"
	"grainable/internal/parallel"
)

// flatRange is the intensity span below which an image is treated as constant
const flatRange = 1e-9

// EqualizeAdaptive performs contrast limited adaptive histogram equalization
// on a grid x grid tiling of img. The input is rescaled to [0,1] first; tile
// mappings are interpolated bilinearly between tile centres. A constant image
// is returned unchanged.
func EqualizeAdaptive(img *models.FloatImage, clipLimit float64, grid, bins int) *models.FloatImage {
	out := models.NewFloatImage(img.Rows, img.Cols)
	if len(img.Pix) == 0 {
		return out
	}

	lo, hi := floats.Min(img.Pix), floats.Max(img.Pix)
	if hi-lo < flatRange {
		copy(out.Pix, img.Pix)
		return out
	}

	rows, cols := img.Rows, img.Cols
	scaled := make([]int, len(img.Pix))
	for i, v := range img.Pix {
		b := int((v - lo) / (hi - lo) * float64(bins))
		if b >= bins {
			b = bins - 1
		}
		scaled[i] = b
	}

	th := (rows + grid - 1) / grid
	tw := (cols + grid - 1) / grid
	ny := (rows + th - 1) / th
	nx := (cols + tw - 1) / tw

	// maps[ty][tx][bin] is the equalized value of bin inside tile (ty, tx)
	maps := make([][][]float64, ny)
	for ty := 0; ty < ny; ty++ {
		maps[ty] = make([][]float64, nx)
		for tx := 0; tx < nx; tx++ {
			r0, r1 := ty*th, min((ty+1)*th, rows)
			c0, c1 := tx*tw, min((tx+1)*tw, cols)
			hist := make([]float64, bins)
			for r := r0; r < r1; r++ {
				for c := c0; c < c1; c++ {
					hist[scaled[r*cols+c]]++
				}
			}
			area := float64((r1 - r0) * (c1 - c0))
			clipHistogram(hist, math.Max(clipLimit*area, 1))
			cdf := floats.CumSum(make([]float64, bins), hist)
			for i := range cdf {
				cdf[i] /= area
			}
			maps[ty][tx] = cdf
		}
	}

	parallel.Rows(rows, func(r int) {
		fy := (float64(r)+0.5)/float64(th) - 0.5
		y0, y1, wy := neighbours(fy, ny)
		for c := 0; c < cols; c++ {
			fx := (float64(c)+0.5)/float64(tw) - 0.5
			x0, x1, wx := neighbours(fx, nx)
			b := scaled[r*cols+c]
			top := (1-wx)*maps[y0][x0][b] + wx*maps[y0][x1][b]
			bottom := (1-wx)*maps[y1][x0][b] + wx*maps[y1][x1][b]
			v := (1-wy)*top + wy*bottom
			out.Pix[r*cols+c] = math.Min(math.Max(v, 0), 1)
		}
	})

	return out
}

// neighbours returns the two tile indices around the fractional tile
// coordinate f and the weight of the second one
func neighbours(f float64, n int) (int, int, float64) {
	if f <= 0 {
		return 0, 0, 0
	}
	i0 := int(math.Floor(f))
	if i0 >= n-1 {
		return n - 1, n - 1, 0
	}
	return i0, i0 + 1, f - float64(i0)
}

// clipHistogram caps every bin at limit and spreads the excess evenly
func clipHistogram(hist []float64, limit float64) {
	var excess float64
	for i, h := range hist {
		if h > limit {
			excess += h - limit
			hist[i] = limit
		}
	}
	if excess == 0 {
		return
	}

	n := float64(len(hist))
	incr := math.Floor(excess / n)
	for i := range hist {
		hist[i] += incr
	}
	residual := int(excess - incr*n)
	if residual > 0 {
		step := max(len(hist)/residual, 1)
		for i := 0; i < len(hist) && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}
}
