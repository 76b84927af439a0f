// Package threshold binarizes a denoised slice with a global Otsu cut.
package threshold

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"grainable/internal/models"
)

// Bins is the histogram resolution used to search the cut
const Bins = 256

// flatRange is the intensity span below which no cut is defined
const flatRange = 1e-9

// Otsu returns the intensity that maximizes the between-class variance of img.
// The cut is the centre of the best histogram bin over [min, max].
// It fails with models.ErrDegenerateImage when the image is near uniform.
func Otsu(img *models.FloatImage) (float64, error) {
	if len(img.Pix) == 0 {
		return 0, fmt.Errorf("empty image: %w", models.ErrDegenerateImage)
	}
	lo, hi := floats.Min(img.Pix), floats.Max(img.Pix)
	if hi-lo < flatRange {
		return lo, fmt.Errorf("intensity span %g: %w", hi-lo, models.ErrDegenerateImage)
	}

	width := (hi - lo) / Bins
	hist := make([]float64, Bins)
	for _, v := range img.Pix {
		b := int((v - lo) / width)
		if b >= Bins {
			b = Bins - 1
		}
		hist[b]++
	}
	centres := make([]float64, Bins)
	for i := range centres {
		centres[i] = lo + (float64(i)+0.5)*width
	}

	// Class weights and means for every split, from below and from above
	weighted := make([]float64, Bins)
	floats.MulTo(weighted, hist, centres)
	w1 := floats.CumSum(make([]float64, Bins), hist)
	m1 := floats.CumSum(make([]float64, Bins), weighted)
	w2 := make([]float64, Bins)
	m2 := make([]float64, Bins)
	var tailW, tailM float64
	for i := Bins - 1; i >= 0; i-- {
		tailW += hist[i]
		tailM += weighted[i]
		w2[i] = tailW
		if tailW > 0 {
			m2[i] = tailM / tailW
		}
		if w1[i] > 0 {
			m1[i] /= w1[i]
		}
	}

	best, bestVar := 0, -1.0
	for i := 0; i < Bins-1; i++ {
		d := m1[i] - m2[i+1]
		v := w1[i] * w2[i+1] * d * d
		if v > bestVar {
			best, bestVar = i, v
		}
	}
	return centres[best], nil
}

// Threshold returns the mask of pixels strictly above the Otsu cut.
// A degenerate image yields an all-false mask and models.ErrDegenerateImage.
func Threshold(img *models.FloatImage) (*models.Mask, error) {
	mask := models.NewMask(img.Rows, img.Cols)
	cut, err := Otsu(img)
	if err != nil {
		return mask, err
	}
	for i, v := range img.Pix {
		mask.Pix[i] = v > cut
	}
	return mask, nil
}
