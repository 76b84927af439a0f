// Package ridge enhances the thin dark boundaries between grains with a
// multiscale Hessian vesselness filter.
package ridge

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"grainable/internal/models"
)

// Params controls the vesselness filter
type Params struct {
	// ScaleMin, ScaleMax and ScaleStep define the inclusive range of Gaussian sigmas
	ScaleMin  float64
	ScaleMax  float64
	ScaleStep float64

	// Beta weights the blob-versus-line ratio
	Beta float64

	// Gamma weights the second-order structureness, suppressing flat background
	Gamma float64
}

// DefaultParams returns sigmas 1, 2 and 3 with beta 0.5 and gamma 15
func DefaultParams() Params {
	return Params{ScaleMin: 1, ScaleMax: 3, ScaleStep: 1, Beta: 0.5, Gamma: 15}
}

// Scales lists the sigmas from ScaleMin to ScaleMax inclusive
func (p Params) Scales() []float64 {
	if p.ScaleStep <= 0 {
		return []float64{p.ScaleMin}
	}
	var scales []float64
	n := int(math.Floor((p.ScaleMax-p.ScaleMin)/p.ScaleStep + 1e-9))
	for i := 0; i <= n; i++ {
		scales = append(scales, p.ScaleMin+float64(i)*p.ScaleStep)
	}
	return scales
}

// Frangi returns the maximum vesselness of img over all scales. Only dark
// ridges on a bright background respond; bright ridges score zero.
func Frangi(img *models.FloatImage, p Params) *models.FloatImage {
	out := models.NewFloatImage(img.Rows, img.Cols)
	if len(img.Pix) == 0 {
		return out
	}

	beta2 := 2 * p.Beta * p.Beta
	gamma2 := 2 * p.Gamma * p.Gamma

	for _, sigma := range p.Scales() {
		hrr, hrc, hcc := hessian(img, sigma)
		for i := range out.Pix {
			l1, l2 := eigenvalues(hrr.Pix[i], hrc.Pix[i], hcc.Pix[i])
			// A dark ridge curves upward across its axis
			if l2 <= 0 {
				continue
			}
			rb := l1 / l2
			s2 := l1*l1 + l2*l2
			v := math.Exp(-rb*rb/beta2) * (1 - math.Exp(-s2/gamma2))
			if v > out.Pix[i] {
				out.Pix[i] = v
			}
		}
	}
	return out
}

// FilterMask runs Frangi on mask read as a 0/1 plane. Grain interiors are
// bright, so the response marks the thin gaps between grains and the mask
// pixels that flank them.
func FilterMask(mask *models.Mask, p Params) *models.FloatImage {
	plane := models.NewFloatImage(mask.Rows, mask.Cols)
	for i, on := range mask.Pix {
		if on {
			plane.Pix[i] = 1
		}
	}
	return Frangi(plane, p)
}

// hessian returns the scale-normalized second derivatives of img smoothed at sigma
func hessian(img *models.FloatImage, sigma float64) (hrr, hrc, hcc *models.FloatImage) {
	g := smooth(img, sigma)
	dr, dc := gradient(g)
	hrr, hrc = gradient(dr)
	_, hcc = gradient(dc)

	norm := sigma * sigma
	floats.Scale(norm, hrr.Pix)
	floats.Scale(norm, hrc.Pix)
	floats.Scale(norm, hcc.Pix)
	return hrr, hrc, hcc
}

// eigenvalues of [[a b] [b c]] ordered so that |l1| <= |l2|
func eigenvalues(a, b, c float64) (l1, l2 float64) {
	tmp := math.Sqrt((a-c)*(a-c) + 4*b*b)
	l1 = (a + c + tmp) / 2
	l2 = (a + c - tmp) / 2
	if math.Abs(l1) > math.Abs(l2) {
		l1, l2 = l2, l1
	}
	return l1, l2
}

// Suppress returns mask without the pixels whose response exceeds fraction
// of the strongest response. The input mask is not modified.
func Suppress(mask *models.Mask, response *models.FloatImage, fraction float64) *models.Mask {
	out := mask.Clone()
	if len(response.Pix) == 0 {
		return out
	}
	peak := floats.Max(response.Pix)
	if peak <= 0 {
		return out
	}
	limit := fraction * peak
	for i, v := range response.Pix {
		if v > limit {
			out.Pix[i] = false
		}
	}
	return out
}
