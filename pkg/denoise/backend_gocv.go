//go:build gocv

package denoise

import (
	"image"

	"gocv.io/x/gocv"

	"grainable/internal/models"
)

const backendName = "opencv"

// backend runs both filters through OpenCV. The bilateral filter works on a
// 32-bit float plane; equalization runs on 8 bits, whose histogram matches
// the 256-bin pure Go path.
func backend(img *models.FloatImage, p Params) *models.FloatImage {
	rows, cols := img.Rows, img.Cols
	out := models.NewFloatImage(rows, cols)
	if len(img.Pix) == 0 {
		return out
	}

	src := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV32F)
	defer src.Close()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			src.SetFloatAt(r, c, float32(img.Pix[r*cols+c]))
		}
	}

	smoothed := gocv.NewMat()
	defer smoothed.Close()
	gocv.BilateralFilter(src, &smoothed, WindowSize(p.SigmaSpatial), p.SigmaColor, p.SigmaSpatial)

	lo, hi := float32(1), float32(0)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := smoothed.GetFloatAt(r, c)
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if float64(hi-lo) < flatRange {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				out.Pix[r*cols+c] = float64(smoothed.GetFloatAt(r, c))
			}
		}
		return out
	}

	u8 := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	defer u8.Close()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := (smoothed.GetFloatAt(r, c) - lo) / (hi - lo)
			u8.SetUCharAt(r, c, uint8(v*255+0.5))
		}
	}

	// OpenCV clips at clipLimit*tileArea/256 counts per bin
	clahe := gocv.NewCLAHEWithParams(max(p.ClipLimit*float64(p.Bins), 1), image.Point{X: p.TileGrid, Y: p.TileGrid})
	defer clahe.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(u8, &equalized)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Pix[r*cols+c] = float64(equalized.GetUCharAt(r, c)) / 255
		}
	}
	return out
}
