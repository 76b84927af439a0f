package denoise

import (
	"math"
	"testing"

	"grainable/internal/models"
)

func stepImage(rows, cols int, lo, hi float64) *models.FloatImage {
	img := models.NewFloatImage(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c >= cols/2 {
				img.Pix[r*cols+c] = hi
			} else {
				img.Pix[r*cols+c] = lo
			}
		}
	}
	return img
}

func TestWindowSize(t *testing.T) {
	tests := []struct {
		sigma float64
		want  int
	}{
		{15, 91},
		{1, 7},
		{0.5, 5},
		{0.1, 5},
	}
	for _, tt := range tests {
		if got := WindowSize(tt.sigma); got != tt.want {
			t.Errorf("WindowSize(%v) = %d, want %d", tt.sigma, got, tt.want)
		}
	}
}

// TestBilateralPreservesEdges checks that a strong step survives while
// the flat sides stay flat
func TestBilateralPreservesEdges(t *testing.T) {
	img := stepImage(20, 20, 0.1, 0.9)
	out := Bilateral(img, 0.05, 2)

	for r := 0; r < 20; r++ {
		if math.Abs(out.At(r, 9)-0.1) > 1e-6 {
			t.Fatalf("Dark side smeared at row %d: %f", r, out.At(r, 9))
		}
		if math.Abs(out.At(r, 10)-0.9) > 1e-6 {
			t.Fatalf("Bright side smeared at row %d: %f", r, out.At(r, 10))
		}
	}
}

func TestBilateralSmoothsNoise(t *testing.T) {
	img := models.NewFloatImage(15, 15)
	for i := range img.Pix {
		img.Pix[i] = 0.5
		if i%2 == 0 {
			img.Pix[i] += 0.01
		}
	}
	out := Bilateral(img, 0.05, 2)

	var before, after float64
	for i := 1; i < len(img.Pix); i++ {
		before += math.Abs(img.Pix[i] - img.Pix[i-1])
		after += math.Abs(out.Pix[i] - out.Pix[i-1])
	}
	if after >= before/2 {
		t.Errorf("Expected noise to be reduced, total variation %f -> %f", before, after)
	}
}

func TestEqualizeAdaptiveRange(t *testing.T) {
	img := models.NewFloatImage(64, 64)
	for r := 0; r < 64; r++ {
		for c := 0; c < 64; c++ {
			img.Pix[r*64+c] = 0.3 + 0.2*float64(r*64+c)/4096
		}
	}
	out := EqualizeAdaptive(img, 0.03, 8, 256)

	lo, hi := 1.0, 0.0
	for _, v := range out.Pix {
		if v < 0 || v > 1 {
			t.Fatalf("Value %f outside [0,1]", v)
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi-lo < 0.5 {
		t.Errorf("Expected contrast to be stretched, got range [%f, %f]", lo, hi)
	}
	// Brightest input pixel is at the top of every histogram
	if out.Pix[len(out.Pix)-1] != 1 {
		t.Errorf("Expected maximum to map to 1, got %f", out.Pix[len(out.Pix)-1])
	}
}

func TestConstantImagePassesThrough(t *testing.T) {
	img := models.NewFloatImage(30, 40)
	for i := range img.Pix {
		img.Pix[i] = 0.42
	}

	p := DefaultParams()
	p.SigmaSpatial = 1
	out := Denoise(img, p)

	for i, v := range out.Pix {
		if v != 0.42 {
			t.Fatalf("Pixel %d changed to %f", i, v)
		}
	}
}

func TestDenoiseStep(t *testing.T) {
	p := DefaultParams()
	p.SigmaSpatial = 1
	out := Denoise(stepImage(40, 40, 0.2, 0.8), p)

	if out.Rows != 40 || out.Cols != 40 {
		t.Fatalf("Unexpected size %dx%d", out.Rows, out.Cols)
	}
	for r := 0; r < 40; r++ {
		if out.At(r, 5) >= out.At(r, 35) {
			t.Fatalf("Row %d: dark side %f not below bright side %f", r, out.At(r, 5), out.At(r, 35))
		}
	}
}
