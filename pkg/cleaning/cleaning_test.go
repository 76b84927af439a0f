package cleaning

import (
	"testing"

	"grainable/internal/models"
)

func fillRect(m *models.Mask, r0, c0, r1, c1 int) {
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			m.Set(r, c, true)
		}
	}
}

func isSubset(sub, super *models.Mask) bool {
	for i, v := range sub.Pix {
		if v && !super.Pix[i] {
			return false
		}
	}
	return true
}

func TestRemoveSmallObjects(t *testing.T) {
	mask := models.NewMask(20, 20)
	fillRect(mask, 2, 2, 6, 6)     // 16 pixels
	fillRect(mask, 10, 10, 13, 13) // 9 pixels

	out := RemoveSmallObjects(mask, 10)
	if out.Count() != 16 {
		t.Errorf("Expected only the 16-pixel object, got %d pixels", out.Count())
	}
	if !out.At(3, 3) || out.At(11, 11) {
		t.Errorf("Wrong object removed")
	}
	if mask.Count() != 25 {
		t.Errorf("Input mask modified")
	}

	// Size equal to the limit survives
	if RemoveSmallObjects(mask, 9).Count() != 25 {
		t.Errorf("Objects of exactly minSize should be kept")
	}
}

// TestRemoveSmallObjectsFourConnected checks diagonal neighbours count as
// separate objects
func TestRemoveSmallObjectsFourConnected(t *testing.T) {
	mask := models.NewMask(6, 6)
	mask.Set(1, 1, true)
	mask.Set(2, 2, true)
	mask.Set(3, 3, true)

	if out := RemoveSmallObjects(mask, 2); out.Count() != 0 {
		t.Errorf("Expected diagonal chain to split into single pixels, %d left", out.Count())
	}
}

func TestClearBorder(t *testing.T) {
	mask := models.NewMask(10, 10)
	fillRect(mask, 0, 0, 3, 3) // touches the top-left corner
	fillRect(mask, 4, 4, 6, 6) // interior
	mask.Set(7, 8, true)
	mask.Set(8, 9, true) // diagonal link to the right edge

	out := ClearBorder(mask)
	if out.At(1, 1) {
		t.Errorf("Border component not removed")
	}
	if !out.At(4, 4) || out.Count() != 4 {
		t.Errorf("Interior component should remain alone, got %d pixels", out.Count())
	}
	if out.At(7, 8) {
		t.Errorf("Diagonally linked border component not removed")
	}
}

// TestCleanBorderGrains places one grain crossing each edge and one interior
// grain; only the interior grain survives
func TestCleanBorderGrains(t *testing.T) {
	mask := models.NewMask(200, 200)
	fillRect(mask, 0, 80, 30, 110)    // top
	fillRect(mask, 170, 80, 200, 110) // bottom
	fillRect(mask, 80, 0, 110, 30)    // left
	fillRect(mask, 80, 170, 110, 200) // right
	fillRect(mask, 70, 70, 130, 130)  // interior

	out := Clean(mask, 500)
	if out.Count() != 60*60 {
		t.Errorf("Expected 3600 interior pixels, got %d", out.Count())
	}
	if !isSubset(out, mask) {
		t.Errorf("Cleaned mask is not a subset of the input")
	}
}

func TestCleanMonotonic(t *testing.T) {
	mask := models.NewMask(50, 50)
	for i := range mask.Pix {
		mask.Pix[i] = (i*7)%11 < 5
	}
	fillRect(mask, 10, 10, 40, 40)

	for _, minSize := range []int{0, 1, 50, 500, 5000} {
		out := Clean(mask, minSize)
		if !isSubset(out, mask) {
			t.Errorf("minSize %d: result is not a subset of the input", minSize)
		}
	}
}

func TestCleanEmpty(t *testing.T) {
	out := Clean(models.NewMask(0, 0), DefaultMinSize)
	if out.Count() != 0 {
		t.Errorf("Expected empty result")
	}
}
