package labeling

import "math"

// perimeterWeights maps a border-pixel configuration code to its boundary length
var perimeterWeights = func() [50]float64 {
	var w [50]float64
	for _, i := range []int{5, 7, 15, 17, 25, 27} {
		w[i] = 1
	}
	w[21], w[33] = math.Sqrt2, math.Sqrt2
	w[13], w[23] = (1+math.Sqrt2)/2, (1+math.Sqrt2)/2
	return w
}()

// perimeter estimates the boundary length of a binary image of size rows x
// cols. Border pixels are the pixels removed by a cross-shaped erosion; each
// is weighted by its 8-neighbourhood configuration of other border pixels.
func perimeter(img []bool, rows, cols int) float64 {
	at := func(r, c int) bool {
		return r >= 0 && r < rows && c >= 0 && c < cols && img[r*cols+c]
	}

	border := make([]bool, len(img))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !img[r*cols+c] {
				continue
			}
			interior := at(r-1, c) && at(r+1, c) && at(r, c-1) && at(r, c+1)
			border[r*cols+c] = !interior
		}
	}
	isBorder := func(r, c int) int {
		if r >= 0 && r < rows && c >= 0 && c < cols && border[r*cols+c] {
			return 1
		}
		return 0
	}

	var total float64
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !border[r*cols+c] {
				continue
			}
			code := 1 +
				2*(isBorder(r-1, c)+isBorder(r+1, c)+isBorder(r, c-1)+isBorder(r, c+1)) +
				10*(isBorder(r-1, c-1)+isBorder(r-1, c+1)+isBorder(r+1, c-1)+isBorder(r+1, c+1))
			total += perimeterWeights[code]
		}
	}
	return total
}
