// Package labeling assigns component IDs to a cleaned grain mask, measures
// every grain and persists the measurements.
package labeling

import "grainable/internal/models"

// Label assigns IDs to the 4-connected components of mask with a two-pass
// union-find. IDs start at 1 and follow the raster order of each component's
// first pixel; background is 0.
func Label(mask *models.Mask) *models.Labeling {
	rows, cols := mask.Rows, mask.Cols
	lab := &models.Labeling{Rows: rows, Cols: cols, Pix: make([]int32, len(mask.Pix))}

	// parent[0] is unused so provisional labels start at 1
	parent := []int32{0}
	find := func(x int32) int32 {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int32) int32 {
		ra, rb := find(a), find(b)
		if ra == rb {
			return ra
		}
		if ra < rb {
			parent[rb] = ra
			return ra
		}
		parent[ra] = rb
		return rb
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if !mask.Pix[i] {
				continue
			}
			var up, left int32
			if r > 0 {
				up = lab.Pix[i-cols]
			}
			if c > 0 {
				left = lab.Pix[i-1]
			}
			switch {
			case up == 0 && left == 0:
				next := int32(len(parent))
				parent = append(parent, next)
				lab.Pix[i] = next
			case up != 0 && left != 0:
				lab.Pix[i] = union(up, left)
			case up != 0:
				lab.Pix[i] = up
			default:
				lab.Pix[i] = left
			}
		}
	}

	final := make([]int32, len(parent))
	for i, p := range lab.Pix {
		if p == 0 {
			continue
		}
		root := find(p)
		if final[root] == 0 {
			lab.Count++
			final[root] = int32(lab.Count)
		}
		lab.Pix[i] = final[root]
	}
	return lab
}
