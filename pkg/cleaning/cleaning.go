// Package cleaning removes segmentation artifacts from a grain mask: specks
// too small to be grains and grains cut by the slice edge.
package cleaning

import "grainable/internal/models"

// DefaultMinSize is the smallest grain, in pixels, kept by Clean
const DefaultMinSize = 500

// Connectivity selects which neighbours join a component
type Connectivity int

const (
	// Four joins pixels sharing an edge
	Four Connectivity = 4
	// Eight also joins pixels sharing a corner
	Eight Connectivity = 8
)

var (
	offsets4 = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	offsets8 = [][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
)

func (c Connectivity) offsets() [][2]int {
	if c == Eight {
		return offsets8
	}
	return offsets4
}

// Clean removes components smaller than minSize and then every component
// touching the mask edge. The result is a subset of mask; mask is not modified.
func Clean(mask *models.Mask, minSize int) *models.Mask {
	return ClearBorder(RemoveSmallObjects(mask, minSize))
}

// RemoveSmallObjects drops 4-connected components with fewer than minSize pixels
func RemoveSmallObjects(mask *models.Mask, minSize int) *models.Mask {
	out := mask.Clone()
	visited := make([]bool, len(mask.Pix))
	var component []int

	for i, on := range mask.Pix {
		if !on || visited[i] {
			continue
		}
		component = flood(mask, i, Four, visited, component[:0])
		if len(component) < minSize {
			for _, p := range component {
				out.Pix[p] = false
			}
		}
	}
	return out
}

// ClearBorder drops every 8-connected component with a pixel on the mask edge
func ClearBorder(mask *models.Mask) *models.Mask {
	out := mask.Clone()
	rows, cols := mask.Rows, mask.Cols
	if rows == 0 || cols == 0 {
		return out
	}

	visited := make([]bool, len(mask.Pix))
	var component []int
	drop := func(i int) {
		if !mask.Pix[i] || visited[i] {
			return
		}
		component = flood(mask, i, Eight, visited, component[:0])
		for _, p := range component {
			out.Pix[p] = false
		}
	}

	for c := 0; c < cols; c++ {
		drop(c)
		drop((rows-1)*cols + c)
	}
	for r := 0; r < rows; r++ {
		drop(r * cols)
		drop(r*cols + cols - 1)
	}
	return out
}

// flood appends to buf every pixel of the component containing seed and marks
// them visited
func flood(mask *models.Mask, seed int, conn Connectivity, visited []bool, buf []int) []int {
	rows, cols := mask.Rows, mask.Cols
	offsets := conn.offsets()

	visited[seed] = true
	buf = append(buf, seed)
	for head := 0; head < len(buf); head++ {
		p := buf[head]
		r, c := p/cols, p%cols
		for _, o := range offsets {
			nr, nc := r+o[0], c+o[1]
			if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
				continue
			}
			q := nr*cols + nc
			if mask.Pix[q] && !visited[q] {
				visited[q] = true
				buf = append(buf, q)
			}
		}
	}
	return buf
}
