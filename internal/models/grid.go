package models

// FloatImage is a single-channel floating point plane in row-major order
type FloatImage struct {
	Rows, Cols int
	Pix        []float64
}

// NewFloatImage allocates a zeroed rows x cols plane
func NewFloatImage(rows, cols int) *FloatImage {
	return &FloatImage{Rows: rows, Cols: cols, Pix: make([]float64, rows*cols)}
}

// At returns the value at (row, col)
func (f *FloatImage) At(row, col int) float64 { return f.Pix[row*f.Cols+col] }

// Mask is a boolean grid; true marks a candidate grain interior pixel
type Mask struct {
	Rows, Cols int
	Pix        []bool
}

// NewMask allocates an all-false rows x cols mask
func NewMask(rows, cols int) *Mask {
	return &Mask{Rows: rows, Cols: cols, Pix: make([]bool, rows*cols)}
}

// At returns the value at (row, col)
func (m *Mask) At(row, col int) bool { return m.Pix[row*m.Cols+col] }

// Set assigns the value at (row, col)
func (m *Mask) Set(row, col int, v bool) { m.Pix[row*m.Cols+col] = v }

// Clone returns a deep copy of the mask
func (m *Mask) Clone() *Mask {
	pix := make([]bool, len(m.Pix))
	copy(pix, m.Pix)
	return &Mask{Rows: m.Rows, Cols: m.Cols, Pix: pix}
}

// Count returns the number of true pixels
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Labeling assigns a component ID to every pixel of a mask.
// 0 is background; 1..Count are grain IDs.
type Labeling struct {
	Rows, Cols int
	Pix        []int32
	Count      int
}

// At returns the label at (row, col)
func (l *Labeling) At(row, col int) int32 { return l.Pix[row*l.Cols+col] }
