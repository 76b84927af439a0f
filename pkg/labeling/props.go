package labeling

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"grainable/internal/models"
)

// Region holds the raw geometry of one labeled component in row/column
// coordinates, before conversion to a GrainRecord
type Region struct {
	Label int

	// Area is the pixel count
	Area int

	// CentroidRow and CentroidCol are the mean pixel coordinates
	CentroidRow float64
	CentroidCol float64

	// MuRR, MuRC and MuCC are the second central moments
	MuRR, MuRC, MuCC float64

	// MinRow, MinCol, MaxRow and MaxCol bound the component inclusively
	MinRow, MinCol, MaxRow, MaxCol int

	// Perimeter is the 4-neighbourhood boundary length estimate
	Perimeter float64
}

// InertiaTensor returns the entries a, b, c of the symmetric tensor [[a b] [b c]]
func (r Region) InertiaTensor() (a, b, c float64) {
	n := float64(r.Area)
	return r.MuCC / n, -r.MuRC / n, r.MuRR / n
}

// Orientation is the angle in radians between the row axis and the major
// axis, in [-pi/2, pi/2]
func (r Region) Orientation() float64 {
	a, b, c := r.InertiaTensor()
	if a-c == 0 {
		if b < 0 {
			return -math.Pi / 4
		}
		return math.Pi / 4
	}
	return 0.5 * math.Atan2(-2*b, c-a)
}

// AxisLengths returns the major and minor axis lengths of the ellipse with the
// same second moments as the region
func (r Region) AxisLengths() (major, minor float64) {
	a, b, c := r.InertiaTensor()
	var eig mat.EigenSym
	if !eig.Factorize(mat.NewSymDense(2, []float64{a, b, b, c}), false) {
		return 0, 0
	}
	// Values are returned in ascending order
	vals := eig.Values(nil)
	return 4 * math.Sqrt(math.Max(vals[1], 0)), 4 * math.Sqrt(math.Max(vals[0], 0))
}

// EquivalentDiameter is the diameter of the disc with the region's area
func (r Region) EquivalentDiameter() float64 {
	return math.Sqrt(4 * float64(r.Area) / math.Pi)
}

// RegionProps measures every component of lab, ordered by label
func RegionProps(lab *models.Labeling) []Region {
	if lab.Count == 0 {
		return nil
	}
	regions := make([]Region, lab.Count)
	for i := range regions {
		regions[i] = Region{Label: i + 1, MinRow: lab.Rows, MinCol: lab.Cols, MaxRow: -1, MaxCol: -1}
	}

	// First pass: area, bounding box and centroid sums
	for r := 0; r < lab.Rows; r++ {
		for c := 0; c < lab.Cols; c++ {
			id := lab.Pix[r*lab.Cols+c]
			if id == 0 {
				continue
			}
			reg := &regions[id-1]
			reg.Area++
			reg.CentroidRow += float64(r)
			reg.CentroidCol += float64(c)
			reg.MinRow = min(reg.MinRow, r)
			reg.MaxRow = max(reg.MaxRow, r)
			reg.MinCol = min(reg.MinCol, c)
			reg.MaxCol = max(reg.MaxCol, c)
		}
	}
	for i := range regions {
		n := float64(regions[i].Area)
		regions[i].CentroidRow /= n
		regions[i].CentroidCol /= n
	}

	// Second pass: central moments about the centroid
	for r := 0; r < lab.Rows; r++ {
		for c := 0; c < lab.Cols; c++ {
			id := lab.Pix[r*lab.Cols+c]
			if id == 0 {
				continue
			}
			reg := &regions[id-1]
			dr := float64(r) - reg.CentroidRow
			dc := float64(c) - reg.CentroidCol
			reg.MuRR += dr * dr
			reg.MuRC += dr * dc
			reg.MuCC += dc * dc
		}
	}

	for i := range regions {
		regions[i].Perimeter = regionPerimeter(lab, &regions[i])
	}
	return regions
}

// regionPerimeter crops the region's bounding box and measures its boundary
func regionPerimeter(lab *models.Labeling, reg *Region) float64 {
	rows := reg.MaxRow - reg.MinRow + 1
	cols := reg.MaxCol - reg.MinCol + 1
	img := make([]bool, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			img[r*cols+c] = lab.Pix[(reg.MinRow+r)*lab.Cols+reg.MinCol+c] == int32(reg.Label)
		}
	}
	return perimeter(img, rows, cols)
}

// toRecord converts a region to a GrainRecord. It is the only place where
// row/column order becomes x/y: CentroidX is the column mean and CentroidY
// the row mean.
func toRecord(reg Region) models.GrainRecord {
	major, minor := reg.AxisLengths()
	return models.GrainRecord{
		Label:              reg.Label,
		Area:               reg.Area,
		EquivalentDiameter: reg.EquivalentDiameter(),
		CentroidX:          reg.CentroidCol,
		CentroidY:          reg.CentroidRow,
		Orientation:        reg.Orientation() * 180 / math.Pi,
		MajorAxisLength:    major,
		MinorAxisLength:    minor,
		Perimeter:          reg.Perimeter,
	}
}

// Records measures every grain of lab and returns one record per label
func Records(lab *models.Labeling) []models.GrainRecord {
	regions := RegionProps(lab)
	records := make([]models.GrainRecord, len(regions))
	for i, reg := range regions {
		records[i] = toRecord(reg)
	}
	return records
}
