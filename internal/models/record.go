package models

// GrainRecord holds the shape descriptors of one labeled grain.
// Field order is the column order of the record files.
type GrainRecord struct {
	Label              int     `csv:"label"`
	Area               int     `csv:"area"`
	EquivalentDiameter float64 `csv:"equivalent_diameter"`
	CentroidX          float64 `csv:"centroid_x"`
	CentroidY          float64 `csv:"centroid_y"`
	Orientation        float64 `csv:"orientation"`
	MajorAxisLength    float64 `csv:"major_axis_length"`
	MinorAxisLength    float64 `csv:"minor_axis_length"`
	Perimeter          float64 `csv:"perimeter"`
}

// RecordColumns is the fixed header of a record file
var RecordColumns = []string{
	"label",
	"area",
	"equivalent_diameter",
	"centroid_x",
	"centroid_y",
	"orientation",
	"major_axis_length",
	"minor_axis_length",
	"perimeter",
}

// SlicingEntry holds the usable pixel range of one scan
type SlicingEntry struct {
	Name    string  `csv:"name"`
	PxLeft  float64 `csv:"px_left"`
	PxRight float64 `csv:"px_right"`
}

// SlicingTable indexes slicing entries by sample name
type SlicingTable map[string]SlicingEntry
