// Package profile aggregates the per-slice grain records of a bag into a
// grain size versus depth profile.
package profile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"grainable/internal/models"
	"grainable/pkg/imageio"
	"grainable/pkg/labeling"
)

// Params controls the depth sampling of a profile
type Params struct {
	// StepSize is the distance between depth samples in pixels
	StepSize float64

	// IntervalHalf is the half width of the window averaged at each sample, in pixels
	IntervalHalf float64

	// PxToCm converts pixels to centimetres
	PxToCm float64

	// SliceLength and Overlap must match the tiling that produced the records
	SliceLength int
	Overlap     int

	// Axis selects the record coordinate measured along the core, "x" or "y"
	Axis string
}

// SliceRecords holds the records of one slice
type SliceRecords struct {
	Slice   int
	Records []models.GrainRecord
}

// Point is one row of a depth profile
type Point struct {
	CropImage          int     `csv:"crop_image"`
	Depth              float64 `csv:"depth[m]"`
	EquivalentDiameter float64 `csv:"equivalent_diameter[px]"`
	GrainSize          float64 `csv:"grain_size[px]"`
	GrainSizeErr       float64 `csv:"grain_size_err[px]"`
}

// ReadSample loads every record file of a sample, ordered by slice index
func ReadSample(dir, sampleID string) ([]SliceRecords, error) {
	paths, err := filepath.Glob(filepath.Join(dir, sampleID, sampleID+"_*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("records of %s in %s: %w", sampleID, dir, models.ErrInputNotFound)
	}

	var out []SliceRecords
	prefix := sampleID + "_"
	for _, path := range paths {
		suffix := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), prefix), ".csv")
		idx, err := strconv.Atoi(suffix)
		if err != nil {
			// Not a slice file of this sample, e.g. <sample>_2_x.csv
			continue
		}
		records, err := labeling.ReadRecords(path)
		if err != nil {
			return nil, err
		}
		out = append(out, SliceRecords{Slice: idx, Records: records})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slice < out[j].Slice })
	return out, nil
}

// ReadBag loads the two halves <bag>_1 and <bag>_2 of a bag. When the second
// half has no records the first half is used for both.
func ReadBag(dir, bag string) (first, second []SliceRecords, err error) {
	first, err = ReadSample(dir, bag+"_1")
	if err != nil {
		return nil, nil, err
	}
	second, err = ReadSample(dir, bag+"_2")
	if errors.Is(err, models.ErrInputNotFound) {
		return first, first, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

// SizesDepth samples the mean grain size along the bag. For every slice of
// the first half, depth samples are taken every StepSize pixels; samples that
// fall in the overlap with the previous slice are skipped so that no depth is
// counted twice. Each sample averages the grains of both halves whose
// coordinate lies in [x-IntervalHalf, x+IntervalHalf). A non-positive
// StepSize yields no samples.
func SizesDepth(first, second []SliceRecords, p Params) []Point {
	bySlice := make(map[int][]models.GrainRecord, len(second))
	for _, s := range second {
		bySlice[s.Slice] = s.Records
	}

	if p.StepSize <= 0 {
		return nil
	}
	steps := int(float64(p.SliceLength) / p.StepSize)
	depthStep := p.StepSize * p.PxToCm / 100

	var points []Point
	var depth float64
	for i, s := range first {
		for ii := 0; ii < steps; ii++ {
			x := p.StepSize*float64(ii) + p.StepSize/2
			if i != 0 && x < float64(p.Overlap) {
				continue
			}
			depth += depthStep

			var areas, diameters []float64
			collect := func(records []models.GrainRecord) {
				for _, r := range records {
					pos := position(r, p.Axis)
					if pos >= x-p.IntervalHalf && pos < x+p.IntervalHalf {
						areas = append(areas, float64(r.Area))
						diameters = append(diameters, r.EquivalentDiameter)
					}
				}
			}
			collect(s.Records)
			collect(bySlice[s.Slice])

			points = append(points, Point{
				CropImage:          s.Slice,
				Depth:              depth,
				EquivalentDiameter: stat.Mean(diameters, nil),
				GrainSize:          stat.Mean(areas, nil),
				GrainSizeErr:       standardError(areas),
			})
		}
	}
	return points
}

func position(r models.GrainRecord, axis string) float64 {
	if axis == "x" {
		return r.CentroidX
	}
	return r.CentroidY
}

// standardError returns the standard error of the mean; NaN for no samples
func standardError(x []float64) float64 {
	switch len(x) {
	case 0:
		return math.NaN()
	case 1:
		return 0
	}
	return stat.StdDev(x, nil) / math.Sqrt(float64(len(x)))
}

// WriteProfile writes points to path atomically
func WriteProfile(path string, points []Point) error {
	if points == nil {
		points = []Point{}
	}
	return imageio.WriteFileAtomic(path, func(w io.Writer) error {
		return gocsv.Marshal(points, w)
	})
}

// ProfilePath returns <dir>/<bag>_profile.csv
func ProfilePath(dir, bag string) string {
	return filepath.Join(dir, bag+"_profile.csv")
}

// Bags derives the bag identifiers from sample IDs of the form <bag>_<half>,
// keeping first-seen order
func Bags(samples []string) []string {
	seen := make(map[string]bool)
	var bags []string
	for _, s := range samples {
		i := strings.LastIndex(s, "_")
		if i <= 0 {
			continue
		}
		bag := s[:i]
		if !seen[bag] {
			seen[bag] = true
			bags = append(bags, bag)
		}
	}
	return bags
}

// Build reads a bag, computes its profile and writes it to outDir
func Build(recordDir, outDir, bag string, p Params) ([]Point, error) {
	first, second, err := ReadBag(recordDir, bag)
	if err != nil {
		return nil, err
	}
	points := SizesDepth(first, second, p)
	if err := WriteProfile(ProfilePath(outDir, bag), points); err != nil {
		return nil, err
	}
	return points, nil
}

