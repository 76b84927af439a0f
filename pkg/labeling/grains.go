package labeling

import (
	"image"

	"grainable/internal/models"
	"grainable/pkg/cleaning"
	"grainable/pkg/visualization"
)

// Options controls where LabelGrains writes its outputs
type Options struct {
	// SampleID and SliceIndex name the output files
	SampleID   string
	SliceIndex int

	// PixelsToUm is the scan resolution in micrometres per pixel. Records are
	// written in pixel units; the factor is carried for downstream conversion.
	PixelsToUm float64

	// RecordDir receives <sample>/<sample>_<slice>.csv
	RecordDir string

	// SaveImages enables the false-colour and raw previews in ImageDir
	SaveImages  bool
	ImageDir    string
	ImageFormat string
}

// Result is the outcome of labeling one slice
type Result struct {
	Records    []models.GrainRecord
	Labels     *models.Labeling
	RecordPath string
}

// LabelGrains clears border grains from mask, labels the remainder, measures
// every grain and writes the record file. With SaveImages set it also writes
// the label preview and the raw crop. An empty mask still produces a
// header-only record file.
func LabelGrains(mask *models.Mask, raw image.Image, opts Options) (*Result, error) {
	cleared := cleaning.ClearBorder(mask)
	labels := Label(cleared)
	records := Records(labels)

	path := RecordPath(opts.RecordDir, opts.SampleID, opts.SliceIndex)
	if err := WriteRecords(path, records); err != nil {
		return nil, err
	}

	if opts.SaveImages {
		viewer := visualization.NewViewer(labels, raw, opts.ImageFormat)
		if err := viewer.SaveSlice(opts.ImageDir, opts.SampleID, opts.SliceIndex); err != nil {
			return nil, err
		}
	}

	return &Result{Records: records, Labels: labels, RecordPath: path}, nil
}
