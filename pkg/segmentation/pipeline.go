// Package segmentation runs the grain segmentation pipeline over the slices
// of ice-core scans: denoise, binarize, suppress ridges, clean and label.
package segmentation

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"time"

	"grainable/internal/logger"
	"grainable/internal/models"
	"grainable/pkg/cleaning"
	"grainable/pkg/config"
	"grainable/pkg/denoise"
	"grainable/pkg/labeling"
	"grainable/pkg/ridge"
	"grainable/pkg/threshold"
	"grainable/pkg/visualization"
)

// Params holds the segmentation parameters for a batch run
type Params struct {
	// ImageDir contains one raster per sample
	ImageDir string

	// SlicingTable gives the usable pixel range of each sample
	SlicingTable models.SlicingTable

	// SliceLength and Overlap define the tiling of every scan
	SliceLength int
	Overlap     int

	Denoise denoise.Params
	Ridge   ridge.Params

	// SuppressFraction removes mask pixels with a ridge response above this
	// fraction of the slice's strongest response
	SuppressFraction float64

	// MinSize is the smallest grain kept, in pixels
	MinSize int

	// PixelsToUm is the scan resolution, carried through to the labeler
	PixelsToUm float64

	// RecordDir receives one record file per slice
	RecordDir string

	// SaveImages writes label and raw previews to PreviewDir
	SaveImages  bool
	PreviewDir  string
	ImageFormat string

	// SaveIntermediaryResults writes every stage of every slice to IntermediaryDir
	SaveIntermediaryResults bool
	IntermediaryDir         string

	// NumWorkers specifies how many slices are processed concurrently
	NumWorkers int

	// Retries is how many extra attempts a slice failing with an I/O error gets
	Retries int
}

// ParamsFromConfig maps a loaded configuration to segmentation parameters
func ParamsFromConfig(cfg *config.Config, table models.SlicingTable) *Params {
	return &Params{
		ImageDir:     cfg.ResolveInput(cfg.Input.ImageDir),
		SlicingTable: table,
		SliceLength:  cfg.Tiling.SliceLength,
		Overlap:      cfg.Tiling.Overlap,
		Denoise: denoise.Params{
			SigmaColor:   cfg.Denoise.SigmaColor,
			SigmaSpatial: cfg.Denoise.SigmaSpatial,
			ClipLimit:    cfg.Denoise.ClipLimit,
			TileGrid:     cfg.Denoise.TileGrid,
			Bins:         cfg.Denoise.Bins,
		},
		Ridge: ridge.Params{
			ScaleMin:  cfg.Ridge.ScaleMin,
			ScaleMax:  cfg.Ridge.ScaleMax,
			ScaleStep: cfg.Ridge.ScaleStep,
			Beta:      cfg.Ridge.Beta,
			Gamma:     cfg.Ridge.Gamma,
		},
		SuppressFraction:        cfg.Ridge.SuppressFraction,
		MinSize:                 cfg.Cleaning.MinSize,
		PixelsToUm:              cfg.Labeling.PixelsToUm,
		RecordDir:               cfg.Output.RecordDir,
		SaveImages:              cfg.Output.SaveImages,
		PreviewDir:              cfg.Output.ImageDir,
		ImageFormat:             cfg.Output.ImageFormat,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         cfg.Output.IntermediaryDir,
		NumWorkers:              cfg.Processing.NumWorkers,
		Retries:                 cfg.Processing.Retries,
	}
}

// DefaultParams returns the parameters of DefaultConfig with an empty slicing table
func DefaultParams() *Params {
	return ParamsFromConfig(config.DefaultConfig(), models.SlicingTable{})
}

// SliceResult is the outcome of one (sample, slice) unit
type SliceResult struct {
	SampleID   string
	Index      int
	Grains     int
	RecordPath string
	Attempts   int
	Duration   time.Duration

	// Err is nil on success. Degenerate slices carry models.ErrDegenerateImage
	// and have no record file.
	Err error
}

// OK reports whether the unit produced a record file
func (r SliceResult) OK() bool { return r.Err == nil }

// ProcessSlice runs every stage on one window and writes its record file
func ProcessSlice(w models.SliceWindow, p *Params, log logger.Logger) SliceResult {
	start := time.Now()
	res := SliceResult{SampleID: w.Scan.ID, Index: w.Index}
	fields := map[string]interface{}{"sample": w.Scan.ID, "slice": w.Index}

	plane := w.Float()
	denoised := denoise.Denoise(plane, p.Denoise)
	log.Debug("Denoiser", "slice denoised", fields)

	binary, err := threshold.Threshold(denoised)
	if err != nil {
		res.Err = fmt.Errorf("binarize %s slice %d: %w", w.Scan.ID, w.Index, err)
		res.Duration = time.Since(start)
		log.Warning("Binarizer", err.Error(), fields)
		return res
	}

	response := ridge.FilterMask(binary, p.Ridge)
	ridged := ridge.Suppress(binary, response, p.SuppressFraction)
	cleaned := cleaning.Clean(ridged, p.MinSize)
	log.Debug("Cleaner", "mask cleaned", map[string]interface{}{
		"sample": w.Scan.ID, "slice": w.Index, "binary": binary.Count(), "cleaned": cleaned.Count(),
	})

	if p.SaveIntermediaryResults {
		if err := saveStages(p, w, denoised, binary, response, cleaned); err != nil {
			log.Warning("Segmenter", "intermediary results not saved: "+err.Error(), fields)
		}
	}

	opts := labeling.Options{
		SampleID:    w.Scan.ID,
		SliceIndex:  w.Index,
		PixelsToUm:  p.PixelsToUm,
		RecordDir:   p.RecordDir,
		SaveImages:  p.SaveImages,
		ImageDir:    p.PreviewDir,
		ImageFormat: p.ImageFormat,
	}
	// The raw crop is only cut when previews are written
	var raw image.Image
	if p.SaveImages {
		raw = w.Raw()
	}

	out, err := labeling.LabelGrains(cleaned, raw, opts)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = fmt.Errorf("label %s slice %d: %w", w.Scan.ID, w.Index, err)
		return res
	}

	res.Grains = len(out.Records)
	res.RecordPath = out.RecordPath
	if res.Grains == 0 {
		log.Info("Labeler", "empty segmentation", fields)
	}
	return res
}

// saveStages writes the intermediate planes of one slice as PNG images
func saveStages(p *Params, w models.SliceWindow, denoised *models.FloatImage, binary *models.Mask, response *models.FloatImage, cleaned *models.Mask) error {
	base := filepath.Join(p.IntermediaryDir, w.Scan.ID, w.Scan.ID+"_"+strconv.Itoa(w.Index))

	// The ridge response is tiny in absolute terms, so it is stretched to its peak
	stretched := models.NewFloatImage(response.Rows, response.Cols)
	var peak float64
	for _, v := range response.Pix {
		peak = max(peak, v)
	}
	if peak > 0 {
		for i, v := range response.Pix {
			stretched.Pix[i] = v / peak
		}
	}

	stages := []struct {
		name string
		save func(path string) error
	}{
		{"denoised", func(path string) error { return visualization.Save(path, visualization.FloatToImage(denoised), "png") }},
		{"binary", func(path string) error { return visualization.Save(path, visualization.MaskToImage(binary), "png") }},
		{"ridge", func(path string) error { return visualization.Save(path, visualization.FloatToImage(stretched), "png") }},
		{"cleaned", func(path string) error { return visualization.Save(path, visualization.MaskToImage(cleaned), "png") }},
	}
	for _, s := range stages {
		if err := s.save(base + "_" + s.name + ".png"); err != nil {
			return err
		}
	}
	return nil
}
