package segmentation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"grainable/internal/logger"
	"grainable/internal/models"
	"grainable/pkg/tiling"
)

// SampleResult collects the outcome of every slice of one sample
type SampleResult struct {
	SampleID string

	// ExpectedSlices is the count announced by the slicing table
	ExpectedSlices int

	Slices []SliceResult

	// Err is set when the sample could not be loaded
	Err error
}

// Skipped reports whether the sample had no input and was passed over
func (s SampleResult) Skipped() bool { return errors.Is(s.Err, models.ErrInputNotFound) }

// Summary aggregates a batch run
type Summary struct {
	Samples  []SampleResult
	Duration time.Duration
}

// Counts returns the number of slices processed, succeeded and failed and
// the total number of grains recorded
func (s *Summary) Counts() (slices, succeeded, failed, grains int) {
	for _, sample := range s.Samples {
		for _, r := range sample.Slices {
			slices++
			if r.OK() {
				succeeded++
				grains += r.Grains
			} else {
				failed++
			}
		}
	}
	return slices, succeeded, failed, grains
}

// Segmenter drives the pipeline over whole samples. Samples are handled one
// after another; the slices of a sample are spread over a worker pool.
type Segmenter struct {
	// params stores the segmentation configuration
	params *Params

	// log receives one entry per unit and per sample
	log logger.Logger

	// processed counts finished slices across the run
	processed atomic.Int64
}

// NewSegmenter creates a segmenter with the provided parameters
func NewSegmenter(params *Params, log logger.Logger) *Segmenter {
	if log == nil {
		log = logger.Nop()
	}
	return &Segmenter{params: params, log: log}
}

// Processed returns how many slices have finished so far
func (s *Segmenter) Processed() int64 { return s.processed.Load() }

// Run processes every sample in order. Missing inputs are logged and skipped.
// The returned error is non-nil only when ctx was cancelled; the summary
// still holds everything finished before that.
func (s *Segmenter) Run(ctx context.Context, samples []string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	done := make(chan struct{})
	go s.reportProgress(done, start)
	defer close(done)

	for _, id := range samples {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		summary.Samples = append(summary.Samples, s.ProcessSample(ctx, id))
	}

	summary.Duration = time.Since(start)
	return summary, ctx.Err()
}

// ProcessSample loads one scan and processes all of its slices
func (s *Segmenter) ProcessSample(ctx context.Context, sampleID string) SampleResult {
	res := SampleResult{SampleID: sampleID}
	fields := map[string]interface{}{"sample": sampleID}

	scan, expected, err := tiling.Load(sampleID, s.params.ImageDir, s.params.SliceLength, s.params.Overlap, s.params.SlicingTable)
	if err != nil {
		res.Err = err
		if errors.Is(err, models.ErrInputNotFound) {
			s.log.Warning("Tiler", "skipping sample: "+err.Error(), fields)
		} else {
			s.log.Error("Tiler", err, fields)
		}
		return res
	}
	res.ExpectedSlices = expected

	res.Slices = s.ProcessScan(ctx, scan)

	if len(res.Slices) != expected {
		s.log.Warning("Tiler", "slice count differs from slicing table", map[string]interface{}{
			"sample": sampleID, "slices": len(res.Slices), "expected": expected,
		})
	}
	s.log.Info("Segmenter", "sample done", map[string]interface{}{
		"sample": sampleID, "slices": len(res.Slices), "width": scan.Width, "height": scan.Height,
	})
	return res
}

// ProcessScan tiles scan and runs every window on the worker pool. Results
// are returned in window order. Windows not started before ctx is cancelled
// carry ctx.Err().
func (s *Segmenter) ProcessScan(ctx context.Context, scan *models.ScanImage) []SliceResult {
	windows, err := tiling.Crop(scan, s.params.SliceLength, s.params.Overlap)
	if err != nil {
		s.log.Error("Tiler", err, map[string]interface{}{"sample": scan.ID})
		return nil
	}

	results := make([]SliceResult, len(windows))
	workers := max(s.params.NumWorkers, 1)

	// Worker pool
	windowChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range windowChan {
				if err := ctx.Err(); err != nil {
					results[idx] = SliceResult{SampleID: scan.ID, Index: idx, Err: err}
					continue
				}
				results[idx] = s.processWithRetry(windows[idx])
				s.processed.Add(1)
			}
		}()
	}

	// Send work
	sent := 0
send:
	for i := range windows {
		select {
		case windowChan <- i:
			sent++
		case <-ctx.Done():
			break send
		}
	}
	close(windowChan)
	wg.Wait()

	for i := sent; i < len(windows); i++ {
		results[i] = SliceResult{SampleID: scan.ID, Index: i, Err: ctx.Err()}
	}
	return results
}

// processWithRetry re-runs a unit that failed with a retryable error
func (s *Segmenter) processWithRetry(w models.SliceWindow) SliceResult {
	var res SliceResult
	for attempt := 1; attempt <= s.params.Retries+1; attempt++ {
		res = ProcessSlice(w, s.params, s.log)
		res.Attempts = attempt
		if res.Err == nil || !models.IsRetryable(res.Err) {
			break
		}
		s.log.Warning("Segmenter", "retrying slice: "+res.Err.Error(), map[string]interface{}{
			"sample": w.Scan.ID, "slice": w.Index, "attempt": attempt,
		})
	}

	fields := map[string]interface{}{
		"sample":   w.Scan.ID,
		"slice":    w.Index,
		"grains":   res.Grains,
		"duration": res.Duration,
	}
	if res.Err != nil && !errors.Is(res.Err, models.ErrDegenerateImage) {
		s.log.Error("Segmenter", res.Err, fields)
	} else if res.Err == nil {
		s.log.Info("Labeler", "records written", fields)
	}
	return res
}

// reportProgress logs the slice throughput every few seconds until done is closed
func (s *Segmenter) reportProgress(done <-chan struct{}, start time.Time) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p := s.processed.Load()
			if p > 0 {
				elapsed := time.Since(start).Seconds()
				s.log.Info("Segmenter", "progress", map[string]interface{}{
					"slices": p, "rate": float64(p) / elapsed,
				})
			}
		}
	}
}
