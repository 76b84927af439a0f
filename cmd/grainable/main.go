package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grainable/internal/logger"
	"grainable/internal/models"
	"grainable/pkg/config"
	"grainable/pkg/denoise"
	"grainable/pkg/imageio"
	"grainable/pkg/profile"
	"grainable/pkg/segmentation"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "grainable.yaml", "Path to the YAML configuration file")
	dataDir := flag.String("data", "", "Data directory holding raw-images, the slicing table and the bag list")
	recordDir := flag.String("out", "", "Directory receiving the per-slice grain records")
	numWorkers := flag.Int("workers", 0, "Number of slices processed concurrently (default: from config)")
	saveImages := flag.Bool("save-images", false, "Save a false-colour label image and the raw crop per slice")
	imageFormat := flag.String("format", "", "Preview image format, png or webp")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save every pipeline stage of every slice")
	buildProfile := flag.Bool("profile", false, "Compute the grain size depth profile of every bag after segmentation")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn or error (default: $LOG_LEVEL or info)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [sample ...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Without samples, every identifier in the bag list is processed.")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command line flags override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Input.DataDir = *dataDir
		case "out":
			cfg.Output.RecordDir = *recordDir
		case "workers":
			cfg.Processing.NumWorkers = *numWorkers
		case "save-images":
			cfg.Output.SaveImages = *saveImages
		case "format":
			cfg.Output.ImageFormat = *imageFormat
		case "save-intermediary":
			cfg.Output.SaveIntermediaryResults = *saveIntermediary
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	lg := logger.NewConsoleLogger(logger.ParseLevel(*logLevel))

	samples := flag.Args()
	if len(samples) == 0 {
		samples, err = imageio.ReadBagList(cfg.ResolveInput(cfg.Input.BagList))
		if err != nil {
			log.Fatalf("Failed to read bag list: %v", err)
		}
	}

	// Without a table every sample is skipped as missing input
	table, err := imageio.ReadSlicingTable(cfg.ResolveInput(cfg.Input.SlicingTable))
	if err != nil {
		lg.Warning("Tiler", "slicing table unavailable: "+err.Error(), nil)
		table = models.SlicingTable{}
	}

	fmt.Println("================================")
	fmt.Println("GRAIN SEGMENTATION OF ICE-CORE THIN SECTIONS")
	fmt.Printf("Backend: %s, workers: %d, samples: %d\n", denoise.Backend(), cfg.Processing.NumWorkers, len(samples))
	fmt.Println("================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	segmenter := segmentation.NewSegmenter(segmentation.ParamsFromConfig(cfg, table), lg)

	startTime := time.Now()
	summary, err := segmenter.Run(ctx, samples)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nInterrupted, finished slices are kept.")
	}

	slices, succeeded, failed, grains := summary.Counts()
	skipped := 0
	for _, s := range summary.Samples {
		if s.Skipped() {
			skipped++
		}
	}

	fmt.Printf("\nSegmentation finished in %.2f seconds\n", time.Since(startTime).Seconds())
	fmt.Printf("- Samples processed: %d (%d skipped)\n", len(summary.Samples)-skipped, skipped)
	fmt.Printf("- Slices: %d succeeded, %d failed of %d\n", succeeded, failed, slices)
	fmt.Printf("- Grains recorded: %d\n", grains)
	fmt.Printf("- Records saved to: %s\n", cfg.Output.RecordDir)
	if cfg.Output.SaveImages {
		fmt.Printf("- Previews saved to: %s\n", cfg.Output.ImageDir)
	}

	for _, s := range summary.Samples {
		for _, r := range s.Slices {
			if !r.OK() {
				fmt.Printf("  %s slice %d: %v\n", r.SampleID, r.Index, r.Err)
			}
		}
	}

	if *buildProfile && err == nil {
		params := profile.Params{
			StepSize:     cfg.Profile.StepSize,
			IntervalHalf: cfg.Profile.IntervalHalf,
			PxToCm:       cfg.Profile.PxToCm,
			SliceLength:  cfg.Tiling.SliceLength,
			Overlap:      cfg.Tiling.Overlap,
			Axis:         cfg.Profile.Axis,
		}
		fmt.Println("\nComputing grain size depth profiles...")
		for _, bag := range profile.Bags(samples) {
			points, err := profile.Build(cfg.Output.RecordDir, cfg.Profile.OutputDir, bag, params)
			if err != nil {
				lg.Error("Profile", err, map[string]interface{}{"bag": bag})
				continue
			}
			fmt.Printf("- %s: %d depth samples\n", profile.ProfilePath(cfg.Profile.OutputDir, bag), len(points))
		}
	}
}
