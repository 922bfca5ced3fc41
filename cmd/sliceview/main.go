package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sliceview/internal/models"
	"sliceview/pkg/colortable"
	"sliceview/pkg/config"
	"sliceview/pkg/render2d"
	"sliceview/pkg/visualization"
	"sliceview/pkg/volume"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing the 2D slice images of the volume")
	labelsDir := flag.String("labels", "", "Directory containing the label slice images (optional)")
	configPath := flag.String("config", "sliceview.yaml", "Configuration file")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file and exit")
	outputDir := flag.String("output", "frames", "Directory to save rendered frames")
	orientation := flag.String("orientation", "", "Render only this orientation (x, y, z, sagittal, coronal, axial)")
	extractSlices := flag.Bool("extract-slices", false, "Render and save every slice along each orientation")
	colortableName := flag.String("colortable", "", "Volume colortable (palette or custom table name)")
	verbose := flag.Bool("verbose", false, "Log renderer activity")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default configuration: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *colortableName != "" {
		cfg.Display.Colortable = *colortableName
	}
	if *verbose {
		cfg.Output.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.Output.Verbose {
		render2d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	orientations := []string{"x", "y", "z"}
	if *orientation != "" {
		if _, err := render2d.ParseOrientation(*orientation); err != nil {
			log.Fatalf("Invalid orientation: %v", err)
		}
		orientations = []string{*orientation}
	}

	startTime := time.Now()
	vol, err := loadVolume(cfg, *inputDir, *labelsDir)
	if err != nil {
		log.Fatalf("Failed to load volume: %v", err)
	}
	fmt.Printf("Loaded volume %dx%dx%d, intensities [%.1f, %.1f]\n", vol.Width, vol.Height, vol.Depth, vol.Min, vol.Max)
	fmt.Printf("Display window: [%.1f, %.1f]\n", vol.WindowLow, vol.WindowHigh)

	viewer := visualization.NewViewer(vol, cfg.Renderer.Width, cfg.Renderer.Height)
	viewer.JPEGQuality = cfg.Output.JPEGQuality
	viewer.Radiological = cfg.Renderer.Radiological
	ext := strings.ToLower(cfg.Output.Format)

	files, err := viewer.SaveCurrent(*outputDir, "frame", ext, orientations...)
	if err != nil {
		log.Fatalf("Rendering failed: %v", err)
	}
	for _, f := range files {
		fmt.Printf("Frame saved to: %s\n", f)
	}

	if *extractSlices {
		fmt.Println("\nRendering slices along each orientation...")
		for _, o := range orientations {
			dir := filepath.Join(*outputDir, "slices", o)
			fmt.Printf("Saving %s slices to: %s\n", o, dir)

			if err := viewer.SaveSliceSequence(o, dir, ext); err != nil {
				log.Printf("Warning: Failed to save %s slices: %v", o, err)
			}
		}
		fmt.Println("Slice extraction completed!")
	}

	fmt.Printf("\nCompleted in %.2f seconds\n", time.Since(startTime).Seconds())
}

// loadVolume reads the volume and optional label stacks and applies the
// display settings of cfg.
func loadVolume(cfg *config.Config, inputDir, labelsDir string) (*models.Volume, error) {
	st, err := volume.LoadStack(inputDir)
	if err != nil {
		return nil, err
	}

	var spacing [3]float64
	copy(spacing[:], cfg.Volume.Spacing)
	vol, err := volume.New(st.Data, st.Width, st.Height, st.Depth, spacing)
	if err != nil {
		return nil, err
	}

	d := cfg.Display
	vol.Parametric = d.Parametric
	if d.Colortable != "" {
		if vol.ColorTable, err = cfg.ColorTable(d.Colortable); err != nil {
			return nil, err
		}
	}
	switch {
	case d.Window != nil:
		vol.WindowLow, vol.WindowHigh = d.Window[0], d.Window[1]
	case d.AutoWindow != nil:
		if err := volume.AutoWindow(vol, d.AutoWindow[0], d.AutoWindow[1]); err != nil {
			return nil, err
		}
	}
	if d.Threshold != nil {
		vol.LowerThreshold, vol.UpperThreshold = d.Threshold[0], d.Threshold[1]
	}

	if labelsDir == "" {
		return vol, nil
	}

	ls, err := volume.LoadStack(labelsDir)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	if ls.Width != st.Width || ls.Height != st.Height || ls.Depth != st.Depth {
		return nil, fmt.Errorf("labels are %dx%dx%d, volume is %dx%dx%d", ls.Width, ls.Height, ls.Depth, st.Width, st.Height, st.Depth)
	}
	// label images store integral IDs as gray levels
	for i, v := range ls.Data {
		ls.Data[i] = math.Round(v)
	}

	name := d.LabelmapColortable
	if name == "" {
		name = colortable.Categorical.String()
	}
	table, err := cfg.ColorTable(name)
	if err != nil {
		return nil, err
	}
	lm, err := volume.AttachLabelmap(vol, ls.Data, table)
	if err != nil {
		return nil, err
	}
	lm.Opacity = d.LabelmapOpacity
	return vol, nil
}
