package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"fafscore/pkg/config"
	"fafscore/pkg/logger"
	"fafscore/pkg/pipeline"
	"fafscore/pkg/roi"
)

func main() {
	// Parse command line arguments
	manifestPath := flag.String("manifest", "", "YAML manifest listing images and landmarks")
	configPath := flag.String("config", "fafscore.yaml", "Configuration file (defaults used if absent)")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to the -config path and exit")
	outputCSV := flag.String("output", "pixel_scores.csv", "Output CSV with one score per image")
	shapeName := flag.String("shape", "elliptic", "ROI shape: elliptic or peripapillary")
	outerEllipse := flag.Bool("outer", false, "Use the outer ellipse radii (elliptic ROI only)")
	scoreMatrix := flag.Bool("score-matrix", false, "Render per-pixel score illustrations")
	reuseHistograms := flag.Bool("reuse-histograms", false, "Reuse cached background histograms when present")
	numCores := flag.Int("cores", 0, "Number of images to score concurrently (default: from config)")
	workDir := flag.String("workdir", "", "Directory for per-image work files (default: from config)")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	if *manifestPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}
	if *workDir != "" {
		cfg.Output.WorkDir = *workDir
	}
	if *scoreMatrix {
		cfg.Output.SaveScoreMatrix = true
	}

	shape, err := roi.ParseShape(*shapeName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Println("================================")
	fmt.Println("FAF PIXEL SCORE")
	fmt.Println("Severity scoring of fundus autofluorescence images in ABCA4-related retinopathy")
	fmt.Println("================================")

	zlog := logger.New(cfg.Output.Verbose)

	params := &pipeline.Params{
		ManifestPath:    *manifestPath,
		Shape:           shape,
		OuterEllipse:    *outerEllipse,
		ReuseHistograms: *reuseHistograms,
		Config:          cfg,
	}
	store := pipeline.NewCSVStore(*outputCSV)
	runner := pipeline.NewRunner(params, store, zlog)

	startTime := time.Now()
	results, err := runner.Run()
	if err != nil {
		log.Fatalf("Batch run failed: %v", err)
	}
	if err := store.Flush(); err != nil {
		log.Fatalf("Failed to write scores: %v", err)
	}
	processingTime := time.Since(startTime)

	scored, failed := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		} else {
			scored++
		}
	}

	fmt.Printf("\nScored %d of %d images in %.2f seconds\n", scored, len(results), processingTime.Seconds())
	fmt.Printf("Scores written to: %s\n", *outputCSV)
	fmt.Printf("Work files in: %s\n", cfg.Output.WorkDir)

	if failed > 0 {
		fmt.Printf("\n%d image(s) could not be scored:\n", failed)
		for _, res := range results {
			if res.Err != nil {
				fmt.Printf("- %s: %v\n", res.Alias, res.Err)
			}
		}
		os.Exit(1)
	}
}
