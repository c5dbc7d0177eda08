// Package pipeline orchestrates batch pixel scoring: one image is one
// task, pipelines for different images share nothing but read-only
// configuration. Per-image failures are collected and reported while
// the rest of the batch completes; configuration-level failures abort
// the run before any image is processed.
package pipeline

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"fafscore/internal/models"
	"fafscore/pkg/background"
	"fafscore/pkg/config"
	"fafscore/pkg/geometry"
	"fafscore/pkg/histogram"
	"fafscore/pkg/imgio"
	"fafscore/pkg/mixture"
	"fafscore/pkg/roi"
	"fafscore/pkg/scoring"
)

// usableRegionChannel is the channel of the RGBA region annotations
// that carries the flag (blue).
const usableRegionChannel = 2

// Params configure one batch run.
type Params struct {
	// ManifestPath is the YAML image manifest.
	ManifestPath string

	// Shape selects the ROI kind to score.
	Shape roi.Shape

	// OuterEllipse selects the outer ellipse radii for the elliptic
	// ROI. It has no effect for the peripapillary ring.
	OuterEllipse bool

	// ReuseHistograms reuses cached background histograms when present
	// instead of recomputing them.
	ReuseHistograms bool

	// Config is the shared run configuration.
	Config *config.Config
}

// Result is the outcome for one image: a score or the error that made
// the image unscoreable.
type Result struct {
	Alias string
	Score float64
	Err   error
}

// Runner executes batch runs.
type Runner struct {
	params *Params
	store  ScoreStore
	log    zerolog.Logger
}

// NewRunner creates a runner that persists scores into store.
func NewRunner(params *Params, store ScoreStore, log zerolog.Logger) *Runner {
	return &Runner{params: params, store: store, log: log}
}

// Run scores every image in the manifest. The returned results are
// keyed by alias in manifest order; a non-nil Result.Err marks a
// per-image failure that did not stop the batch. Run itself returns an
// error only for run-level problems: an unreadable manifest or a
// configuration under which every image would fail identically.
func (r *Runner) Run() ([]Result, error) {
	cfg := r.params.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration rejected: %w", err)
	}

	manifest, err := LoadManifest(r.params.ManifestPath)
	if err != nil {
		return nil, err
	}
	r.log.Info().
		Str("component", "pipeline").
		Int("images", len(manifest.Images)).
		Str("shape", r.params.Shape.String()).
		Msg("starting batch")

	type indexed struct {
		idx int
		res Result
	}
	jobs := make(chan int)
	out := make(chan indexed)

	workers := cfg.Processing.NumCores
	if workers > len(manifest.Images) {
		workers = len(manifest.Images)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rec := manifest.Images[idx]
				score, err := r.scoreImage(rec)
				out <- indexed{idx, Result{Alias: rec.Alias, Score: score, Err: err}}
			}
		}()
	}
	go func() {
		for idx := range manifest.Images {
			jobs <- idx
		}
		close(jobs)
		wg.Wait()
		close(out)
	}()

	results := make([]Result, len(manifest.Images))
	for ir := range out {
		results[ir.idx] = ir.res
		if ir.res.Err != nil {
			r.log.Error().
				Str("component", "pipeline").
				Str("alias", ir.res.Alias).
				Err(ir.res.Err).
				Msg("image failed")
		} else {
			r.log.Debug().
				Str("component", "pipeline").
				Str("alias", ir.res.Alias).
				Float64("score", ir.res.Score).
				Msg("image scored")
		}
	}
	return results, nil
}

// scoreImage runs the full mask -> histogram -> fit -> score pipeline
// for one image. All errors are wrapped with the image identity so an
// operator can find the offending data.
func (r *Runner) scoreImage(rec models.ImageRecord) (float64, error) {
	cfg := r.params.Config

	landmarks, err := rec.Landmarks()
	if err != nil {
		return 0, err
	}

	img, err := imgio.LoadGray(rec.ImagePath)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", rec.Alias, err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	geom, err := geometry.New(landmarks.DiscCenter(), landmarks.FoveaCenter(), cfg.GeometryRatios())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", rec.Alias, err)
	}

	var usable, vasculature *roi.Mask
	if rec.UsableRegionPath != "" {
		if usable, err = imgio.LoadChannelMask(rec.UsableRegionPath, usableRegionChannel); err != nil {
			return 0, fmt.Errorf("%s: %w", rec.Alias, err)
		}
	}
	if rec.VasculaturePath != "" {
		if vasculature, err = imgio.LoadGrayMask(rec.VasculaturePath); err != nil {
			return 0, fmt.Errorf("%s: %w", rec.Alias, err)
		}
	}

	bgParams, err := r.backgroundParams(rec, img, usable)
	if err != nil {
		return 0, err
	}

	mask, err := roi.Build(r.params.Shape, width, height, geom, usable, vasculature, r.params.OuterEllipse)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", rec.Alias, err)
	}

	weights := scoring.Weights{
		White: cfg.Score.WhitePixelWeight,
		Black: cfg.Score.BlackPixelWeight,
	}
	score, matrix, err := scoring.Score(img, mask, bgParams, weights, cfg.Output.SaveScoreMatrix)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", rec.Alias, err)
	}

	if matrix != nil {
		if err := r.saveScoreIllustration(rec, geom, matrix); err != nil {
			// The score itself is good; a failed illustration is
			// reported but does not fail the image.
			r.log.Warn().
				Str("component", "pipeline").
				Str("alias", rec.Alias).
				Err(err).
				Msg("score illustration not saved")
		}
	}

	if err := r.store.Upsert(rec.Alias, r.params.Shape, score); err != nil {
		return 0, fmt.Errorf("%s: storing score: %w", rec.Alias, err)
	}
	return score, nil
}

// backgroundParams estimates the corrected background distribution for
// one image from its background-sample histogram, reusing the cached
// histogram when the run allows it.
func (r *Runner) backgroundParams(rec models.ImageRecord, img *image.Gray, usable *roi.Mask) (background.Params, error) {
	cfg := r.params.Config

	if rec.BgSamplePath == "" {
		return background.Params{}, fmt.Errorf("%s: no background sample region", rec.Alias)
	}
	bgMask, err := imgio.LoadChannelMask(rec.BgSamplePath, usableRegionChannel)
	if err != nil {
		return background.Params{}, fmt.Errorf("%s: %w", rec.Alias, err)
	}
	if usable != nil {
		if bgMask, err = bgMask.Intersect(usable); err != nil {
			return background.Params{}, fmt.Errorf("%s: %w", rec.Alias, err)
		}
	}

	histPath := filepath.Join(cfg.Output.WorkDir, rec.Alias, "bg_histogram.txt")
	hist, err := histogram.FromImageCached(img, bgMask, histPath, r.params.ReuseHistograms)
	if err != nil {
		return background.Params{}, fmt.Errorf("%s: %w", rec.Alias, err)
	}

	fitter := mixture.NewFitter()
	fitter.MaxIterations = cfg.Processing.EMMaxIterations
	fitter.Seed = cfg.Processing.EMSeed
	params, err := background.FromHistogramFitter(fitter, hist, cfg.Processing.MixtureComponents, cfg.Score.GradientCorrection)
	if err != nil {
		return background.Params{}, fmt.Errorf("%s: %w", rec.Alias, err)
	}
	return params, nil
}

// saveScoreIllustration renders the score matrix and writes the
// fovea-centered crop next to the image's other work files.
func (r *Runner) saveScoreIllustration(rec models.ImageRecord, geom *geometry.Geometry, matrix *scoring.Matrix) error {
	cfg := r.params.Config
	rendered := matrix.Render()
	window := scoring.CropWindow(
		geom.FoveaCenter().X, geom.FoveaCenter().Y,
		geom.UnitDistance(), cfg.Geometry.CroppingRadii,
		matrix.Width, matrix.Height,
	)
	outPath := filepath.Join(cfg.Output.WorkDir, rec.Alias, "pixel_score.png")
	return imgio.SavePNG(rendered.SubImage(window), outPath)
}
