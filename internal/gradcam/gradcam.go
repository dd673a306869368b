// Package gradcam is the visualization entry path: it skips training and
// feeds a test dataloader to the registered Grad-CAM collaborator.
package gradcam

import (
	"context"
	"log/slog"

	"github.com/mkuronen/phonolab/internal/audioclip"
	"github.com/mkuronen/phonolab/internal/dataset"
	"github.com/mkuronen/phonolab/internal/experiment"
	"github.com/mkuronen/phonolab/internal/logging"
	"github.com/mkuronen/phonolab/internal/manifest"
	"github.com/mkuronen/phonolab/internal/train"
)

var logger *slog.Logger = logging.ForService("gradcam")

// Run builds the fixed CinC test dataset and hands it to the visualizer.
// Callers must have validated that the data source is CinC.
func Run(ctx context.Context, cfg experiment.Config) error {
	engine, err := train.ActiveEngine()
	if err != nil {
		return err
	}
	visualizer, err := train.ActiveVisualizer()
	if err != nil {
		return err
	}

	cfg.ClassNames = []int{0, 1}
	spec := cfg.Spec()

	loadFn := audioclip.NewLoadFunc(experiment.CinCParams.SampleRate, experiment.CinCParams.ClipSeconds)
	pre, err := engine.NewPreprocessor(spec, "test", experiment.CinCParams.SampleRate)
	if err != nil {
		return err
	}

	ds, err := dataset.New(cfg.ManifestPath, loadFn, pre.Transform,
		manifest.CinCLabel, manifest.FirstColumnPath, "test")
	if err != nil {
		return err
	}

	loader, err := dataset.NewLoader("normal", ds, "test", cfg.BatchSize)
	if err != nil {
		return err
	}

	logger.Info("rendering Grad-CAM maps", "manifest", cfg.ManifestPath, "samples", ds.Len())

	return visualizer.Render(ctx, spec, loader, loadFn)
}
