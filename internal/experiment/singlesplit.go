package experiment

import (
	"context"
	"log/slog"

	"github.com/mkuronen/phonolab/internal/audioclip"
	"github.com/mkuronen/phonolab/internal/dataset"
	"github.com/mkuronen/phonolab/internal/logging"
	"github.com/mkuronen/phonolab/internal/manifest"
	"github.com/mkuronen/phonolab/internal/metrics"
	"github.com/mkuronen/phonolab/internal/train"
)

var logger *slog.Logger = logging.ForService("experiment")

var singleSplitPhases = []string{"train", "val", "test"}

// RunSingleSplit trains one model on the fixed HSS train/val/test split and
// returns the test-phase UAR.
func RunSingleSplit(ctx context.Context, cfg Config) (float64, error) {
	engine, err := train.ActiveEngine()
	if err != nil {
		return 0, err
	}

	if cfg.TaskType == "regress" {
		cfg = cfg.withClasses([]int{0}, []int{0, 1})
	} else {
		cfg = cfg.withClasses([]int{0, 1, 2}, []int{0, 1})
	}

	loadFn := audioclip.NewLoadFunc(HSSParams.SampleRate, HSSParams.ClipSeconds)
	spec := cfg.Spec()

	loaders := make(map[string]dataset.Loader, len(singleSplitPhases))
	for _, phase := range singleSplitPhases {
		pre, err := engine.NewPreprocessor(spec, phase, HSSParams.SampleRate)
		if err != nil {
			return 0, err
		}

		ds, err := dataset.New(cfg.phasePath(phase), loadFn, pre.Transform,
			manifest.HSSLabel, hssPathFunc(phase), phase)
		if err != nil {
			return 0, err
		}

		loader, err := dataset.NewLoader(cfg.LoaderType, ds, phase, cfg.BatchSize)
		if err != nil {
			return 0, err
		}
		loaders[phase] = loader
	}

	set := metrics.NewSet(
		metrics.NewMetric("loss", metrics.Minimize, true),
		metrics.NewMetric("uar", metrics.Maximize, false),
	)

	manager, err := engine.NewModelManager(spec, loaders, set)
	if err != nil {
		return 0, err
	}

	logger.Info("training single-split model",
		"model", cfg.ModelType, "lr", cfg.LearningRate, "seed", cfg.Seed)

	if err := manager.Train(ctx); err != nil {
		return 0, err
	}

	_, _, results, err := manager.Test(ctx)
	if err != nil {
		return 0, err
	}
	// Free the model before artifacts are written; grid runs dozens of cells.
	manager.Release()

	if err := writeParams(cfg); err != nil {
		return 0, err
	}
	if err := writeTestMetrics(cfg, results); err != nil {
		return 0, err
	}

	uar := results.Find("uar").Meter("test").Value
	logger.Info("single-split experiment finished", "log_id", cfg.LogID, "test_uar", uar)

	return uar, nil
}

// hssPathFunc returns the path column accessor for one phase: train and val
// manifests carry the path last, the test manifest first.
func hssPathFunc(phase string) manifest.PathFunc {
	if phase == "test" {
		return manifest.FirstColumnPath
	}
	return manifest.LastColumnPath
}
