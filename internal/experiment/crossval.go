package experiment

import (
	"context"

	"github.com/mkuronen/phonolab/internal/audioclip"
	"github.com/mkuronen/phonolab/internal/manifest"
	"github.com/mkuronen/phonolab/internal/metrics"
	"github.com/mkuronen/phonolab/internal/train"
)

// RunCrossValidation delegates fold iteration to the training manager and
// aggregates its per-fold test metrics by arithmetic mean. It returns the
// mean validation UAR and the raw per-fold test values so the caller can do
// its own per-metric averaging.
func RunCrossValidation(ctx context.Context, cfg Config) (float64, metrics.FoldValues, error) {
	engine, err := train.ActiveEngine()
	if err != nil {
		return 0, nil, err
	}

	if cfg.TaskType == "regress" {
		cfg = cfg.withClasses([]int{0}, []int{0, 1})
	} else {
		cfg = cfg.withClasses([]int{0, 1}, []int{0, 1})
	}

	spec := cfg.Spec()
	loadFn := audioclip.NewLoadFunc(CinCParams.SampleRate, CinCParams.ClipSeconds)

	// One shared preprocessor built with test-phase parameters and reused
	// across every fold and phase. Intentional: folds must see identical
	// feature extraction.
	pre, err := engine.NewPreprocessor(spec, "test", CinCParams.SampleRate)
	if err != nil {
		return 0, nil, err
	}

	trainValTemplate := metrics.NewSet(
		metrics.NewMetric("loss", metrics.Minimize, true),
		metrics.NewMetric("uar", metrics.Maximize, false),
	)
	testSet := metrics.NewSet(
		metrics.NewMetric("loss", metrics.Minimize, true),
		metrics.NewMetric("uar", metrics.Maximize, false),
		metrics.NewMetric("recall_1", metrics.Maximize, false),
		metrics.NewMetric("specificity", metrics.Maximize, false),
		metrics.NewMetric("f1", metrics.Maximize, false),
	)
	// The train set is cloned off the template so fold state never aliases
	// the val meters.
	metricSets := map[string]*metrics.Set{
		"train": trainValTemplate.Clone(),
		"val":   trainValTemplate,
		"test":  testSet,
	}

	manager, err := engine.NewTrainManager(train.TrainManagerDeps{
		Spec:         spec,
		ManifestPath: cfg.ManifestPath,
		Load:         loadFn,
		Label:        manifest.CinCLabel,
		Path:         manifest.FirstColumnPath,
		Process:      pre.Transform,
		Metrics:      metricSets,
	})
	if err != nil {
		return 0, nil, err
	}

	logger.Info("running cross-validation",
		"model", cfg.ModelType, "lr", cfg.LearningRate, "folds", cfg.NFolds)

	model, valScores, testFolds, err := manager.TrainTest(ctx)
	if err != nil {
		return 0, nil, err
	}
	if model != nil {
		model.Release()
	}

	if err := writeParams(cfg); err != nil {
		return 0, nil, err
	}
	if err := writeTestFoldMetrics(cfg, testFolds); err != nil {
		return 0, nil, err
	}

	valUAR := metrics.Mean(valScores)
	logger.Info("cross-validation finished",
		"log_id", cfg.LogID, "val_uar", valUAR, "test_uar", testFolds.Mean("uar"))

	return valUAR, testFolds, nil
}
