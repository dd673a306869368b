// Package experiment runs one grid cell: build datasets and dataloaders,
// drive the training collaborators, persist artifacts and return the scalar
// the grid aggregates.
package experiment

import (
	"github.com/mkuronen/phonolab/internal/conf"
	"github.com/mkuronen/phonolab/internal/train"
)

// FamilyParams are the audio parameters of one dataset family, declared once
// instead of living as literals inside the runners.
type FamilyParams struct {
	SampleRate  int
	ClipSeconds int
}

var (
	// HSSParams covers the heart-sound corpus: 10 s clips at 4 kHz.
	HSSParams = FamilyParams{SampleRate: 4000, ClipSeconds: 10}
	// CinCParams covers the PhysioNet/CinC corpus: 60 s clips at 2 kHz.
	CinCParams = FamilyParams{SampleRate: 2000, ClipSeconds: 60}
)

// TestMetricNames are the test-phase metrics the grid aggregates.
var TestMetricNames = []string{"uar", "recall_1", "specificity", "f1"}

// Config is the full configuration of one grid cell. It is a value type:
// the grid derives a fresh copy per cell with the With* methods, so cells
// never share mutable state.
type Config struct {
	DataSource   conf.DataSource `json:"data_source"`
	ModelType    string          `json:"model_type"`
	LearningRate float64         `json:"lr"`
	Seed         int64           `json:"seed"`
	TaskType     string          `json:"task_type"`
	Transform    string          `json:"transform"`
	LoaderType   string          `json:"dataloader_type"`
	BatchSize    int             `json:"batch_size"`
	Epochs       int             `json:"epochs"`
	NFolds       int             `json:"n_folds"`
	TrainPath    string          `json:"train_path"`
	ValPath      string          `json:"val_path"`
	TestPath     string          `json:"test_path"`
	ManifestPath string          `json:"manifest_path"`
	ClassNames   []int           `json:"class_names"`
	PrevClasses  []int           `json:"prev_classes"`
	LogID        string          `json:"log_id"`
	OutputDir    string          `json:"-"`
}

// FromSettings derives the base cell configuration from the loaded settings.
// Model type, learning rate and seed are filled in per cell by the grid.
func FromSettings(settings *conf.Settings) (Config, error) {
	source, err := conf.ParseDataSource(settings.Experiment.DataSource)
	if err != nil {
		return Config{}, err
	}
	return Config{
		DataSource:   source,
		TaskType:     settings.Experiment.TaskType,
		Transform:    settings.Experiment.Transform,
		LoaderType:   settings.Experiment.DataloaderType,
		BatchSize:    settings.Experiment.BatchSize,
		Epochs:       settings.Experiment.Epochs,
		NFolds:       settings.Experiment.NFolds,
		TrainPath:    settings.Experiment.TrainPath,
		ValPath:      settings.Experiment.ValPath,
		TestPath:     settings.Experiment.TestPath,
		ManifestPath: settings.Experiment.ManifestPath,
		LogID:        settings.Experiment.ID,
		OutputDir:    settings.Output.Dir,
	}, nil
}

// WithModel returns a copy with the model type replaced.
func (c Config) WithModel(modelType string) Config {
	c.ModelType = modelType
	return c
}

// WithLearningRate returns a copy with the learning rate replaced.
func (c Config) WithLearningRate(lr float64) Config {
	c.LearningRate = lr
	return c
}

// WithSeed returns a copy with the seed replaced.
func (c Config) WithSeed(seed int64) Config {
	c.Seed = seed
	return c
}

// withClasses returns a copy with fresh class slices so derived configs never
// alias the caller's.
func (c Config) withClasses(classNames, prevClasses []int) Config {
	c.ClassNames = append([]int(nil), classNames...)
	c.PrevClasses = append([]int(nil), prevClasses...)
	return c
}

// Spec projects the config into the view the training backends consume.
func (c Config) Spec() train.Spec {
	return train.Spec{
		ModelType:    c.ModelType,
		TaskType:     c.TaskType,
		Transform:    c.Transform,
		LearningRate: c.LearningRate,
		Seed:         c.Seed,
		BatchSize:    c.BatchSize,
		Epochs:       c.Epochs,
		NFolds:       c.NFolds,
		ClassNames:   append([]int(nil), c.ClassNames...),
		PrevClasses:  append([]int(nil), c.PrevClasses...),
		LoaderType:   c.LoaderType,
		LogID:        c.LogID,
	}
}

// phasePath returns the manifest path for one single-split phase.
func (c Config) phasePath(phase string) string {
	switch phase {
	case "train":
		return c.TrainPath
	case "val":
		return c.ValPath
	default:
		return c.TestPath
	}
}
