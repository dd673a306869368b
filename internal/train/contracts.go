// Package train defines the contracts of the external training collaborators:
// the preprocessing transform, the model manager driving one train/test run,
// the training manager driving cross-validation folds, and the Grad-CAM
// visualizer. The experiment layer orchestrates these through an Engine; the
// implementations live outside this repository and register at startup.
package train

import (
	"context"
	"sync"

	"github.com/mkuronen/phonolab/internal/audioclip"
	"github.com/mkuronen/phonolab/internal/dataset"
	"github.com/mkuronen/phonolab/internal/errors"
	"github.com/mkuronen/phonolab/internal/manifest"
	"github.com/mkuronen/phonolab/internal/metrics"
)

// Spec carries the per-cell hyperparameters a backend needs to build and
// train one model.
type Spec struct {
	ModelType    string
	TaskType     string // classify or regress
	Transform    string // preprocessing transform name
	LearningRate float64
	Seed         int64
	BatchSize    int
	Epochs       int
	NFolds       int
	ClassNames   []int
	PrevClasses  []int
	LoaderType   string // normal or ml
	LogID        string
}

// Preprocessor exposes the per-sample feature transform for one phase.
type Preprocessor interface {
	Transform(wave []float64) ([]float64, error)
}

// ModelManager trains one model on fixed dataloaders and evaluates it once.
type ModelManager interface {
	Train(ctx context.Context) error
	// Test runs one evaluation pass and returns predictions, targets and
	// the metric set with test-phase values filled in.
	Test(ctx context.Context) (preds, targets []float64, results *metrics.Set, err error)
	// Release frees the trained model to bound memory across grid cells.
	Release()
}

// TrainManagerDeps is everything a training manager needs to carve folds out
// of the combined manifest and run them.
type TrainManagerDeps struct {
	Spec         Spec
	ManifestPath string
	Load         audioclip.LoadFunc
	Label        manifest.LabelFunc
	Path         manifest.PathFunc
	Process      dataset.ProcessFunc
	Metrics      map[string]*metrics.Set // keyed by phase: train, val, test
}

// TrainManager runs the full cross-validation loop and reports per-fold
// validation scores and per-fold test metric values.
type TrainManager interface {
	TrainTest(ctx context.Context) (ModelManager, []float64, metrics.FoldValues, error)
}

// Visualizer renders Grad-CAM maps over a test dataloader.
type Visualizer interface {
	Render(ctx context.Context, spec Spec, loader dataset.Loader, load audioclip.LoadFunc) error
}

// Engine is the pluggable training backend.
type Engine interface {
	NewPreprocessor(spec Spec, phase string, sampleRate int) (Preprocessor, error)
	NewModelManager(spec Spec, loaders map[string]dataset.Loader, set *metrics.Set) (ModelManager, error)
	NewTrainManager(deps TrainManagerDeps) (TrainManager, error)
}

var (
	registryMu       sync.RWMutex
	activeEngine     Engine
	activeVisualizer Visualizer
)

// RegisterEngine installs the training backend. Typically called from an
// init function in the backend's package.
func RegisterEngine(engine Engine) {
	registryMu.Lock()
	defer registryMu.Unlock()
	activeEngine = engine
}

// ActiveEngine returns the registered backend, or a configuration error.
func ActiveEngine() (Engine, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if activeEngine == nil {
		return nil, errors.Newf("no training engine registered").
			Component("train").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return activeEngine, nil
}

// RegisterVisualizer installs the Grad-CAM collaborator.
func RegisterVisualizer(v Visualizer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	activeVisualizer = v
}

// ActiveVisualizer returns the registered visualizer, or an error.
func ActiveVisualizer() (Visualizer, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if activeVisualizer == nil {
		return nil, errors.Newf("no visualizer registered").
			Component("train").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return activeVisualizer, nil
}
