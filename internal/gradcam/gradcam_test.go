package gradcam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkuronen/phonolab/internal/audioclip"
	"github.com/mkuronen/phonolab/internal/conf"
	"github.com/mkuronen/phonolab/internal/dataset"
	"github.com/mkuronen/phonolab/internal/experiment"
	"github.com/mkuronen/phonolab/internal/metrics"
	"github.com/mkuronen/phonolab/internal/train"
)

type passthroughPreprocessor struct{}

func (passthroughPreprocessor) Transform(wave []float64) ([]float64, error) {
	return wave, nil
}

type noTrainEngine struct{}

func (noTrainEngine) NewPreprocessor(spec train.Spec, phase string, sampleRate int) (train.Preprocessor, error) {
	return passthroughPreprocessor{}, nil
}

func (noTrainEngine) NewModelManager(spec train.Spec, loaders map[string]dataset.Loader, set *metrics.Set) (train.ModelManager, error) {
	panic("gradcam path must not construct a model manager")
}

func (noTrainEngine) NewTrainManager(deps train.TrainManagerDeps) (train.TrainManager, error) {
	panic("gradcam path must not construct a training manager")
}

type recordingVisualizer struct {
	spec    train.Spec
	samples int
	called  bool
}

func (v *recordingVisualizer) Render(ctx context.Context, spec train.Spec, loader dataset.Loader, load audioclip.LoadFunc) error {
	v.called = true
	v.spec = spec
	v.samples = loader.Dataset().Len()
	return nil
}

func TestRunForwardsTestLoaderToVisualizer(t *testing.T) {
	train.RegisterEngine(noTrainEngine{})
	visualizer := &recordingVisualizer{}
	train.RegisterVisualizer(visualizer)

	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "cinc_manifest.csv")
	require.NoError(t, os.WriteFile(manifestPath,
		[]byte("/wav/a0001.wav,Normal\n/wav/a0002.wav,Abnormal\n"), 0o644))

	cfg := experiment.Config{
		DataSource:   conf.DataSourceCinC,
		ModelType:    "resnet",
		BatchSize:    2,
		ManifestPath: manifestPath,
		LogID:        "ut-gradcam",
	}

	require.NoError(t, Run(context.Background(), cfg))
	assert.True(t, visualizer.called)
	assert.Equal(t, 2, visualizer.samples)
	assert.Equal(t, []int{0, 1}, visualizer.spec.ClassNames)
}
