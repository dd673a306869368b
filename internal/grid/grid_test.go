package grid

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkuronen/phonolab/internal/conf"
	"github.com/mkuronen/phonolab/internal/datastore"
	"github.com/mkuronen/phonolab/internal/errors"
	"github.com/mkuronen/phonolab/internal/experiment"
	"github.com/mkuronen/phonolab/internal/metrics"
)

func hssOrchestrator(runSingle func(ctx context.Context, cfg experiment.Config) (float64, error)) *Orchestrator {
	o := New(experiment.Config{DataSource: conf.DataSourceHSS, LogID: "ut"}, nil)
	o.runSingle = runSingle
	return o
}

func cincOrchestrator(runCV func(ctx context.Context, cfg experiment.Config) (float64, metrics.FoldValues, error)) *Orchestrator {
	o := New(experiment.Config{DataSource: conf.DataSourceCinC, LogID: "ut"}, nil)
	o.runCV = runCV
	return o
}

func TestGridShapeAndOrder(t *testing.T) {
	t.Parallel()

	var calls []Cell
	o := cincOrchestrator(func(ctx context.Context, cfg experiment.Config) (float64, metrics.FoldValues, error) {
		calls = append(calls, Cell{ModelType: cfg.ModelType, LearningRate: cfg.LearningRate})
		return 0.5, metrics.FoldValues{"uar": {0.5}}, nil
	})

	results, err := o.Run(context.Background())
	require.NoError(t, err)

	wantCells := len(Models) * len(LearningRates)
	assert.Len(t, results.Cells, wantCells)
	assert.Len(t, results.Val, wantCells)
	for _, name := range experiment.TestMetricNames {
		assert.Len(t, results.Test[name], wantCells, "metric %s", name)
	}

	// model-major, learning-rate-minor order
	assert.Equal(t, Cell{ModelType: "vgg16", LearningRate: 0.0001}, calls[0])
	assert.Equal(t, Cell{ModelType: "vgg16", LearningRate: 0.00001}, calls[1])
	assert.Equal(t, Cell{ModelType: "vgg19", LearningRate: 0.0001}, calls[2])
	assert.Equal(t, Cell{ModelType: "resnext", LearningRate: 0.00001}, calls[len(calls)-1])
}

func TestGridHSSAveragesSeeds(t *testing.T) {
	t.Parallel()

	var seeds []int64
	o := hssOrchestrator(func(ctx context.Context, cfg experiment.Config) (float64, error) {
		if cfg.ModelType == "vgg16" && cfg.LearningRate == 0.0001 {
			seeds = append(seeds, cfg.Seed)
		}
		return 0.6 + float64(cfg.Seed)/10, nil
	})

	results, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 1, 2, 3, 4}, seeds)
	// mean of 0.6..1.0
	assert.InDelta(t, 0.8, results.Test["uar"][0], 1e-9)
	// single-split tracks only uar; the other sequences hold NaN placeholders
	assert.True(t, math.IsNaN(results.Test["f1"][0]))
	assert.True(t, math.IsNaN(results.Val[0]), "no validation aggregate for single-split cells")
}

func TestGridCinCEndToEnd(t *testing.T) {
	t.Parallel()

	// stub training manager returns fixed per-fold metrics for 2 folds
	o := cincOrchestrator(func(ctx context.Context, cfg experiment.Config) (float64, metrics.FoldValues, error) {
		return 0.725, metrics.FoldValues{
			"uar":         {0.8, 0.9},
			"recall_1":    {0.7, 0.7},
			"specificity": {0.6, 0.8},
			"f1":          {0.5, 0.7},
		}, nil
	})

	results, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 0.85, results.Test["uar"][0], 1e-9)
	assert.InDelta(t, 0.7, results.Test["recall_1"][0], 1e-9)
	assert.InDelta(t, 0.725, results.Val[0], 1e-9)
}

func TestGridAbortsOnCellFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	o := cincOrchestrator(func(ctx context.Context, cfg experiment.Config) (float64, metrics.FoldValues, error) {
		calls++
		if calls == 3 {
			return 0, nil, errors.NewStd("training diverged")
		}
		return 0.5, metrics.FoldValues{"uar": {0.5}}, nil
	})

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "training diverged")
	assert.Equal(t, 3, calls, "remaining cells must not run after a failure")
}

func TestGridPersistsCellsToStore(t *testing.T) {
	t.Parallel()

	store, err := datastore.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	o := New(experiment.Config{DataSource: conf.DataSourceCinC, LogID: "ut-db"}, store)
	o.runCV = func(ctx context.Context, cfg experiment.Config) (float64, metrics.FoldValues, error) {
		return 0.7, metrics.FoldValues{"uar": {0.8}}, nil
	}

	_, err = o.Run(context.Background())
	require.NoError(t, err)

	records, err := store.RunsByLogID("ut-db")
	require.NoError(t, err)
	require.Len(t, records, len(Models)*len(LearningRates))
	assert.Equal(t, "vgg16", records[0].ModelType)
	assert.InDelta(t, 0.8, records[0].UAR, 1e-9)
	assert.InDelta(t, 0.7, records[0].ValUAR, 1e-9)
}

func TestResultsWriteCSV(t *testing.T) {
	t.Parallel()

	o := cincOrchestrator(func(ctx context.Context, cfg experiment.Config) (float64, metrics.FoldValues, error) {
		return 0.5, metrics.FoldValues{"uar": {0.5}, "recall_1": {0.4}, "specificity": {0.3}, "f1": {0.2}}, nil
	})
	results, err := o.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, results.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "model,lr,val_uar,uar,recall_1,specificity,f1", lines[0])
	assert.Len(t, lines, 1+len(Models)*len(LearningRates))
	assert.Equal(t, "vgg16,0.0001,0.5,0.5,0.4,0.3,0.2", lines[1])
	assert.Equal(t, "vgg16,1e-05,0.5,0.5,0.4,0.3,0.2", lines[2])
}
