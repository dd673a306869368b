// Package grid iterates the experiment grid (model architectures × learning
// rates, × seeds for the single-split family) and collects the aggregated
// metrics of every cell into result sequences for export.
package grid

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/mkuronen/phonolab/internal/conf"
	"github.com/mkuronen/phonolab/internal/datastore"
	"github.com/mkuronen/phonolab/internal/experiment"
	"github.com/mkuronen/phonolab/internal/logging"
	"github.com/mkuronen/phonolab/internal/metrics"
)

var logger *slog.Logger = logging.ForService("grid")

// Models is the fixed architecture axis of the grid.
var Models = []string{"vgg16", "vgg19", "resnet", "mobilenet", "resnext"}

// LearningRates is the fixed learning-rate axis of the grid.
var LearningRates = []float64{0.0001, 0.00001}

// SeedCount is how many seeds the single-split family averages per cell.
const SeedCount = 5

// Cell identifies one grid position.
type Cell struct {
	ModelType    string
	LearningRate float64
}

// Results collects per-cell aggregates in model-major, learning-rate-minor
// order. Metric names without values in a cell record NaN, mirroring the
// mean of an empty sequence.
type Results struct {
	Cells []Cell
	Val   []float64
	Test  map[string][]float64
}

// Orchestrator runs the grid over a base cell configuration.
type Orchestrator struct {
	base  experiment.Config
	store *datastore.Store

	// runner indirection so the grid logic is testable without a training
	// backend
	runSingle func(ctx context.Context, cfg experiment.Config) (float64, error)
	runCV     func(ctx context.Context, cfg experiment.Config) (float64, metrics.FoldValues, error)
}

// New builds an orchestrator. store may be nil to skip database persistence.
func New(base experiment.Config, store *datastore.Store) *Orchestrator {
	return &Orchestrator{
		base:      base,
		store:     store,
		runSingle: experiment.RunSingleSplit,
		runCV:     experiment.RunCrossValidation,
	}
}

// Run executes every grid cell sequentially. A cell failure aborts the grid:
// training runs are too expensive to retry blindly and partial grids would
// skew the aggregates.
func (o *Orchestrator) Run(ctx context.Context) (*Results, error) {
	results := &Results{Test: make(map[string][]float64, len(experiment.TestMetricNames))}

	for _, model := range Models {
		logger.Info("grid model", "model", model)

		for _, lr := range LearningRates {
			cfg := o.base.WithModel(model).WithLearningRate(lr)

			cellTest := metrics.FoldValues{}
			var cellVal []float64

			switch cfg.DataSource {
			case conf.DataSourceHSS:
				for seed := int64(0); seed < SeedCount; seed++ {
					uar, err := o.runSingle(ctx, cfg.WithSeed(seed))
					if err != nil {
						return nil, fmt.Errorf("cell %s lr=%g seed=%d: %w", model, lr, seed, err)
					}
					cellTest.Append("uar", uar)
				}
			case conf.DataSourceCinC:
				valUAR, folds, err := o.runCV(ctx, cfg)
				if err != nil {
					return nil, fmt.Errorf("cell %s lr=%g: %w", model, lr, err)
				}
				cellVal = append(cellVal, valUAR)
				for _, name := range experiment.TestMetricNames {
					cellTest.Append(name, folds.Mean(name))
				}
			}

			results.Cells = append(results.Cells, Cell{ModelType: model, LearningRate: lr})
			results.Val = append(results.Val, meanOrNaN(cellVal))
			for _, name := range experiment.TestMetricNames {
				results.Test[name] = append(results.Test[name], meanOrNaN(cellTest[name]))
			}

			o.persistCell(cfg, results)
		}
	}

	o.logSummary(results)

	return results, nil
}

// persistCell writes the latest cell's aggregates to the run datastore.
// Database trouble is logged, not fatal, because the CSV artifacts already
// hold the results.
func (o *Orchestrator) persistCell(cfg experiment.Config, results *Results) {
	if o.store == nil {
		return
	}

	i := len(results.Cells) - 1
	seeds := 0
	if cfg.DataSource == conf.DataSourceHSS {
		seeds = SeedCount
	}
	record := &datastore.RunRecord{
		LogID:        cfg.LogID,
		DataSource:   cfg.DataSource.String(),
		ModelType:    cfg.ModelType,
		LearningRate: cfg.LearningRate,
		Seeds:        seeds,
		ValUAR:       nanToZero(results.Val[i]),
		UAR:          nanToZero(results.Test["uar"][i]),
		Recall1:      nanToZero(results.Test["recall_1"][i]),
		Specificity:  nanToZero(results.Test["specificity"][i]),
		F1:           nanToZero(results.Test["f1"][i]),
	}
	if err := o.store.SaveRun(record); err != nil {
		logger.Error("failed to persist run record", "model", cfg.ModelType,
			"lr", cfg.LearningRate, "error", err)
	}
}

func (o *Orchestrator) logSummary(results *Results) {
	logger.Info("grid finished", "cells", len(results.Cells), "val_uar", results.Val)
	for _, name := range experiment.TestMetricNames {
		logger.Info("aggregated test metric", "metric", name, "values", results.Test[name])
	}
}

// WriteCSV exports one row per cell with the validation score and every
// aggregated test metric.
func (r *Results) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := []string{"model", "lr", "val_uar"}
	header = append(header, experiment.TestMetricNames...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, cell := range r.Cells {
		row := []string{
			cell.ModelType,
			fmt.Sprintf("%g", cell.LearningRate),
			fmt.Sprintf("%g", r.Val[i]),
		}
		for _, name := range experiment.TestMetricNames {
			row = append(row, fmt.Sprintf("%g", r.Test[name][i]))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// Export writes the grid summary to <outputDir>/<logID>.csv.
func (r *Results) Export(outputDir, logID string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(outputDir, logID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := r.WriteCSV(f); err != nil {
		return err
	}
	logger.Info("exported grid summary", "path", path)
	return nil
}

// meanOrNaN keeps empty cells distinguishable: the mean of nothing is NaN,
// not zero.
func meanOrNaN(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return metrics.Mean(values)
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
