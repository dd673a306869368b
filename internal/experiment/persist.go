package experiment

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mkuronen/phonolab/internal/errors"
	"github.com/mkuronen/phonolab/internal/metrics"
)

// writeParams dumps the full cell configuration as indented JSON under
// output/params, keyed by the log id.
func writeParams(cfg Config) error {
	dir := filepath.Join(cfg.OutputDir, "params")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return persistError(err, dir)
	}

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return persistError(err, dir)
	}

	path := filepath.Join(dir, cfg.LogID+".txt")
	content := append([]byte("\nParameters:\n"), data...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return persistError(err, path)
	}
	return nil
}

// writeTestMetrics persists the test-phase metric table under output/metrics.
func writeTestMetrics(cfg Config, set *metrics.Set) error {
	f, err := createMetricsFile(cfg)
	if err != nil {
		return err
	}
	defer f.Close()
	return set.WriteCSV(f, "test")
}

// writeTestFoldMetrics persists the aggregated fold means under output/metrics.
func writeTestFoldMetrics(cfg Config, folds metrics.FoldValues) error {
	f, err := createMetricsFile(cfg)
	if err != nil {
		return err
	}
	defer f.Close()
	return metrics.WriteFoldCSV(f, folds)
}

func createMetricsFile(cfg Config) (*os.File, error) {
	dir := filepath.Join(cfg.OutputDir, "metrics")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, persistError(err, dir)
	}
	path := filepath.Join(dir, cfg.LogID+"_test.csv")
	f, err := os.Create(path)
	if err != nil {
		return nil, persistError(err, path)
	}
	return f, nil
}

func persistError(err error, path string) error {
	return errors.New(err).
		Component("experiment").
		Category(errors.CategoryFileIO).
		Context("path", path).
		Build()
}
