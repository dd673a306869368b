// Package grid implements the `phonolab grid` command: build manifests if
// needed, then run the full experiment grid.
package grid

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkuronen/phonolab/internal/conf"
	"github.com/mkuronen/phonolab/internal/datastore"
	"github.com/mkuronen/phonolab/internal/experiment"
	"github.com/mkuronen/phonolab/internal/gradcam"
	"github.com/mkuronen/phonolab/internal/grid"
	"github.com/mkuronen/phonolab/internal/logging"
	"github.com/mkuronen/phonolab/internal/manifest"
)

// Command creates the grid command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Run the experiment grid",
		Long: `Build the dataset manifests when needed, then train and evaluate every
(model, learning rate) cell of the grid, averaging over five seeds for the
single-split family. With --gradcam the grid is skipped and the test set is
forwarded to the visualization collaborator instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrid(cmd.Context(), settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags configures flags specific to the grid command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	expt := &settings.Experiment
	cmd.Flags().StringVar(&expt.ID, "expt-id", expt.ID, "Experiment id used to key output artifacts")
	cmd.Flags().StringVar(&expt.DataSource, "data-source", expt.DataSource, "Dataset family: HSS or CinC")
	cmd.Flags().StringVar(&expt.DataloaderType, "dataloader-type", expt.DataloaderType, "Dataloader type: normal or ml")
	cmd.Flags().BoolVar(&expt.GradCAM, "gradcam", expt.GradCAM, "Run Grad-CAM visualization instead of the grid (CinC only)")
	cmd.Flags().StringVar(&expt.TaskType, "task-type", expt.TaskType, "Task type: classify or regress")
	cmd.Flags().StringVar(&expt.Transform, "transform", expt.Transform, "Preprocessing transform name")
	cmd.Flags().IntVar(&expt.BatchSize, "batch-size", expt.BatchSize, "Dataloader batch size")
	cmd.Flags().IntVar(&expt.Epochs, "epochs", expt.Epochs, "Training epochs per cell")
	cmd.Flags().IntVar(&expt.NFolds, "n-folds", expt.NFolds, "Cross-validation fold count (CinC)")
	cmd.Flags().StringVar(&expt.TrainPath, "train-path", expt.TrainPath, "Train manifest path")
	cmd.Flags().StringVar(&expt.ValPath, "val-path", expt.ValPath, "Validation manifest path")
	cmd.Flags().StringVar(&expt.TestPath, "test-path", expt.TestPath, "Test manifest path")
	cmd.Flags().StringVar(&expt.ManifestPath, "manifest-path", expt.ManifestPath, "Combined manifest path (CinC)")
	cmd.Flags().BoolVar(&expt.ExportSummary, "export-summary", expt.ExportSummary, "Write the grid summary CSV")
	cmd.Flags().BoolVar(&settings.Output.SQLite.Enabled, "sqlite", settings.Output.SQLite.Enabled, "Persist per-cell results to the run database")
}

func runGrid(ctx context.Context, settings *conf.Settings) error {
	if err := conf.ValidateGridPreconditions(settings); err != nil {
		return err
	}

	base, err := experiment.FromSettings(settings)
	if err != nil {
		return err
	}

	// Visualization is mutually exclusive with the grid loop.
	if settings.Experiment.GradCAM {
		if err := conf.ValidateGradCAMPreconditions(settings); err != nil {
			return err
		}
		return gradcam.Run(ctx, base)
	}

	base, err = buildManifests(settings, base)
	if err != nil {
		return err
	}

	var store *datastore.Store
	if settings.Output.SQLite.Enabled {
		store, err = datastore.Open(settings.Output.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	results, err := grid.New(base, store).Run(ctx)
	if err != nil {
		return err
	}

	// The settings snapshot is what makes a run reproducible; losing it is
	// not worth failing a finished grid over.
	if err := snapshotConfig(settings, base.LogID); err != nil {
		logging.Warn("failed to write config snapshot", "error", err)
	}

	if settings.Experiment.ExportSummary {
		return results.Export(settings.Output.Dir, base.LogID)
	}

	return nil
}

// snapshotConfig records the effective settings of a finished run next to
// its artifacts, keyed like the params and metrics files.
func snapshotConfig(settings *conf.Settings, logID string) error {
	if err := os.MkdirAll(settings.Output.Dir, 0o755); err != nil {
		return err
	}
	return conf.SaveSettings(filepath.Join(settings.Output.Dir, logID+"_config.yaml"), settings)
}

// buildManifests builds the manifests of the configured family, filling in
// any manifest paths the user did not pin explicitly.
func buildManifests(settings *conf.Settings, base experiment.Config) (experiment.Config, error) {
	switch base.DataSource {
	case conf.DataSourceHSS:
		paths, err := manifest.BuildHSS(settings.DataDir)
		if err != nil {
			return base, err
		}
		if base.TrainPath == "" {
			base.TrainPath = paths.Train
		}
		if base.ValPath == "" {
			base.ValPath = paths.Val
		}
		if base.TestPath == "" {
			base.TestPath = paths.Test
		}
	case conf.DataSourceCinC:
		path, err := manifest.BuildCinC(settings.DataDir)
		if err != nil {
			return base, err
		}
		if base.ManifestPath == "" {
			base.ManifestPath = path
		}
	}

	logging.Debug("manifests ready",
		"train", base.TrainPath, "val", base.ValPath,
		"test", base.TestPath, "combined", base.ManifestPath)

	return base, nil
}
