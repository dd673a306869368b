package conf

import (
	"fmt"

	"github.com/mkuronen/phonolab/internal/errors"
)

// ValidateSettings checks settings that are wrong regardless of subcommand.
// Per-command preconditions (manifest paths for the grid, CinC for Grad-CAM)
// are checked where the command starts.
func ValidateSettings(settings *Settings) error {
	if _, err := ParseDataSource(settings.Experiment.DataSource); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	switch settings.Experiment.DataloaderType {
	case "normal", "ml":
	default:
		return errors.Newf("unknown dataloader type %q (expected normal or ml)",
			settings.Experiment.DataloaderType).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	switch settings.Experiment.TaskType {
	case "classify", "regress":
	default:
		return errors.Newf("unknown task type %q (expected classify or regress)",
			settings.Experiment.TaskType).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if settings.Experiment.NFolds < 2 {
		return errors.Newf("nfolds must be at least 2, got %d", settings.Experiment.NFolds).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return nil
}

// ValidateGridPreconditions enforces the startup assertion of the grid
// command: at least one of train-path/val-path must point at a manifest.
func ValidateGridPreconditions(settings *Settings) error {
	if settings.Experiment.TrainPath == "" && settings.Experiment.ValPath == "" {
		return errors.ValidationError(
			"you need to select training or validation data with --train-path or --val-path")
	}
	return nil
}

// ValidateGradCAMPreconditions enforces that visualization is only available
// for the CinC family and needs the combined manifest.
func ValidateGradCAMPreconditions(settings *Settings) error {
	source, err := ParseDataSource(settings.Experiment.DataSource)
	if err != nil {
		return err
	}
	if source != DataSourceCinC {
		return errors.ValidationError(
			fmt.Sprintf("gradcam visualization is only available for CinC, got %s", source))
	}
	if settings.Experiment.ManifestPath == "" {
		return errors.ValidationError("gradcam requires --manifest-path")
	}
	return nil
}
