// Package manifest implements the `phonolab manifest` command for building
// the dataset manifests without running any experiments.
package manifest

import (
	"github.com/spf13/cobra"

	"github.com/mkuronen/phonolab/internal/conf"
	"github.com/mkuronen/phonolab/internal/logging"
	"github.com/mkuronen/phonolab/internal/manifest"
)

// Command creates the manifest command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Build the dataset manifests",
		Long: `Scan the raw dataset tree under --data-dir and write the normalized CSV
manifests for the selected data source.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildManifests(settings)
		},
	}

	cmd.Flags().StringVar(&settings.Experiment.DataSource, "data-source",
		settings.Experiment.DataSource, "Dataset family: HSS or CinC")

	return cmd
}

func buildManifests(settings *conf.Settings) error {
	source, err := conf.ParseDataSource(settings.Experiment.DataSource)
	if err != nil {
		return err
	}

	switch source {
	case conf.DataSourceHSS:
		paths, err := manifest.BuildHSS(settings.DataDir)
		if err != nil {
			return err
		}
		logging.Info("manifests written",
			"train", paths.Train, "val", paths.Val, "test", paths.Test)
	case conf.DataSourceCinC:
		path, err := manifest.BuildCinC(settings.DataDir)
		if err != nil {
			return err
		}
		logging.Info("manifest written", "path", path)
	}

	return nil
}
