// Package cmd assembles the phonolab command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	gridcmd "github.com/mkuronen/phonolab/cmd/grid"
	manifestcmd "github.com/mkuronen/phonolab/cmd/manifest"
	"github.com/mkuronen/phonolab/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "phonolab",
		Short: "Heart-sound and ECG/PCG experiment runner",
		Long: `phonolab orchestrates supervised-learning experiments for audio-based
heart-sound diagnosis and ECG/PCG abnormality detection across a grid of
model architectures, learning rates and seeds.`,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		// flag binding only fails on programmer error
		panic(err)
	}

	rootCmd.AddCommand(
		gridcmd.Command(settings),
		manifestcmd.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.DataDir, "data-dir", settings.DataDir, "Root of the raw dataset tree")
	rootCmd.PersistentFlags().StringVar(&settings.Output.Dir, "output-dir", settings.Output.Dir, "Directory for params, metrics and summary artifacts")
	rootCmd.PersistentFlags().StringVar(&settings.Output.LogFile, "log-file", settings.Output.LogFile, "Mirror the structured log to a rotating file")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
