package main

import (
	"log"
	"os"

	"github.com/mkuronen/phonolab/cmd"
	"github.com/mkuronen/phonolab/internal/conf"
	"github.com/mkuronen/phonolab/internal/logging"
)

func main() {
	logging.Init(false)

	settings, err := conf.Load()
	if err != nil {
		log.Fatalf("Error loading settings: %v", err)
	}
	if settings.Debug {
		logging.Init(true)
	}

	closeLogFile := func() error { return nil }
	if settings.Output.LogFile != "" {
		closeLogFile, err = logging.AddFileOutput(settings.Output.LogFile, settings.Debug)
		if err != nil {
			log.Fatalf("Error opening log file: %v", err)
		}
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.Error("command failed", "error", err)
		_ = closeLogFile()
		os.Exit(1)
	}
	_ = closeLogFile()
}
