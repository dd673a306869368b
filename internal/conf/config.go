// config.go: settings struct for the phonolab experiment runner and the
// functions to load and save them through viper.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mkuronen/phonolab/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// SQLiteSettings controls the optional run-result database.
type SQLiteSettings struct {
	Enabled bool   // true to persist per-cell run records
	Path    string // path to the sqlite database file
}

// OutputSettings controls where artifacts are written.
type OutputSettings struct {
	Dir     string         // root directory for params/metrics/summary artifacts
	LogFile string         // optional rotating log file; empty disables it
	SQLite  SQLiteSettings // optional sqlite run store
}

// ExperimentSettings holds the knobs for one grid run. Model type, learning
// rate and seed are per-cell values the grid orchestrator derives, not set here.
type ExperimentSettings struct {
	ID             string // experiment id, used as log id for artifact naming
	DataSource     string // "HSS" or "CinC"
	DataloaderType string // "normal" or "ml"
	GradCAM        bool   // run Grad-CAM visualization instead of the grid
	TaskType       string // "classify" or "regress"
	Transform      string // preprocessing transform name, passed to the Preprocessor
	BatchSize      int
	Epochs         int
	NFolds         int    // cross-validation fold count (CinC)
	TrainPath      string // train manifest path
	ValPath        string // validation manifest path
	TestPath       string // test manifest path
	ManifestPath   string // combined manifest path (CinC)
	ExportSummary  bool   // write the grid summary CSV
}

// Settings contains all runtime configuration.
type Settings struct {
	Debug      bool   // enable debug logging
	DataDir    string // root of the raw dataset tree
	Output     OutputSettings
	Experiment ExperimentSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration from defaults, config file and environment,
// unmarshals it and validates it.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	normalizeSettings(settings)

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// normalizeSettings fills derived fields. An empty experiment id gets a
// generated one so artifact paths are always unique per run.
func normalizeSettings(settings *Settings) {
	if settings.Experiment.ID == "" {
		settings.Experiment.ID = "expt-" + uuid.NewString()[:8]
	}
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	for _, path := range GetDefaultConfigPaths() {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the locations searched for config.yaml, in
// priority order.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "phonolab"))
	}
	return paths
}

// createDefaultConfig writes the embedded default config file to the first
// config path and reads it back in.
func createDefaultConfig() error {
	configPath := filepath.Join(GetDefaultConfigPaths()[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// SaveSettings writes the settings back to the YAML configuration file.
// It overwrites the existing file, not preserving comments or structure.
func SaveSettings(configPath string, settings *Settings) error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write through a temp file in the same directory so the config file is
	// replaced atomically.
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary config file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary config file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// Setting returns the current settings instance, loading it first if needed.
func Setting() *Settings {
	settingsMutex.RLock()
	instance := settingsInstance
	settingsMutex.RUnlock()
	if instance != nil {
		return instance
	}

	settings, err := Load()
	if err != nil {
		log.Fatalf("Error loading settings: %v", err)
	}
	return settings
}
