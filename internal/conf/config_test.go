package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSaveSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	settings := &Settings{
		Debug:   true,
		DataDir: "/srv/corpora/heart",
		Output: OutputSettings{
			Dir:    "output",
			SQLite: SQLiteSettings{Enabled: true, Path: "runs.db"},
		},
		Experiment: ExperimentSettings{
			ID:             "expt-roundtrip",
			DataSource:     "CinC",
			DataloaderType: "normal",
			TaskType:       "classify",
			BatchSize:      16,
			Epochs:         30,
			NFolds:         2,
		},
	}

	require.NoError(t, SaveSettings(configPath, settings))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var loaded Settings
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, *settings, loaded)
}

func TestSaveSettingsReplacesExistingFile(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("debug: false\n"), 0o644))

	require.NoError(t, SaveSettings(configPath, &Settings{Debug: true}))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var loaded Settings
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.True(t, loaded.Debug)
}
