package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests swap the global loggers, so no t.Parallel.

func TestAddFileOutputMirrorsStructuredLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	closer, err := AddFileOutput(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { Init(false) })

	Info("grid started", "cells", 10)
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"grid started"`)
	assert.Contains(t, string(data), `"cells":10`)
}

func TestAddFileOutputDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	closer, err := AddFileOutput(path, true)
	require.NoError(t, err)
	t.Cleanup(func() { Init(false) })

	Debug("decoded clip", "samples", 40000)
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"decoded clip"`)
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	logger, closer, err := NewFileLogger(path, "experiment", slog.LevelInfo)
	require.NoError(t, err)

	logger.Info("fold finished", "fold", 2)
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"experiment"`)
	assert.Contains(t, string(data), `"fold finished"`)
}
