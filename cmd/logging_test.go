package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging_InvalidLevel(t *testing.T) {
	err := setupLogging("chatty", "")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestSetupLogging_WritesRotatingFile(t *testing.T) {
	// GIVEN a log file in a directory that does not exist yet
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.WarnLevel)
	})
	path := filepath.Join(t.TempDir(), "logs", "chainreact.log")

	// WHEN logging is configured at info and a line is logged
	require.NoError(t, setupLogging("info", path))
	logrus.Info("simulation started")

	// THEN the line lands in the file without colour codes
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "simulation started")
	assert.NotContains(t, string(data), "\x1b[")
}
