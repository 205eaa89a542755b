package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamhub/pkg/logger"
)

func TestConfigureLogging(t *testing.T) {
	previous := logger.Logger()
	t.Cleanup(func() { logger.SetLogger(previous) })

	require.NoError(t, ConfigureLogging(LoggingConfig{Level: "debug", Format: "console"}))
	require.NoError(t, ConfigureLogging(LoggingConfig{}))

	path := filepath.Join(t.TempDir(), "teamhub.log")
	require.NoError(t, ConfigureLogging(LoggingConfig{Level: "info", File: LogFileConfig{Path: path, MaxSizeMB: 1}}))
	logger.Info("file sink check")
	_ = logger.Sync()
	require.FileExists(t, path)
}
