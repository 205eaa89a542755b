package app

import (
	"strings"

	"github.com/charlesng35/teamhub/pkg/logger"
)

// ConfigureLogging initialises the global logger, defaulting to info level.
func ConfigureLogging(cfg LoggingConfig) error {
	if strings.TrimSpace(cfg.Level) == "" {
		cfg.Level = "info"
	}
	return logger.InitWithOptions(cfg.Options())
}
