package cli

import (
	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/config"
)

// initLogging configures the global logger from the settings. --verbose forces debug.
func initLogging(cfg *config.Config) {
	level := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	logger.InitLogger(level, logger.OutputFormat(cfg.Settings.LogFormat))
}
