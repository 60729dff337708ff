package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LogConfig controls the supervisor's own log. File is optional; when set,
// output is rotated by size and retained for MaxAgeDays.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max-size-mb"`
	MaxBackups int    `mapstructure:"max-backups"`
	MaxAgeDays int    `mapstructure:"max-age-days"`
}

func (cfg *LogConfig) Validate() error {
	if _, err := zerolog.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	if cfg.File != "" && cfg.MaxSizeMB <= 0 {
		return fmt.Errorf("max-size-mb must be positive when log file is set")
	}

	return nil
}
