package config

import (
	"errors"
	"time"
)

type PollerConfig struct {
	ReconcileInterval time.Duration `mapstructure:"reconcile-interval"`
	CommandInterval   time.Duration `mapstructure:"command-interval"`
	TailInterval      time.Duration `mapstructure:"tail-interval"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.ReconcileInterval <= 0 {
		return errors.New("reconcile-interval must be positive")
	}

	if cfg.CommandInterval <= 0 {
		return errors.New("command-interval must be positive")
	}

	if cfg.TailInterval <= 0 {
		return errors.New("tail-interval must be positive")
	}

	return nil
}
