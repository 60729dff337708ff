package config

import (
	"errors"
	"time"
)

type SupervisorConfig struct {
	ServiceManagerTimeout time.Duration `mapstructure:"service-manager-timeout"`
	UseSudo               bool          `mapstructure:"use-sudo"`
	PipeWriteTimeout      time.Duration `mapstructure:"pipe-write-timeout"`
	IPCReadTimeout        time.Duration `mapstructure:"ipc-read-timeout"`
	IPCWriteTimeout       time.Duration `mapstructure:"ipc-write-timeout"`
}

func (cfg *SupervisorConfig) Validate() error {
	if cfg.ServiceManagerTimeout <= 0 {
		return errors.New("service-manager-timeout must be positive")
	}

	if cfg.PipeWriteTimeout <= 0 {
		return errors.New("pipe-write-timeout must be positive")
	}

	if cfg.IPCReadTimeout <= 0 || cfg.IPCWriteTimeout <= 0 {
		return errors.New("ipc timeouts must be positive")
	}

	return nil
}
