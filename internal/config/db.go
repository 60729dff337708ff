package config

import (
	"errors"
	"time"
)

type DbConfig struct {
	Username             string        `mapstructure:"username"`
	Password             string        `mapstructure:"password"`
	DbName               string        `mapstructure:"db-name"`
	Address              string        `mapstructure:"address"`
	MiningCollection     string        `mapstructure:"mining-collection"`
	DeploymentCollection string        `mapstructure:"deployment-collection"`
	ConnectMaxRetries    uint          `mapstructure:"connect-max-retries"`
	ConnectRetryInterval time.Duration `mapstructure:"connect-retry-interval"`
}

func (cfg *DbConfig) Validate() error {
	if cfg.Address == "" {
		return errors.New("db address must be set")
	}

	if cfg.DbName == "" {
		return errors.New("db name must be set")
	}

	if cfg.MiningCollection == "" || cfg.DeploymentCollection == "" {
		return errors.New("db collection names must be set")
	}

	if cfg.ConnectMaxRetries == 0 {
		return errors.New("connect-max-retries must be positive")
	}

	return nil
}
