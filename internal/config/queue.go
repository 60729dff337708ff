package config

import (
	"fmt"
)

type QueueConfig struct {
	Url       string `mapstructure:"url"`
	QueueName string `mapstructure:"queue-name"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.Url == "" {
		return fmt.Errorf("queue url must be set")
	}

	if cfg.QueueName == "" {
		return fmt.Errorf("queue name must be set")
	}

	return nil
}
