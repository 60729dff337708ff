package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "DB4E"

type Config struct {
	Db         DbConfig         `mapstructure:"db"`
	Poller     PollerConfig     `mapstructure:"poller"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
	// Queue is optional, event notifications are disabled when it is nil
	Queue *QueueConfig `mapstructure:"queue"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Db.Validate(); err != nil {
		return err
	}

	if err := cfg.Poller.Validate(); err != nil {
		return err
	}

	if err := cfg.Supervisor.Validate(); err != nil {
		return err
	}

	if err := cfg.Paths.Validate(); err != nil {
		return err
	}

	if err := cfg.Metrics.Validate(); err != nil {
		return err
	}

	if err := cfg.Log.Validate(); err != nil {
		return err
	}

	if cfg.Queue != nil {
		if err := cfg.Queue.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// New reads the config file at cfgFile, applies DB4E_ prefixed environment
// overrides and validates the result. The returned value is never mutated
// afterwards.
func New(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(cfgFile)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.db-name", "db4e")
	v.SetDefault("db.mining-collection", "mining")
	v.SetDefault("db.deployment-collection", "depl")
	v.SetDefault("db.connect-max-retries", 5)
	v.SetDefault("db.connect-retry-interval", 2*time.Second)

	v.SetDefault("poller.reconcile-interval", 15*time.Second)
	v.SetDefault("poller.command-interval", 30*time.Second)
	v.SetDefault("poller.tail-interval", time.Second)

	v.SetDefault("supervisor.service-manager-timeout", 60*time.Second)
	v.SetDefault("supervisor.use-sudo", true)
	v.SetDefault("supervisor.pipe-write-timeout", 5*time.Second)
	v.SetDefault("supervisor.ipc-read-timeout", 30*time.Second)
	v.SetDefault("supervisor.ipc-write-timeout", 10*time.Second)

	v.SetDefault("paths.run-dir", "run")

	v.SetDefault("metrics.host", "0.0.0.0")
	v.SetDefault("metrics.port", 2112)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max-size-mb", 10)
	v.SetDefault("log.max-backups", 5)
	v.SetDefault("log.max-age-days", 7)
}
