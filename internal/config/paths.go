package config

import (
	"errors"
	"path/filepath"
)

// PathsConfig locates the installed daemons. Per-instance paths are derived
// from VendorDir unless a deployment record overrides them.
type PathsConfig struct {
	VendorDir string `mapstructure:"vendor-dir"`
	RunDir    string `mapstructure:"run-dir"`
	Socket    string `mapstructure:"socket"`
}

func (cfg *PathsConfig) Validate() error {
	if cfg.VendorDir == "" {
		return errors.New("vendor-dir must be set")
	}

	if !filepath.IsAbs(cfg.VendorDir) {
		return errors.New("vendor-dir must be an absolute path")
	}

	if cfg.RunDir == "" {
		return errors.New("run-dir must be set")
	}

	return nil
}

// SocketPath returns the control socket location, defaulting to
// <vendor-dir>/db4e/<run-dir>/db4e.sock.
func (cfg *PathsConfig) SocketPath() string {
	if cfg.Socket != "" {
		return cfg.Socket
	}

	return filepath.Join(cfg.VendorDir, "db4e", cfg.RunDir, "db4e.sock")
}
