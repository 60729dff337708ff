package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerConfig_Validate(t *testing.T) {
	t.Run("all required fields set", func(t *testing.T) {
		cfg := &PollerConfig{
			ReconcileInterval: 15 * time.Second,
			CommandInterval:   30 * time.Second,
			TailInterval:      time.Second,
		}
		err := cfg.Validate()
		require.NoError(t, err)
	})

	t.Run("reconcile interval not set - should error", func(t *testing.T) {
		cfg := &PollerConfig{
			CommandInterval: 30 * time.Second,
			TailInterval:    time.Second,
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reconcile-interval must be positive")
	})

	t.Run("command interval negative - should error", func(t *testing.T) {
		cfg := &PollerConfig{
			ReconcileInterval: 15 * time.Second,
			CommandInterval:   -1 * time.Second,
			TailInterval:      time.Second,
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "command-interval must be positive")
	})

	t.Run("tail interval not set - should error", func(t *testing.T) {
		cfg := &PollerConfig{
			ReconcileInterval: 15 * time.Second,
			CommandInterval:   30 * time.Second,
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tail-interval must be positive")
	})
}
