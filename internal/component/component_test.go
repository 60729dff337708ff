package component

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitName(t *testing.T) {
	tests := []struct {
		component types.Component
		instance  string
		unit      string
		wantErr   bool
	}{
		{types.ComponentPool, "main", "p2pool@main", false},
		{types.ComponentMiner, "rig1", "xmrig@rig1", false},
		{types.ComponentNode, "primary", "monerod@primary", false},
		{types.ComponentCore, "", "db4e", false},
		{types.ComponentPool, "", "", true},
		{types.ComponentRepo, "", "", true},
	}
	for _, tt := range tests {
		k, err := For(tt.component)
		require.NoError(t, err)

		unit, err := k.UnitName(tt.instance)
		if tt.wantErr {
			assert.Error(t, err, tt.component)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.unit, unit)
	}
}

func TestSupervised(t *testing.T) {
	var components []types.Component
	for _, k := range Supervised() {
		components = append(components, k.Component())
	}
	assert.Equal(t, []types.Component{types.ComponentPool, types.ComponentMiner}, components)
}

func TestPaths(t *testing.T) {
	paths := config.PathsConfig{VendorDir: "/opt/db4e", RunDir: "run"}
	pool, err := For(types.ComponentPool)
	require.NoError(t, err)

	d := &model.DeploymentDocument{Component: types.ComponentPool, Instance: "main", Version: "4.9"}

	pipe, err := pool.ControlPipePath(paths, d)
	require.NoError(t, err)
	assert.Equal(t, "/opt/db4e/p2pool-4.9/run/p2poolmain.stdin", pipe)

	logPath, err := pool.LogPath(paths, d)
	require.NoError(t, err)
	assert.Equal(t, "/opt/db4e/p2pool-4.9/logs-main/p2pool.log", logPath)
	assert.Equal(t, "/opt/db4e/p2pool-4.9/api-main", pool.APIDir(paths, d))

	t.Run("record overrides", func(t *testing.T) {
		d := &model.DeploymentDocument{
			Component: types.ComponentPool,
			Instance:  "main",
			Stdin:     "/run/p2pool.stdin",
			LogFile:   "/var/log/p2pool.log",
		}
		pipe, err := pool.ControlPipePath(paths, d)
		require.NoError(t, err)
		assert.Equal(t, "/run/p2pool.stdin", pipe)

		logPath, err := pool.LogPath(paths, d)
		require.NoError(t, err)
		assert.Equal(t, "/var/log/p2pool.log", logPath)
	})
	t.Run("miner has no control pipe", func(t *testing.T) {
		miner, err := For(types.ComponentMiner)
		require.NoError(t, err)

		_, err = miner.ControlPipePath(paths, &model.DeploymentDocument{Instance: "rig1"})
		require.Error(t, err)
		assert.Equal(t, StopViaServiceManager, miner.StopPolicy())
	})
}

func TestCleanup(t *testing.T) {
	t.Run("pool removes log and api dirs", func(t *testing.T) {
		paths := config.PathsConfig{VendorDir: t.TempDir(), RunDir: "run"}
		pool, err := For(types.ComponentPool)
		require.NoError(t, err)

		d := &model.DeploymentDocument{Component: types.ComponentPool, Instance: "main"}
		logDir := filepath.Join(paths.VendorDir, "p2pool", "logs-main")
		apiDir := pool.APIDir(paths, d)
		require.NoError(t, os.MkdirAll(logDir, 0o755))
		require.NoError(t, os.MkdirAll(apiDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(logDir, "p2pool.log"), []byte("x\n"), 0o644))

		require.NoError(t, pool.Cleanup(paths, d))
		assert.NoDirExists(t, logDir)
		assert.NoDirExists(t, apiDir)

		// already absent is not an error
		require.NoError(t, pool.Cleanup(paths, d))
	})
	t.Run("miner removes its config", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "xmrig-rig1.json")
		require.NoError(t, os.WriteFile(cfgPath, []byte("{}"), 0o644))

		miner, err := For(types.ComponentMiner)
		require.NoError(t, err)

		d := &model.DeploymentDocument{Component: types.ComponentMiner, Instance: "rig1", Config: cfgPath}
		require.NoError(t, miner.Cleanup(config.PathsConfig{}, d))
		assert.NoFileExists(t, cfgPath)
		require.NoError(t, miner.Cleanup(config.PathsConfig{}, d))
	})
}
