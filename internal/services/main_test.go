//go:build integration

package services

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/db"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/pipeline"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/db4e/db4e-supervisor/pkg"
	"github.com/db4e/db4e-supervisor/testutil"
	"github.com/db4e/db4e-supervisor/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDB       *db.Database
	testDbConfig *config.DbConfig
)

func TestMain(m *testing.M) {
	// first setup container with MongoDb
	dbConfig, cleanup, err := testutil.SetupMongoContainer()
	if err != nil {
		log.Fatalf("failed to setup mongo container: %v", err)
	}

	// apply migrations
	err = model.Setup(context.Background(), dbConfig)
	if err != nil {
		cleanup()
		log.Fatalf("failed to init mongo database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	testDB, err = db.New(ctx, *dbConfig)
	cancel()
	if err != nil {
		cleanup()
		log.Fatalf("failed to setup client: %v", err)
	}
	testDbConfig = dbConfig

	// integration tests run on this line
	code := m.Run()
	cleanup()

	os.Exit(code)
}

func resetDatabase(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := testutil.ResetCollections(ctx, testDbConfig, testDbConfig.MiningCollection, testDbConfig.DeploymentCollection)
	require.NoError(t, err)
}

func newIntegrationService(t *testing.T, manager *mocks.Manager) *Service {
	t.Helper()

	cfg := &config.Config{
		Poller: config.PollerConfig{
			ReconcileInterval: time.Hour,
			CommandInterval:   time.Hour,
			TailInterval:      10 * time.Millisecond,
		},
		Supervisor: config.SupervisorConfig{PipeWriteTimeout: time.Second},
		Paths: config.PathsConfig{
			VendorDir: t.TempDir(),
			RunDir:    "run",
		},
	}
	return NewService(cfg, testDB, manager, nil)
}

func TestReconcile_PendingOpAgainstMongo(t *testing.T) {
	t.Cleanup(func() {
		resetDatabase(t)
	})
	ctx := t.Context()

	manager := mocks.NewManager(t)
	s := newIntegrationService(t, manager)

	id, err := testDB.SaveNewDeployment(ctx, &model.DeploymentDocument{
		Component: types.ComponentMiner,
		Instance:  "rig1",
		Op:        types.OpEnable,
		Status:    types.StatusStopped,
		Config:    "/opt/db4e/xmrig/rig1.json",
	})
	require.NoError(t, err)

	manager.On("IsActive", anyCtx, "xmrig@rig1").Return(false, nil).Once()
	manager.On("Start", anyCtx, "xmrig@rig1").Return("", nil).Once()
	require.NoError(t, s.Reconcile(ctx))

	got, err := testDB.GetDeploymentByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.OpNone, got.Op)
	assert.True(t, got.Enable)
	assert.Equal(t, types.StatusRunning, got.Status)

	// converged, the next pass only observes
	manager.On("IsActive", anyCtx, "xmrig@rig1").Return(true, nil).Once()
	require.NoError(t, s.Reconcile(ctx))
	manager.AssertNumberOfCalls(t, "Start", 1)

	// delete removes the record
	require.NoError(t, testDB.UpdateDeployment(ctx, id, db.DeploymentUpdate{Op: pkg.Ptr(types.OpDelete)}))
	manager.On("IsActive", anyCtx, "xmrig@rig1").Return(true, nil).Once()
	manager.On("Stop", anyCtx, "xmrig@rig1").Return("", nil).Once()
	require.NoError(t, s.Reconcile(ctx))

	_, err = testDB.GetDeploymentByID(ctx, id)
	assert.True(t, db.IsNotFoundError(err))
}

func TestReplayLog_BlockFoundScenario(t *testing.T) {
	t.Cleanup(func() {
		resetDatabase(t)
	})
	ctx := t.Context()

	s := newIntegrationService(t, mocks.NewManager(t))

	lines := []string{
		"2024-11-09 19:32:03.7681 StratumServer SHARE FOUND: mainchain height 3277781, sidechain height 9115541, diff 147290914, client 192.168.0.27:57888, user paris, effort 52.304%",
		"2024-11-09 19:52:19.1734 P2Pool BLOCK FOUND: main chain block at height 3277801 was mined by someone else in this p2pool",
		"2024-11-09 19:52:19.1740 P2Pool Your wallet 48wY7nYBsQNSw7fDEG got a payout of 0.000450146392 XMR in block 3277801",
		"2024-11-10 07:12:44.0901 P2Pool Your wallet 48wY7nYBsQNSw7fDEG got a payout of 0.100144968685 XMR in block 3278200",
		"Side chain hashrate       = 12.291 MH/s",
	}
	logPath := filepath.Join(t.TempDir(), "p2pool.log")
	require.NoError(t, os.WriteFile(logPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	pool := &model.DeploymentDocument{
		Component: types.ComponentPool,
		Instance:  "main",
		Version:   "4.1",
		LogFile:   logPath,
	}
	_, err := testDB.SaveNewDeployment(ctx, pool)
	require.NoError(t, err)

	apiDir := filepath.Join(s.cfg.Paths.VendorDir, "p2pool-4.1", "api-main")
	require.NoError(t, os.MkdirAll(apiDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(apiDir, pipeline.StatsModFile), []byte(`{"pool":{"miners":731}}`), 0o644))

	// the second replay must not change anything
	require.NoError(t, s.ReplayLog(ctx, "main"))
	require.NoError(t, s.ReplayLog(ctx, "main"))

	blocks, err := testDB.FindEvents(ctx, types.DocBlockFound)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, time.Date(2024, 11, 9, 19, 52, 0, 0, time.UTC), blocks[0].Timestamp.UTC())

	shares, err := testDB.FindEvents(ctx, types.DocShareFound)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "paris", shares[0].Worker)

	balance, err := testDB.GetWalletBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.100595115077", balance.String())

	gauge, err := testDB.GetGauge(ctx, types.DocSidechainHashrate)
	require.NoError(t, err)
	assert.Equal(t, "12.291 MH/s", gauge.Hashrate)

	t.Run("unknown instance", func(t *testing.T) {
		err := s.ReplayLog(ctx, "absent")
		require.Error(t, err)
		assert.True(t, types.IsType(err, types.NotFound))
	})
}
