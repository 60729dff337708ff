//go:build e2e

package e2etest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/db"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/queue"
	"github.com/db4e/db4e-supervisor/internal/services"
	"github.com/db4e/db4e-supervisor/internal/systemd"
	"github.com/db4e/db4e-supervisor/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

var (
	eventuallyWaitTimeOut = 20 * time.Second
	eventuallyPollTime    = 200 * time.Millisecond
)

// fakeSystemctl keeps one file per active unit in $DB4E_FAKE_UNITS.
const fakeSystemctl = `#!/bin/sh
state="${DB4E_FAKE_UNITS:?}"
case "$1" in
is-active)
	[ -f "$state/$3" ] && exit 0
	exit 3
	;;
start)
	touch "$state/$2"
	echo "started $2"
	;;
stop)
	rm -f "$state/$2"
	;;
esac
`

type TestManager struct {
	Config    *config.Config
	DbClient  *db.Database
	Queue     *queue.QueueManager
	QueueConn *amqp.Connection
	UnitsDir  string

	cancel context.CancelFunc
	errCh  chan error
}

// StartManager starts mongo and rabbitmq containers, puts a fake systemctl
// first in PATH and runs the supervisor against them.
func StartManager(t *testing.T) *TestManager {
	t.Helper()

	dbConfig, mongoCleanup, err := testutil.SetupMongoContainer()
	require.NoError(t, err)
	t.Cleanup(mongoCleanup)

	queueURL, rabbitCleanup, err := testutil.SetupRabbitContainer()
	require.NoError(t, err)
	t.Cleanup(rabbitCleanup)

	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "systemctl"), []byte(fakeSystemctl), 0o755))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	unitsDir := t.TempDir()
	t.Setenv("DB4E_FAKE_UNITS", unitsDir)

	vendorDir, err := tempDir(t)
	require.NoError(t, err)

	cfg := DefaultSupervisorConfig(dbConfig, vendorDir, queueURL)

	ctx := context.Background()
	require.NoError(t, model.Setup(ctx, &cfg.Db))

	dbClient, err := db.New(ctx, cfg.Db)
	require.NoError(t, err)

	qm, err := queue.NewQueueManager(cfg.Queue)
	require.NoError(t, err)

	queueConn, err := amqp.Dial(queueURL)
	require.NoError(t, err)

	service := services.NewService(cfg, db.NewDbWithMetrics(dbClient), systemd.NewSystemctl(&cfg.Supervisor), qm)

	runCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- service.Run(runCtx) }()

	tm := &TestManager{
		Config:    cfg,
		DbClient:  dbClient,
		Queue:     qm,
		QueueConn: queueConn,
		UnitsDir:  unitsDir,
		cancel:    cancel,
		errCh:     errCh,
	}

	// the socket exists once Run is serving
	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.Paths.SocketPath())
		return err == nil
	}, eventuallyWaitTimeOut, eventuallyPollTime)

	return tm
}

func (tm *TestManager) Stop(t *testing.T) {
	tm.cancel()
	select {
	case err := <-tm.errCh:
		require.NoError(t, err)
	case <-time.After(eventuallyWaitTimeOut):
		t.Fatal("supervisor did not stop")
	}

	tm.Queue.Shutdown()
	_ = tm.QueueConn.Close()
	_ = tm.DbClient.Close(context.Background())
}

// UnitActive reports whether the fake service manager considers unit running.
func (tm *TestManager) UnitActive(unit string) bool {
	_, err := os.Stat(filepath.Join(tm.UnitsDir, unit))
	return err == nil
}

// tempDir is short enough for a unix socket path underneath it.
func tempDir(t *testing.T) (string, error) {
	dir, err := os.MkdirTemp("", "db4e-e2e")
	if err != nil {
		return "", err
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir, nil
}

func DefaultSupervisorConfig(dbConfig *config.DbConfig, vendorDir, queueURL string) *config.Config {
	return &config.Config{
		Db: *dbConfig,
		Poller: config.PollerConfig{
			ReconcileInterval: 300 * time.Millisecond,
			CommandInterval:   300 * time.Millisecond,
			TailInterval:      50 * time.Millisecond,
		},
		Supervisor: config.SupervisorConfig{
			ServiceManagerTimeout: 5 * time.Second,
			PipeWriteTimeout:      time.Second,
			IPCReadTimeout:        5 * time.Second,
			IPCWriteTimeout:       5 * time.Second,
		},
		Paths: config.PathsConfig{
			VendorDir: vendorDir,
			RunDir:    "run",
		},
		Log: config.LogConfig{Level: "debug"},
		Queue: &config.QueueConfig{
			Url:       queueURL,
			QueueName: "db4e-e2e-events",
		},
	}
}
