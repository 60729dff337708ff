package services

import (
	"context"
	"errors"
	"sync"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/db"
	"github.com/db4e/db4e-supervisor/internal/extractor"
	"github.com/db4e/db4e-supervisor/internal/ipc"
	"github.com/db4e/db4e-supervisor/internal/observability/metrics"
	"github.com/db4e/db4e-supervisor/internal/observability/tracing"
	"github.com/db4e/db4e-supervisor/internal/pipeline"
	"github.com/db4e/db4e-supervisor/internal/systemd"
	"github.com/db4e/db4e-supervisor/internal/utils/poller"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/thejerf/suture/v4"
)

type Service struct {
	cfg       *config.Config
	db        db.DbInterface
	manager   systemd.Manager
	notifier  pipeline.Notifier
	extractor *extractor.Extractor

	supervisor *suture.Supervisor
	// mu guards pipelines, keyed by pool instance
	mu        sync.Mutex
	pipelines map[string]pipelineHandle
}

type pipelineHandle struct {
	token   suture.ServiceToken
	logPath string
}

// NewService wires the supervisor. notifier may be nil when no queue is
// configured.
func NewService(
	cfg *config.Config,
	db db.DbInterface,
	manager systemd.Manager,
	notifier pipeline.Notifier,
) *Service {
	return &Service{
		cfg:        cfg,
		db:         db,
		manager:    manager,
		notifier:   notifier,
		extractor:  extractor.New(),
		supervisor: suture.New("pipelines", suture.Spec{EventHook: pipelineEventHook}),
		pipelines:  make(map[string]pipelineHandle),
	}
}

// Run blocks until ctx is cancelled or one of the long-lived tasks fails,
// then joins all of them. Binding the control socket happens first so that
// a second supervisor on the same host fails fast.
func (s *Service) Run(ctx context.Context) error {
	server := ipc.NewServer(
		s.cfg.Paths.SocketPath(),
		s,
		s.cfg.Supervisor.IPCReadTimeout,
		s.cfg.Supervisor.IPCWriteTimeout,
	)
	listener, err := server.Listen()
	if err != nil {
		return err
	}

	// the pipeline supervisor must accept removals before the first
	// reconciliation pass runs
	supervisorCtx, stopSupervisor := context.WithCancel(ctx)
	defer stopSupervisor()
	supervisorDone := s.supervisor.ServeBackground(supervisorCtx)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()

	p.Go(func(ctx context.Context) error {
		return server.Serve(ctx, listener)
	})
	p.Go(func(ctx context.Context) error {
		select {
		case err := <-supervisorDone:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case <-ctx.Done():
			stopSupervisor()
			<-supervisorDone
			return nil
		}
	})
	p.Go(func(ctx context.Context) error {
		s.StartReconciler(ctx)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		s.StartCommandWriter(ctx)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return metrics.Shutdown(context.WithoutCancel(ctx))
	})

	err = p.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Ctx(ctx).Info().Err(err).Msg("supervisor stopped")
	return err
}

// StartReconciler runs one reconciliation pass immediately and then one
// per reconcile interval, until ctx is done.
func (s *Service) StartReconciler(ctx context.Context) {
	reconcile := metrics.InstrumentPoll("reconcile", s.Reconcile)
	if err := reconcile(tracing.InjectTraceID(ctx)); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("initial reconciliation failed")
	}

	poller.NewPoller("reconcile", s.cfg.Poller.ReconcileInterval, reconcile).Start(ctx)
}

// StartCommandWriter periodically asks every local pool for status and
// worker output, until ctx is done.
func (s *Service) StartCommandWriter(ctx context.Context) {
	poller.NewPoller(
		"command-writer",
		s.cfg.Poller.CommandInterval,
		metrics.InstrumentPoll("command_writer", s.WriteCommands),
	).Start(ctx)
}

func pipelineEventHook(e suture.Event) {
	switch ev := e.(type) {
	case suture.EventServiceTerminate:
		metrics.IncPipelineRestarts(ev.ServiceName)
		log.Warn().
			Str("service", ev.ServiceName).
			Bool("restarting", ev.Restarting).
			Interface("err", ev.Err).
			Msg("pipeline terminated")
	case suture.EventServicePanic:
		metrics.IncPipelineRestarts(ev.ServiceName)
		log.Error().
			Str("service", ev.ServiceName).
			Str("panic", ev.PanicMsg).
			Str("stacktrace", ev.Stacktrace).
			Msg("pipeline panicked")
	case suture.EventBackoff:
		log.Warn().Str("supervisor", ev.SupervisorName).Msg("pipeline supervisor backing off")
	case suture.EventResume:
		log.Info().Str("supervisor", ev.SupervisorName).Msg("pipeline supervisor resumed")
	case suture.EventStopTimeout:
		log.Warn().Str("service", ev.ServiceName).Msg("pipeline did not stop in time")
	}
}
