package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/db"
	dbmodel "github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/observability/logging"
	"github.com/db4e/db4e-supervisor/internal/observability/metrics"
	"github.com/db4e/db4e-supervisor/internal/pipeline"
	"github.com/db4e/db4e-supervisor/internal/queue"
	"github.com/db4e/db4e-supervisor/internal/services"
	"github.com/db4e/db4e-supervisor/internal/systemd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the supervisor: reconciliation, log pipelines and the control socket",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msgf("error while loading config file: %s", cfgPath)
	}

	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up logging")
	}
	defer logCloser.Close()

	// traces are injected per poll and per control request
	log := log.Ctx(ctx)

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up db model")
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	var notifier pipeline.Notifier
	if cfg.Queue != nil {
		qm, err := queue.NewQueueManager(cfg.Queue)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize event queue")
		}
		defer qm.Shutdown()
		notifier = qm
	}

	service := services.NewService(cfg, dbClient, systemd.NewSystemctl(&cfg.Supervisor), notifier)

	// initialize metrics with the metrics port from config
	metrics.Init(cfg.Metrics.Host, cfg.Metrics.GetMetricsPort())

	if err := service.Run(ctx); err != nil {
		log.Error().Err(err).Msg("supervisor exited with error")
		return err
	}
	return nil
}
