package cli

import (
	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/db"
	"github.com/db4e/db4e-supervisor/internal/observability/logging"
	"github.com/db4e/db4e-supervisor/internal/observability/tracing"
	"github.com/db4e/db4e-supervisor/internal/services"
	"github.com/db4e/db4e-supervisor/internal/systemd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func ReplayLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay-log <instance>",
		Short: "Processes a pool instance's whole log file once; events already stored are skipped",
		Args:  cobra.ExactArgs(1),
		RunE:  replayLog,
	}

	return cmd
}

func replayLog(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	database, err := db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}
	defer database.Close(ctx)

	service := services.NewService(cfg, db.NewDbWithMetrics(database), systemd.NewSystemctl(&cfg.Supervisor), nil)
	if err := service.ReplayLog(ctx, args[0]); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("instance", args[0]).Msg("replay failed")
		return err
	}

	log.Ctx(ctx).Info().Str("instance", args[0]).Msg("replay finished")
	return nil
}
