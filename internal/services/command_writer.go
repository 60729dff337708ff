package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/db4e/db4e-supervisor/internal/component"
	"github.com/db4e/db4e-supervisor/internal/controlpipe"
	"github.com/db4e/db4e-supervisor/internal/observability/metrics"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/rs/zerolog/log"
)

// pool console commands written on every pass, in order
var poolCommands = []string{controlpipe.CmdStatus, controlpipe.CmdWorkers}

// WriteCommands asks every local pool daemon to print its status and
// worker table, which the log pipeline then picks up. Pools whose pipe has
// no reader are skipped quietly.
func (s *Service) WriteCommands(ctx context.Context) error {
	kind, err := component.For(types.ComponentPool)
	if err != nil {
		return err
	}

	records, err := s.db.ListDeployments(ctx, types.ComponentPool)
	if err != nil {
		return fmt.Errorf("failed to list pool deployments: %w", err)
	}

	for i := range records {
		d := &records[i]
		if d.Remote {
			continue
		}

		logger := log.Ctx(ctx).With().Str("instance", d.Instance).Logger()

		pipePath, err := kind.ControlPipePath(s.cfg.Paths, d)
		if err != nil {
			logger.Error().Err(err).Msg("no control pipe for pool")
			continue
		}

		for _, cmd := range poolCommands {
			err := controlpipe.Write(pipePath, cmd, s.cfg.Supervisor.PipeWriteTimeout)
			metrics.RecordPipeWrite(cmd, err != nil)
			if err == nil {
				continue
			}

			if errors.Is(err, controlpipe.ErrNoReader) || types.IsType(err, types.NotFound) {
				logger.Debug().Err(err).Msg("pool is not reading its control pipe")
			} else {
				logger.Warn().Err(err).Str("command", cmd).Msg("failed to write pool command")
			}
			// the remaining commands would fail the same way
			break
		}
	}

	return nil
}
