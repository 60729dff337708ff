package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/db4e/db4e-supervisor/internal/component"
	"github.com/db4e/db4e-supervisor/internal/controlpipe"
	"github.com/db4e/db4e-supervisor/internal/db"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/db4e/db4e-supervisor/pkg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Reconcile converges every local pool and miner deployment towards its
// stored desired state, then brings the set of log pipelines in line with
// the pool records. A failing instance is logged and does not stop the
// others. The returned error only reports records that could not be listed.
func (s *Service) Reconcile(ctx context.Context) error {
	var errs []error
	for _, kind := range component.Supervised() {
		records, err := s.db.ListDeployments(ctx, kind.Component())
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to list %s deployments: %w", kind.Component(), err))
			continue
		}

		live := make([]*model.DeploymentDocument, 0, len(records))
		for i := range records {
			d := &records[i]
			logger := log.Ctx(ctx).With().
				Stringer("component", d.Component).
				Str("instance", d.Instance).
				Logger()

			deleted, err := s.reconcileDeployment(logger.WithContext(ctx), kind, d)
			if err != nil {
				logReconcileError(&logger, err)
			}
			if !deleted {
				live = append(live, d)
			}
		}

		if kind.HasLogPipeline() {
			s.reconcilePipelines(ctx, kind, live)
		}
	}

	return errors.Join(errs...)
}

func logReconcileError(logger *zerolog.Logger, err error) {
	switch {
	case types.IsType(err, types.NotFound), types.IsType(err, types.TransientIO):
		logger.Warn().Err(err).Msg("skipping deployment this cycle")
	default:
		logger.Error().Err(err).Msg("failed to reconcile deployment")
	}
}

// reconcileDeployment applies a pending op, if any, and converges the
// running state. deleted reports that the record is gone.
func (s *Service) reconcileDeployment(ctx context.Context, kind *component.Kind, d *model.DeploymentDocument) (deleted bool, err error) {
	op, err := types.ParseOp(d.Op.String())
	if err != nil {
		return false, types.NewError(types.ProtocolError, err)
	}
	d.Op = op

	if d.Remote {
		if d.Op != types.OpDelete {
			return false, nil
		}
		if err := s.db.DeleteDeployment(ctx, d.ID); err != nil {
			return false, fmt.Errorf("failed to delete remote deployment: %w", err)
		}
		log.Ctx(ctx).Info().Msg("deleted remote deployment record")
		return true, nil
	}

	switch d.Op {
	case types.OpNone:
	case types.OpEnable, types.OpDisable:
		enable := d.Op == types.OpEnable
		update := db.DeploymentUpdate{Op: pkg.Ptr(types.OpNone), Enable: pkg.Ptr(enable)}
		if err := s.db.UpdateDeployment(ctx, d.ID, update); err != nil {
			return false, fmt.Errorf("failed to apply %s: %w", d.Op, err)
		}
		log.Ctx(ctx).Info().Stringer("op", d.Op).Msg("applied pending op")
		d.Op, d.Enable = types.OpNone, enable
	case types.OpDelete:
		return true, s.deleteDeployment(ctx, kind, d)
	}

	return false, s.converge(ctx, kind, d)
}

// converge starts or stops the unit when its observed state disagrees with
// enable, otherwise it only refreshes the stored status. Status is written
// when the command is issued and verified on the next pass.
func (s *Service) converge(ctx context.Context, kind *component.Kind, d *model.DeploymentDocument) error {
	unit, err := kind.UnitName(d.Instance)
	if err != nil {
		return err
	}

	active, err := s.manager.IsActive(ctx, unit)
	if err != nil {
		return err
	}

	observed := types.StatusStopped
	if active {
		observed = types.StatusRunning
	}

	switch {
	case d.Enable && !active:
		if kind.Component() == types.ComponentMiner {
			s.checkUpstreamPool(ctx, d)
		}
		if _, err := s.startUnit(ctx, kind, d, unit); err != nil {
			return err
		}
		observed = types.StatusRunning
	case !d.Enable && active:
		if _, err := s.manager.Stop(ctx, unit); err != nil {
			return err
		}
		log.Ctx(ctx).Info().Str("unit", unit).Msg("stopped unit")
		observed = types.StatusStopped
	}

	return s.setStatus(ctx, d, observed)
}

func (s *Service) startUnit(ctx context.Context, kind *component.Kind, d *model.DeploymentDocument, unit string) (string, error) {
	if kind.HasControlPipe() {
		pipePath, err := kind.ControlPipePath(s.cfg.Paths, d)
		if err != nil {
			return "", err
		}
		if err := controlpipe.Reset(pipePath); err != nil {
			return "", types.NewError(types.TransientIO, err)
		}
	}

	out, err := s.manager.Start(ctx, unit)
	if err != nil {
		return "", err
	}

	log.Ctx(ctx).Info().Str("unit", unit).Msg("started unit")
	return out, nil
}

func (s *Service) setStatus(ctx context.Context, d *model.DeploymentDocument, status types.DeploymentStatus) error {
	if d.Status == status {
		return nil
	}

	if err := s.db.UpdateDeployment(ctx, d.ID, db.DeploymentUpdate{Status: pkg.Ptr(status)}); err != nil {
		return fmt.Errorf("failed to set status %s: %w", status, err)
	}

	log.Ctx(ctx).Debug().
		Stringer("from", d.Status).
		Stringer("to", status).
		Msg("status updated")
	d.Status = status
	return nil
}

// checkUpstreamPool warns when a miner is started while the pool it points
// to is missing or disabled. The miner is started regardless.
func (s *Service) checkUpstreamPool(ctx context.Context, d *model.DeploymentDocument) {
	logger := log.Ctx(ctx)
	if d.P2PoolID == nil {
		logger.Warn().Msg("miner has no upstream pool")
		return
	}

	upstream, err := s.db.GetDeploymentByID(ctx, *d.P2PoolID)
	switch {
	case db.IsNotFoundError(err):
		logger.Warn().Str("p2pool_id", d.P2PoolID.Hex()).Msg("upstream pool record is missing")
	case err != nil:
		logger.Warn().Err(err).Msg("failed to look up upstream pool")
	case !upstream.Enable:
		logger.Warn().Str("pool", upstream.Instance).Msg("upstream pool is disabled")
	}
}

// deleteDeployment stops the instance, removes its files and pipeline,
// then the record. The op stays pending on failure so the next pass retries.
func (s *Service) deleteDeployment(ctx context.Context, kind *component.Kind, d *model.DeploymentDocument) error {
	unit, err := kind.UnitName(d.Instance)
	if err != nil {
		return err
	}

	active, err := s.manager.IsActive(ctx, unit)
	if err != nil {
		return err
	}
	if active {
		if _, err := s.manager.Stop(ctx, unit); err != nil {
			return err
		}
	}

	if err := kind.Cleanup(s.cfg.Paths, d); err != nil {
		return types.NewError(types.TransientIO, err)
	}

	if kind.HasLogPipeline() {
		s.stopPipeline(ctx, d.Instance)
	}

	if err := s.db.DeleteDeployment(ctx, d.ID); err != nil {
		return fmt.Errorf("failed to delete deployment: %w", err)
	}

	log.Ctx(ctx).Info().Str("unit", unit).Msg("deleted deployment")
	return nil
}
