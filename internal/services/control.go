package services

import (
	"context"
	"fmt"

	"github.com/db4e/db4e-supervisor/internal/component"
	"github.com/db4e/db4e-supervisor/internal/controlpipe"
	"github.com/db4e/db4e-supervisor/internal/db"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/ipc"
	"github.com/db4e/db4e-supervisor/internal/types"
)

var _ ipc.Controller = (*Service)(nil)

// Start serves a control socket start request. The deployment must exist
// and have a config file. The returned string is the service manager's
// output.
func (s *Service) Start(ctx context.Context, c types.Component, instance string) (string, error) {
	kind, d, err := s.lookup(ctx, c, instance)
	if err != nil {
		return "", err
	}

	if d.Config == "" {
		return "", types.NewErrorWithMsg(types.NotFound, "%s has no config file", d.Key())
	}

	unit, err := kind.UnitName(instance)
	if err != nil {
		return "", err
	}

	out, err := s.startUnit(ctx, kind, d, unit)
	if err != nil {
		return "", err
	}

	if err := s.setStatus(ctx, d, types.StatusRunning); err != nil {
		return "", err
	}
	return out, nil
}

// Stop serves a control socket stop request. Pools are asked to exit
// through their control pipe, everything else is stopped by the service
// manager.
func (s *Service) Stop(ctx context.Context, c types.Component, instance string) (string, error) {
	kind, d, err := s.lookup(ctx, c, instance)
	if err != nil {
		return "", err
	}

	var out string
	switch kind.StopPolicy() {
	case component.StopViaControlPipe:
		pipePath, err := kind.ControlPipePath(s.cfg.Paths, d)
		if err != nil {
			return "", err
		}
		if err := controlpipe.Write(pipePath, controlpipe.CmdExit, s.cfg.Supervisor.PipeWriteTimeout); err != nil {
			return "", err
		}
		out = fmt.Sprintf("wrote exit to %s", pipePath)
	default:
		unit, err := kind.UnitName(instance)
		if err != nil {
			return "", err
		}
		if out, err = s.manager.Stop(ctx, unit); err != nil {
			return "", err
		}
	}

	if err := s.setStatus(ctx, d, types.StatusStopped); err != nil {
		return "", err
	}
	return out, nil
}

func (s *Service) lookup(ctx context.Context, c types.Component, instance string) (*component.Kind, *model.DeploymentDocument, error) {
	kind, err := component.For(c)
	if err != nil {
		return nil, nil, types.NewError(types.ProtocolError, err)
	}

	d, err := s.db.GetDeployment(ctx, c, instance)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, nil, types.NewError(types.NotFound, err)
		}
		return nil, nil, err
	}

	return kind, d, nil
}
