package services

import (
	"context"
	"errors"
	"time"

	"github.com/db4e/db4e-supervisor/internal/component"
	"github.com/db4e/db4e-supervisor/internal/db"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/pipeline"
	"github.com/db4e/db4e-supervisor/internal/tailer"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/thejerf/suture/v4"
)

const pipelineStopTimeout = 10 * time.Second

// reconcilePipelines keeps exactly one pipeline per local pool record.
// A pipeline whose log path changed is replaced.
func (s *Service) reconcilePipelines(ctx context.Context, kind *component.Kind, records []*model.DeploymentDocument) {
	wanted := make(map[string]*model.DeploymentDocument, len(records))
	for _, d := range records {
		if !d.Remote {
			wanted[d.Instance] = d
		}
	}

	s.mu.Lock()
	var stale []string
	for instance, h := range s.pipelines {
		d, ok := wanted[instance]
		if !ok {
			stale = append(stale, instance)
			continue
		}
		if logPath, err := kind.LogPath(s.cfg.Paths, d); err == nil && logPath != h.logPath {
			stale = append(stale, instance)
		}
	}
	s.mu.Unlock()

	for _, instance := range stale {
		s.stopPipeline(ctx, instance)
	}

	for instance, d := range wanted {
		if s.hasPipeline(instance) {
			continue
		}
		if err := s.startPipeline(ctx, kind, d); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("instance", instance).Msg("failed to start log pipeline")
		}
	}
}

func (s *Service) hasPipeline(instance string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pipelines[instance]
	return ok
}

func (s *Service) startPipeline(ctx context.Context, kind *component.Kind, d *model.DeploymentDocument) error {
	logPath, err := kind.LogPath(s.cfg.Paths, d)
	if err != nil {
		return err
	}

	p := s.newPipeline(kind, d, logPath)
	token := s.supervisor.Add(p)

	s.mu.Lock()
	s.pipelines[d.Instance] = pipelineHandle{token: token, logPath: logPath}
	s.mu.Unlock()

	log.Ctx(ctx).Info().
		Str("instance", d.Instance).
		Str("log_file", logPath).
		Msg("log pipeline added")
	return nil
}

// newPipeline builds the log pipeline of one pool record without
// registering it.
func (s *Service) newPipeline(kind *component.Kind, d *model.DeploymentDocument, logPath string) *pipeline.Pipeline {
	sink := pipeline.NewSink(s.db, s.notifier, d.Instance, kind.APIDir(s.cfg.Paths, d))
	return pipeline.New(d.Instance, tailer.New(logPath, s.cfg.Poller.TailInterval), s.extractor, sink)
}

// ReplayLog feeds the whole log of a pool instance through a pipeline
// once, from the beginning of the file. Events already stored are skipped.
func (s *Service) ReplayLog(ctx context.Context, instance string) error {
	kind, err := component.For(types.ComponentPool)
	if err != nil {
		return err
	}

	d, err := s.db.GetDeployment(ctx, types.ComponentPool, instance)
	if err != nil {
		if db.IsNotFoundError(err) {
			return types.NewError(types.NotFound, err)
		}
		return err
	}

	logPath, err := kind.LogPath(s.cfg.Paths, d)
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().Str("instance", instance).Str("log_file", logPath).Msg("replaying log")
	return s.newPipeline(kind, d, logPath).Replay(ctx, logPath)
}

// stopPipeline removes the instance's pipeline, if any, and waits for it
// to return. The handle is kept when the supervisor refused the removal, so
// the next pass retries instead of adding a second pipeline.
func (s *Service) stopPipeline(ctx context.Context, instance string) {
	s.mu.Lock()
	h, ok := s.pipelines[instance]
	s.mu.Unlock()
	if !ok {
		return
	}

	err := s.supervisor.RemoveAndWait(h.token, pipelineStopTimeout)
	if err != nil && !errors.Is(err, suture.ErrTimeout) {
		log.Ctx(ctx).Warn().Err(err).Str("instance", instance).Msg("failed to remove log pipeline")
		return
	}

	s.mu.Lock()
	delete(s.pipelines, instance)
	s.mu.Unlock()

	// a timed out pipeline is already detached from the supervisor
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("instance", instance).Msg("log pipeline did not stop cleanly")
		return
	}
	log.Ctx(ctx).Info().Str("instance", instance).Msg("log pipeline removed")
}

// PipelineCount reports how many log pipelines are registered.
func (s *Service) PipelineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pipelines)
}
