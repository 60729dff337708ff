// Package pipeline turns one pool instance's log into stored mining data.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/db4e/db4e-supervisor/internal/extractor"
	"github.com/db4e/db4e-supervisor/internal/observability/metrics"
	"github.com/db4e/db4e-supervisor/internal/tailer"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/rs/zerolog/log"
)

// Pipeline tails a pool log and applies every extracted update in file
// order. It implements suture.Service: Serve returns on failure so that the
// owning supervisor restarts it.
type Pipeline struct {
	name      string
	instance  string
	tailer    *tailer.Tailer
	extractor *extractor.Extractor
	sink      *Sink
	now       func() time.Time
}

func New(instance string, t *tailer.Tailer, e *extractor.Extractor, sink *Sink) *Pipeline {
	return &Pipeline{
		name:      "pipeline/" + types.ComponentPool.String() + "/" + instance,
		instance:  instance,
		tailer:    t,
		extractor: e,
		sink:      sink,
		now:       time.Now,
	}
}

// String names the pipeline in supervisor events.
func (p *Pipeline) String() string {
	return p.name
}

func (p *Pipeline) Serve(ctx context.Context) error {
	logger := log.Ctx(ctx).With().
		Str("instance", p.instance).
		Str("log_file", p.tailer.Path()).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Msg("starting log pipeline")
	err := p.tailer.Follow(ctx, func(line string) error {
		p.ProcessLine(ctx, line)
		return nil
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Info().Msg("log pipeline stopped")
		return err
	}

	return fmt.Errorf("%s: %w", p.name, err)
}

// Replay processes the whole file once from its beginning. Discrete events
// already stored are skipped by the sink, so replays are idempotent.
func (p *Pipeline) Replay(ctx context.Context, path string) error {
	return tailer.Scan(ctx, path, func(line string) error {
		p.ProcessLine(ctx, line)
		return nil
	})
}

// ProcessLine applies every update derived from line. A failing update is
// logged and does not prevent the others, nor the following lines.
func (p *Pipeline) ProcessLine(ctx context.Context, line string) {
	metrics.IncLinesProcessed(p.instance)

	for _, update := range p.extractor.Extract(line, p.now()) {
		if err := p.sink.Apply(ctx, update); err != nil {
			log.Ctx(ctx).Error().Err(err).
				Str("instance", p.instance).
				Str("update", fmt.Sprintf("%T", update)).
				Msg("failed to apply update")
		}
	}
}
