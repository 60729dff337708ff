package poller

import (
	"context"
	"sync"
	"time"

	"github.com/db4e/db4e-supervisor/internal/observability/tracing"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/rs/zerolog/log"
)

// Poller runs one periodic task. Ticks that arrive while a poll is still
// running are dropped, so polls never overlap.
type Poller struct {
	name       string
	interval   time.Duration
	quit       chan struct{}
	stopOnce   sync.Once
	pollMethod func(ctx context.Context) error
}

func NewPoller(name string, interval time.Duration, pollMethod func(ctx context.Context) error) *Poller {
	return &Poller{
		name:       name,
		interval:   interval,
		quit:       make(chan struct{}),
		pollMethod: pollMethod,
	}
}

// Start blocks, invoking the poll method every interval until ctx is
// cancelled or Stop is called. Each poll gets its own trace id. A failing
// poll is logged and retried on the next tick.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	logger := log.Ctx(ctx).With().Str("poller", p.name).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Msgf("Starting poller with interval %s", p.interval)

	for {
		select {
		case <-ticker.C:
			p.poll(tracing.InjectTraceID(ctx))
		case <-ctx.Done():
			logger.Info().Msg("Poller stopped due to context cancellation")
			return
		case <-p.quit:
			logger.Info().Msg("Poller stopped")
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	logger := log.Ctx(ctx)
	logger.Debug().Msg("Executing poll method")

	err := p.pollMethod(ctx)
	switch {
	case err == nil:
		logger.Debug().Msg("Poll method executed successfully")
	case ctx.Err() != nil:
		// shutting down
	case types.IsType(err, types.TransientIO), types.IsType(err, types.NotFound):
		logger.Warn().Err(err).Msg("Poll failed, retrying next interval")
	default:
		logger.Error().Err(err).Msg("Error polling")
	}
}

// Stop ends Start. It is safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
	})
}
