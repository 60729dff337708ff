package metrics

import (
	"context"
	"time"
)

// PollFunc is one cycle of a periodic task.
type PollFunc = func(ctx context.Context) error

// InstrumentPoll wraps f so that the duration and outcome of every cycle
// is observed under name.
func InstrumentPoll(name string, f PollFunc) PollFunc {
	return func(ctx context.Context) error {
		start := time.Now()
		err := f(ctx)
		pollerDurationHistogram.
			WithLabelValues(name, outcome(err != nil).String()).
			Observe(time.Since(start).Seconds())
		return err
	}
}
