package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type traceIDKey struct{}

// InjectTraceID gives ctx a fresh trace id, both as a value and as a
// traceId field on its logger. Call it once per unit of work.
func InjectTraceID(ctx context.Context) context.Context {
	id := uuid.NewString()
	ctx = context.WithValue(ctx, traceIDKey{}, id)

	logger := log.Ctx(ctx).With().Str("traceId", id).Logger()
	return logger.WithContext(ctx)
}

// TraceID returns the id injected into ctx, or "" when there is none.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
