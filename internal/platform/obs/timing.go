package obs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores the request id on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request id stored on the context, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of an operation when the returned func runs.
// Usage: defer obs.Time(ctx, "op")(&err).
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		logger := zerolog.Ctx(ctx)
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			logger.Warn().Err(*errp).Str("op", name).Dur("dur", dur).Msg("operation failed")
			return
		}
		logger.Debug().Str("op", name).Dur("dur", dur).Msg("operation finished")
	}
}
