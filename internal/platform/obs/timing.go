package obs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ctxKey string

// RequestIDKey carries the per-request id assigned by the HTTP middleware.
const RequestIDKey ctxKey = "req_id"

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time measures an operation and logs its duration on completion, tagged with
// the request id when one is present. The returned func takes a pointer to the
// operation's error so the log line reflects the final outcome.
func Time(ctx context.Context, log *zap.Logger, name string) func(errp *error) {
	start := time.Now()
	reqID := RequestID(ctx)

	return func(errp *error) {
		fields := []zap.Field{
			zap.String("op", name),
			zap.Duration("dur", time.Since(start)),
		}
		if reqID != "" {
			fields = append(fields, zap.String("req_id", reqID))
		}

		if errp != nil && *errp != nil {
			log.Warn("operation failed", append(fields, zap.Error(*errp))...)
			return
		}
		log.Info("operation complete", fields...)
	}
}
