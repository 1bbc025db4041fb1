// Package requestlogger provides structured request logging middleware built
// on zap. One log entry is written per request after the rest of the chain
// completes.
package requestlogger

import (
	"time"

	"go.uber.org/zap"

	"github.com/embrake/aquilify"
)

// Middleware returns request logging middleware writing to the given logger.
// Passing nil is allowed and disables logging, which is useful in tests.
func Middleware(logger *zap.Logger) func(ctx *aquilify.Context) {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(ctx *aquilify.Context) {
		start := time.Now()

		ctx.Next()

		status := ctx.Status
		if status == 0 {
			if ctx.HasResponseBody() {
				status = 200
			} else {
				status = 404
			}
		}

		fields := []zap.Field{
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", status),
			zap.String("clientIP", ctx.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}

		if ctx.Error != nil {
			fields = append(fields, zap.Error(ctx.Error))
			logger.Error("request failed", fields...)
			return
		}

		logger.Info("request handled", fields...)
	}
}
