package logging

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestID returns the router-assigned request id, or "" outside a request.
func RequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// With tags log with the request id carried by ctx.
func With(ctx context.Context, log *zap.Logger) *zap.Logger {
	if id := RequestID(ctx); id != "" {
		return log.With(zap.String("request_id", id))
	}
	return log
}
