package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ctxKey string

const (
	// LoggerKey holds the request-scoped logger in gin.Context and context.Context.
	LoggerKey = "logger"
	// TraceIDKey holds the request trace id.
	TraceIDKey = "traceID"
	// ActorIDKey holds the authenticated user id (int64).
	ActorIDKey = "actor_id"
)

// WithLogger stores l in ctx under LoggerKey.
func WithLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey(LoggerKey), l)
}

// WithTraceID stores the trace id in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey(TraceIDKey), traceID)
}

// WithActorID stores the authenticated user id in ctx.
func WithActorID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKey(ActorIDKey), id)
}

// FromGin returns a request-scoped logger from gin.Context if present,
// otherwise returns the provided base logger.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if l, ok := c.Get(LoggerKey); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			return lg
		}
	}
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns a logger from context if set, otherwise attempts to enrich
// base with trace_id/actor_id from context values.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	if lg, ok := ctx.Value(ctxKey(LoggerKey)).(*zap.SugaredLogger); ok && lg != nil {
		return lg
	}
	var fields []interface{}
	if tid, ok := ctx.Value(ctxKey(TraceIDKey)).(string); ok && tid != "" {
		fields = append(fields, "trace_id", tid)
	}
	if uid, ok := ctx.Value(ctxKey(ActorIDKey)).(int64); ok && uid > 0 {
		fields = append(fields, "actor_id", uid)
	}
	if len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}

// ActorIDFromCtx returns the authenticated user id, or 0 when unauthenticated.
func ActorIDFromCtx(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(ctxKey(ActorIDKey)).(int64)
	return id
}
