package logctx

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromCtx_PrefersStoredLogger(t *testing.T) {
	base := zap.NewNop().Sugar()
	stored := zap.NewExample().Sugar()

	ctx := WithLogger(context.Background(), stored)
	require.Same(t, stored, FromCtx(ctx, base))
}

func TestFromCtx_EnrichesWithTraceAndActor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core).Sugar()

	ctx := WithActorID(WithTraceID(context.Background(), "trace-1"), 42)
	FromCtx(ctx, base).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "trace-1", fields["trace_id"])
	require.Equal(t, int64(42), fields["actor_id"])
}

func TestFromGin_FallsBackToBase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := zap.NewNop().Sugar()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)

	require.Same(t, base, FromGin(c, base))
	require.Same(t, base, FromGin(nil, base))
}

func TestActorIDFromCtx(t *testing.T) {
	require.Equal(t, int64(0), ActorIDFromCtx(context.Background()))
	require.Equal(t, int64(7), ActorIDFromCtx(WithActorID(context.Background(), 7)))
}
