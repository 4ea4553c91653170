package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	global, logs := observed()
	restore := zap.ReplaceGlobals(global)
	defer restore()

	FromContext(context.Background()).Info("background work")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "background work", logs.All()[0].Message)
}

func TestScopedFields(t *testing.T) {
	orderID := uuid.New()
	channelID := uuid.New()
	shopID := uuid.New()

	tests := []struct {
		name   string
		scope  func(ctx context.Context) context.Context
		fields map[string]any
	}{
		{
			name:   "request",
			scope:  func(ctx context.Context) context.Context { return WithRequestID(ctx, "req-1") },
			fields: map[string]any{"request_id": "req-1"},
		},
		{
			name: "owner then order",
			scope: func(ctx context.Context) context.Context {
				return WithOrder(WithOwner(ctx, "owner-1"), orderID)
			},
			fields: map[string]any{"owner_id": "owner-1", "order_id": orderID.String()},
		},
		{
			name: "order then channel",
			scope: func(ctx context.Context) context.Context {
				return WithChannel(WithOrder(ctx, orderID), channelID)
			},
			fields: map[string]any{"order_id": orderID.String(), "channel_id": channelID.String()},
		},
		{
			name:   "shop",
			scope:  func(ctx context.Context) context.Context { return WithShop(ctx, shopID) },
			fields: map[string]any{"shop_id": shopID.String()},
		},
		{
			name:   "delivery",
			scope:  func(ctx context.Context) context.Context { return WithDelivery(ctx, "orders/create", "d-1") },
			fields: map[string]any{"topic": "orders/create", "delivery_id": "d-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, logs := observed()
			ctx := tt.scope(WithContext(context.Background(), base))

			L(ctx).Info("scoped")

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.fields, logs.All()[0].ContextMap())
		})
	}
}

func TestWithOrder_DoesNotLeakIntoParent(t *testing.T) {
	base, logs := observed()
	parent := WithContext(context.Background(), base)
	_ = WithOrder(parent, uuid.New())

	L(parent).Info("parent")

	require.Equal(t, 1, logs.Len())
	assert.Empty(t, logs.All()[0].ContextMap())
}

func TestRescopingReplacesValue(t *testing.T) {
	base, logs := observed()
	first, second := uuid.New(), uuid.New()
	ctx := WithShop(WithContext(context.Background(), base), first)
	ctx = WithOrder(ctx, uuid.New())
	ctx = WithShop(ctx, second)

	L(ctx).Info("rescoped")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Len(t, entry.Context, 2)
	assert.Equal(t, second.String(), entry.ContextMap()["shop_id"])
}

func TestGetRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "req-9", GetRequestID(WithRequestID(context.Background(), "req-9")))
}

func TestL_AddsTraceIdentifiers(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	base, logs := observed()
	ctx := trace.ContextWithSpanContext(WithContext(context.Background(), base), spanCtx)
	L(ctx).Info("traced")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
}
