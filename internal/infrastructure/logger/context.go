package logger

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey int

const (
	loggerKey contextKey = iota
	scopeKey
	requestIDKey
)

// scope is an immutable list of fields attached to a context, newest first.
// A key scoped twice keeps its newest value.
type scope struct {
	field zap.Field
	next  *scope
}

// WithContext attaches log to ctx as the base logger for L
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the base logger carried by ctx, or the global zap
// logger when there is none. Scope fields are not applied; use L.
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok && log != nil {
		return log
	}
	return zap.L()
}

// L returns the context logger with every scope field and the active span's
// trace_id and span_id.
//
//	logger.L(ctx).Info("Order placed", zap.Int("placed", n))
func L(ctx context.Context) *zap.Logger {
	return decorate(ctx, FromContext(ctx))
}

// decorate adds ctx's scope fields and trace identifiers to log
func decorate(ctx context.Context, log *zap.Logger) *zap.Logger {
	fields := scopeFields(ctx)
	if spanCtx := trace.SpanFromContext(ctx).SpanContext(); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

func scopeFields(ctx context.Context) []zap.Field {
	head, _ := ctx.Value(scopeKey).(*scope)
	var fields []zap.Field
	seen := make(map[string]struct{})
	for s := head; s != nil; s = s.next {
		if _, dup := seen[s.field.Key]; dup {
			continue
		}
		seen[s.field.Key] = struct{}{}
		fields = append(fields, s.field)
	}
	slices.Reverse(fields)
	return fields
}

func with(ctx context.Context, fields ...zap.Field) context.Context {
	head, _ := ctx.Value(scopeKey).(*scope)
	for _, f := range fields {
		head = &scope{field: f, next: head}
	}
	return context.WithValue(ctx, scopeKey, head)
}

// WithRequestID records the request id and scopes the context logger to it
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return with(ctx, zap.String("request_id", requestID))
}

// GetRequestID returns the id recorded by WithRequestID
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithOwner scopes the context logger to an authenticated owner
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return with(ctx, zap.String("owner_id", ownerID))
}

// WithOrder scopes the context logger to one order
func WithOrder(ctx context.Context, orderID uuid.UUID) context.Context {
	return with(ctx, zap.String("order_id", orderID.String()))
}

// WithChannel scopes the context logger to one fulfillment channel
func WithChannel(ctx context.Context, channelID uuid.UUID) context.Context {
	return with(ctx, zap.String("channel_id", channelID.String()))
}

// WithShop scopes the context logger to one storefront
func WithShop(ctx context.Context, shopID uuid.UUID) context.Context {
	return with(ctx, zap.String("shop_id", shopID.String()))
}

// WithDelivery scopes the context logger to one webhook delivery
func WithDelivery(ctx context.Context, topic, deliveryID string) context.Context {
	return with(ctx, zap.String("topic", topic), zap.String("delivery_id", deliveryID))
}
