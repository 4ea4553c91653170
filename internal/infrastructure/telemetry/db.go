package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

type queryStartKey struct{}

// DBTracing instruments gorm with otelgorm spans and flags slow queries
type DBTracing struct {
	slowQuery time.Duration
	logger    *zap.Logger
}

func NewDBTracing(slowQuery time.Duration, logger *zap.Logger) *DBTracing {
	if slowQuery <= 0 {
		slowQuery = defaultSlowQueryThreshold
	}
	return &DBTracing{slowQuery: slowQuery, logger: logger}
}

// Register installs otelgorm without query variables plus the timing
// callbacks around every gorm operation
func (t *DBTracing) Register(db *gorm.DB) error {
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName("postgresql"),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("openship:before_create", t.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("openship:after_create", t.after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("openship:before_query", t.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("openship:after_query", t.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("openship:before_update", t.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("openship:after_update", t.after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("openship:before_delete", t.before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("openship:after_delete", t.after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("openship:before_raw", t.before); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("openship:after_raw", t.after); err != nil {
		return err
	}

	t.logger.Info("Database tracing enabled", zap.Duration("slow_query_threshold", t.slowQuery))
	return nil
}

func (t *DBTracing) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (t *DBTracing) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed < t.slowQuery {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
	if db.Error == nil || errors.Is(db.Error, gorm.ErrRecordNotFound) {
		t.logger.Warn("slow query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", db.Statement.RowsAffected),
		)
	}
}
