package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans (dev only)
	SlowQueryThresh time.Duration // default 200ms
	DBSystem        string        // "postgresql" or "sqlite"
	// IsContention classifies lock wait errors, which are tagged on the span
	// instead of being marked as failures.
	IsContention func(error) bool
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

// DBTracingPlugin wraps the otelgorm plugin with slow query and lock contention marking.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

type queryStartKey struct{}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh == 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm installs otelgorm and the timing callbacks on db.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if p.config.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.config.TracerProvider))
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("treasury_timing:before_create", markQueryStart) },
		func() error { return cb.Query().Before("gorm:query").Register("treasury_timing:before_query", markQueryStart) },
		func() error { return cb.Update().Before("gorm:update").Register("treasury_timing:before_update", markQueryStart) },
		func() error { return cb.Delete().Before("gorm:delete").Register("treasury_timing:before_delete", markQueryStart) },
		func() error { return cb.Row().Before("gorm:row").Register("treasury_timing:before_row", markQueryStart) },
		func() error { return cb.Raw().Before("gorm:raw").Register("treasury_timing:before_raw", markQueryStart) },
		func() error { return cb.Create().After("gorm:create").Before("otel:after_create").Register("treasury_timing:after_create", p.afterQuery) },
		func() error { return cb.Query().After("gorm:query").Before("otel:after_query").Register("treasury_timing:after_query", p.afterQuery) },
		func() error { return cb.Update().After("gorm:update").Before("otel:after_update").Register("treasury_timing:after_update", p.afterQuery) },
		func() error { return cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("treasury_timing:after_delete", p.afterQuery) },
		func() error { return cb.Row().After("gorm:row").Before("otel:after_row").Register("treasury_timing:after_row", p.afterQuery) },
		func() error { return cb.Raw().After("gorm:raw").Before("otel:after_raw").Register("treasury_timing:after_raw", p.afterQuery) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

// afterQuery annotates the span otelgorm opened for this statement.
func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		if p.config.IsContention != nil && p.config.IsContention(err) {
			span.SetAttributes(attribute.Bool("db.lock_contention", true))
		} else {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		}
	}

	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
