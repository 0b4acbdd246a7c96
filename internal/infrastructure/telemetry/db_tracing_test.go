package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedCheck struct {
	ID     uint `gorm:"primaryKey"`
	Serial int64
}

func setupTracedDB(t *testing.T, cfg DBTracingConfig) (*gorm.DB, *tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&tracedCheck{}))

	cfg.TracerProvider = tp
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).RegisterOtelGorm(db))
	return db, recorder, tp
}

func attrValue(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNewDBTracingPlugin_DefaultsSlowThreshold(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	assert.NoError(t, NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zap.NewNop()).RegisterOtelGorm(db))
}

func TestDBTracingPlugin_AnnotatesQuerySpans(t *testing.T) {
	db, recorder, tp := setupTracedDB(t, DBTracingConfig{Enabled: true, DBSystem: "sqlite"})

	ctx, parent := tp.Tracer("test").Start(context.Background(), "check.create")
	require.NoError(t, db.WithContext(ctx).Create(&tracedCheck{Serial: 10001}).Error)
	parent.End()

	var found bool
	for _, span := range recorder.Ended() {
		if rows, ok := attrValue(span, "db.rows_affected"); ok {
			found = true
			assert.Equal(t, int64(1), rows.AsInt64())
			table, _ := attrValue(span, "db.sql.table")
			assert.Equal(t, "traced_checks", table.AsString())
			assert.NotEqual(t, codes.Error, span.Status().Code)
		}
	}
	assert.True(t, found, "no annotated db span")
}

func TestDBTracingPlugin_ErrorsAndContention(t *testing.T) {
	t.Run("errors mark the span", func(t *testing.T) {
		db, recorder, tp := setupTracedDB(t, DBTracingConfig{Enabled: true, DBSystem: "sqlite"})

		ctx, parent := tp.Tracer("test").Start(context.Background(), "check.list")
		err := db.WithContext(ctx).Exec("SELECT * FROM missing_table").Error
		parent.End()
		require.Error(t, err)

		var failed bool
		for _, span := range recorder.Ended() {
			if span.Status().Code == codes.Error {
				failed = true
			}
		}
		assert.True(t, failed)
	})

	t.Run("contention is tagged instead", func(t *testing.T) {
		db, recorder, tp := setupTracedDB(t, DBTracingConfig{
			Enabled:      true,
			DBSystem:     "sqlite",
			IsContention: func(error) bool { return true },
		})

		ctx, parent := tp.Tracer("test").Start(context.Background(), "check.deposit")
		err := db.WithContext(ctx).Exec("SELECT * FROM missing_table").Error
		parent.End()
		require.Error(t, err)

		var tagged bool
		for _, span := range recorder.Ended() {
			if v, ok := attrValue(span, "db.lock_contention"); ok && v.AsBool() {
				tagged = true
			}
		}
		assert.True(t, tagged)
	})
}
