package telemetry_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erp/treasury/internal/infrastructure/telemetry"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumFor(t *testing.T, data metricdata.Aggregation, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestTreasuryMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := telemetry.NewTreasuryMetrics(provider.Meter("treasury"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransition(ctx, "check.deposit", "success")
	m.RecordTransition(ctx, "check.deposit", "success")
	m.RecordTransition(ctx, "check.accredit", "rejected")
	m.RecordLockTimeout(ctx, "check.deposit")

	metrics := collect(t, reader)
	ops := metrics["treasury_operations_total"]
	require.NotNil(t, ops)
	assert.Equal(t, int64(2), sumFor(t, ops,
		telemetry.AttrOperation.String("check.deposit"), telemetry.AttrOutcome.String("success")))
	assert.Equal(t, int64(1), sumFor(t, ops,
		telemetry.AttrOperation.String("check.accredit"), telemetry.AttrOutcome.String("rejected")))

	timeouts := metrics["treasury_lock_timeouts_total"]
	require.NotNil(t, timeouts)
	assert.Equal(t, int64(1), sumFor(t, timeouts, telemetry.AttrOperation.String("check.deposit")))
}

func TestRegisterDBPoolMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	sqlDB, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(3)

	reg, err := telemetry.RegisterDBPoolMetrics(provider.Meter("db"), sqlDB)
	require.NoError(t, err)
	defer func() { _ = reg.Unregister() }()

	metrics := collect(t, reader)
	maxOpen, ok := metrics["db_pool_connections_max"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, maxOpen.DataPoints, 1)
	assert.Equal(t, int64(3), maxOpen.DataPoints[0].Value)

	conns, ok := metrics["db_pool_connections"].(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, conns.DataPoints, 2)
}
