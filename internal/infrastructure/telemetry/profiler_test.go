package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop(), "stop is idempotent")
}

func TestNewProfiler_RequiresServerAndName(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "treasury"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address")

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application name")
}

func TestProfileTypes(t *testing.T) {
	assert.Len(t, profileTypes(false), 6)
	assert.Len(t, profileTypes(true), 10)
}

func TestLabelPairs(t *testing.T) {
	pairs := labelPairs(map[string]string{
		ProfilingLabelRoute:     "/api/v1/treasury/checks/:id/deposit",
		ProfilingLabelMethod:    "POST",
		ProfilingLabelOperation: "",
		"":                      "dropped",
	})
	assert.Equal(t, []string{"method", "POST", "route", "/api/v1/treasury/checks/:id/deposit"}, pairs)

	long := labelPairs(map[string]string{"route": strings.Repeat("x", MaxLabelValueLength+10)})
	assert.Len(t, long[1], MaxLabelValueLength)

	assert.Empty(t, labelPairs(nil))
}

func TestWithProfilingLabels_RunsFunction(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "kept")

	for _, labels := range []map[string]string{nil, {ProfilingLabelOperation: "check.deposit"}} {
		called := false
		WithProfilingLabels(ctx, labels, func(inner context.Context) {
			called = true
			assert.Equal(t, "kept", inner.Value(key{}))
		})
		assert.True(t, called)
	}
}
