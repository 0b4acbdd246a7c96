package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	AttrOperation = attribute.Key("operation")
	AttrOutcome   = attribute.Key("outcome")
)

// TreasuryMetrics counts treasury operations by outcome and lock wait
// timeouts by operation. It satisfies the application Recorder port.
type TreasuryMetrics struct {
	operations   *Counter
	lockTimeouts *Counter
}

// NewTreasuryMetrics creates the treasury instruments on meter
func NewTreasuryMetrics(meter metric.Meter) (*TreasuryMetrics, error) {
	operations, err := NewCounter(meter,
		"treasury_operations_total",
		"Treasury operations by outcome (success, rejected, error)",
		"{operation}",
	)
	if err != nil {
		return nil, err
	}

	lockTimeouts, err := NewCounter(meter,
		"treasury_lock_timeouts_total",
		"Operations abandoned because a row lease could not be acquired in time",
		"{timeout}",
	)
	if err != nil {
		return nil, err
	}

	return &TreasuryMetrics{operations: operations, lockTimeouts: lockTimeouts}, nil
}

// RecordTransition counts one finished operation
func (m *TreasuryMetrics) RecordTransition(ctx context.Context, operation, outcome string) {
	m.operations.Inc(ctx, AttrOperation.String(operation), AttrOutcome.String(outcome))
}

// RecordLockTimeout counts one lock wait timeout
func (m *TreasuryMetrics) RecordLockTimeout(ctx context.Context, operation string) {
	m.lockTimeouts.Inc(ctx, AttrOperation.String(operation))
}
