// Package otel provides OpenTelemetry metrics for the resilience layer.
package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mblcrm/lendgate/internal/resilience"
)

const meterName = "lendgate"

// Metrics holds all lendgate metric instruments. It implements
// resilience.Observer so the manager can feed it directly.
type Metrics struct {
	Calls              metric.Int64Counter
	SimulatedCalls     metric.Int64Counter
	BreakerTransitions metric.Int64Counter
	CallDuration       metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Calls, err = meter.Int64Counter("lendgate.calls.total",
		metric.WithDescription("External calls completed, real or simulated"))
	if err != nil {
		return nil, err
	}

	m.SimulatedCalls, err = meter.Int64Counter("lendgate.calls.simulated",
		metric.WithDescription("Calls answered by the fallback provider"))
	if err != nil {
		return nil, err
	}

	m.BreakerTransitions, err = meter.Int64Counter("lendgate.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"))
	if err != nil {
		return nil, err
	}

	m.CallDuration, err = meter.Float64Histogram("lendgate.call.duration_seconds",
		metric.WithDescription("End-to-end call latency including retries and fallback"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ObserveCall implements resilience.Observer.
func (m *Metrics) ObserveCall(dependency, operation string, success, simulated bool, seconds float64) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	)
	m.Calls.Add(ctx, 1, attrs)
	m.CallDuration.Record(ctx, seconds, attrs)
	if simulated {
		m.SimulatedCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("dependency", dependency),
			attribute.String("operation", operation),
		))
	}
}

// ObserveTransition implements resilience.Observer.
func (m *Metrics) ObserveTransition(ev resilience.TransitionEvent) {
	m.BreakerTransitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("dependency", ev.Dependency),
		attribute.String("from", string(ev.From)),
		attribute.String("to", string(ev.To)),
	))
}
