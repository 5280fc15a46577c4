// Package pipeline implements the orchestrator (C6) that drives a stored
// audio file through upload, audio analysis, transcription, NLP and
// persistence, and the monitor (C7) that observes every run.
package pipeline

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "transcriptai/server/pipeline"

// stageDurationBuckets is tuned for a local pipeline whose stages range from
// sub-second (upload validation) to the 300s transcription hard timeout.
var stageDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Metrics holds the OpenTelemetry instruments the monitor records into on
// every stage transition. A Prometheus exporter bridge (see provider.go)
// makes these scrapable without the monitor's own bookkeeping knowing
// anything about Prometheus.
type Metrics struct {
	StageDuration   metric.Float64Histogram
	StageOutcomes   metric.Int64Counter
	ActivePipelines metric.Int64UpDownCounter
	AlertsRaised    metric.Int64Counter
}

// NewMetrics creates the pipeline's instruments against mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.StageDuration, err = m.Float64Histogram("transcriptai.pipeline.stage.duration",
		metric.WithDescription("Per-stage orchestrator duration."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageDurationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StageOutcomes, err = m.Int64Counter("transcriptai.pipeline.stage.outcomes",
		metric.WithDescription("Per-stage success/error counts."),
	); err != nil {
		return nil, err
	}
	if met.ActivePipelines, err = m.Int64UpDownCounter("transcriptai.pipeline.active",
		metric.WithDescription("Number of pipeline runs currently in flight."),
	); err != nil {
		return nil, err
	}
	if met.AlertsRaised, err = m.Int64Counter("transcriptai.pipeline.alerts",
		metric.WithDescription("Alert records raised, by rule."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics lazily builds a Metrics instance against the process-wide
// global MeterProvider. Safe to call before InitMeterProvider has run: the
// global provider defaults to a no-op implementation until replaced.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("pipeline: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func (m *Metrics) recordStage(ctx context.Context, stage string, seconds float64, outcome string) {
	attrs := attribute.String("stage", stage)
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attrs))
	m.StageOutcomes.Add(ctx, 1, metric.WithAttributes(attrs, attribute.String("outcome", outcome)))
}

func (m *Metrics) recordAlert(ctx context.Context, rule string) {
	m.AlertsRaised.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", rule)))
}
