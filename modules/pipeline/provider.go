package pipeline

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider wires a Prometheus exporter bridge into a global OTel
// MeterProvider, so pipeline.DefaultMetrics() records real instruments
// instead of the no-op default. Returns a shutdown func to call from
// main's teardown. Tracing is intentionally not set up here: the pipeline
// only needs metrics, and the full combined trace+metric provider is
// outside this service's scope.
func InitMeterProvider() (shutdown func(context.Context) error, err error) {
	promExp, err := promexporter.New()
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(promExp))
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

// MetricsHandler exposes the Prometheus scrape endpoint backing the
// exporter registered by InitMeterProvider.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
