// Package metrics exports validation outcomes over OTLP.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"meterocr/pkg/ocr"
)

const (
	meterName = "meterocr"

	MetricValidations = "meterocr.validations"
	MetricFailures    = "meterocr.failures"
	MetricDuration    = "meterocr.validation.duration"
)

// Recorder implements ocr.Observer on top of an OpenTelemetry meter.
type Recorder struct {
	validations metric.Int64Counter
	failures    metric.Int64Counter
	duration    metric.Float64Histogram
}

var _ ocr.Observer = (*Recorder)(nil)

// NewRecorder creates the instruments on mp.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	m := mp.Meter(meterName)
	r := &Recorder{}
	var err error
	if r.validations, err = m.Int64Counter(MetricValidations,
		metric.WithDescription("Completed validations by tier"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create metric %s: %w", MetricValidations, err)
	}
	if r.failures, err = m.Int64Counter(MetricFailures,
		metric.WithDescription("Validations that ended in an error, by kind"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create metric %s: %w", MetricFailures, err)
	}
	if r.duration, err = m.Float64Histogram(MetricDuration,
		metric.WithDescription("Wall time of a completed validation"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create metric %s: %w", MetricDuration, err)
	}
	return r, nil
}

// ObserveValidation counts one completed validation and records its latency.
func (r *Recorder) ObserveValidation(ctx context.Context, tier ocr.Tier, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("tier", string(tier)))
	r.validations.Add(ctx, 1, attrs)
	r.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// ObserveFailure counts one failed validation.
func (r *Recorder) ObserveFailure(ctx context.Context, kind string) {
	r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Start builds a Recorder exporting to endpoint every interval. An empty
// endpoint yields a Recorder on a no-op provider. The returned function
// flushes and stops the exporter.
func Start(ctx context.Context, endpoint, version string, interval time.Duration) (*Recorder, func(context.Context) error, error) {
	if endpoint == "" {
		r, err := NewRecorder(noop.NewMeterProvider())
		return r, func(context.Context) error { return nil }, err
	}

	var opts []otlpmetrichttp.Option
	if strings.Contains(endpoint, "://") {
		opts = append(opts, otlpmetrichttp.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(meterName),
			semconv.ServiceVersion(version),
		),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	r, err := NewRecorder(mp)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}
	return r, mp.Shutdown, nil
}
