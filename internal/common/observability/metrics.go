package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"ksel-bot/internal/common/logger"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	lookupCounter  otelmetric.Int64Counter
	lookupDuration otelmetric.Float64Histogram
}

type Options struct {
	ServiceName    string
	JaegerEndpoint string
	Logger         logger.Logger
}

// New wires an OpenTelemetry meter (exported through the Prometheus
// registry) and a tracer. Spans are only exported when a Jaeger collector
// endpoint is configured. Exporter failures degrade to no-op instruments.
func New(opts Options) *Observability {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))

	o := &Observability{}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if opts.JaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.JaegerEndpoint)))
		if err != nil {
			log.Warn("jaeger exporter disabled", map[string]interface{}{"error": err.Error()})
		} else {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
		}
	}
	o.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(o.tracerProvider)
	o.tracer = o.tracerProvider.Tracer(opts.ServiceName)

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("prometheus exporter disabled", map[string]interface{}{"error": err.Error()})
		return o
	}

	o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(o.meterProvider)
	o.meter = o.meterProvider.Meter(opts.ServiceName)

	o.lookupCounter, _ = o.meter.Int64Counter(
		"lookups.resolved",
		otelmetric.WithDescription("Number of lookups resolved"),
	)
	o.lookupDuration, _ = o.meter.Float64Histogram(
		"lookups.duration",
		otelmetric.WithDescription("End-to-end lookup duration"),
		otelmetric.WithUnit("ms"),
	)

	return o
}

// Tracer returns the service tracer, or the global one on a zero value.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return otel.Tracer("ksel-bot")
	}
	return o.tracer
}

func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordLookup(ctx context.Context, outcome string, fromCache bool) {
	if o == nil || o.lookupCounter == nil {
		return
	}
	o.lookupCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("from_cache", fromCache),
	))
}

func (o *Observability) RecordLookupDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o == nil || o.lookupDuration == nil {
		return
	}
	o.lookupDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
