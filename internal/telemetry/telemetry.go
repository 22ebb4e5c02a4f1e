// Package telemetry provides OpenTelemetry instrumentation for awsinventory.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/awsinventory/internal/config"
	"github.com/yairfalse/awsinventory/pkg/inventory"
)

const instrumentationName = "awsinventory"

// Provider wraps OTEL tracer and meter providers.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter

	// registry backs the Prometheus textfile; it is private to the provider.
	registry *prometheus.Registry

	// Metrics
	collectDuration metric.Float64Histogram
	recordCount     metric.Int64Counter
	collectErrors   metric.Int64Counter
	resources       metric.Int64ObservableGauge

	// State for the resources gauge
	mu     sync.RWMutex
	counts []resourceCount
}

type resourceCount struct {
	sheet string
	count int64
}

// NewProvider creates a new telemetry provider.
func NewProvider(ctx context.Context, cfg config.OTELConfig) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	p := &Provider{registry: prometheus.NewRegistry()}

	if err := p.setupTracing(ctx, cfg, res); err != nil {
		return nil, err
	}

	if err := p.setupMetrics(ctx, cfg, res); err != nil {
		if p.tracerProvider != nil {
			_ = p.tracerProvider.Shutdown(ctx)
		}
		return nil, err
	}

	if err := p.initMetrics(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Provider) setupTracing(ctx context.Context, cfg config.OTELConfig, res *resource.Resource) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}

	if cfg.Traces.Enabled && cfg.Endpoint != "" {
		exp, err := createTraceExporter(ctx, cfg)
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
		sampler := sdktrace.TraceIDRatioBased(cfg.Traces.SampleRate)
		opts = append(opts, sdktrace.WithBatcher(exp), sdktrace.WithSampler(sampler))
	}

	p.tracerProvider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(p.tracerProvider)
	p.tracer = p.tracerProvider.Tracer(instrumentationName)

	return nil
}

func (p *Provider) setupMetrics(ctx context.Context, cfg config.OTELConfig, res *resource.Resource) error {
	promExporter, err := otelprom.New(otelprom.WithRegisterer(p.registry))
	if err != nil {
		return fmt.Errorf("create prometheus exporter: %w", err)
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	}

	if cfg.Metrics.Enabled && cfg.Endpoint != "" {
		exp, err := createMetricExporter(ctx, cfg)
		if err != nil {
			return fmt.Errorf("create metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}

	p.meterProvider = sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(p.meterProvider)
	p.meter = p.meterProvider.Meter(instrumentationName)

	return nil
}

func createTraceExporter(ctx context.Context, cfg config.OTELConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

func createMetricExporter(ctx context.Context, cfg config.OTELConfig) (sdkmetric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return otlpmetricgrpc.New(ctx, opts...)
}

func (p *Provider) initMetrics() error {
	var err error

	p.collectDuration, err = p.meter.Float64Histogram(
		"awsinventory_collect_duration",
		metric.WithDescription("Duration of one collector run in one region"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("create collect_duration: %w", err)
	}

	p.recordCount, err = p.meter.Int64Counter(
		"awsinventory_records_total",
		metric.WithDescription("Total inventory records collected"),
	)
	if err != nil {
		return fmt.Errorf("create records: %w", err)
	}

	p.collectErrors, err = p.meter.Int64Counter(
		"awsinventory_collect_errors_total",
		metric.WithDescription("Total failed collector runs"),
	)
	if err != nil {
		return fmt.Errorf("create collect_errors: %w", err)
	}

	p.resources, err = p.meter.Int64ObservableGauge(
		"awsinventory_resources",
		metric.WithDescription("Resources in the last collected inventory"),
		metric.WithInt64Callback(p.observeResources),
	)
	if err != nil {
		return fmt.Errorf("create resources gauge: %w", err)
	}

	return nil
}

// SetInventory publishes the record count of every sheet of inv
// on the awsinventory_resources gauge.
func (p *Provider) SetInventory(inv *inventory.Inventory) {
	tables := inv.Tables()
	counts := make([]resourceCount, 0, len(tables))
	for _, t := range tables {
		counts = append(counts, resourceCount{sheet: t.Sheet, count: int64(len(t.Rows))})
	}

	p.mu.Lock()
	p.counts = counts
	p.mu.Unlock()
}

// observeResources is the callback for the resources gauge.
func (p *Provider) observeResources(_ context.Context, o metric.Int64Observer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, c := range p.counts {
		o.Observe(c.count, metric.WithAttributes(attribute.String("sheet", c.sheet)))
	}
	return nil
}

// StartSpan starts a new span.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordCollectDuration records how long a collector took in a region.
func (p *Provider) RecordCollectDuration(ctx context.Context, region, collector string, d time.Duration) {
	p.collectDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("region", region),
		attribute.String("collector", collector),
	))
}

// RecordRecords records the number of records a collector produced.
func (p *Provider) RecordRecords(ctx context.Context, region, collector string, count int) {
	p.recordCount.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("region", region),
		attribute.String("collector", collector),
	))
}

// RecordError records a failed collector run.
func (p *Provider) RecordError(ctx context.Context, region, collector string) {
	p.collectErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("region", region),
		attribute.String("collector", collector),
	))
}

// WriteTextfile writes the current metrics in the Prometheus text format,
// for pickup by a node_exporter textfile collector.
func (p *Provider) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown flushes and shuts down the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown tracer: %w", err)
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown meter: %w", err)
		}
	}
	return nil
}
