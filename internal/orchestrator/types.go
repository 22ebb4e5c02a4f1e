package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Telemetry receives spans and metrics for each collector run.
type Telemetry interface {
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	RecordCollectDuration(ctx context.Context, region, collector string, d time.Duration)
	RecordRecords(ctx context.Context, region, collector string, count int)
	RecordError(ctx context.Context, region, collector string)
}

// Progress is advanced once per collector and region.
type Progress interface {
	Start(total int)
	Step(region, collector string)
	Finish()
}

type nopTelemetry struct {
	tracer trace.Tracer
}

func (n nopTelemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return n.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (nopTelemetry) RecordCollectDuration(context.Context, string, string, time.Duration) {}
func (nopTelemetry) RecordRecords(context.Context, string, string, int)                  {}
func (nopTelemetry) RecordError(context.Context, string, string)                         {}

func newNopTelemetry() Telemetry {
	return nopTelemetry{tracer: noop.NewTracerProvider().Tracer("")}
}

type nopProgress struct{}

func (nopProgress) Start(int)            {}
func (nopProgress) Step(string, string) {}
func (nopProgress) Finish()              {}
