package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/output/dispatcher"
	"github.com/waftester/scanreport/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*OTelHook)(nil)

// OTelHook exports one span per scan run to an OpenTelemetry collector.
// Progress becomes span events on the run's span; each report edit is a
// short span carrying a single event.
type OTelHook struct {
	opts           OTelOptions
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	mu     sync.Mutex
	spans  map[string]trace.Span
	closed bool
}

// OTelOptions configures the OpenTelemetry hook behavior.
type OTelOptions struct {
	// Endpoint is the OTLP endpoint (default: defaults.OTLPEndpoint).
	Endpoint string

	// ServiceName is the service name for traces (default: "scanreport").
	ServiceName string

	// Insecure uses insecure connection (no TLS).
	Insecure bool

	// Headers contains additional headers for the OTLP exporter.
	Headers map[string]string

	// ShutdownTimeout is the timeout for graceful shutdown (default: 5s).
	ShutdownTimeout time.Duration

	// ConnectionTimeout is the timeout for establishing connection (default: 10s).
	ConnectionTimeout time.Duration
}

func (o *OTelOptions) applyDefaults() {
	if o.ServiceName == "" {
		o.ServiceName = defaults.ToolName
	}
	if o.Endpoint == "" {
		o.Endpoint = defaults.OTLPEndpoint
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if o.ConnectionTimeout == 0 {
		o.ConnectionTimeout = defaults.ConnectTimeout
	}
}

// NewOTelHook creates the OTLP gRPC exporter and a batching tracer
// provider, and installs the provider globally. Export failures never
// reach the scan.
func NewOTelHook(opts OTelOptions) (*OTelHook, error) {
	opts.applyDefaults()

	grpcOpts := []grpc.DialOption{}
	if opts.Insecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
		otlptracegrpc.WithDialOption(grpcOpts...),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectionTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(opts.ServiceName)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return newOTelHook(tp, opts), nil
}

// newResource avoids merging with resource.Default to prevent schema conflicts.
func newResource(service string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(service),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "generator"),
	)
}

func newOTelHook(tp *sdktrace.TracerProvider, opts OTelOptions) *OTelHook {
	opts.applyDefaults()
	return &OTelHook{
		opts:           opts,
		tracerProvider: tp,
		tracer:         tp.Tracer("scanreport/scan"),
		spans:          make(map[string]trace.Span),
	}
}

// OnEvent opens, annotates and ends spans.
func (h *OTelHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.StartEvent:
		_, span := h.tracer.Start(ctx, "scanreport.scan",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithTimestamp(e.Timestamp()),
			trace.WithAttributes(
				attribute.String("run_id", e.ScanID()),
				attribute.String("target", e.Target),
				attribute.String("profile", string(e.Profile)),
				attribute.StringSlice("tools", e.Tools),
			),
		)
		h.spans[e.ScanID()] = span

	case *events.ProgressEvent:
		if span, ok := h.spans[e.ScanID()]; ok {
			span.AddEvent("progress_update", trace.WithAttributes(
				attribute.Int("percent", e.Percent),
				attribute.Bool("cached", e.Cached),
			))
		}

	case *events.CompleteEvent:
		span, ok := h.spans[e.ScanID()]
		if !ok {
			return nil
		}
		delete(h.spans, e.ScanID())
		span.SetAttributes(
			attribute.String("report_id", e.ReportID),
			attribute.Bool("cached", e.Cached),
			attribute.Int("summary.total", e.Summary.Total),
			attribute.Int("summary.critical", e.Summary.Critical),
			attribute.Int("summary.high", e.Summary.High),
			attribute.Int("summary.medium", e.Summary.Medium),
			attribute.Int("summary.low", e.Summary.Low),
			attribute.Int("ports", e.Ports),
		)
		span.SetStatus(codes.Ok, "report ready")
		span.End(trace.WithTimestamp(e.Timestamp()))

	case *events.EditEvent:
		_, span := h.tracer.Start(ctx, "scanreport.edit",
			trace.WithAttributes(attribute.String("report_id", e.ReportID)))
		span.AddEvent(string(e.Action), trace.WithAttributes(
			attribute.String("detail", e.Detail),
			attribute.Int("summary.total", e.Summary.Total),
		))
		span.End()
	}
	return nil
}

// EventTypes returns nil to receive all events.
func (h *OTelHook) EventTypes() []events.EventType {
	return nil
}

// Close ends spans of runs that never completed and flushes the provider.
func (h *OTelHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for id, span := range h.spans {
		span.SetStatus(codes.Error, "run did not complete")
		span.End()
		delete(h.spans, id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.ShutdownTimeout)
	defer cancel()
	if err := h.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("otel: shutdown tracer provider: %w", err)
	}
	return nil
}

// Endpoint returns the OTLP endpoint being used.
func (h *OTelHook) Endpoint() string {
	return h.opts.Endpoint
}

// ServiceName returns the service name being used.
func (h *OTelHook) ServiceName() string {
	return h.opts.ServiceName
}
