package hooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/output/dispatcher"
	"github.com/waftester/scanreport/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*PrometheusHook)(nil)

// PrometheusHook counts generated reports, cache hits, findings and edits
// on a private registry.
type PrometheusHook struct {
	registry *prometheus.Registry
	opts     PrometheusOptions
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger

	generatedTotal *prometheus.CounterVec
	cacheHitsTotal *prometheus.CounterVec
	vulnsTotal     *prometheus.CounterVec
	editsTotal     *prometheus.CounterVec
	generationSecs prometheus.Histogram

	mu     sync.Mutex
	closed bool
}

// PrometheusOptions configures the Prometheus hook behavior.
type PrometheusOptions struct {
	// Addr starts a metrics server when non-empty (e.g. ":9464").
	// Leave empty to mount Handler() on an existing mux.
	Addr string

	// Path for the metrics endpoint (default: "/metrics").
	Path string

	// ReadTimeout for the HTTP server (default: defaults.ShutdownTimeout).
	ReadTimeout time.Duration

	// WriteTimeout for the HTTP server (default: defaults.ConnectTimeout).
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// NewPrometheusHook registers the metrics and, when opts.Addr is set,
// starts serving them until Close is called.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	if opts.Path == "" {
		opts.Path = "/metrics"
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = defaults.ShutdownTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = defaults.ConnectTimeout
	}

	h := &PrometheusHook{
		registry: prometheus.NewRegistry(),
		opts:     opts,
		logger:   orDefault(opts.Logger),
	}
	if err := h.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if opts.Addr != "" {
		if err := h.startServer(); err != nil {
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
	}
	return h, nil
}

func (h *PrometheusHook) initMetrics() error {
	h.generatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanreport_reports_generated_total",
			Help: "Total number of freshly generated reports",
		},
		[]string{"profile"},
	)

	h.cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanreport_cache_hits_total",
			Help: "Total number of submissions answered from the result cache",
		},
		[]string{"profile"},
	)

	h.vulnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanreport_vulnerabilities_total",
			Help: "Total number of synthetic vulnerabilities in generated reports",
		},
		[]string{"severity"},
	)

	h.editsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanreport_report_edits_total",
			Help: "Total number of changes applied to stored reports",
		},
		[]string{"action"},
	)

	h.generationSecs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanreport_generation_seconds",
		Help:    "Wall time of a scan run, pacing included",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
	})

	collectors := []prometheus.Collector{
		h.generatedTotal,
		h.cacheHitsTotal,
		h.vulnsTotal,
		h.editsTotal,
		h.generationSecs,
	}
	for _, c := range collectors {
		if err := h.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the hook's registry in the Prometheus exposition format.
func (h *PrometheusHook) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry exposes the private registry, mainly for tests.
func (h *PrometheusHook) Registry() *prometheus.Registry {
	return h.registry
}

func (h *PrometheusHook) startServer() error {
	ln, err := net.Listen("tcp", h.opts.Addr)
	if err != nil {
		return err
	}
	h.listener = ln

	mux := http.NewServeMux()
	mux.Handle(h.opts.Path, h.Handler())
	h.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  h.opts.ReadTimeout,
		WriteTimeout: h.opts.WriteTimeout,
	}

	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("prometheus: metrics server error", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// MetricsAddr returns the URL metrics are served at, or "" without a server.
func (h *PrometheusHook) MetricsAddr() string {
	if h.listener == nil {
		return ""
	}
	return "http://" + h.listener.Addr().String() + h.opts.Path
}

// OnEvent updates the metrics.
func (h *PrometheusHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.CompleteEvent:
		h.generationSecs.Observe(float64(e.DurationMs) / 1000)
		if e.Cached {
			h.cacheHitsTotal.WithLabelValues(string(e.Profile)).Inc()
			return nil
		}
		h.generatedTotal.WithLabelValues(string(e.Profile)).Inc()
		for _, sev := range finding.Severities() {
			h.vulnsTotal.WithLabelValues(string(sev)).Add(float64(e.Summary.Count(sev)))
		}
	case *events.EditEvent:
		h.editsTotal.WithLabelValues(string(e.Action)).Inc()
	}
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *PrometheusHook) EventTypes() []events.EventType {
	return []events.EventType{events.EventTypeComplete, events.EventTypeEdit}
}

// Close shuts down the metrics server if one was started.
func (h *PrometheusHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), defaults.ShutdownTimeout)
		defer cancel()
		return h.server.Shutdown(ctx)
	}
	return nil
}
