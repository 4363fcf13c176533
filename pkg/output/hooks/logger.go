// Package hooks provides dispatcher hooks that log, count, trace, journal
// and forward report lifecycle events.
package hooks

import (
	"context"
	"log/slog"

	"github.com/waftester/scanreport/pkg/output/dispatcher"
	"github.com/waftester/scanreport/pkg/output/events"
)

// orDefault returns l if non-nil, otherwise slog.Default().
func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// Compile-time interface check.
var _ dispatcher.Hook = (*LoggerHook)(nil)

// LoggerHook writes one structured log line per event. Progress events
// are logged at debug level.
type LoggerHook struct {
	logger *slog.Logger
}

// NewLoggerHook returns a hook logging to logger (slog.Default() if nil).
func NewLoggerHook(logger *slog.Logger) *LoggerHook {
	return &LoggerHook{logger: orDefault(logger)}
}

// OnEvent logs the event.
func (h *LoggerHook) OnEvent(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.StartEvent:
		h.logger.InfoContext(ctx, "scan started",
			slog.String("run_id", e.ScanID()),
			slog.String("target", e.Target),
			slog.String("profile", string(e.Profile)),
			slog.Int("tools", len(e.Tools)))
	case *events.ProgressEvent:
		h.logger.DebugContext(ctx, "scan progress",
			slog.String("run_id", e.ScanID()),
			slog.Int("percent", e.Percent),
			slog.Bool("cached", e.Cached))
	case *events.CompleteEvent:
		h.logger.InfoContext(ctx, "scan complete",
			slog.String("run_id", e.ScanID()),
			slog.String("report_id", e.ReportID),
			slog.Bool("cached", e.Cached),
			slog.Int("vulnerabilities", e.Summary.Total),
			slog.Int("critical", e.Summary.Critical),
			slog.Int64("duration_ms", e.DurationMs))
	case *events.EditEvent:
		h.logger.InfoContext(ctx, "report edited",
			slog.String("report_id", e.ReportID),
			slog.String("action", string(e.Action)),
			slog.String("detail", e.Detail))
	}
	return nil
}

// EventTypes returns nil to receive all events.
func (h *LoggerHook) EventTypes() []events.EventType {
	return nil
}
