// Package dispatcher provides the central event routing for report
// lifecycle events. The orchestrator and the report service publish
// events here; hooks (logging, metrics, tracing, journals) subscribe.
//
// Publishers never see hook failures: a failing hook is logged and the
// event still reaches every other hook.
package dispatcher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/waftester/scanreport/pkg/output/events"
)

// Hook is the interface for event hooks.
type Hook interface {
	// OnEvent is called for each matching event.
	OnEvent(ctx context.Context, event events.Event) error

	// EventTypes returns the event types this hook handles.
	// Return nil or empty slice to receive all events.
	EventTypes() []events.EventType
}

// Closer is implemented by hooks holding resources (servers, exporters).
type Closer interface {
	Close() error
}

// Publisher is what event producers depend on.
type Publisher interface {
	Dispatch(ctx context.Context, event events.Event) error
}

// Dispatcher routes events to hooks. It is safe for concurrent use.
type Dispatcher struct {
	hooks  []Hook
	mu     sync.RWMutex
	async  bool
	wg     sync.WaitGroup
	logger *slog.Logger
}

// Config configures the dispatcher behavior.
type Config struct {
	// Async enables asynchronous hook processing.
	// When true, hooks are called in goroutines and Close waits for them.
	Async bool

	// Logger receives hook failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// New creates a new event dispatcher with the given configuration.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{async: cfg.Async, logger: logger}
}

// RegisterHook adds a hook to the dispatcher.
func (d *Dispatcher) RegisterHook(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

// Dispatch sends an event to all hooks that handle its type.
// It always returns nil so every hook gets a chance to see the event.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, h := range d.hooks {
		if !supports(h, event.EventType()) {
			continue
		}
		if d.async {
			d.wg.Add(1)
			go func(hook Hook) {
				defer d.wg.Done()
				d.call(ctx, hook, event)
			}(h)
			continue
		}
		d.call(ctx, h, event)
	}
	return nil
}

func (d *Dispatcher) call(ctx context.Context, h Hook, event events.Event) {
	if err := h.OnEvent(ctx, event); err != nil {
		d.logger.Warn("hook failed",
			slog.String("event", string(event.EventType())),
			slog.String("error", err.Error()))
	}
}

func supports(h Hook, eventType events.EventType) bool {
	types := h.EventTypes()
	if len(types) == 0 {
		return true
	}
	for _, et := range types {
		if et == eventType {
			return true
		}
	}
	return false
}

// Close waits for in-flight async hooks and closes hooks that implement
// Closer. The dispatcher must not be used afterwards.
func (d *Dispatcher) Close() error {
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range d.hooks {
		if c, ok := h.(Closer); ok {
			if err := c.Close(); err != nil {
				d.logger.Warn("hook close failed", slog.String("error", err.Error()))
			}
		}
	}
	return nil
}

// Nop is a Publisher that drops every event.
type Nop struct{}

// Dispatch discards event.
func (Nop) Dispatch(context.Context, events.Event) error { return nil }
