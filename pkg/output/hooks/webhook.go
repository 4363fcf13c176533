package hooks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/iohelper"
	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/output/dispatcher"
	"github.com/waftester/scanreport/pkg/output/events"
	"github.com/waftester/scanreport/pkg/retry"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*WebhookHook)(nil)

// WebhookHook POSTs complete and edit events as JSON to an HTTP endpoint,
// retrying server errors with exponential backoff.
type WebhookHook struct {
	endpoint string
	client   *http.Client
	opts     WebhookOptions
	logger   *slog.Logger
}

// WebhookOptions configures the webhook hook behavior.
type WebhookOptions struct {
	// Headers to include in requests.
	Headers map[string]string

	// Timeout for HTTP requests (default: defaults.ConnectTimeout).
	Timeout time.Duration

	// RetryCount is the number of attempts (default: 3).
	RetryCount int

	// Backoff is the delay before the first retry, doubled per attempt
	// (default: 1s).
	Backoff time.Duration

	// Logger receives delivery failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewWebhookHook creates a hook that sends events to endpoint.
// The hook is safe for concurrent use.
func NewWebhookHook(endpoint string, opts WebhookOptions) *WebhookHook {
	if opts.Timeout == 0 {
		opts.Timeout = defaults.ConnectTimeout
	}
	if opts.RetryCount == 0 {
		opts.RetryCount = 3
	}
	if opts.Backoff == 0 {
		opts.Backoff = time.Second
	}
	return &WebhookHook{
		endpoint: endpoint,
		client:   &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		logger:   orDefault(opts.Logger),
	}
}

// OnEvent sends the event. Delivery failures are logged, not returned.
func (h *WebhookHook) OnEvent(ctx context.Context, event events.Event) error {
	body, err := jsonutil.Marshal(event)
	if err != nil {
		h.logger.Warn("webhook: failed to marshal event", slog.String("error", err.Error()))
		return nil
	}

	if err := h.sendWithRetry(ctx, event.EventType(), body); err != nil {
		h.logger.Warn("webhook: failed to send event after retries",
			slog.String("event", string(event.EventType())),
			slog.String("error", err.Error()))
	}
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *WebhookHook) EventTypes() []events.EventType {
	return []events.EventType{events.EventTypeComplete, events.EventTypeEdit}
}

func (h *WebhookHook) sendWithRetry(ctx context.Context, eventType events.EventType, body []byte) error {
	policy := retry.Webhook(h.opts.RetryCount, h.opts.Backoff)
	return retry.Do(ctx, policy, func() error {
		return h.send(ctx, eventType, body)
	})
}

// send makes one attempt. Failures that a retry cannot fix are wrapped
// with retry.Stop.
func (h *WebhookHook) send(ctx context.Context, eventType events.EventType, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return retry.Stop(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", defaults.UserAgent("webhook"))
	req.Header.Set("X-Scanreport-Event-Type", string(eventType))
	for key, value := range h.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iohelper.DrainAndClose(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("server error: %d", resp.StatusCode)
	default:
		return retry.Stop(fmt.Errorf("client error: %d", resp.StatusCode))
	}
}
