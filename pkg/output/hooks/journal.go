package hooks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/output/dispatcher"
	"github.com/waftester/scanreport/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*JournalHook)(nil)

// JournalHook appends complete and edit events to a JSON Lines file, giving
// an audit trail of every report change.
type JournalHook struct {
	mu     sync.Mutex
	closer io.Closer
	enc    *jsonutil.Encoder
}

// NewJournalHook opens path for appending, creating parent directories.
func NewJournalHook(path string) (*JournalHook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	h := NewJournalWriter(f)
	h.closer = f
	return h, nil
}

// NewJournalWriter journals to w. Close does not close w.
func NewJournalWriter(w io.Writer) *JournalHook {
	return &JournalHook{enc: jsonutil.NewStreamEncoder(w)}
}

// OnEvent appends one line.
func (h *JournalHook) OnEvent(_ context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.enc == nil {
		return nil
	}
	return h.enc.Encode(event)
}

// EventTypes returns the event types this hook handles.
func (h *JournalHook) EventTypes() []events.EventType {
	return []events.EventType{events.EventTypeComplete, events.EventTypeEdit}
}

// Close closes the journal file if the hook opened it.
func (h *JournalHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enc = nil
	if h.closer != nil {
		return h.closer.Close()
	}
	return nil
}
