package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/report"
)

func TestBaseEventAccessors(t *testing.T) {
	t.Parallel()

	before := time.Now()
	b := NewBase(EventTypeStart, "run-1")
	assert.Equal(t, EventTypeStart, b.EventType())
	assert.Equal(t, "run-1", b.ScanID())
	assert.False(t, b.Timestamp().Before(before))
}

func TestEventsSatisfyInterface(t *testing.T) {
	t.Parallel()

	all := []Event{
		&StartEvent{BaseEvent: NewBase(EventTypeStart, "r")},
		&ProgressEvent{BaseEvent: NewBase(EventTypeProgress, "r")},
		&CompleteEvent{BaseEvent: NewBase(EventTypeComplete, "r")},
		&EditEvent{BaseEvent: NewBase(EventTypeEdit, "REP-1")},
	}
	for _, e := range all {
		assert.NotEmpty(t, e.EventType())
	}
}

func TestCompleteEventJSONKeys(t *testing.T) {
	t.Parallel()

	e := &CompleteEvent{
		BaseEvent: NewBase(EventTypeComplete, "run-9"),
		ReportID:  "REP-42",
		Profile:   report.Quick,
		Cached:    true,
		Summary:   report.Summary{Total: 1, Low: 1},
	}
	data, err := jsonutil.Marshal(e)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, jsonutil.Unmarshal(data, &m))
	assert.Equal(t, "complete", m["type"])
	assert.Equal(t, "run-9", m["scan_id"])
	assert.Equal(t, "REP-42", m["report_id"])
	assert.Equal(t, true, m["cached"])
}
