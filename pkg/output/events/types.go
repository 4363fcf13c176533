// Package events defines the lifecycle events emitted while reports are
// generated and edited. Events are designed for JSON serialization so
// they can be journaled, traced and counted by hooks.
//
// BaseEvent is embedded in every concrete event type.
package events

import (
	"time"

	"github.com/waftester/scanreport/pkg/report"
)

// EventType represents the type of an event.
type EventType string

const (
	// EventTypeStart indicates report generation has started.
	EventTypeStart EventType = "start"
	// EventTypeProgress indicates a progress update while generating.
	EventTypeProgress EventType = "progress"
	// EventTypeComplete indicates a report is ready (generated or cached).
	EventTypeComplete EventType = "complete"
	// EventTypeEdit indicates a stored report was changed.
	EventTypeEdit EventType = "edit"
)

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	ScanID() string
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Type EventType `json:"type"`
	Time time.Time `json:"timestamp"`
	Scan string    `json:"scan_id"`
}

// NewBase returns a BaseEvent stamped with the current time.
func NewBase(t EventType, scanID string) BaseEvent {
	return BaseEvent{Type: t, Time: time.Now(), Scan: scanID}
}

// EventType returns the type of this event.
func (e BaseEvent) EventType() EventType { return e.Type }

// Timestamp returns when this event occurred.
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// ScanID returns the run id of the generation that produced this event.
// Edit events carry the report id instead.
func (e BaseEvent) ScanID() string { return e.Scan }

// StartEvent is emitted when an orchestrator run begins.
type StartEvent struct {
	BaseEvent
	Target  string         `json:"target"`
	Profile report.Profile `json:"profile"`
	Tools   []string       `json:"tools"`
}

// ProgressEvent reports cosmetic progress of a run.
type ProgressEvent struct {
	BaseEvent
	Percent int  `json:"percent"`
	Cached  bool `json:"cached"`
}

// CompleteEvent is emitted when a run returns a report.
type CompleteEvent struct {
	BaseEvent
	ReportID string         `json:"report_id"`
	Target   string         `json:"target"`
	Profile  report.Profile `json:"profile"`
	Cached   bool           `json:"cached"`
	Summary  report.Summary `json:"summary"`
	Ports    int            `json:"ports"`
	// Elapsed wall time in milliseconds, pacing included.
	DurationMs int64 `json:"duration_ms"`
}

// EditAction names a mutation applied to a stored report.
type EditAction string

const (
	ActionEditVulnerability EditAction = "edit_vulnerability"
	ActionRename            EditAction = "rename"
	ActionFinalize          EditAction = "finalize"
	ActionNarrative         EditAction = "narrative"
	ActionImport            EditAction = "import"
	ActionDelete            EditAction = "delete"
)

// EditEvent is emitted after a stored report changes.
type EditEvent struct {
	BaseEvent
	ReportID string         `json:"report_id"`
	Action   EditAction     `json:"action"`
	Detail   string         `json:"detail,omitempty"`
	Summary  report.Summary `json:"summary"`
}
