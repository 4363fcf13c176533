package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/history"
	"github.com/waftester/scanreport/pkg/output/dispatcher"
	"github.com/waftester/scanreport/pkg/output/events"
	"github.com/waftester/scanreport/pkg/report"
)

// Gate decides whether a report may be finalized. A rejection is returned
// as an error wrapping ErrGateFailed.
type Gate interface {
	Check(ctx context.Context, r *report.ScanReport) error
}

// Service applies edits to stored reports. Every successful mutation is
// saved and published as an EditEvent. The result cache is never touched,
// so resubmitting a target returns the originally generated report.
type Service struct {
	store  history.Store
	events dispatcher.Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewService returns a Service over store. pub and logger may be nil.
func NewService(store history.Store, pub dispatcher.Publisher, logger *slog.Logger) *Service {
	if pub == nil {
		pub = dispatcher.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, events: pub, logger: logger, now: time.Now}
}

// Get returns a stored report.
func (s *Service) Get(ctx context.Context, id string) (*report.ScanReport, error) {
	return s.store.Get(ctx, id)
}

// List returns stored reports matching f.
func (s *Service) List(ctx context.Context, f history.Filter) ([]*report.ScanReport, error) {
	return s.store.List(ctx, f)
}

// Dashboard aggregates every stored report.
func (s *Service) Dashboard(ctx context.Context) (history.DashboardStats, error) {
	all, err := s.store.List(ctx, history.Filter{})
	if err != nil {
		return history.DashboardStats{}, err
	}
	return history.Dashboard(all), nil
}

// VulnerabilityPatch holds the fields of an edit. Nil fields are left as is.
type VulnerabilityPatch struct {
	Name        *string `json:"name,omitempty"`
	Severity    *string `json:"severity,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
	Remediation *string `json:"remediation,omitempty"`
	Payload     *string `json:"payload,omitempty"`
}

// Apply returns v with the patch applied.
func (p VulnerabilityPatch) Apply(v finding.Vulnerability) (finding.Vulnerability, error) {
	if p.Severity != nil {
		sev, err := finding.ParseSeverity(*p.Severity)
		if err != nil {
			return v, err
		}
		v.Severity = sev
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&v.Name, p.Name)
	set(&v.Location, p.Location)
	set(&v.Description, p.Description)
	set(&v.Remediation, p.Remediation)
	set(&v.Payload, p.Payload)
	return v, nil
}

// EditVulnerability patches one vulnerability of a stored report.
func (s *Service) EditVulnerability(ctx context.Context, reportID, vulnID string, patch VulnerabilityPatch) (*report.ScanReport, error) {
	return s.mutate(ctx, reportID, events.ActionEditVulnerability, vulnID, func(r *report.ScanReport) error {
		v, ok := r.Vulnerability(vulnID)
		if !ok {
			return fmt.Errorf("%w: %s", report.ErrVulnerabilityNotFound, vulnID)
		}
		v, err := patch.Apply(v)
		if err != nil {
			return err
		}
		return report.EditVulnerability(r, v)
	})
}

// Rename sets the report's target name.
func (s *Service) Rename(ctx context.Context, reportID, name string) (*report.ScanReport, error) {
	return s.mutate(ctx, reportID, events.ActionRename, strings.TrimSpace(name), func(r *report.ScanReport) error {
		return report.Rename(r, name)
	})
}

// Finalize locks the report. A non-nil gate must accept it first.
func (s *Service) Finalize(ctx context.Context, reportID string, gate Gate) (*report.ScanReport, error) {
	return s.mutate(ctx, reportID, events.ActionFinalize, "", func(r *report.ScanReport) error {
		if gate != nil && !r.IsFinalized() {
			if err := gate.Check(ctx, r); err != nil {
				return err
			}
		}
		return report.Finalize(r)
	})
}

// SaveNarrative attaches n to the report and returns it to Draft.
func (s *Service) SaveNarrative(ctx context.Context, reportID string, n report.Narrative) (*report.ScanReport, error) {
	return s.mutate(ctx, reportID, events.ActionNarrative, n.Title, func(r *report.ScanReport) error {
		return report.SaveNarrative(r, n)
	})
}

// Import stores a placeholder report for an uploaded HTML or PDF document.
func (s *Service) Import(ctx context.Context, name string, data []byte) (*report.ScanReport, error) {
	r, err := report.Import(name, data, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("scan: save %s: %w", r.ID, err)
	}
	s.publish(ctx, r, events.ActionImport, name)
	return r, nil
}

// Delete removes a stored report.
func (s *Service) Delete(ctx context.Context, reportID string) error {
	r, err := s.store.Get(ctx, reportID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, reportID); err != nil {
		return err
	}
	s.publish(ctx, r, events.ActionDelete, "")
	return nil
}

// mutate loads, edits, saves and publishes in that order. Nothing is saved
// when fn fails.
func (s *Service) mutate(ctx context.Context, id string, action events.EditAction, detail string, fn func(*report.ScanReport) error) (*report.ScanReport, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		s.logger.Debug("edit rejected",
			slog.String("report_id", id),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		return nil, err
	}
	if err := s.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("scan: save %s: %w", id, err)
	}
	s.publish(ctx, r, action, detail)
	return r, nil
}

func (s *Service) publish(ctx context.Context, r *report.ScanReport, action events.EditAction, detail string) {
	s.events.Dispatch(ctx, &events.EditEvent{
		BaseEvent: events.NewBase(events.EventTypeEdit, r.ID),
		ReportID:  r.ID,
		Action:    action,
		Detail:    detail,
		Summary:   r.Summary,
	})
}
