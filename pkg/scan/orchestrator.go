package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/waftester/scanreport/pkg/cache"
	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/history"
	"github.com/waftester/scanreport/pkg/output/dispatcher"
	"github.com/waftester/scanreport/pkg/output/events"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/seedrand"
	"github.com/waftester/scanreport/pkg/synth"
)

// ProgressFunc receives cosmetic progress in percent.
type ProgressFunc func(percent int, cached bool)

type progressKey struct{}

// WithProgress returns a context whose Run calls fn at every progress step,
// in addition to Options.OnProgress. Used to route progress of a single
// request, e.g. to an MCP client.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// Options configures an Orchestrator. Every field is optional.
type Options struct {
	// Cache defaults to a fresh process-lifetime cache.
	Cache *cache.ResultCache

	// Store receives freshly generated reports. Nil disables persistence.
	Store history.Store

	// Events receives start, progress and complete events.
	Events dispatcher.Publisher

	Logger *slog.Logger

	// Source drives the unseeded draws (id, duration, findings, headers,
	// payloads). Defaults to seedrand.Unseeded(). A non-default Source is
	// shared by every Run and must not be used concurrently.
	Source seedrand.Source

	// Now stamps ScanDate. Defaults to time.Now.
	Now func() time.Time

	// Pacing enables the cosmetic delay between progress steps.
	Pacing bool

	// OnProgress is called at every progress step.
	OnProgress ProgressFunc
}

// Orchestrator assembles reports. It is safe for concurrent use when Source
// is left at its default.
type Orchestrator struct {
	cache      *cache.ResultCache
	store      history.Store
	events     dispatcher.Publisher
	logger     *slog.Logger
	source     seedrand.Source
	now        func() time.Time
	pacing     bool
	onProgress ProgressFunc
}

// NewOrchestrator applies defaults to opts.
func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		cache:      opts.Cache,
		store:      opts.Store,
		events:     opts.Events,
		logger:     opts.Logger,
		source:     opts.Source,
		now:        opts.Now,
		pacing:     opts.Pacing,
		onProgress: opts.OnProgress,
	}
	if o.cache == nil {
		o.cache = cache.NewResultCache()
	}
	if o.events == nil {
		o.events = dispatcher.Nop{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.source == nil {
		o.source = seedrand.Unseeded()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Cache returns the orchestrator's result cache.
func (o *Orchestrator) Cache() *cache.ResultCache {
	return o.cache
}

// Run returns the report for req. A cached report for the same target and
// profile is returned unchanged; otherwise a new one is generated, cached
// and saved. An empty tool list is replaced by the profile's default tools.
// Run does not validate the URL; see ValidateRequest.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*report.ScanReport, error) {
	if req.Target == "" {
		return nil, ErrEmptyTarget
	}
	if !req.Profile.IsValid() {
		return nil, fmt.Errorf("%w: %q", report.ErrInvalidProfile, req.Profile)
	}
	req = req.WithDefaults()

	runID := uuid.New().String()
	started := time.Now()
	log := o.logger.With(slog.String("run_id", runID), slog.String("target", req.Target),
		slog.String("profile", string(req.Profile)))

	o.events.Dispatch(ctx, &events.StartEvent{
		BaseEvent: events.NewBase(events.EventTypeStart, runID),
		Target:    req.Target,
		Profile:   req.Profile,
		Tools:     req.Tools,
	})

	if cached, ok := o.cache.Get(req.Target, req.Profile); ok {
		log.Debug("cache hit", slog.String("report_id", cached.ID))
		if err := o.pace(ctx, runID, defaults.CachedProgressStep, defaults.PacingCached, true); err != nil {
			return nil, err
		}
		o.complete(ctx, runID, req, cached, true, started)
		return cached, nil
	}

	src := o.source
	id := fmt.Sprintf("REP-%d", seedrand.Intn(src, defaults.ReportIDSpace))
	base, spread := req.Profile.ScanTimeRange()
	scanTime := base + seedrand.Intn(src, spread)

	if err := o.pace(ctx, runID, defaults.ProgressStep, pacingDelay(req.Profile), false); err != nil {
		return nil, err
	}

	vulns, summary := synth.SynthesizeVulnerabilities(req.Target, req.Profile, src)
	r := &report.ScanReport{
		SchemaVersion:      report.SchemaVersion,
		ID:                 id,
		TargetURL:          req.Target,
		ScanType:           req.Profile.Label(),
		ScanDate:           o.now().UTC().Truncate(time.Millisecond),
		ScanTime:           scanTime,
		ToolsUsed:          ToolNames(req.Tools),
		Vulnerabilities:    vulns,
		PortScan:           synth.GeneratePorts(req.Target),
		SecurityHeaders:    synth.GenerateHeaders(src),
		SuccessfulPayloads: synth.SamplePayloads(src),
		Summary:            summary,
		Editable:           true,
		ReportStatus:       report.StatusDraft,
	}

	winner, stored := o.cache.PutIfAbsent(req.Target, req.Profile, r)
	if !stored {
		log.Debug("concurrent run cached first", slog.String("report_id", winner.ID))
		o.complete(ctx, runID, req, winner, true, started)
		return winner, nil
	}

	// Only persisted reports stay cached.
	if o.store != nil {
		if err := o.store.Save(ctx, r); err != nil {
			o.cache.Remove(req.Target, req.Profile)
			log.Error("saving report failed", slog.String("error", err.Error()))
			return nil, fmt.Errorf("scan: save %s: %w", r.ID, err)
		}
	}

	log.Info("report generated", slog.String("report_id", r.ID), slog.Int("vulnerabilities", summary.Total))
	o.complete(ctx, runID, req, r, false, started)
	return r, nil
}

func (o *Orchestrator) complete(ctx context.Context, runID string, req Request, r *report.ScanReport, cached bool, started time.Time) {
	o.events.Dispatch(ctx, &events.CompleteEvent{
		BaseEvent:  events.NewBase(events.EventTypeComplete, runID),
		ReportID:   r.ID,
		Target:     req.Target,
		Profile:    req.Profile,
		Cached:     cached,
		Summary:    r.Summary,
		Ports:      len(r.PortScan),
		DurationMs: time.Since(started).Milliseconds(),
	})
}

// pace walks progress from 0 to 100 in step increments. With pacing on,
// consecutive steps are spaced by delay.
func (o *Orchestrator) pace(ctx context.Context, runID string, step int, delay time.Duration, cached bool) error {
	var limiter *rate.Limiter
	if o.pacing {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	for pct := 0; pct <= 100; pct += step {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if o.onProgress != nil {
			o.onProgress(pct, cached)
		}
		if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
			fn(pct, cached)
		}
		o.events.Dispatch(ctx, &events.ProgressEvent{
			BaseEvent: events.NewBase(events.EventTypeProgress, runID),
			Percent:   pct,
			Cached:    cached,
		})
	}
	return nil
}

func pacingDelay(p report.Profile) time.Duration {
	switch p {
	case report.Standard:
		return defaults.PacingStandard
	case report.Full:
		return defaults.PacingFull
	}
	return defaults.PacingQuick
}
