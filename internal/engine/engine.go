package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/aurora-sight/internal/domain"
	"github.com/couchcryptid/aurora-sight/internal/observability"
)

// SnapshotSource yields raw forecast messages from the source.
type SnapshotSource interface {
	Extract(ctx context.Context) (domain.RawSnapshot, error)
}

// OutlookPublisher writes a computed outlook to the destination.
type OutlookPublisher interface {
	Publish(ctx context.Context, outlook domain.Outlook) error
}

// Engine orchestrates the forecast refresh loop: consume a snapshot, score
// it for the site observer, publish the outlook, and kick off place-name
// resolution for the highlight points. It also retains the latest snapshot
// so the HTTP layer can compute outlooks for ad-hoc observers.
type Engine struct {
	source    SnapshotSource
	publisher OutlookPublisher
	resolver  domain.NameResolver
	logger    *slog.Logger
	metrics   *observability.Metrics

	scoring  domain.ScoringConfig
	params   domain.OutlookParams
	observer *domain.Observer

	// mu guards snapshot, including Name writes on its points.
	mu       sync.RWMutex
	snapshot *domain.ForecastSnapshot

	ready     atomic.Bool
	resolving sync.WaitGroup
}

// New creates an Engine. Pass a nil resolver to disable place-name
// enrichment and a nil observer when no fixed site is configured.
func New(
	source SnapshotSource,
	publisher OutlookPublisher,
	resolver domain.NameResolver,
	observer *domain.Observer,
	params domain.OutlookParams,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Engine {
	return &Engine{
		source:    source,
		publisher: publisher,
		resolver:  resolver,
		observer:  observer,
		scoring:   domain.DefaultScoring(),
		params:    params,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the engine has processed at least one
// snapshot, or an error describing why the service is not yet ready.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("engine has not processed any forecast snapshot yet")
	}
	return nil
}

// Ready reports whether at least one snapshot has been processed.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// SiteObserver returns the configured fixed observer, if any.
func (e *Engine) SiteObserver() (domain.Observer, bool) {
	if e.observer == nil {
		return domain.Observer{}, false
	}
	return *e.observer, true
}

// Outlook computes an outlook for an ad-hoc observer from the latest
// snapshot. The second return is false when no snapshot has arrived yet.
func (e *Engine) Outlook(observer domain.Observer) (domain.Outlook, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.snapshot == nil {
		return domain.Outlook{}, false
	}
	return e.scoring.BuildOutlook(*e.snapshot, observer, e.params), true
}

// Run executes the refresh loop until the context is cancelled. In-flight
// name resolutions are drained before returning.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started",
		"site_observer", e.observer != nil,
		"name_resolution", e.resolver != nil,
		"max_highlights", e.params.MaxHighlights,
	)
	e.metrics.EngineRunning.Set(1)
	defer e.metrics.EngineRunning.Set(0)
	defer e.resolving.Wait()

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !e.refresh(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// refresh runs one consume-score-publish cycle. Returns false if the
// engine should stop.
func (e *Engine) refresh(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	raw, err := e.source.Extract(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		e.logger.Error("extract snapshot failed", "error", err)
		return e.backoffOrStop(ctx, backoff, maxBackoff)
	}

	start := time.Now()

	snapshot, err := domain.ParseForecast(raw)
	if err != nil {
		e.logger.Warn("parse failed, skipping snapshot",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		e.metrics.ParseErrors.Inc()
		e.commitOffset(ctx, raw)
		return true
	}

	e.metrics.SnapshotsConsumed.Inc()
	e.metrics.SnapshotPoints.Observe(float64(len(snapshot.Points)))
	*backoff = 200 * time.Millisecond

	// The outlook is built under the lock, and BuildOutlook copies the
	// points it picks, so a late name application from a previous refresh
	// can neither race these reads nor mutate the outlook after it escapes
	// to the publish and serve paths.
	e.mu.Lock()
	e.snapshot = &snapshot
	var outlook domain.Outlook
	if e.observer != nil {
		outlook = e.scoring.BuildOutlook(snapshot, *e.observer, e.params)
	}
	e.mu.Unlock()

	if e.observer != nil {
		if err := e.publisher.Publish(ctx, outlook); err != nil {
			e.logger.Error("publish outlook failed", "error", err,
				"forecast_time", outlook.ForecastTime)
			return e.backoffOrStop(ctx, backoff, maxBackoff)
		}
		e.metrics.OutlooksPublished.Inc()
		e.kickoffNameResolution(ctx, outlook)
	}

	e.commitOffset(ctx, raw)
	e.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	e.ready.Store(true)
	return true
}

// kickoffNameResolution resolves place names for unnamed highlight points in
// the background and applies the results against whatever snapshot is
// current when they arrive. Stale identities are discarded by
// ApplyResolvedNames.
func (e *Engine) kickoffNameResolution(ctx context.Context, outlook domain.Outlook) {
	if e.resolver == nil {
		return
	}

	unnamed := make([]*domain.GeoPoint, 0, len(outlook.Highlights))
	for _, h := range outlook.Highlights {
		if h.Point.Name == "" {
			unnamed = append(unnamed, h.Point)
		}
	}
	if len(unnamed) == 0 {
		return
	}

	e.resolving.Add(1)
	go func() {
		defer e.resolving.Done()

		resolved := domain.ResolveNames(ctx, unnamed, e.resolver, e.logger)
		if len(resolved) == 0 {
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if e.snapshot == nil {
			return
		}
		applied := domain.ApplyResolvedNames(e.snapshot.Points, resolved)
		e.metrics.NamesApplied.Add(float64(applied))
		e.metrics.NamesDiscarded.Add(float64(len(resolved) - applied))
		e.logger.Debug("place names applied", "resolved", len(resolved), "applied", applied)
	}()
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the engine should stop.
func (e *Engine) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (e *Engine) commitOffset(ctx context.Context, raw domain.RawSnapshot) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		e.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
