// Package services orchestrates report runs: single-flight guarding,
// result caching, fallback handling and downstream notification.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/eocp2024/hungerrush-report/internal/cache"
	"github.com/eocp2024/hungerrush-report/internal/core"
	"github.com/eocp2024/hungerrush-report/internal/source"
	"github.com/eocp2024/hungerrush-report/internal/status"
)

// ErrBusy is returned when a report run is already in flight. The portal
// session cannot be shared, so concurrent runs are rejected rather than
// interleaved.
var ErrBusy = errors.New("a report run is already in progress")

// Result is what every caller gets back: a well-formed summary either
// way, with Fallback telling real data from placeholder data.
type Result struct {
	Summary     core.Summary
	Window      core.TimeWindow
	Fallback    bool
	Note        string
	GeneratedAt time.Time
}

// HistoryStore persists completed results for later inspection.
type HistoryStore interface {
	SaveSummary(ctx context.Context, req source.ReportRequest, res Result) error
}

// EventPublisher announces completed results to downstream consumers.
type EventPublisher interface {
	PublishReportCompleted(ctx context.Context, req source.ReportRequest, res Result) error
}

// Config for a ReportService.
type Config struct {
	// FetchTimeout bounds one full source round-trip.
	FetchTimeout time.Duration

	// CacheSize is the capacity of the exact-parameter result cache.
	CacheSize int
}

// DefaultConfig returns the defaults used when fields are unset.
func DefaultConfig() Config {
	return Config{
		FetchTimeout: 90 * time.Second,
		CacheSize:    20,
	}
}

// ReportService runs report requests against an order source. At most
// one fetch is in flight per service; the result cache and the status
// tracker are the only shared mutable state, both internally locked.
type ReportService struct {
	fetcher   source.OrderFetcher
	tracker   *status.Tracker
	results   *cache.LRU[Result]
	inFlight  *semaphore.Weighted
	history   HistoryStore   // optional
	publisher EventPublisher // optional
	cfg       Config
}

func NewReportService(fetcher source.OrderFetcher, tracker *status.Tracker, cfg Config) *ReportService {
	def := DefaultConfig()
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if tracker == nil {
		tracker = status.NewTracker()
	}
	return &ReportService{
		fetcher:  fetcher,
		tracker:  tracker,
		results:  cache.NewLRU[Result](cfg.CacheSize, 0),
		inFlight: semaphore.NewWeighted(1),
		cfg:      cfg,
	}
}

// WithHistory attaches an optional history store.
func (s *ReportService) WithHistory(h HistoryStore) *ReportService {
	s.history = h
	return s
}

// WithPublisher attaches an optional event publisher.
func (s *ReportService) WithPublisher(p EventPublisher) *ReportService {
	s.publisher = p
	return s
}

// Status returns the current advisory run status.
func (s *ReportService) Status() status.Snapshot {
	return s.tracker.Snapshot()
}

// Run executes one report request. Identical repeat requests are served
// from the result cache without touching the source. Every fetch
// failure, timeouts and cancellation included, resolves to a fallback
// Result with a nil error; ErrBusy is the only error returned.
func (s *ReportService) Run(ctx context.Context, req source.ReportRequest) (Result, error) {
	if res, ok := s.results.Get(req.CacheKey()); ok {
		slog.InfoContext(ctx, "Serving report from cache",
			"store_id", req.StoreID, "window", res.Window.String())
		return res, nil
	}

	if !s.inFlight.TryAcquire(1) {
		return Result{}, ErrBusy
	}
	defer s.inFlight.Release(1)

	s.tracker.Reset()
	window := req.Window()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	records, err := s.fetcher.FetchOrders(fetchCtx, req)
	if err != nil {
		return s.fallback(ctx, window, err), nil
	}

	s.tracker.Set(status.StageAggregating, fmt.Sprintf("aggregating %d rows", len(records)))
	summary := core.Aggregate(records, window)

	res := Result{
		Summary:     summary,
		Window:      window,
		GeneratedAt: time.Now(),
	}
	s.tracker.Set(status.StageCompleted,
		fmt.Sprintf("%d orders in window %s", summary.TotalOrders, window))

	s.results.Set(req.CacheKey(), res)
	s.notify(ctx, req, res)

	slog.InfoContext(ctx, "Report completed",
		"store_id", req.StoreID,
		"window", window.String(),
		"row_count", len(records),
		"total_orders", summary.TotalOrders,
		"skipped_rows", summary.SkippedRows)
	return res, nil
}

// fallback maps a source failure onto the documented placeholder result.
// Fallback results are not cached: the next request should retry the
// source rather than replay the failure.
func (s *ReportService) fallback(ctx context.Context, window core.TimeWindow, err error) Result {
	note := "report source failed; placeholder data returned"
	switch {
	case errors.Is(err, source.ErrSourceUnavailable):
		note = "portal unreachable or login rejected; placeholder data returned"
	case errors.Is(err, source.ErrExportFailed):
		note = "export did not complete in time; placeholder data returned"
	case errors.Is(err, source.ErrParseFailed):
		note = "export could not be decoded; placeholder data returned"
	}

	s.tracker.Set(status.StageError, note)
	slog.ErrorContext(ctx, "Report run failed, returning fallback",
		"error", err, "window", window.String())

	return Result{
		Summary:     core.Summary{},
		Window:      window,
		Fallback:    true,
		Note:        note,
		GeneratedAt: time.Now(),
	}
}

// notify persists and publishes a completed result. Both are best
// effort: the report itself already succeeded.
func (s *ReportService) notify(ctx context.Context, req source.ReportRequest, res Result) {
	if s.history != nil {
		if err := s.history.SaveSummary(ctx, req, res); err != nil {
			slog.WarnContext(ctx, "Failed to save report history", "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishReportCompleted(ctx, req, res); err != nil {
			slog.WarnContext(ctx, "Failed to publish report event", "error", err)
		}
	}
}
