package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eocp2024/hungerrush-report/internal/core"
	"github.com/eocp2024/hungerrush-report/internal/source"
	"github.com/eocp2024/hungerrush-report/internal/source/memory"
	"github.com/eocp2024/hungerrush-report/internal/status"
)

func sampleRecords() []core.OrderRecord {
	mk := func(timeOfDay, channel, payment string, total, tip int64) core.OrderRecord {
		ct, err := core.ParseClockTime(timeOfDay)
		return core.OrderRecord{
			TimeOfDay: ct,
			TimeValid: err == nil,
			Channel:   channel,
			Payment:   payment,
			Total:     core.Money{Cents: total},
			Tip:       core.Money{Cents: tip},
		}
	}
	return []core.OrderRecord{
		mk("10:00 AM", "Pickup", "Cash", 1000, 0),
		mk("10:30 AM", "Delivery", "Visa", 2000, 300),
	}
}

func sampleRequest() source.ReportRequest {
	return source.ReportRequest{
		Start:   time.Date(2024, 8, 12, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 8, 12, 11, 0, 0, 0, time.UTC),
		StoreID: "eocp",
	}
}

func TestRunSuccess(t *testing.T) {
	store := memory.New(sampleRecords())
	tracker := status.NewTracker()
	svc := NewReportService(store, tracker, Config{})

	res, err := svc.Run(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Fallback {
		t.Fatal("result should not be a fallback")
	}
	if res.Summary.TotalOrders != 2 {
		t.Fatalf("total orders = %d, want 2", res.Summary.TotalOrders)
	}
	if res.Summary.AverageOrderValue != 15.00 {
		t.Fatalf("average = %v, want 15.00", res.Summary.AverageOrderValue)
	}
	if got := tracker.Snapshot().Stage; got != status.StageCompleted {
		t.Fatalf("stage = %q, want completed", got)
	}
}

func TestRunSourceFailureReturnsFallback(t *testing.T) {
	store := memory.New(nil)
	store.FailWith(source.ErrSourceUnavailable)
	tracker := status.NewTracker()
	svc := NewReportService(store, tracker, Config{})

	res, err := svc.Run(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("source failures must not surface as errors, got %v", err)
	}
	if !res.Fallback {
		t.Fatal("result should be marked fallback")
	}
	if res.Note == "" {
		t.Fatal("fallback should carry a note")
	}
	if res.Summary.TotalOrders != 0 {
		t.Fatalf("fallback summary should be empty, got %+v", res.Summary)
	}
	if got := tracker.Snapshot().Stage; got != status.StageError {
		t.Fatalf("stage = %q, want error", got)
	}
}

func TestRunCancelledContextReturnsFallback(t *testing.T) {
	store := memory.New(sampleRecords())
	svc := NewReportService(store, nil, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.Run(ctx, sampleRequest())
	if err != nil {
		t.Fatalf("cancellation must resolve to a fallback, got error %v", err)
	}
	if !res.Fallback {
		t.Fatal("result should be marked fallback")
	}
	if res.Summary.TotalOrders != 0 {
		t.Fatalf("fallback summary should be empty, got %+v", res.Summary)
	}
}

func TestRunFallbackPerTaxonomyError(t *testing.T) {
	for _, srcErr := range []error{
		source.ErrSourceUnavailable,
		source.ErrExportFailed,
		source.ErrParseFailed,
	} {
		store := memory.New(nil)
		store.FailWith(srcErr)
		svc := NewReportService(store, nil, Config{})

		res, err := svc.Run(context.Background(), sampleRequest())
		if err != nil {
			t.Fatalf("%v: unexpected error %v", srcErr, err)
		}
		if !res.Fallback {
			t.Fatalf("%v: expected fallback result", srcErr)
		}
	}
}

func TestRunCachesIdenticalRequests(t *testing.T) {
	store := memory.New(sampleRecords())
	svc := NewReportService(store, nil, Config{})
	req := sampleRequest()

	if _, err := svc.Run(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Run(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if store.Fetches() != 1 {
		t.Fatalf("fetches = %d, want 1 (second run should hit cache)", store.Fetches())
	}

	// A different window is a different key.
	other := req
	other.End = other.End.Add(time.Hour)
	if _, err := svc.Run(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	if store.Fetches() != 2 {
		t.Fatalf("fetches = %d, want 2", store.Fetches())
	}
}

func TestRunDoesNotCacheFallback(t *testing.T) {
	store := memory.New(sampleRecords())
	store.FailWith(source.ErrExportFailed)
	svc := NewReportService(store, nil, Config{})
	req := sampleRequest()

	if res, _ := svc.Run(context.Background(), req); !res.Fallback {
		t.Fatal("expected fallback")
	}

	// Source recovers; the next identical request must retry it.
	store.FailWith(nil)
	res, err := svc.Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fallback {
		t.Fatal("recovered source should produce real data")
	}
	if store.Fetches() != 2 {
		t.Fatalf("fetches = %d, want 2", store.Fetches())
	}
}

// slowFetcher blocks until released, to hold the single-flight slot.
type slowFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *slowFetcher) FetchOrders(ctx context.Context, _ source.ReportRequest) ([]core.OrderRecord, error) {
	close(f.started)
	select {
	case <-f.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRunRejectsConcurrentRequests(t *testing.T) {
	f := &slowFetcher{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewReportService(f, nil, Config{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.Run(context.Background(), sampleRequest())
	}()

	<-f.started
	other := sampleRequest()
	other.StoreID = "other" // different key so the cache cannot answer
	_, err := svc.Run(context.Background(), other)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}

	close(f.release)
	wg.Wait()
}

type recordingStore struct {
	mu    sync.Mutex
	saved int
}

func (r *recordingStore) SaveSummary(_ context.Context, _ source.ReportRequest, _ Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved++
	return nil
}

type failingPublisher struct{}

func (failingPublisher) PublishReportCompleted(context.Context, source.ReportRequest, Result) error {
	return errors.New("broker down")
}

func TestRunNotifiesBestEffort(t *testing.T) {
	store := memory.New(sampleRecords())
	hist := &recordingStore{}
	svc := NewReportService(store, nil, Config{}).
		WithHistory(hist).
		WithPublisher(failingPublisher{})

	res, err := svc.Run(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("publisher failure must not fail the run: %v", err)
	}
	if res.Fallback {
		t.Fatal("unexpected fallback")
	}
	if hist.saved != 1 {
		t.Fatalf("saved = %d, want 1", hist.saved)
	}
}
