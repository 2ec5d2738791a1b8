package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/eocp2024/hungerrush-report/internal/core"
	"github.com/eocp2024/hungerrush-report/internal/services"
	"github.com/eocp2024/hungerrush-report/internal/source"
	"github.com/eocp2024/hungerrush-report/internal/source/memory"
	"github.com/eocp2024/hungerrush-report/internal/status"
	"github.com/eocp2024/hungerrush-report/internal/storage"
)

func sampleRecords() []core.OrderRecord {
	return []core.OrderRecord{
		{
			TimeOfDay: core.ClockTime{Hour: 11, Minute: 15},
			TimeValid: true,
			Channel:   "Pick Up",
			Payment:   "Cash",
			Total:     core.Money{Cents: 1000},
		},
		{
			TimeOfDay: core.ClockTime{Hour: 12, Minute: 0},
			TimeValid: true,
			Channel:   "Delivery",
			Payment:   "Visa",
			Total:     core.Money{Cents: 2000},
			Tip:       core.Money{Cents: 300},
		},
	}
}

func newTestServer(t *testing.T, fetcher source.OrderFetcher) *Server {
	t.Helper()
	svc := services.NewReportService(fetcher, status.NewTracker(), services.DefaultConfig())
	return NewServer(":0", "eocp", svc, nil)
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleReport(t *testing.T) {
	s := newTestServer(t, memory.New(sampleRecords()))
	defer s.rateLimiter.stop()

	rec := doRequest(s, http.MethodGet, "/report?start=2024-03-01T11:00&end=2024-03-01T14:00")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res reportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.CashSalesInStore != 10.00 {
		t.Errorf("cashSalesInStore = %v, want 10.00", res.CashSalesInStore)
	}
	if res.CreditCardTipsDelivery != 3.00 {
		t.Errorf("creditCardTipsDelivery = %v, want 3.00", res.CreditCardTipsDelivery)
	}
	if res.TotalOrders != 2 {
		t.Errorf("totalOrders = %d, want 2", res.TotalOrders)
	}
	if res.AverageOrderValue != 15.00 {
		t.Errorf("averageOrderValue = %v, want 15.00", res.AverageOrderValue)
	}
	if res.Fallback {
		t.Error("fallback = true on a successful run")
	}
	if res.WindowStart != "11:00" || res.WindowEnd != "14:00" {
		t.Errorf("window = %s-%s", res.WindowStart, res.WindowEnd)
	}
}

func TestHandleReportFallback(t *testing.T) {
	store := memory.New(nil)
	store.FailWith(source.ErrSourceUnavailable)
	s := newTestServer(t, store)
	defer s.rateLimiter.stop()

	rec := doRequest(s, http.MethodGet, "/report?start=2024-03-01T11:00&end=2024-03-01T14:00")
	if rec.Code != http.StatusOK {
		t.Fatalf("fallback must still be a 200, got %d", rec.Code)
	}

	var res reportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Fallback {
		t.Error("fallback = false after a source failure")
	}
	if res.Note == "" {
		t.Error("fallback response has no note")
	}
	if res.TotalOrders != 0 || res.CashSalesInStore != 0 {
		t.Errorf("fallback summary not zeroed: %+v", res)
	}
}

func TestHandleReportBadInput(t *testing.T) {
	s := newTestServer(t, memory.New(nil))
	defer s.rateLimiter.stop()

	cases := []struct {
		name   string
		target string
	}{
		{"missing params", "/report"},
		{"missing end", "/report?start=2024-03-01T11:00"},
		{"garbage start", "/report?start=lunchtime&end=2024-03-01T14:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodGet, tc.target)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var er errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil || er.Error == "" {
				t.Fatalf("expected a JSON error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestHandleReportMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, memory.New(nil))
	defer s.rateLimiter.stop()

	rec := doRequest(s, http.MethodDelete, "/report?start=2024-03-01T11:00&end=2024-03-01T14:00")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) FetchOrders(ctx context.Context, _ source.ReportRequest) ([]core.OrderRecord, error) {
	close(f.started)
	select {
	case <-f.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestHandleReportBusy(t *testing.T) {
	fetcher := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestServer(t, fetcher)
	defer s.rateLimiter.stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		doRequest(s, http.MethodGet, "/report?start=2024-03-01T11:00&end=2024-03-01T14:00")
	}()

	<-fetcher.started
	rec := doRequest(s, http.MethodGet, "/report?start=2024-03-01T15:00&end=2024-03-01T17:00")
	close(fetcher.release)
	wg.Wait()

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 while a run is in flight", rec.Code)
	}
	var er errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil || er.Error == "" {
		t.Fatalf("expected a JSON error body, got %s", rec.Body.String())
	}
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t, memory.New(sampleRecords()))
	defer s.rateLimiter.stop()

	rec := doRequest(s, http.MethodGet, "/report/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap status.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Stage != status.StageIdle {
		t.Errorf("stage = %q, want idle before any run", snap.Stage)
	}

	doRequest(s, http.MethodGet, "/report?start=2024-03-01T11:00&end=2024-03-01T14:00")

	rec = doRequest(s, http.MethodGet, "/report/status")
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Stage != status.StageCompleted {
		t.Errorf("stage = %q, want completed after a run", snap.Stage)
	}
}

func TestHandleHistory(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })

	entry := storage.HistoryEntry{
		StoreID:     "eocp",
		WindowStart: "11:00",
		WindowEnd:   "14:00",
		Summary: core.Summary{
			CashSalesInStore:       core.Money{Cents: 1234},
			CreditCardTipsDelivery: core.Money{Cents: 300},
			TotalOrders:            7,
			AverageOrderValue:      15.00,
		},
		GeneratedAt: time.Now(),
	}
	if err := repo.SaveEntry(context.Background(), entry); err != nil {
		t.Fatal(err)
	}

	svc := services.NewReportService(memory.New(nil), status.NewTracker(), services.DefaultConfig())
	s := NewServer(":0", "eocp", svc, repo)
	defer s.rateLimiter.stop()

	rec := doRequest(s, http.MethodGet, "/report/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got []historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0].CashSalesInStore != 12.34 {
		t.Errorf("cashSalesInStore = %v, want 12.34", got[0].CashSalesInStore)
	}
	if got[0].CreditCardTipsDelivery != 3.00 {
		t.Errorf("creditCardTipsDelivery = %v, want 3.00", got[0].CreditCardTipsDelivery)
	}
	if got[0].TotalOrders != 7 {
		t.Errorf("totalOrders = %d, want 7", got[0].TotalOrders)
	}
	if got[0].AverageOrderValue != 15.00 {
		t.Errorf("averageOrderValue = %v, want 15.00", got[0].AverageOrderValue)
	}
	if got[0].StoreID != "eocp" || got[0].WindowStart != "11:00" {
		t.Errorf("entry metadata = %+v", got[0])
	}
}

func TestHandleHistoryDisabled(t *testing.T) {
	s := newTestServer(t, memory.New(nil))
	defer s.rateLimiter.stop()

	rec := doRequest(s, http.MethodGet, "/report/history")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when history is disabled", rec.Code)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-03-01T11:00", want: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)},
		{in: "2024-03-01T11:00:30", want: time.Date(2024, 3, 1, 11, 0, 30, 0, time.UTC)},
		{in: "2024-03-01T11:00:00Z", want: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)},
		{in: "March 1st", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseTimestamp(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseTimestamp(%q) accepted", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTimestamp(%q): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d rejected below the limit", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request 61 allowed within the same minute")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("a different client was throttled")
	}
}
