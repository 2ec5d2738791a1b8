package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eocp2024/hungerrush-report/internal/amqp"
	"github.com/eocp2024/hungerrush-report/internal/export/google"
	"github.com/eocp2024/hungerrush-report/internal/storage"
)

func sampleMessage() *amqp.ReportCompletedMessage {
	return &amqp.ReportCompletedMessage{
		StoreID:           "eocp",
		WindowStart:       "09:00",
		WindowEnd:         "11:00",
		CashSalesInStore:  10.00,
		TotalOrders:       2,
		AverageOrderValue: 15.00,
		GeneratedAt:       time.Now(),
	}
}

type fakeExporter struct {
	rows []google.Row
	err  error
}

func (f *fakeExporter) AppendSummary(_ context.Context, row google.Row) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

func testHistory(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestHandleReportCompleted(t *testing.T) {
	history := testHistory(t)
	exporter := &fakeExporter{}
	w := NewReportWorker(history, exporter)

	if err := w.HandleReportCompleted(context.Background(), sampleMessage()); err != nil {
		t.Fatalf("handle: %v", err)
	}

	entries, err := history.ListRecent(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d history entries, want 1", len(entries))
	}
	if entries[0].Summary.CashSalesInStore.Cents != 1000 {
		t.Fatalf("cash in-store = %d, want 1000", entries[0].Summary.CashSalesInStore.Cents)
	}

	if len(exporter.rows) != 1 {
		t.Fatalf("got %d exported rows, want 1", len(exporter.rows))
	}
	if exporter.rows[0].StoreID != "eocp" {
		t.Fatalf("exported row = %+v", exporter.rows[0])
	}
}

func TestHandleReportCompletedExportFailureIsNonFatal(t *testing.T) {
	history := testHistory(t)
	w := NewReportWorker(history, &fakeExporter{err: errors.New("sheets quota")})

	if err := w.HandleReportCompleted(context.Background(), sampleMessage()); err != nil {
		t.Fatalf("export failure must not fail the handler: %v", err)
	}

	entries, _ := history.ListRecent(context.Background(), 5)
	if len(entries) != 1 {
		t.Fatalf("history should still be written, got %d entries", len(entries))
	}
}

func TestHandleReportCompletedNoExporter(t *testing.T) {
	history := testHistory(t)
	w := NewReportWorker(history, nil)

	if err := w.HandleReportCompleted(context.Background(), sampleMessage()); err != nil {
		t.Fatalf("handle: %v", err)
	}
}
