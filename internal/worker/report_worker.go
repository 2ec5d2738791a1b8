// Package worker processes report-completed events: it writes each one
// to the local history database and, when configured, appends it to the
// bookkeeping Google Sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/eocp2024/hungerrush-report/internal/amqp"
	"github.com/eocp2024/hungerrush-report/internal/core"
	"github.com/eocp2024/hungerrush-report/internal/export/google"
	"github.com/eocp2024/hungerrush-report/internal/storage"
)

// SummaryExporter is the slice of the sheets exporter the worker needs.
type SummaryExporter interface {
	AppendSummary(ctx context.Context, row google.Row) error
}

type ReportWorker struct {
	history  *storage.SQLiteRepository
	exporter SummaryExporter // optional
}

func NewReportWorker(history *storage.SQLiteRepository, exporter SummaryExporter) *ReportWorker {
	return &ReportWorker{history: history, exporter: exporter}
}

// HandleReportCompleted processes one event. A failed database write is
// returned so the message gets requeued; a failed sheet export is only
// logged, the history row is already durable.
func (w *ReportWorker) HandleReportCompleted(ctx context.Context, msg *amqp.ReportCompletedMessage) error {
	slog.InfoContext(ctx, "Processing report event",
		"store_id", msg.StoreID,
		"window", msg.WindowStart+"-"+msg.WindowEnd)

	entry := storage.HistoryEntry{
		StoreID:     msg.StoreID,
		WindowStart: msg.WindowStart,
		WindowEnd:   msg.WindowEnd,
		Summary: core.Summary{
			CashSalesInStore:       dollarsToMoney(msg.CashSalesInStore),
			CashSalesDelivery:      dollarsToMoney(msg.CashSalesDelivery),
			CreditCardTipsInStore:  dollarsToMoney(msg.CreditCardTipsInStore),
			CreditCardTipsDelivery: dollarsToMoney(msg.CreditCardTipsDelivery),
			TotalOrders:            msg.TotalOrders,
			AverageOrderValue:      msg.AverageOrderValue,
		},
		Fallback:    msg.Fallback,
		Note:        msg.Note,
		GeneratedAt: msg.GeneratedAt,
	}
	if err := w.history.SaveEntry(ctx, entry); err != nil {
		return fmt.Errorf("save history entry: %w", err)
	}

	if w.exporter == nil {
		return nil
	}
	row := google.Row{
		StoreID:                msg.StoreID,
		WindowStart:            msg.WindowStart,
		WindowEnd:              msg.WindowEnd,
		CashSalesInStore:       msg.CashSalesInStore,
		CashSalesDelivery:      msg.CashSalesDelivery,
		CreditCardTipsInStore:  msg.CreditCardTipsInStore,
		CreditCardTipsDelivery: msg.CreditCardTipsDelivery,
		TotalOrders:            msg.TotalOrders,
		AverageOrderValue:      msg.AverageOrderValue,
		Fallback:               msg.Fallback,
		GeneratedAt:            msg.GeneratedAt,
	}
	if err := w.exporter.AppendSummary(ctx, row); err != nil {
		slog.WarnContext(ctx, "Sheet export failed", "error", err, "store_id", msg.StoreID)
	}
	return nil
}

func dollarsToMoney(d float64) core.Money {
	return core.Money{Cents: int64(math.Round(d * 100))}
}
