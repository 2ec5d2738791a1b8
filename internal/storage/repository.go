// Package storage persists completed report summaries to SQLite so
// past runs can be inspected after the fact.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eocp2024/hungerrush-report/internal/core"
	"github.com/eocp2024/hungerrush-report/internal/services"
	"github.com/eocp2024/hungerrush-report/internal/source"
)

type SQLiteRepository struct {
	db *sql.DB
}

// HistoryEntry is one persisted report run.
type HistoryEntry struct {
	ID          int64
	StoreID     string
	WindowStart string
	WindowEnd   string
	Summary     core.Summary
	Fallback    bool
	Note        string
	GeneratedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSummary implements services.HistoryStore.
func (r *SQLiteRepository) SaveSummary(ctx context.Context, req source.ReportRequest, res services.Result) error {
	return r.SaveEntry(ctx, HistoryEntry{
		StoreID:     req.StoreID,
		WindowStart: res.Window.Start.String(),
		WindowEnd:   res.Window.End.String(),
		Summary:     res.Summary,
		Fallback:    res.Fallback,
		Note:        res.Note,
		GeneratedAt: res.GeneratedAt,
	})
}

// SaveEntry persists one history entry. Used directly by the worker,
// which receives summaries as events rather than Results.
func (r *SQLiteRepository) SaveEntry(ctx context.Context, e HistoryEntry) error {
	s := e.Summary
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO report_history (
			store_id, window_start, window_end,
			cash_sales_in_store_cents, cash_sales_delivery_cents,
			credit_card_tips_in_store_cents, credit_card_tips_delivery_cents,
			total_orders, average_order_value, skipped_rows,
			fallback, note, generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.StoreID,
		e.WindowStart,
		e.WindowEnd,
		s.CashSalesInStore.Cents,
		s.CashSalesDelivery.Cents,
		s.CreditCardTipsInStore.Cents,
		s.CreditCardTipsDelivery.Cents,
		s.TotalOrders,
		s.AverageOrderValue,
		s.SkippedRows,
		e.Fallback,
		e.Note,
		e.GeneratedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert report history: %w", err)
	}

	id, _ := result.LastInsertId()
	slog.InfoContext(ctx, "Report saved to history",
		"id", id, "store_id", e.StoreID,
		"window", e.WindowStart+"-"+e.WindowEnd, "total_orders", s.TotalOrders)
	return nil
}

// ListRecent returns the most recent history entries, newest first.
func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, store_id, window_start, window_end,
			cash_sales_in_store_cents, cash_sales_delivery_cents,
			credit_card_tips_in_store_cents, credit_card_tips_delivery_cents,
			total_orders, average_order_value, skipped_rows,
			fallback, note, generated_at
		FROM report_history
		ORDER BY generated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query report history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		err := rows.Scan(
			&e.ID, &e.StoreID, &e.WindowStart, &e.WindowEnd,
			&e.Summary.CashSalesInStore.Cents,
			&e.Summary.CashSalesDelivery.Cents,
			&e.Summary.CreditCardTipsInStore.Cents,
			&e.Summary.CreditCardTipsDelivery.Cents,
			&e.Summary.TotalOrders,
			&e.Summary.AverageOrderValue,
			&e.Summary.SkippedRows,
			&e.Fallback, &e.Note, &e.GeneratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ services.HistoryStore = (*SQLiteRepository)(nil)
