// Package google appends completed report summaries to a bookkeeping
// Google Sheet, one row per run.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Row is one exported summary line.
type Row struct {
	StoreID                string
	WindowStart            string
	WindowEnd              string
	CashSalesInStore       float64
	CashSalesDelivery      float64
	CreditCardTipsInStore  float64
	CreditCardTipsDelivery float64
	TotalOrders            int
	AverageOrderValue      float64
	Fallback               bool
	GeneratedAt            time.Time
}

// NewExporter creates a Sheets exporter. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func NewExporter(ctx context.Context, spreadsheetID, sheetName string) (*Exporter, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if sheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// AppendSummary appends one summary row below the sheet's existing data.
func (e *Exporter) AppendSummary(ctx context.Context, row Row) error {
	fallback := ""
	if row.Fallback {
		fallback = "FALLBACK"
	}
	values := &gsheet.ValueRange{
		Values: [][]interface{}{{
			row.GeneratedAt.Format("2006-01-02 15:04"),
			row.StoreID,
			row.WindowStart + "-" + row.WindowEnd,
			row.CashSalesInStore,
			row.CashSalesDelivery,
			row.CreditCardTipsInStore,
			row.CreditCardTipsDelivery,
			row.TotalOrders,
			row.AverageOrderValue,
			fallback,
		}},
	}

	_, err := e.svc.Spreadsheets.Values.
		Append(e.spreadsheetID, e.sheetName+"!A:J", values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append summary row: %w", err)
	}

	slog.InfoContext(ctx, "Exported summary to sheet",
		"spreadsheet_id", e.spreadsheetID,
		"sheet", e.sheetName,
		"store_id", row.StoreID)
	return nil
}
