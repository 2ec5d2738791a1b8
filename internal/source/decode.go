package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/eocp2024/hungerrush-report/internal/core"
)

// Column header synonyms across export versions. The portal has renamed
// columns between releases; resolve by the first synonym found.
var columnSynonyms = map[string][]string{
	"date":    {"date", "order date", "business date"},
	"time":    {"time", "order time", "time of day"},
	"number":  {"order #", "order number", "order no", "check #", "ticket #"},
	"channel": {"order type", "type", "service type", "channel"},
	"payment": {"payment", "payment type", "payment method", "tender", "tender type"},
	"total":   {"total", "order total", "amount", "grand total"},
	"tip":     {"tip", "tips", "tip amount", "gratuity"},
}

var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"1/2/06",
	"Jan 2, 2006",
}

// DecodeCSV decodes a CSV order export into order records. Individual
// bad rows are skipped; a missing or unrecognizable header is
// ErrParseFailed because nothing at all can be decoded.
func DecodeCSV(r io.Reader) ([]core.OrderRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", ErrParseFailed, err)
	}
	return decodeRows(rows)
}

// DecodeXLSX decodes an Excel order export (the portal's native artifact
// format) using the first sheet of the workbook.
func DecodeXLSX(r io.Reader) ([]core.OrderRecord, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrParseFailed, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParseFailed)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrParseFailed, sheets[0], err)
	}
	return decodeRows(rows)
}

func decodeRows(rows [][]string) ([]core.OrderRecord, error) {
	header := -1
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(strings.Join(row, "")) != "" {
			header = i
			break
		}
	}
	if header == -1 {
		return nil, fmt.Errorf("%w: export is empty", ErrParseFailed)
	}

	cols, err := resolveColumns(rows[header])
	if err != nil {
		return nil, err
	}

	records := make([]core.OrderRecord, 0, len(rows)-header-1)
	for _, row := range rows[header+1:] {
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		records = append(records, decodeRecord(row, cols))
	}
	return records, nil
}

type columnIndex map[string]int

func resolveColumns(header []string) (columnIndex, error) {
	idx := columnIndex{}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for canonical, syns := range columnSynonyms {
			if _, taken := idx[canonical]; taken {
				continue
			}
			for _, syn := range syns {
				if name == syn {
					idx[canonical] = i
					break
				}
			}
		}
	}
	// Without time and total columns there is no report to build.
	for _, required := range []string{"time", "total"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: missing %q column in header %v", ErrParseFailed, required, header)
		}
	}
	return idx, nil
}

func decodeRecord(row []string, cols columnIndex) core.OrderRecord {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := core.OrderRecord{
		OrderNumber: get("number"),
		Channel:     get("channel"),
		Payment:     get("payment"),
	}

	dateOK := true
	if i, ok := cols["date"]; ok {
		rec.Date, dateOK = parseDate(row, i)
	}

	ct, err := core.ParseClockTime(get("time"))
	rec.TimeOfDay = ct
	// A row is usable only when both its date and its time parse; it is
	// skipped otherwise, never fatal for the batch.
	rec.TimeValid = err == nil && dateOK
	if !rec.TimeValid {
		slog.Debug("skipping unparseable export row",
			"order_number", rec.OrderNumber, "time", get("time"), "date", get("date"))
	}

	// Malformed or blank amounts count as zero rather than killing the row.
	if cents, ok := core.ParseAmountToCents(get("total")); ok {
		rec.Total = core.Money{Cents: cents}
	}
	if cents, ok := core.ParseAmountToCents(get("tip")); ok {
		rec.Tip = core.Money{Cents: cents}
	}
	return rec
}

func parseDate(row []string, i int) (time.Time, bool) {
	if i >= len(row) {
		return time.Time{}, false
	}
	s := strings.TrimSpace(row[i])
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
