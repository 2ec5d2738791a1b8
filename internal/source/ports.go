package source

import (
	"context"
	"errors"
	"time"

	"github.com/eocp2024/hungerrush-report/internal/core"
)

// Failure taxonomy for the report source. The service treats all three
// the same way (fallback summary), but logs and status messages keep
// them distinct.
var (
	// ErrSourceUnavailable means the portal could not be reached or the
	// login was rejected.
	ErrSourceUnavailable = errors.New("report source unavailable")

	// ErrExportFailed means the portal accepted the request but no
	// export artifact materialized within the allowed wait.
	ErrExportFailed = errors.New("report export failed")

	// ErrParseFailed means an artifact was produced but its rows could
	// not be decoded at all.
	ErrParseFailed = errors.New("report parse failed")
)

// ReportRequest identifies one report pull. Start and End are full
// timestamps as supplied by the caller; the aggregation layer extracts
// only their clock components.
type ReportRequest struct {
	Start   time.Time
	End     time.Time
	StoreID string
}

// Window returns the time-of-day window derived from the request.
func (r ReportRequest) Window() core.TimeWindow {
	return core.NewTimeWindow(r.Start, r.End)
}

// CacheKey is the exact-parameter key used for result caching.
func (r ReportRequest) CacheKey() string {
	return r.StoreID + "|" + r.Start.Format(time.RFC3339) + "|" + r.End.Format(time.RFC3339)
}

// StatusFunc receives advisory progress updates while a fetch runs.
// Implementations must be cheap and must not block.
type StatusFunc func(stage, message string)

// Ports for inbound order data.
type (
	// OrderFetcher produces the raw order rows for a request. It must
	// resolve to either rows or one of the taxonomy errors above within
	// the deadline carried by ctx; rows that fail to parse individually
	// are skipped inside the fetcher, not surfaced as errors.
	OrderFetcher interface {
		FetchOrders(ctx context.Context, req ReportRequest) ([]core.OrderRecord, error)
	}
)
