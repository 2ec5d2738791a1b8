// Package file reads order records from a local export file (.csv or
// .xlsx). It backs local development and the one-shot CLI, standing in
// for the live portal.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eocp2024/hungerrush-report/internal/core"
	"github.com/eocp2024/hungerrush-report/internal/source"
)

type Reader struct {
	path string
}

func New(path string) *Reader {
	return &Reader{path: path}
}

// FetchOrders decodes the configured export file. The request is only
// used by the caller for windowing; the file contents are returned as-is.
func (r *Reader) FetchOrders(_ context.Context, _ source.ReportRequest) ([]core.OrderRecord, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", source.ErrSourceUnavailable, r.path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".xlsx":
		return source.DecodeXLSX(f)
	default:
		return source.DecodeCSV(f)
	}
}

var _ source.OrderFetcher = (*Reader)(nil)
