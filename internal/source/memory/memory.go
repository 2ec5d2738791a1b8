// Package memory provides an in-memory OrderFetcher for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"github.com/eocp2024/hungerrush-report/internal/core"
	"github.com/eocp2024/hungerrush-report/internal/source"
)

type Store struct {
	mu      sync.Mutex
	records []core.OrderRecord
	err     error
	fetches int
}

func New(records []core.OrderRecord) *Store {
	return &Store{records: records}
}

// FailWith makes every subsequent fetch return err.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Fetches reports how many times FetchOrders has been called.
func (s *Store) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// FetchOrders returns the canned records, or the injected error.
func (s *Store) FetchOrders(ctx context.Context, _ source.ReportRequest) ([]core.OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := append([]core.OrderRecord(nil), s.records...)
	return out, nil
}

var _ source.OrderFetcher = (*Store)(nil)
