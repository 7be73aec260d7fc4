package memory

import (
	"context"
	"sync"

	"burnscope/internal/core"
	"burnscope/internal/dataset"
)

// Store keeps the aggregated rows in memory, indexed by country.
type Store struct {
	mu        sync.RWMutex
	total     int
	byCountry map[string][]core.AggregatedRecord
}

var _ dataset.AggregateStore = (*Store)(nil)

func New() *Store {
	return &Store{byCountry: map[string][]core.AggregatedRecord{}}
}

// Replace swaps the stored table. Rows keep their input order per country.
func (s *Store) Replace(_ context.Context, rows []core.AggregatedRecord) error {
	byCountry := make(map[string][]core.AggregatedRecord)
	for _, r := range rows {
		byCountry[r.Country] = append(byCountry[r.Country], r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byCountry = byCountry
	s.total = len(rows)
	return nil
}

// ForCountry returns a copy of the matching rows.
func (s *Store) ForCountry(_ context.Context, country string, from, to int) ([]core.AggregatedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.AggregatedRecord
	for _, r := range s.byCountry[country] {
		if r.Year >= from && r.Year <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total, nil
}
