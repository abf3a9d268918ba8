package operations

import (
	"sort"
	"sync"

	"ridership/pkg/contracts/domain"
)

// ResultStore keeps the latest result of every station in memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.StationResult
}

// NewResultStore creates an empty store
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.StationResult)}
}

// Put stores result, replacing any previous result of the station
func (s *ResultStore) Put(result domain.StationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.Station] = result
}

// Get returns the result of a station
func (s *ResultStore) Get(station string) (domain.StationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[station]
	return r, ok
}

// List returns every result ordered by station name
func (s *ResultStore) List() []domain.StationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StationResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out
}
