package holiday

import (
	"context"
	"sync"

	"github.com/0xc0d3d00d/candleseries/internal/domain"
)

// Store persists holiday sets per year. A miss is (zero, false, nil).
type Store interface {
	Get(ctx context.Context, year int) (domain.HolidayYear, bool, error)
	Set(ctx context.Context, data domain.HolidayYear) error
}

type MemoryStore struct {
	mu    sync.RWMutex
	years map[int]domain.HolidayYear
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{years: make(map[int]domain.HolidayYear)}
}

func (s *MemoryStore) Get(_ context.Context, year int) (domain.HolidayYear, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.years[year]
	return data, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, data domain.HolidayYear) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years[data.Year] = data
	return nil
}
