package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/storage"
)

// VolumeSeriesStore is an in-memory implementation of storage.VolumeSeriesStore.
type VolumeSeriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VolumeSeries // keyed by run_id|coin
}

// NewVolumeSeriesStore creates a new in-memory volume series store.
func NewVolumeSeriesStore() *VolumeSeriesStore {
	return &VolumeSeriesStore{
		data: make(map[string]*domain.VolumeSeries),
	}
}

// Compile-time interface check.
var _ storage.VolumeSeriesStore = (*VolumeSeriesStore)(nil)

func volumeKey(runID, coin string) string {
	return fmt.Sprintf("%s|%s", runID, coin)
}

// Insert adds one run's volume series for a coin. Returns ErrDuplicateKey if exists.
func (s *VolumeSeriesStore) Insert(_ context.Context, runID string, series *domain.VolumeSeries) error {
	if runID == "" || series == nil || series.Coin == "" {
		return storage.ErrInvalidInput
	}

	key := volumeKey(runID, series.Coin)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	stored := *series
	stored.Points = make([]domain.VolumePoint, len(series.Points))
	copy(stored.Points, series.Points)
	s.data[key] = &stored

	return nil
}

// GetByCoin retrieves the series for a run and coin, points ordered by date ASC.
// Returns ErrNotFound if not exists.
func (s *VolumeSeriesStore) GetByCoin(_ context.Context, runID, coin string) (*domain.VolumeSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.data[volumeKey(runID, coin)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	result := *stored
	result.Points = make([]domain.VolumePoint, len(stored.Points))
	copy(result.Points, stored.Points)
	sort.Slice(result.Points, func(i, j int) bool {
		return result.Points[i].Date < result.Points[j].Date
	})

	return &result, nil
}
