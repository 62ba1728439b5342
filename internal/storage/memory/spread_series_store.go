package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/storage"
)

// SpreadSeriesStore is an in-memory implementation of storage.SpreadSeriesStore.
type SpreadSeriesStore struct {
	mu   sync.RWMutex
	data map[string][]domain.SpreadPoint // keyed by run_id|coin|username
}

// NewSpreadSeriesStore creates a new in-memory spread series store.
func NewSpreadSeriesStore() *SpreadSeriesStore {
	return &SpreadSeriesStore{
		data: make(map[string][]domain.SpreadPoint),
	}
}

// Compile-time interface check.
var _ storage.SpreadSeriesStore = (*SpreadSeriesStore)(nil)

func spreadKey(runID, coin, username string) string {
	return fmt.Sprintf("%s|%s|%s", runID, coin, username)
}

// InsertBulk adds all series of one run. Fails entire batch on duplicate.
func (s *SpreadSeriesStore) InsertBulk(_ context.Context, runID string, series []*domain.UserSpreadSeries) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(series) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(series))
	for _, sr := range series {
		if sr == nil || sr.Username == "" || sr.Coin == "" {
			return storage.ErrInvalidInput
		}
		key := spreadKey(runID, sr.Coin, sr.Username)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, sr := range series {
		points := make([]domain.SpreadPoint, len(sr.Points))
		copy(points, sr.Points)
		s.data[spreadKey(runID, sr.Coin, sr.Username)] = points
	}

	return nil
}

// GetByUser retrieves one user's series points, ordered by date ASC.
func (s *SpreadSeriesStore) GetByUser(_ context.Context, runID, coin, username string) ([]domain.SpreadPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.data[spreadKey(runID, coin, username)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	points := make([]domain.SpreadPoint, len(stored))
	copy(points, stored)
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	return points, nil
}

// ListUsers retrieves the usernames with stored series for a run and coin, ordered ASC.
func (s *SpreadSeriesStore) ListUsers(_ context.Context, runID, coin string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := fmt.Sprintf("%s|%s|", runID, coin)
	var users []string
	for key := range s.data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			users = append(users, key[len(prefix):])
		}
	}

	sort.Strings(users)
	return users, nil
}
