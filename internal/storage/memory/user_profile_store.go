package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/storage"
)

// UserProfileStore is an in-memory implementation of storage.UserProfileStore.
type UserProfileStore struct {
	mu   sync.RWMutex
	data map[string]*domain.UserProfile // keyed by run_id|username
}

// NewUserProfileStore creates a new in-memory user profile store.
func NewUserProfileStore() *UserProfileStore {
	return &UserProfileStore{
		data: make(map[string]*domain.UserProfile),
	}
}

// Compile-time interface check.
var _ storage.UserProfileStore = (*UserProfileStore)(nil)

func profileKey(runID, username string) string {
	return fmt.Sprintf("%s|%s", runID, username)
}

// InsertBulk adds all profiles of one run atomically.
// Returns ErrDuplicateKey if (run_id, username) exists.
func (s *UserProfileStore) InsertBulk(_ context.Context, runID string, profiles []*domain.UserProfile) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(profiles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		if p == nil || p.Username == "" {
			return storage.ErrInvalidInput
		}
		key := profileKey(runID, p.Username)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range profiles {
		copy := *p
		s.data[profileKey(runID, p.Username)] = &copy
	}

	return nil
}

// GetByRunID retrieves all profiles of a run, ordered by username ASC.
func (s *UserProfileStore) GetByRunID(_ context.Context, runID string) ([]*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := runID + "|"
	var result []*domain.UserProfile
	for key, p := range s.data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})

	return result, nil
}

// GetByUsername retrieves one user's profile within a run. Returns ErrNotFound if not exists.
func (s *UserProfileStore) GetByUsername(_ context.Context, runID, username string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[profileKey(runID, username)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *p
	return &copy, nil
}
