package postgres

import (
	"context"
	"fmt"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/storage"
)

// UserProfileStore implements storage.UserProfileStore using PostgreSQL.
type UserProfileStore struct {
	pool *Pool
}

// NewUserProfileStore creates a new UserProfileStore.
func NewUserProfileStore(pool *Pool) *UserProfileStore {
	return &UserProfileStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserProfileStore = (*UserProfileStore)(nil)

// InsertBulk adds all profiles of one run atomically.
// Returns ErrDuplicateKey if (run_id, username) exists.
func (s *UserProfileStore) InsertBulk(ctx context.Context, runID string, profiles []*domain.UserProfile) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(profiles) == 0 {
		return nil
	}

	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	query := `
		INSERT INTO user_profiles (
			run_id, username, tx_count, total_volume, coins_traded, avg_rating, cluster_label
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, p := range profiles {
		if p == nil || p.Username == "" {
			return storage.ErrInvalidInput
		}
		_, err := dbTx.Exec(ctx, query,
			runID, p.Username, p.TxCount, p.TotalVolume, p.CoinsTraded, p.AvgRating, p.ClusterLabel,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert user profile: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all profiles of a run, ordered by username ASC.
func (s *UserProfileStore) GetByRunID(ctx context.Context, runID string) ([]*domain.UserProfile, error) {
	query := `
		SELECT username, tx_count, total_volume, coins_traded, avg_rating, cluster_label
		FROM user_profiles
		WHERE run_id = $1
		ORDER BY username ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get profiles by run id: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.UserProfile
	for rows.Next() {
		var p domain.UserProfile
		err := rows.Scan(&p.Username, &p.TxCount, &p.TotalVolume, &p.CoinsTraded, &p.AvgRating, &p.ClusterLabel)
		if err != nil {
			return nil, fmt.Errorf("scan user profile row: %w", err)
		}
		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user profile rows: %w", err)
	}

	return profiles, nil
}

// GetByUsername retrieves one user's profile within a run. Returns ErrNotFound if not exists.
func (s *UserProfileStore) GetByUsername(ctx context.Context, runID, username string) (*domain.UserProfile, error) {
	query := `
		SELECT username, tx_count, total_volume, coins_traded, avg_rating, cluster_label
		FROM user_profiles
		WHERE run_id = $1 AND username = $2
	`

	var p domain.UserProfile
	err := s.pool.QueryRow(ctx, query, runID, username).Scan(
		&p.Username, &p.TxCount, &p.TotalVolume, &p.CoinsTraded, &p.AvgRating, &p.ClusterLabel,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get profile by username: %w", err)
	}

	return &p, nil
}
