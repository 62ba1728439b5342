// Package storage defines the persistence interfaces shared by the in-memory,
// PostgreSQL and ClickHouse implementations. All stores are append-only.
package storage

import (
	"context"

	"p2p-maker-lab/internal/domain"
)

// TransactionStore provides access to coerced transaction storage.
type TransactionStore interface {
	// Insert adds a new transaction. Returns ErrDuplicateKey if tx_uuid exists.
	Insert(ctx context.Context, tx *domain.Transaction) error

	// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, txs []*domain.Transaction) error

	// GetByUUID retrieves a transaction by its uuid. Returns ErrNotFound if not exists.
	GetByUUID(ctx context.Context, txUUID string) (*domain.Transaction, error)

	// GetByCoin retrieves all transactions for a coin, ordered by created_at ASC.
	GetByCoin(ctx context.Context, coin string) ([]*domain.Transaction, error)

	// GetByUsername retrieves all transactions owned by a user, ordered by created_at ASC.
	GetByUsername(ctx context.Context, username string) ([]*domain.Transaction, error)
}

// UserProfileStore provides access to per-run user feature profiles.
type UserProfileStore interface {
	// InsertBulk adds all profiles of one run atomically.
	// Returns ErrDuplicateKey if (run_id, username) exists.
	InsertBulk(ctx context.Context, runID string, profiles []*domain.UserProfile) error

	// GetByRunID retrieves all profiles of a run, ordered by username ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.UserProfile, error)

	// GetByUsername retrieves one user's profile within a run. Returns ErrNotFound if not exists.
	GetByUsername(ctx context.Context, runID, username string) (*domain.UserProfile, error)
}

// SpreadSeriesStore provides access to per-user daily spread series.
type SpreadSeriesStore interface {
	// InsertBulk adds all series of one run. Fails entire batch on duplicate
	// (run_id, coin, username, date).
	InsertBulk(ctx context.Context, runID string, series []*domain.UserSpreadSeries) error

	// GetByUser retrieves one user's series points, ordered by date ASC.
	GetByUser(ctx context.Context, runID, coin, username string) ([]domain.SpreadPoint, error)

	// ListUsers retrieves the usernames with stored series for a run and coin,
	// ordered ASC.
	ListUsers(ctx context.Context, runID, coin string) ([]string, error)
}

// VolumeSeriesStore provides access to per-coin daily supply/demand series.
type VolumeSeriesStore interface {
	// Insert adds one run's volume series for a coin. Returns ErrDuplicateKey
	// if (run_id, coin) exists.
	Insert(ctx context.Context, runID string, series *domain.VolumeSeries) error

	// GetByCoin retrieves the series for a run and coin, points ordered by
	// date ASC. Returns ErrNotFound if not exists.
	GetByCoin(ctx context.Context, runID, coin string) (*domain.VolumeSeries, error)
}
