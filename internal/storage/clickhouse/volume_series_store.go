package clickhouse

import (
	"context"
	"fmt"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/storage"
)

// VolumeSeriesStore implements storage.VolumeSeriesStore using ClickHouse.
// The per-run dominance verdict is constant across a series, so it is
// denormalized onto every row.
type VolumeSeriesStore struct {
	conn *Conn
}

// NewVolumeSeriesStore creates a new VolumeSeriesStore.
func NewVolumeSeriesStore(conn *Conn) *VolumeSeriesStore {
	return &VolumeSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.VolumeSeriesStore = (*VolumeSeriesStore)(nil)

// Insert adds one run's volume series for a coin. Returns ErrDuplicateKey
// if (run_id, coin) exists.
func (s *VolumeSeriesStore) Insert(ctx context.Context, runID string, series *domain.VolumeSeries) error {
	if runID == "" || series == nil || series.Coin == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, runID, series.Coin)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO volume_series (run_id, coin, date, supply, demand, dominance)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range series.Points {
		err = batch.Append(runID, series.Coin, p.Date, p.Supply, p.Demand, string(series.Dominance))
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByCoin retrieves the series for a run and coin, points ordered by date ASC.
// Returns ErrNotFound if not exists.
func (s *VolumeSeriesStore) GetByCoin(ctx context.Context, runID, coin string) (*domain.VolumeSeries, error) {
	query := `
		SELECT date, supply, demand, dominance
		FROM volume_series
		WHERE run_id = ? AND coin = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, coin)
	if err != nil {
		return nil, fmt.Errorf("query volume series: %w", err)
	}
	defer rows.Close()

	series := &domain.VolumeSeries{Coin: coin}
	for rows.Next() {
		var p domain.VolumePoint
		var dominance string

		if err := rows.Scan(&p.Date, &p.Supply, &p.Demand, &dominance); err != nil {
			return nil, fmt.Errorf("scan volume series row: %w", err)
		}

		series.Points = append(series.Points, p)
		series.Dominance = domain.Dominance(dominance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume series rows: %w", err)
	}

	if len(series.Points) == 0 {
		return nil, storage.ErrNotFound
	}

	return series, nil
}

// exists checks if any row for (run_id, coin) exists.
func (s *VolumeSeriesStore) exists(ctx context.Context, runID, coin string) (bool, error) {
	query := `SELECT count(*) FROM volume_series WHERE run_id = ? AND coin = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, coin).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
