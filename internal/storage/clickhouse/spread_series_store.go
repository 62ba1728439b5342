package clickhouse

import (
	"context"
	"fmt"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/storage"
)

// SpreadSeriesStore implements storage.SpreadSeriesStore using ClickHouse.
// Series are stored as flat per-day rows keyed by (run_id, coin, username, date).
type SpreadSeriesStore struct {
	conn *Conn
}

// NewSpreadSeriesStore creates a new SpreadSeriesStore.
func NewSpreadSeriesStore(conn *Conn) *SpreadSeriesStore {
	return &SpreadSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SpreadSeriesStore = (*SpreadSeriesStore)(nil)

// InsertBulk adds all series of one run. Fails entire batch on duplicate
// (run_id, coin, username, date). MergeTree does not enforce uniqueness at
// insert time, so duplicates are checked explicitly before the batch is sent.
func (s *SpreadSeriesStore) InsertBulk(ctx context.Context, runID string, series []*domain.UserSpreadSeries) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(series) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		coin     string
		username string
		date     string
	}
	seen := make(map[key]struct{})
	for _, sr := range series {
		if sr == nil || sr.Username == "" || sr.Coin == "" {
			return storage.ErrInvalidInput
		}
		for _, p := range sr.Points {
			k := key{sr.Coin, sr.Username, p.Date}
			if _, exists := seen[k]; exists {
				return storage.ErrDuplicateKey
			}
			seen[k] = struct{}{}
		}
	}

	// Check for duplicates against existing DB rows
	for _, sr := range series {
		exists, err := s.exists(ctx, runID, sr.Coin, sr.Username)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO spread_series (
			run_id, coin, username, date, sell_mean, buy_mean, spread, sell_filled, buy_filled
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sr := range series {
		for _, p := range sr.Points {
			err = batch.Append(
				runID, sr.Coin, sr.Username, p.Date,
				p.SellMean, p.BuyMean, p.Spread,
				boolToUInt8(p.SellFilled), boolToUInt8(p.BuyFilled),
			)
			if err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByUser retrieves one user's series points, ordered by date ASC.
func (s *SpreadSeriesStore) GetByUser(ctx context.Context, runID, coin, username string) ([]domain.SpreadPoint, error) {
	query := `
		SELECT date, sell_mean, buy_mean, spread, sell_filled, buy_filled
		FROM spread_series
		WHERE run_id = ? AND coin = ? AND username = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, coin, username)
	if err != nil {
		return nil, fmt.Errorf("query spread series: %w", err)
	}
	defer rows.Close()

	var points []domain.SpreadPoint
	for rows.Next() {
		var p domain.SpreadPoint
		var sellFilled, buyFilled uint8

		err := rows.Scan(&p.Date, &p.SellMean, &p.BuyMean, &p.Spread, &sellFilled, &buyFilled)
		if err != nil {
			return nil, fmt.Errorf("scan spread series row: %w", err)
		}

		p.SellFilled = sellFilled != 0
		p.BuyFilled = buyFilled != 0
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spread series rows: %w", err)
	}

	if len(points) == 0 {
		return nil, storage.ErrNotFound
	}

	return points, nil
}

// ListUsers retrieves the usernames with stored series for a run and coin, ordered ASC.
func (s *SpreadSeriesStore) ListUsers(ctx context.Context, runID, coin string) ([]string, error) {
	query := `
		SELECT DISTINCT username
		FROM spread_series
		WHERE run_id = ? AND coin = ?
		ORDER BY username ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, coin)
	if err != nil {
		return nil, fmt.Errorf("query spread series users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scan username row: %w", err)
		}
		users = append(users, username)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate username rows: %w", err)
	}

	return users, nil
}

// exists checks if any row for (run_id, coin, username) exists.
func (s *SpreadSeriesStore) exists(ctx context.Context, runID, coin, username string) (bool, error) {
	query := `
		SELECT count(*) FROM spread_series
		WHERE run_id = ? AND coin = ? AND username = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, coin, username).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
