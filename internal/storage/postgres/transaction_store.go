package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const insertTransactionQuery = `
	INSERT INTO transactions (
		tx_uuid, type, coin, amount, receive, status, created_at_ms, updated_at_ms,
		coin_name, coin_price, owner_uuid, username, name, surname, kyc, avg_rating
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

// Insert adds a new transaction. Returns ErrDuplicateKey if tx_uuid exists.
func (s *TransactionStore) Insert(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.TxUUID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTransactionQuery,
		tx.TxUUID, tx.Type, tx.Coin, tx.Amount, tx.Receive, tx.Status,
		tx.CreatedAtMs, tx.UpdatedAtMs, tx.CoinName, tx.CoinPrice,
		tx.OwnerUUID, tx.Username, tx.Name, tx.Surname, tx.KYC, tx.AvgRating,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	for _, tx := range txs {
		if tx == nil || tx.TxUUID == "" {
			return storage.ErrInvalidInput
		}
		_, err := dbTx.Exec(ctx, insertTransactionQuery,
			tx.TxUUID, tx.Type, tx.Coin, tx.Amount, tx.Receive, tx.Status,
			tx.CreatedAtMs, tx.UpdatedAtMs, tx.CoinName, tx.CoinPrice,
			tx.OwnerUUID, tx.Username, tx.Name, tx.Surname, tx.KYC, tx.AvgRating,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert transaction in bulk: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

const selectTransactionColumns = `
	tx_uuid, type, coin, amount, receive, status, created_at_ms, updated_at_ms,
	coin_name, coin_price, owner_uuid, username, name, surname, kyc, avg_rating
`

// GetByUUID retrieves a transaction by its uuid. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByUUID(ctx context.Context, txUUID string) (*domain.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions WHERE tx_uuid = $1`

	var tx domain.Transaction
	err := s.pool.QueryRow(ctx, query, txUUID).Scan(
		&tx.TxUUID, &tx.Type, &tx.Coin, &tx.Amount, &tx.Receive, &tx.Status,
		&tx.CreatedAtMs, &tx.UpdatedAtMs, &tx.CoinName, &tx.CoinPrice,
		&tx.OwnerUUID, &tx.Username, &tx.Name, &tx.Surname, &tx.KYC, &tx.AvgRating,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction by uuid: %w", err)
	}

	return &tx, nil
}

// GetByCoin retrieves all transactions for a coin, ordered by created_at ASC.
func (s *TransactionStore) GetByCoin(ctx context.Context, coin string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE coin = $1
		ORDER BY created_at_ms ASC, tx_uuid ASC
	`

	rows, err := s.pool.Query(ctx, query, coin)
	if err != nil {
		return nil, fmt.Errorf("get transactions by coin: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByUsername retrieves all transactions owned by a user, ordered by created_at ASC.
func (s *TransactionStore) GetByUsername(ctx context.Context, username string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE username = $1
		ORDER BY created_at_ms ASC, tx_uuid ASC
	`

	rows, err := s.pool.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("get transactions by username: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		var tx domain.Transaction

		err := rows.Scan(
			&tx.TxUUID, &tx.Type, &tx.Coin, &tx.Amount, &tx.Receive, &tx.Status,
			&tx.CreatedAtMs, &tx.UpdatedAtMs, &tx.CoinName, &tx.CoinPrice,
			&tx.OwnerUUID, &tx.Username, &tx.Name, &tx.Surname, &tx.KYC, &tx.AvgRating,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		txs = append(txs, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
