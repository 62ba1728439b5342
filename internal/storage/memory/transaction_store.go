// Package memory provides in-memory store implementations used by pipeline
// runs that do not persist, and as the reference behavior for the database
// backed stores.
package memory

import (
	"context"
	"sort"
	"sync"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Transaction // keyed by tx_uuid
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Transaction),
	}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// Insert adds a new transaction. Returns ErrDuplicateKey if tx_uuid exists.
func (s *TransactionStore) Insert(_ context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.TxUUID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tx.TxUUID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *tx
	s.data[tx.TxUUID] = &copy
	return nil
}

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(_ context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if tx == nil || tx.TxUUID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[tx.TxUUID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[tx.TxUUID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[tx.TxUUID] = struct{}{}
	}

	// Second pass: insert all
	for _, tx := range txs {
		copy := *tx
		s.data[tx.TxUUID] = &copy
	}

	return nil
}

// GetByUUID retrieves a transaction by its uuid. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByUUID(_ context.Context, txUUID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.data[txUUID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *tx
	return &copy, nil
}

// GetByCoin retrieves all transactions for a coin, ordered by created_at ASC.
func (s *TransactionStore) GetByCoin(_ context.Context, coin string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.data {
		if tx.Coin == coin {
			copy := *tx
			result = append(result, &copy)
		}
	}

	sortTransactions(result)
	return result, nil
}

// GetByUsername retrieves all transactions owned by a user, ordered by created_at ASC.
func (s *TransactionStore) GetByUsername(_ context.Context, username string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.data {
		if tx.Username == username {
			copy := *tx
			result = append(result, &copy)
		}
	}

	sortTransactions(result)
	return result, nil
}

func sortTransactions(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].CreatedAtMs != txs[j].CreatedAtMs {
			return txs[i].CreatedAtMs < txs[j].CreatedAtMs
		}
		return txs[i].TxUUID < txs[j].TxUUID
	})
}
