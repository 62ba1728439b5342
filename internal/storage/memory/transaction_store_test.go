package memory

import (
	"context"
	"errors"
	"testing"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/storage"
)

func testTx(uuid, coin, username string, createdAtMs int64) *domain.Transaction {
	return &domain.Transaction{
		TxUUID:      uuid,
		Type:        domain.TxTypeSell,
		Coin:        coin,
		Amount:      100,
		Receive:     120,
		Status:      "paid",
		CreatedAtMs: createdAtMs,
		Username:    username,
	}
}

func TestTransactionStore_InsertAndGet(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	tx := testTx("tx-1", "MLC", "alice", 1000)
	if err := store.Insert(ctx, tx); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByUUID(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetByUUID failed: %v", err)
	}
	if got.Username != "alice" || got.Coin != "MLC" {
		t.Errorf("Unexpected transaction: %+v", got)
	}
}

func TestTransactionStore_DuplicateInsert(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testTx("tx-1", "MLC", "alice", 1000)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	err := store.Insert(ctx, testTx("tx-1", "BTC", "bob", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTransactionStore_GetByUUID_NotFound(t *testing.T) {
	store := NewTransactionStore()
	_, err := store.GetByUUID(context.Background(), "absent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTransactionStore_InsertBulk_AtomicOnDuplicate(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testTx("tx-1", "MLC", "alice", 1000)); err != nil {
		t.Fatalf("Seed insert failed: %v", err)
	}

	batch := []*domain.Transaction{
		testTx("tx-2", "MLC", "bob", 2000),
		testTx("tx-1", "MLC", "carol", 3000), // duplicate
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// Nothing from the failed batch should be visible
	if _, err := store.GetByUUID(ctx, "tx-2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected tx-2 absent after failed batch, got %v", err)
	}
}

func TestTransactionStore_InsertBulk_IntraBatchDuplicate(t *testing.T) {
	store := NewTransactionStore()

	batch := []*domain.Transaction{
		testTx("tx-1", "MLC", "alice", 1000),
		testTx("tx-1", "MLC", "alice", 1000),
	}
	if err := store.InsertBulk(context.Background(), batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTransactionStore_GetByCoin_Ordered(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	batch := []*domain.Transaction{
		testTx("tx-3", "MLC", "alice", 3000),
		testTx("tx-1", "MLC", "bob", 1000),
		testTx("tx-2", "BTC", "carol", 2000),
	}
	if err := store.InsertBulk(ctx, batch); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByCoin(ctx, "MLC")
	if err != nil {
		t.Fatalf("GetByCoin failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 MLC transactions, got %d", len(got))
	}
	if got[0].TxUUID != "tx-1" || got[1].TxUUID != "tx-3" {
		t.Errorf("Expected created_at ordering, got %s, %s", got[0].TxUUID, got[1].TxUUID)
	}
}

func TestTransactionStore_GetByUsername(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	batch := []*domain.Transaction{
		testTx("tx-1", "MLC", "alice", 1000),
		testTx("tx-2", "BTC", "alice", 2000),
		testTx("tx-3", "MLC", "bob", 3000),
	}
	if err := store.InsertBulk(ctx, batch); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 transactions for alice, got %d", len(got))
	}
}

func TestTransactionStore_CopyOnRead(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testTx("tx-1", "MLC", "alice", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByUUID(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetByUUID failed: %v", err)
	}
	got.Username = "mutated"

	again, err := store.GetByUUID(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetByUUID failed: %v", err)
	}
	if again.Username != "alice" {
		t.Errorf("Store data mutated through returned copy: %q", again.Username)
	}
}

func TestTransactionStore_InvalidInput(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.Transaction{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty uuid, got %v", err)
	}
}
