package selection

import (
	"errors"
	"testing"

	"p2p-maker-lab/internal/domain"
)

func makerFixture() (*domain.ClusterPartition, []*domain.UserProfile, []*domain.UserKey, []*domain.Transaction) {
	partition := &domain.ClusterPartition{
		K:      2,
		Labels: []int{0, 0, 1},
	}
	profiles := []*domain.UserProfile{
		{Username: "alice", TxCount: 2, TotalVolume: 20},
		{Username: "bob", TxCount: 3, TotalVolume: 30},
		{Username: "whale", TxCount: 500, TotalVolume: 90000},
	}
	keys := []*domain.UserKey{
		{OwnerUUID: "u-1", Username: "alice"},
		{OwnerUUID: "u-2", Username: "bob"},
		{OwnerUUID: "u-3", Username: "whale", Name: "Wanda"},
	}
	txs := []*domain.Transaction{
		{TxUUID: "t1", Username: "alice", Coin: "BTC"},
		{TxUUID: "t2", Username: "whale", Coin: "BTC"},
		{TxUUID: "t3", Username: "whale", Coin: "MLC"},
	}
	return partition, profiles, keys, txs
}

func TestCentroidSumPolicy_PicksHighVolumeCluster(t *testing.T) {
	partition, profiles, _, _ := makerFixture()

	label, err := CentroidSumPolicy{}.Select(partition, profiles)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if label != 1 {
		t.Errorf("Expected cluster 1 (whale), got %d", label)
	}
}

func TestCentroidSumPolicy_Deterministic(t *testing.T) {
	partition, profiles, _, _ := makerFixture()

	first, err := CentroidSumPolicy{}.Select(partition, profiles)
	if err != nil {
		t.Fatalf("First select failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		label, err := CentroidSumPolicy{}.Select(partition, profiles)
		if err != nil {
			t.Fatalf("Select %d failed: %v", i, err)
		}
		if label != first {
			t.Fatalf("Selection not deterministic: %d vs %d", label, first)
		}
	}
}

func TestCentroidSumPolicy_TieResolvesToLowestLabel(t *testing.T) {
	partition := &domain.ClusterPartition{K: 2, Labels: []int{0, 1}}
	profiles := []*domain.UserProfile{
		{Username: "a", TxCount: 10, TotalVolume: 100},
		{Username: "b", TxCount: 10, TotalVolume: 100},
	}

	label, err := CentroidSumPolicy{}.Select(partition, profiles)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if label != 0 {
		t.Errorf("Expected tie to resolve to label 0, got %d", label)
	}
}

func TestSelector_MaterializesSubset(t *testing.T) {
	partition, profiles, keys, txs := makerFixture()

	set, err := NewSelector(nil).Select(partition, profiles, keys, txs, domain.ClusterLabelUnassigned)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if set.ClusterLabel != 1 {
		t.Errorf("Expected cluster 1, got %d", set.ClusterLabel)
	}
	if len(set.Usernames) != 1 || set.Usernames[0] != "whale" {
		t.Errorf("Expected usernames [whale], got %v", set.Usernames)
	}
	if len(set.Members) != 1 || set.Members[0].OwnerUUID != "u-3" {
		t.Errorf("Expected member u-3, got %v", set.Members)
	}
	if len(set.Transactions) != 2 {
		t.Errorf("Expected 2 whale transactions, got %d", len(set.Transactions))
	}
}

func TestSelector_ExplicitLabelOverride(t *testing.T) {
	partition, profiles, keys, txs := makerFixture()

	set, err := NewSelector(nil).Select(partition, profiles, keys, txs, 0)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if set.ClusterLabel != 0 {
		t.Errorf("Expected explicit cluster 0, got %d", set.ClusterLabel)
	}
	if len(set.Usernames) != 2 {
		t.Errorf("Expected 2 members of cluster 0, got %v", set.Usernames)
	}
}

func TestSelector_ExplicitLabelOutOfRange(t *testing.T) {
	partition, profiles, keys, txs := makerFixture()

	_, err := NewSelector(nil).Select(partition, profiles, keys, txs, 7)
	if !errors.Is(err, ErrLabelOutOfRange) {
		t.Fatalf("Expected ErrLabelOutOfRange, got %v", err)
	}
}
