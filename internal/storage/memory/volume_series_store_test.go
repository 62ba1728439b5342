package memory

import (
	"context"
	"errors"
	"testing"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/storage"
)

func testVolumeSeries() *domain.VolumeSeries {
	return &domain.VolumeSeries{
		Coin: "MLC",
		Points: []domain.VolumePoint{
			{Date: "2025-01-02", Supply: 10, Demand: 4},
			{Date: "2025-01-01", Supply: 5, Demand: 7},
		},
		Dominance: domain.DominanceBalanced,
	}
}

func TestVolumeSeriesStore_InsertAndGet(t *testing.T) {
	store := NewVolumeSeriesStore()
	ctx := context.Background()

	if err := store.Insert(ctx, "run-1", testVolumeSeries()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByCoin(ctx, "run-1", "MLC")
	if err != nil {
		t.Fatalf("GetByCoin failed: %v", err)
	}
	if got.Dominance != domain.DominanceBalanced {
		t.Errorf("Expected dominance preserved, got %s", got.Dominance)
	}
	if len(got.Points) != 2 || got.Points[0].Date != "2025-01-01" {
		t.Errorf("Expected date-ordered points, got %+v", got.Points)
	}
}

func TestVolumeSeriesStore_Duplicate(t *testing.T) {
	store := NewVolumeSeriesStore()
	ctx := context.Background()

	if err := store.Insert(ctx, "run-1", testVolumeSeries()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, "run-1", testVolumeSeries()); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	// Other run is a distinct key
	if err := store.Insert(ctx, "run-2", testVolumeSeries()); err != nil {
		t.Errorf("Expected insert under other run, got %v", err)
	}
}

func TestVolumeSeriesStore_NotFound(t *testing.T) {
	store := NewVolumeSeriesStore()
	_, err := store.GetByCoin(context.Background(), "run-1", "BTC")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestVolumeSeriesStore_CopyOnWrite(t *testing.T) {
	store := NewVolumeSeriesStore()
	ctx := context.Background()

	series := testVolumeSeries()
	if err := store.Insert(ctx, "run-1", series); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	series.Points[0].Supply = 999

	got, err := store.GetByCoin(ctx, "run-1", "MLC")
	if err != nil {
		t.Fatalf("GetByCoin failed: %v", err)
	}
	for _, p := range got.Points {
		if p.Supply == 999 {
			t.Error("Store data mutated through caller's slice")
		}
	}
}
