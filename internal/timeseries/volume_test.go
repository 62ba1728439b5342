package timeseries

import (
	"testing"

	"p2p-maker-lab/internal/domain"
)

func TestAnalyzeVolume_SupplyExceedsDemand(t *testing.T) {
	txs := []*domain.Transaction{
		{Coin: "X", Type: "sell", Amount: 10, CreatedAtMs: ms("2024-01-01", 9)},
		{Coin: "X", Type: "buy", Amount: 4, CreatedAtMs: ms("2024-01-01", 12)},
	}

	series := AnalyzeVolume(txs, "X")

	if len(series.Points) != 1 {
		t.Fatalf("Expected 1 day, got %d", len(series.Points))
	}
	p := series.Points[0]
	if p.Supply != 10 || p.Demand != 4 {
		t.Errorf("Expected supply=10 demand=4, got (%v, %v)", p.Supply, p.Demand)
	}
	if series.Dominance != domain.DominanceSupply {
		t.Errorf("Expected supply dominance, got %s", series.Dominance)
	}
}

func TestAnalyzeVolume_OuterJoinFillsZero(t *testing.T) {
	txs := []*domain.Transaction{
		{Coin: "X", Type: "sell", Amount: 10, CreatedAtMs: ms("2024-01-01", 9)},
		{Coin: "X", Type: "buy", Amount: 6, CreatedAtMs: ms("2024-01-02", 9)},
	}

	series := AnalyzeVolume(txs, "X")

	if len(series.Points) != 2 {
		t.Fatalf("Expected 2 days, got %d", len(series.Points))
	}
	if series.Points[0].Demand != 0 {
		t.Errorf("Day 1 demand should fill to 0, got %v", series.Points[0].Demand)
	}
	if series.Points[1].Supply != 0 {
		t.Errorf("Day 2 supply should fill to 0, got %v", series.Points[1].Supply)
	}
	if series.Dominance != domain.DominanceBalanced {
		t.Errorf("One day each way should balance, got %s", series.Dominance)
	}
}

func TestAnalyzeVolume_DemandDominance(t *testing.T) {
	txs := []*domain.Transaction{
		{Coin: "X", Type: "buy", Amount: 10, CreatedAtMs: ms("2024-01-01", 9)},
		{Coin: "X", Type: "buy", Amount: 10, CreatedAtMs: ms("2024-01-02", 9)},
		{Coin: "X", Type: "sell", Amount: 20, CreatedAtMs: ms("2024-01-03", 9)},
	}

	series := AnalyzeVolume(txs, "X")

	if series.Dominance != domain.DominanceDemand {
		t.Errorf("Expected demand dominance (2 days vs 1), got %s", series.Dominance)
	}
}

func TestAnalyzeVolume_CoinAbsent(t *testing.T) {
	txs := []*domain.Transaction{
		{Coin: "Y", Type: "sell", Amount: 10, CreatedAtMs: ms("2024-01-01", 9)},
	}

	series := AnalyzeVolume(txs, "X")

	if len(series.Points) != 0 {
		t.Fatalf("Expected explicit empty result, got %d points", len(series.Points))
	}
	if series.Dominance != domain.DominanceBalanced {
		t.Errorf("Empty series should report balanced, got %s", series.Dominance)
	}
}

func TestAnalyzeVolume_OtherTypesIgnored(t *testing.T) {
	txs := []*domain.Transaction{
		{Coin: "X", Type: "sell", Amount: 10, CreatedAtMs: ms("2024-01-01", 9)},
		{Coin: "X", Type: "transfer", Amount: 99, CreatedAtMs: ms("2024-01-01", 9)},
	}

	series := AnalyzeVolume(txs, "X")

	if series.Points[0].Supply != 10 || series.Points[0].Demand != 0 {
		t.Errorf("Unexpected aggregation: %+v", series.Points[0])
	}
}
