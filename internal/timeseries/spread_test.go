package timeseries

import (
	"testing"
	"time"

	"p2p-maker-lab/internal/domain"
)

func ms(day string, hour int) int64 {
	t, _ := time.Parse("2006-01-02", day)
	return t.Add(time.Duration(hour) * time.Hour).UnixMilli()
}

func TestAnalyzeSpread_DailyMeans(t *testing.T) {
	set := &domain.MarketMakerSet{
		Transactions: []*domain.Transaction{
			{Username: "alice", Coin: "MLC", Type: "sell", CoinPrice: "1.10", CreatedAtMs: ms("2024-01-01", 9)},
			{Username: "alice", Coin: "MLC", Type: "sell", CoinPrice: "1.30", CreatedAtMs: ms("2024-01-01", 15)},
			{Username: "alice", Coin: "MLC", Type: "buy", CoinPrice: "1.00", CreatedAtMs: ms("2024-01-01", 12)},
		},
	}

	result := AnalyzeSpread(set, "MLC")

	if result.TxCount != 3 || result.Dropped != 0 {
		t.Fatalf("Expected 3 transactions, 0 dropped; got (%d, %d)", result.TxCount, result.Dropped)
	}
	if len(result.Series) != 1 {
		t.Fatalf("Expected 1 user series, got %d", len(result.Series))
	}

	p := result.Series[0].Points[0]
	if p.SellMean != 1.2 {
		t.Errorf("Expected sell mean 1.2, got %v", p.SellMean)
	}
	if p.BuyMean != 1.0 {
		t.Errorf("Expected buy mean 1.0, got %v", p.BuyMean)
	}
	if diff := p.Spread - 0.2; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("Expected spread 0.2, got %v", p.Spread)
	}
	if p.SellFilled || p.BuyFilled {
		t.Errorf("Expected no fill flags, got (%v, %v)", p.SellFilled, p.BuyFilled)
	}
}

func TestAnalyzeSpread_SellOnlyUserFlagsBuySide(t *testing.T) {
	// A user transacting one side gets the other operand pinned to the fill
	// value, and the flag makes that distinguishable from a true zero spread.
	set := &domain.MarketMakerSet{
		Transactions: []*domain.Transaction{
			{Username: "alice", Coin: "MLC", Type: "sell", CoinPrice: "2.00", CreatedAtMs: ms("2024-01-01", 9)},
		},
	}

	result := AnalyzeSpread(set, "MLC")

	if len(result.Series) != 1 {
		t.Fatalf("Expected 1 series, got %d", len(result.Series))
	}
	p := result.Series[0].Points[0]
	if !p.BuyFilled {
		t.Error("Expected BuyFilled flag for sell-only user")
	}
	if p.SellFilled {
		t.Error("SellFilled should not be set")
	}
	if p.BuyMean != 0 || p.Spread != 2.0 {
		t.Errorf("Expected fill value 0 and spread 2.0, got (%v, %v)", p.BuyMean, p.Spread)
	}
}

func TestAnalyzeSpread_ReindexFillsGapDays(t *testing.T) {
	set := &domain.MarketMakerSet{
		Transactions: []*domain.Transaction{
			{Username: "alice", Coin: "MLC", Type: "sell", CoinPrice: "1.00", CreatedAtMs: ms("2024-01-01", 9)},
			{Username: "alice", Coin: "MLC", Type: "sell", CoinPrice: "1.50", CreatedAtMs: ms("2024-01-03", 9)},
		},
	}

	result := AnalyzeSpread(set, "MLC")

	points := result.Series[0].Points
	if len(points) != 3 {
		t.Fatalf("Expected 3 days (gap filled), got %d", len(points))
	}
	if points[1].Date != "2024-01-02" {
		t.Errorf("Expected gap day 2024-01-02, got %s", points[1].Date)
	}
	if !points[1].SellFilled || !points[1].BuyFilled {
		t.Errorf("Gap day should carry both fill flags, got (%v, %v)",
			points[1].SellFilled, points[1].BuyFilled)
	}
}

func TestAnalyzeSpread_SanitizesAndDropsBadPrices(t *testing.T) {
	set := &domain.MarketMakerSet{
		Transactions: []*domain.Transaction{
			{Username: "alice", Coin: "MLC", Type: "sell", CoinPrice: "$1,250.75", CreatedAtMs: ms("2024-01-01", 9)},
			{Username: "alice", Coin: "MLC", Type: "sell", CoinPrice: "n/a", CreatedAtMs: ms("2024-01-01", 10)},
		},
	}

	result := AnalyzeSpread(set, "MLC")

	if result.Dropped != 1 {
		t.Errorf("Expected 1 dropped price row, got %d", result.Dropped)
	}
	if got := result.Series[0].Points[0].SellMean; got != 1250.75 {
		t.Errorf("Expected sanitized price 1250.75, got %v", got)
	}
}

func TestAnalyzeSpread_NoDataForCoin(t *testing.T) {
	set := &domain.MarketMakerSet{
		Transactions: []*domain.Transaction{
			{Username: "alice", Coin: "BTC", Type: "sell", CoinPrice: "1", CreatedAtMs: ms("2024-01-01", 9)},
		},
	}

	result := AnalyzeSpread(set, "MLC")

	if result.TxCount != 0 || len(result.Series) != 0 {
		t.Errorf("Expected explicit empty result, got %d txs, %d series",
			result.TxCount, len(result.Series))
	}
}

func TestAnalyzeSpread_UsersIndependent(t *testing.T) {
	set := &domain.MarketMakerSet{
		Transactions: []*domain.Transaction{
			{Username: "bob", Coin: "MLC", Type: "sell", CoinPrice: "3.00", CreatedAtMs: ms("2024-01-01", 9)},
			{Username: "alice", Coin: "MLC", Type: "sell", CoinPrice: "1.00", CreatedAtMs: ms("2024-01-01", 9)},
		},
	}

	result := AnalyzeSpread(set, "MLC")

	if len(result.Series) != 2 {
		t.Fatalf("Expected 2 user series, got %d", len(result.Series))
	}
	// Sorted by username
	if result.Series[0].Username != "alice" || result.Series[1].Username != "bob" {
		t.Errorf("Expected series sorted by username, got %s, %s",
			result.Series[0].Username, result.Series[1].Username)
	}
	if result.Series[0].Points[0].SellMean != 1.0 || result.Series[1].Points[0].SellMean != 3.0 {
		t.Errorf("User means mixed: %v vs %v",
			result.Series[0].Points[0].SellMean, result.Series[1].Points[0].SellMean)
	}
}

func TestSanitizePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"1.05", 1.05, true},
		{"$1.05", 1.05, true},
		{"1,234.50 USD", 1234.50, true},
		{"-3.2", -3.2, true},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got, ok := sanitizePrice(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("sanitizePrice(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
