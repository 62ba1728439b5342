package normalization

import (
	"testing"
)

func TestFlatten_FullRecord(t *testing.T) {
	records := []map[string]any{
		{
			"uuid":       "tx-1",
			"type":       "sell",
			"coin":       "BANK_MLC",
			"amount":     "10.50",
			"receive":    "10.00",
			"message":    "",
			"status":     "paid",
			"created_at": "2024-01-01T10:00:00Z",
			"updated_at": "2024-01-01T10:05:00Z",
			"coin_data": map[string]any{
				"name":  "Banco MLC",
				"price": "$1.05",
			},
			"owner": map[string]any{
				"uuid":           "u-1",
				"username":       "alice",
				"name":           "Alice",
				"lastname":       "Doe",
				"kyc":            float64(1),
				"average_rating": 4.5,
			},
		},
	}

	rows := Flatten(records)

	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}

	r := rows[0]
	if r.TxUUID != "tx-1" || r.Type != "sell" || r.Coin != "BANK_MLC" {
		t.Errorf("Top-level fields: got (%q, %q, %q)", r.TxUUID, r.Type, r.Coin)
	}
	if r.Amount == nil || *r.Amount != "10.50" {
		t.Errorf("Expected amount 10.50, got %v", r.Amount)
	}
	if r.CoinPrice == nil || *r.CoinPrice != "$1.05" {
		t.Errorf("Expected coin price $1.05, got %v", r.CoinPrice)
	}
	if r.Username == nil || *r.Username != "alice" {
		t.Errorf("Expected username alice, got %v", r.Username)
	}
	if r.KYC == nil || *r.KYC != "1" {
		t.Errorf("Expected kyc 1, got %v", r.KYC)
	}
	if r.AvgRating == nil || *r.AvgRating != "4.5" {
		t.Errorf("Expected rating 4.5, got %v", r.AvgRating)
	}
}

func TestFlatten_MissingSubObjects(t *testing.T) {
	// Absent coin_data and owner must yield nil markers, not a dropped row.
	records := []map[string]any{
		{
			"uuid":   "tx-2",
			"type":   "buy",
			"coin":   "BTC",
			"amount": "1",
		},
	}

	rows := Flatten(records)

	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}

	r := rows[0]
	if r.CoinName != nil || r.CoinPrice != nil {
		t.Errorf("Expected nil coin_data fields, got (%v, %v)", r.CoinName, r.CoinPrice)
	}
	if r.Username != nil || r.OwnerUUID != nil || r.AvgRating != nil {
		t.Errorf("Expected nil owner fields, got (%v, %v, %v)", r.Username, r.OwnerUUID, r.AvgRating)
	}
	if r.Status != nil {
		t.Errorf("Expected nil status, got %v", r.Status)
	}
}

func TestFlatten_NullAndNonMapSubObject(t *testing.T) {
	records := []map[string]any{
		{
			"uuid":      "tx-3",
			"type":      "sell",
			"coin":      "BTC",
			"amount":    nil,
			"coin_data": nil,
			"owner":     "corrupted",
		},
	}

	rows := Flatten(records)

	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].Amount != nil {
		t.Errorf("Expected nil amount for null value, got %v", rows[0].Amount)
	}
	if rows[0].Username != nil {
		t.Errorf("Expected nil username for non-map owner, got %v", rows[0].Username)
	}
}

func TestFlatten_Empty(t *testing.T) {
	if rows := Flatten(nil); len(rows) != 0 {
		t.Fatalf("Expected empty output, got %d rows", len(rows))
	}
}
