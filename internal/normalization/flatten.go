// Package normalization flattens raw nested transaction records into the
// uniform flat-record table consumed by the feature aggregator.
package normalization

import (
	"strconv"

	"p2p-maker-lab/internal/domain"
)

// Flatten transforms raw records into flat rows with a fixed column set.
// Records are mapping-like and may miss the coin_data or owner sub-objects;
// fields derived from an absent sub-object come back nil. Every input record
// yields exactly one output row. Pure transform, input is not mutated.
func Flatten(records []map[string]any) []*domain.FlatTransaction {
	rows := make([]*domain.FlatTransaction, 0, len(records))

	for _, rec := range records {
		row := &domain.FlatTransaction{
			TxUUID:    scalarString(rec["uuid"]),
			Type:      scalarString(rec["type"]),
			Coin:      scalarString(rec["coin"]),
			Amount:    field(rec, "amount"),
			Receive:   field(rec, "receive"),
			Message:   field(rec, "message"),
			Status:    field(rec, "status"),
			CreatedAt: field(rec, "created_at"),
			UpdatedAt: field(rec, "updated_at"),
		}

		if coin := subObject(rec, "coin_data"); coin != nil {
			row.CoinName = field(coin, "name")
			row.CoinPrice = field(coin, "price")
		}

		if owner := subObject(rec, "owner"); owner != nil {
			row.OwnerUUID = field(owner, "uuid")
			row.Username = field(owner, "username")
			row.Name = field(owner, "name")
			row.Surname = field(owner, "lastname")
			row.KYC = field(owner, "kyc")
			row.AvgRating = field(owner, "average_rating")
		}

		rows = append(rows, row)
	}

	return rows
}

// subObject returns the nested map under key, or nil when absent or not a map.
func subObject(rec map[string]any, key string) map[string]any {
	v, ok := rec[key]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// field returns the scalar under key rendered as a string, or nil when the
// key is absent or null.
func field(rec map[string]any, key string) *string {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil
	}
	s := scalarString(v)
	return &s
}

// scalarString renders a decoded JSON scalar as text. Numbers keep their
// shortest representation so later numeric coercion round-trips.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}
