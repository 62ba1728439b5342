// Package features builds per-user profiles and the feature matrix from the
// flat transaction table.
package features

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"p2p-maker-lab/internal/domain"
)

// DataIntegrityError reports conflicting identity records that make
// aggregation unsafe. Fatal: the run cannot proceed.
type DataIntegrityError struct {
	Detail string
}

func (e *DataIntegrityError) Error() string {
	return "data integrity: " + e.Detail
}

// Result is the output of one aggregation pass.
type Result struct {
	// Transactions are the coerced rows that survived numeric coercion,
	// in input order.
	Transactions []*domain.Transaction

	// Profiles holds one row per unique username, sorted by username.
	Profiles []*domain.UserProfile

	// Keys is the per-username identity table, sorted by username.
	// First occurrence in record order wins on duplicate usernames.
	Keys []*domain.UserKey

	// Dropped counts rows discarded because amount, receive, rating or
	// timestamp could not be coerced, or the owner username was missing.
	Dropped int
}

// FeatureMatrix extracts the numeric feature columns of all profiles, one
// row per profile in Profiles order.
func (r *Result) FeatureMatrix() [][]float64 {
	matrix := make([][]float64, len(r.Profiles))
	for i, p := range r.Profiles {
		matrix[i] = p.FeatureRow()
	}
	return matrix
}

// Aggregate coerces the flat table and groups it by username.
// Rows failing coercion are dropped and counted, never silently lost.
// Returns *DataIntegrityError if the deduplicated key table still carries a
// duplicate username. Aggregating the same input twice yields identical
// results.
func Aggregate(rows []*domain.FlatTransaction) (*Result, error) {
	result := &Result{}

	for _, row := range rows {
		tx, ok := coerce(row)
		if !ok {
			result.Dropped++
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}

	result.Keys = buildKeyTable(result.Transactions)
	if err := verifyKeyTable(result.Keys); err != nil {
		return nil, err
	}

	result.Profiles = buildProfiles(result.Transactions)
	return result, nil
}

// coerce converts a flat row into a typed transaction. Returns false when a
// required numeric or timestamp field cannot be parsed or the username is
// missing.
func coerce(row *domain.FlatTransaction) (*domain.Transaction, bool) {
	if row.Username == nil || *row.Username == "" {
		return nil, false
	}

	amount, ok := parseFloat(row.Amount)
	if !ok {
		return nil, false
	}
	receive, ok := parseFloat(row.Receive)
	if !ok {
		return nil, false
	}
	rating, ok := parseFloat(row.AvgRating)
	if !ok {
		return nil, false
	}
	createdAt, ok := parseTimestamp(row.CreatedAt)
	if !ok {
		return nil, false
	}

	// updated_at is informational; a missing or bad value does not drop the row
	updatedAt, _ := parseTimestamp(row.UpdatedAt)

	tx := &domain.Transaction{
		TxUUID:      row.TxUUID,
		Type:        row.Type,
		Coin:        row.Coin,
		Amount:      amount,
		Receive:     receive,
		Status:      deref(row.Status),
		CreatedAtMs: createdAt,
		UpdatedAtMs: updatedAt,
		CoinName:    deref(row.CoinName),
		CoinPrice:   deref(row.CoinPrice),
		OwnerUUID:   deref(row.OwnerUUID),
		Username:    *row.Username,
		Name:        deref(row.Name),
		Surname:     deref(row.Surname),
		AvgRating:   rating,
	}

	// kyc is a 0/1 flag; unparseable values default to 0
	if row.KYC != nil {
		if kyc, err := strconv.Atoi(strings.TrimSpace(*row.KYC)); err == nil {
			tx.KYC = kyc
		}
	}

	return tx, true
}

// buildKeyTable collects one identity row per unique username.
// First occurrence wins: later rows with the same username are ignored even
// when their uuid or name fields differ.
func buildKeyTable(txs []*domain.Transaction) []*domain.UserKey {
	seen := make(map[string]struct{}, len(txs))
	var keys []*domain.UserKey

	for _, tx := range txs {
		if _, exists := seen[tx.Username]; exists {
			continue
		}
		seen[tx.Username] = struct{}{}
		keys = append(keys, &domain.UserKey{
			OwnerUUID: tx.OwnerUUID,
			Username:  tx.Username,
			Name:      tx.Name,
			Surname:   tx.Surname,
		})
	}

	sortKeys(keys)
	return keys
}

// verifyKeyTable checks the post-dedup invariant: username is unique.
// A violation means conflicting identity records slipped through and
// aggregation cannot proceed safely.
func verifyKeyTable(keys []*domain.UserKey) error {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, exists := seen[k.Username]; exists {
			return &DataIntegrityError{
				Detail: fmt.Sprintf("duplicate username %q in key table after deduplication", k.Username),
			}
		}
		seen[k.Username] = struct{}{}
	}
	return nil
}

// buildProfiles aggregates transactions per username:
// count, SUM(amount), COUNT(DISTINCT coin), MEAN(average_rating).
func buildProfiles(txs []*domain.Transaction) []*domain.UserProfile {
	type acc struct {
		count      int
		volume     float64
		coins      map[string]struct{}
		ratingSum  float64
		ratingSeen int
	}

	byUser := make(map[string]*acc)
	var order []string

	for _, tx := range txs {
		a, exists := byUser[tx.Username]
		if !exists {
			a = &acc{coins: make(map[string]struct{})}
			byUser[tx.Username] = a
			order = append(order, tx.Username)
		}
		a.count++
		a.volume += tx.Amount
		a.coins[tx.Coin] = struct{}{}
		a.ratingSum += tx.AvgRating
		a.ratingSeen++
	}

	profiles := make([]*domain.UserProfile, 0, len(order))
	for _, username := range order {
		a := byUser[username]
		profiles = append(profiles, &domain.UserProfile{
			Username:     username,
			TxCount:      a.count,
			TotalVolume:  a.volume,
			CoinsTraded:  len(a.coins),
			AvgRating:    a.ratingSum / float64(a.ratingSeen),
			ClusterLabel: domain.ClusterLabelUnassigned,
		})
	}

	sortProfiles(profiles)
	return profiles
}

// timestampLayouts covers the formats the exchange has been observed to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s *string) (int64, bool) {
	if s == nil {
		return 0, false
	}
	v := strings.TrimSpace(*s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().UnixMilli(), true
		}
	}
	return 0, false
}

func parseFloat(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sortKeys(keys []*domain.UserKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Username < keys[j].Username
	})
}

func sortProfiles(profiles []*domain.UserProfile) {
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Username < profiles[j].Username
	})
}
