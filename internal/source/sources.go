// Package source provides transaction record sources: the paginated exchange
// API, pre-fetched JSON files and a live websocket feed. Every source hands
// the pipeline a fully materialized record sequence; the analytics core never
// sees partial batches.
package source

import "context"

// TransactionSource yields the raw record sequence for one analysis run.
type TransactionSource interface {
	// Fetch returns all raw transaction records, fully materialized,
	// blocking until the source is exhausted. Records are mapping-like
	// and may carry missing nested fields.
	Fetch(ctx context.Context) ([]map[string]any, error)
}
