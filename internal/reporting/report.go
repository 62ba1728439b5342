// Package reporting renders analysis run results as CSV and Markdown
// artifacts.
package reporting

import (
	"time"

	"p2p-maker-lab/internal/domain"
)

// Report is the summary of one analysis run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Coin        string
	K           int
	Seed        int64

	// Data summary
	RecordsFetched int
	RowsDropped    int
	UserCount      int

	// Clustering
	Quality         domain.ClusterQuality
	Centroids       [][]float64 // in original feature units
	SelectedCluster int
	ExplicitLabel   bool // selection was an operator override, not the heuristic

	// Market maker set
	MakerUsernames []string
	MakerTxCount   int

	// Time series
	Dominance       domain.Dominance
	SpreadDropped   int // maker transactions without a parseable price
	VolumeDayCount  int
	SpreadUserCount int
}
