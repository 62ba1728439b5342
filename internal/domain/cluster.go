package domain

// ClusterQuality holds partition quality metrics, all computed over the same
// labeled partition.
type ClusterQuality struct {
	Inertia          float64 // within-cluster sum of squares, lower = tighter
	Silhouette       float64 // -1..1, higher = better separated
	CalinskiHarabasz float64 // higher = better
	DaviesBouldin    float64 // lower = better
}

// ClusterPartition is the result of one clustering run: an integer label in
// [0, K) per input row plus quality metrics. Labels are arbitrary identifiers
// with no inherent ordering.
type ClusterPartition struct {
	K         int
	Labels    []int
	Centroids [][]float64 // in standardized feature space
	Quality   ClusterQuality
}

// MarketMakerSet is the transaction subset attributed to the selected market
// maker cluster. Derived, read-only, consumed by the time-series analyzers.
// The selection is heuristic labeling, not ground truth.
type MarketMakerSet struct {
	ClusterLabel int
	Members      []UserKey // identity rows of the selected cluster, sorted by username
	Usernames    []string  // sorted
	Transactions []*Transaction
}
