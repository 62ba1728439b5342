// Package cluster partitions the standardized feature matrix with k-means
// and scores partition quality.
package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"p2p-maker-lab/internal/domain"
)

// InvalidParameterError reports a structural problem with clustering input.
// Raised before any iteration begins; fatal for the run.
type InvalidParameterError struct {
	Detail string
}

func (e *InvalidParameterError) Error() string {
	return "invalid parameter: " + e.Detail
}

// Default clustering parameters.
const (
	DefaultMaxIter  = 300
	DefaultTol      = 1e-4
	DefaultRestarts = 10
	DefaultSeed     = 42
)

// Config controls one clustering run. Zero values fall back to defaults,
// except K which is required.
type Config struct {
	K        int
	MaxIter  int
	Tol      float64 // stop when max centroid movement falls below this
	Restarts int     // independent seedings; lowest inertia wins
	Seed     int64
}

func (c Config) withDefaults() Config {
	if c.MaxIter == 0 {
		c.MaxIter = DefaultMaxIter
	}
	if c.Tol == 0 {
		c.Tol = DefaultTol
	}
	if c.Restarts == 0 {
		c.Restarts = DefaultRestarts
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	return c
}

// Fit runs seeded k-means++ with restarts and returns the labeled partition
// with quality metrics. The same input and config always produce the same
// partition.
func Fit(matrix [][]float64, cfg Config) (*domain.ClusterPartition, error) {
	cfg = cfg.withDefaults()

	if err := validate(matrix, cfg.K); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	var bestLabels []int
	var bestCentroids [][]float64
	bestInertia := math.Inf(1)

	for restart := 0; restart < cfg.Restarts; restart++ {
		centroids := seedPlusPlus(matrix, cfg.K, rng)
		labels, inertia := lloyd(matrix, centroids, cfg.MaxIter, cfg.Tol)
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
			bestCentroids = centroids
		}
	}

	partition := &domain.ClusterPartition{
		K:         cfg.K,
		Labels:    bestLabels,
		Centroids: bestCentroids,
		Quality:   ComputeQuality(matrix, bestLabels, cfg.K),
	}
	return partition, nil
}

// validate enforces the clustering preconditions: a non-empty finite matrix
// and 2 <= k <= number of distinct points.
func validate(matrix [][]float64, k int) error {
	if len(matrix) == 0 {
		return &InvalidParameterError{Detail: "feature matrix is empty"}
	}
	if k < 2 {
		return &InvalidParameterError{Detail: fmt.Sprintf("k=%d, need at least 2 clusters", k)}
	}
	if len(matrix) < k {
		return &InvalidParameterError{
			Detail: fmt.Sprintf("k=%d exceeds row count %d", k, len(matrix)),
		}
	}

	for i, row := range matrix {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &InvalidParameterError{
					Detail: fmt.Sprintf("non-finite value at row %d column %d", i, j),
				}
			}
		}
	}

	if distinct := countDistinctRows(matrix); distinct < k {
		return &InvalidParameterError{
			Detail: fmt.Sprintf("k=%d exceeds %d distinct points", k, distinct),
		}
	}

	return nil
}

func countDistinctRows(matrix [][]float64) int {
	seen := make(map[string]struct{}, len(matrix))
	for _, row := range matrix {
		key := fmt.Sprintf("%v", row)
		seen[key] = struct{}{}
	}
	return len(seen)
}

// seedPlusPlus places k initial centroids with the k-means++ heuristic:
// the first uniformly at random, each next one sampled proportional to the
// squared distance to its nearest already-chosen centroid.
func seedPlusPlus(matrix [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(matrix)
	centroids := make([][]float64, 0, k)

	first := matrix[rng.Intn(n)]
	centroids = append(centroids, copyRow(first))

	dist := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, row := range matrix {
			d := sqDistToNearest(row, centroids)
			dist[i] = d
			total += d
		}

		if total == 0 {
			// All remaining points coincide with a centroid; validate()
			// guarantees enough distinct points, so keep sampling uniformly.
			centroids = append(centroids, copyRow(matrix[rng.Intn(n)]))
			continue
		}

		target := rng.Float64() * total
		var cum float64
		pick := n - 1
		for i, d := range dist {
			cum += d
			if cum >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, copyRow(matrix[pick]))
	}

	return centroids
}

// lloyd iterates assignment and centroid recomputation in place until the
// maximum centroid movement drops below tol or maxIter is reached.
// Returns final labels and inertia.
func lloyd(matrix [][]float64, centroids [][]float64, maxIter int, tol float64) ([]int, float64) {
	n := len(matrix)
	k := len(centroids)
	cols := len(matrix[0])
	labels := make([]int, n)

	for iter := 0; iter < maxIter; iter++ {
		// Assignment step
		for i, row := range matrix {
			labels[i] = nearestCentroid(row, centroids)
		}

		// Update step
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, cols)
		}
		for i, row := range matrix {
			c := labels[i]
			counts[c]++
			for j, v := range row {
				sums[c][j] += v
			}
		}

		movement := 0.0
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Empty cluster: relocate to the point farthest from its
				// assigned centroid.
				far := farthestPoint(matrix, labels, centroids)
				copy(centroids[c], matrix[far])
				labels[far] = c
				movement = math.Inf(1)
				continue
			}
			for j := 0; j < cols; j++ {
				next := sums[c][j] / float64(counts[c])
				if d := math.Abs(next - centroids[c][j]); d > movement {
					movement = d
				}
				centroids[c][j] = next
			}
		}

		if movement < tol {
			break
		}
	}

	// Final assignment against converged centroids
	inertia := 0.0
	for i, row := range matrix {
		labels[i] = nearestCentroid(row, centroids)
		inertia += sqDist(row, centroids[labels[i]])
	}

	return labels, inertia
}

func nearestCentroid(row []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(row, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func farthestPoint(matrix [][]float64, labels []int, centroids [][]float64) int {
	far := 0
	farDist := -1.0
	for i, row := range matrix {
		if d := sqDist(row, centroids[labels[i]]); d > farDist {
			farDist = d
			far = i
		}
	}
	return far
}

func sqDistToNearest(row []float64, centroids [][]float64) float64 {
	best := math.Inf(1)
	for _, c := range centroids {
		if d := sqDist(row, c); d < best {
			best = d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for j := range a {
		diff := a[j] - b[j]
		sum += diff * diff
	}
	return sum
}

func copyRow(row []float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)
	return out
}
