package cluster

import (
	"math"

	"p2p-maker-lab/internal/domain"
)

// ComputeQuality scores a labeled partition. All four metrics are computed
// over the same (matrix, labels) pair; no randomness, so recomputation on an
// identical partition is bit-identical.
func ComputeQuality(matrix [][]float64, labels []int, k int) domain.ClusterQuality {
	centroids, counts := centroidsOf(matrix, labels, k)
	return domain.ClusterQuality{
		Inertia:          inertiaOf(matrix, labels, centroids),
		Silhouette:       Silhouette(matrix, labels, k),
		CalinskiHarabasz: CalinskiHarabasz(matrix, labels, centroids, counts),
		DaviesBouldin:    DaviesBouldin(matrix, labels, centroids, counts),
	}
}

// centroidsOf recomputes cluster means from the labels.
func centroidsOf(matrix [][]float64, labels []int, k int) ([][]float64, []int) {
	cols := len(matrix[0])
	centroids := make([][]float64, k)
	counts := make([]int, k)
	for c := range centroids {
		centroids[c] = make([]float64, cols)
	}
	for i, row := range matrix {
		c := labels[i]
		counts[c]++
		for j, v := range row {
			centroids[c][j] += v
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for j := range centroids[c] {
			centroids[c][j] /= float64(counts[c])
		}
	}
	return centroids, counts
}

func inertiaOf(matrix [][]float64, labels []int, centroids [][]float64) float64 {
	var sum float64
	for i, row := range matrix {
		sum += sqDist(row, centroids[labels[i]])
	}
	return sum
}

// Silhouette returns the mean silhouette coefficient over all samples:
// (b - a) / max(a, b), where a is the mean intra-cluster distance and b the
// mean distance to the nearest other cluster. Samples in singleton clusters
// score 0 by convention.
func Silhouette(matrix [][]float64, labels []int, k int) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}

	clusterSize := make([]int, k)
	for _, c := range labels {
		clusterSize[c]++
	}

	var total float64
	for i := range matrix {
		own := labels[i]
		if clusterSize[own] <= 1 {
			continue // silhouette 0 for singletons
		}

		// Mean distance from sample i to every cluster
		distSum := make([]float64, k)
		for j := range matrix {
			if i == j {
				continue
			}
			distSum[labels[j]] += math.Sqrt(sqDist(matrix[i], matrix[j]))
		}

		a := distSum[own] / float64(clusterSize[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || clusterSize[c] == 0 {
				continue
			}
			if mean := distSum[c] / float64(clusterSize[c]); mean < b {
				b = mean
			}
		}

		if max := math.Max(a, b); max > 0 {
			total += (b - a) / max
		}
	}

	return total / float64(n)
}

// CalinskiHarabasz returns the variance ratio criterion:
// (between-group dispersion / (k-1)) / (within-group dispersion / (n-k)).
func CalinskiHarabasz(matrix [][]float64, labels []int, centroids [][]float64, counts []int) float64 {
	n := len(matrix)
	k := len(centroids)
	if n <= k || k < 2 {
		return 0
	}

	cols := len(matrix[0])
	overall := make([]float64, cols)
	for _, row := range matrix {
		for j, v := range row {
			overall[j] += v
		}
	}
	for j := range overall {
		overall[j] /= float64(n)
	}

	var between float64
	for c, centroid := range centroids {
		if counts[c] == 0 {
			continue
		}
		between += float64(counts[c]) * sqDist(centroid, overall)
	}

	within := inertiaOf(matrix, labels, centroids)
	if within == 0 {
		return 0
	}

	return (between / float64(k-1)) / (within / float64(n-k))
}

// DaviesBouldin returns the mean over clusters of the worst-case ratio
// (s_i + s_j) / d(c_i, c_j), where s is the mean distance of cluster members
// to their centroid. Lower is better.
func DaviesBouldin(matrix [][]float64, labels []int, centroids [][]float64, counts []int) float64 {
	k := len(centroids)
	if k < 2 {
		return 0
	}

	// Mean member-to-centroid distance per cluster
	scatter := make([]float64, k)
	for i, row := range matrix {
		c := labels[i]
		scatter[c] += math.Sqrt(sqDist(row, centroids[c]))
	}
	for c := range scatter {
		if counts[c] > 0 {
			scatter[c] /= float64(counts[c])
		}
	}

	var total float64
	var active int
	for i := 0; i < k; i++ {
		if counts[i] == 0 {
			continue
		}
		worst := 0.0
		for j := 0; j < k; j++ {
			if i == j || counts[j] == 0 {
				continue
			}
			d := math.Sqrt(sqDist(centroids[i], centroids[j]))
			if d == 0 {
				continue
			}
			if ratio := (scatter[i] + scatter[j]) / d; ratio > worst {
				worst = ratio
			}
		}
		total += worst
		active++
	}

	if active == 0 {
		return 0
	}
	return total / float64(active)
}
