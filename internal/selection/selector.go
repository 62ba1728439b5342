// Package selection maps a cluster partition to the market maker cluster and
// materializes the matching transaction subset. The default heuristic is
// best-effort labeling, not ground truth.
package selection

import (
	"errors"
	"fmt"
	"sort"

	"p2p-maker-lab/internal/domain"
)

// ErrLabelOutOfRange is returned when an explicit cluster label does not
// exist in the partition.
var ErrLabelOutOfRange = errors.New("explicit cluster label out of range")

// Policy chooses the market maker cluster label from a labeled partition.
// Implementations must be deterministic for a fixed partition.
type Policy interface {
	Select(partition *domain.ClusterPartition, profiles []*domain.UserProfile) (int, error)
}

// CentroidSumPolicy is the default heuristic: for each cluster compute the
// mean transaction count and mean total volume of its members, in original
// units, and pick the cluster maximizing their sum. Market makers trade
// disproportionately often and in disproportionate volume, so the largest
// centroid sum is the best candidate. Ties resolve to the lowest label.
type CentroidSumPolicy struct{}

// Select implements Policy.
func (CentroidSumPolicy) Select(partition *domain.ClusterPartition, profiles []*domain.UserProfile) (int, error) {
	if len(partition.Labels) != len(profiles) {
		return 0, fmt.Errorf("partition has %d labels for %d profiles",
			len(partition.Labels), len(profiles))
	}

	txSum := make([]float64, partition.K)
	volumeSum := make([]float64, partition.K)
	counts := make([]int, partition.K)

	for i, p := range profiles {
		c := partition.Labels[i]
		txSum[c] += float64(p.TxCount)
		volumeSum[c] += p.TotalVolume
		counts[c]++
	}

	best := -1
	bestScore := 0.0
	for c := 0; c < partition.K; c++ {
		if counts[c] == 0 {
			continue
		}
		score := txSum[c]/float64(counts[c]) + volumeSum[c]/float64(counts[c])
		// Strict > keeps the lowest label on ties
		if best == -1 || score > bestScore {
			best = c
			bestScore = score
		}
	}

	if best == -1 {
		return 0, errors.New("no non-empty cluster to select")
	}
	return best, nil
}

// Selector materializes the market maker set for a chosen cluster.
type Selector struct {
	policy Policy
}

// NewSelector creates a selector. A nil policy falls back to
// CentroidSumPolicy.
func NewSelector(policy Policy) *Selector {
	if policy == nil {
		policy = CentroidSumPolicy{}
	}
	return &Selector{policy: policy}
}

// Select picks the market maker cluster and returns its usernames, identity
// rows and underlying transactions. An explicit label other than
// domain.ClusterLabelUnassigned bypasses the policy; it must exist in the
// partition. Profiles and partition labels are parallel by index.
func (s *Selector) Select(
	partition *domain.ClusterPartition,
	profiles []*domain.UserProfile,
	keys []*domain.UserKey,
	txs []*domain.Transaction,
	explicitLabel int,
) (*domain.MarketMakerSet, error) {
	label := explicitLabel
	if label == domain.ClusterLabelUnassigned {
		chosen, err := s.policy.Select(partition, profiles)
		if err != nil {
			return nil, fmt.Errorf("selection policy: %w", err)
		}
		label = chosen
	} else if label < 0 || label >= partition.K {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrLabelOutOfRange, label, partition.K)
	}

	members := make(map[string]struct{})
	for i, p := range profiles {
		if partition.Labels[i] == label {
			members[p.Username] = struct{}{}
		}
	}

	set := &domain.MarketMakerSet{ClusterLabel: label}

	for _, k := range keys {
		if _, ok := members[k.Username]; ok {
			set.Members = append(set.Members, *k)
			set.Usernames = append(set.Usernames, k.Username)
		}
	}
	sort.Strings(set.Usernames)
	sort.Slice(set.Members, func(i, j int) bool {
		return set.Members[i].Username < set.Members[j].Username
	})

	for _, tx := range txs {
		if _, ok := members[tx.Username]; ok {
			set.Transactions = append(set.Transactions, tx)
		}
	}

	return set, nil
}
