// Package idhash computes deterministic identifiers for analysis runs.
package idhash

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/mr-tron/base58"
)

// ComputeRunID derives a compact, deterministic run identifier from the
// transaction uuids and the clustering parameters. The same input set and
// parameters always yield the same id, so persisted artifacts from repeated
// runs collide instead of multiplying. Transaction order does not matter.
func ComputeRunID(txUUIDs []string, k int, seed int64, coin string) string {
	sorted := make([]string, len(txUUIDs))
	copy(sorted, txUUIDs)
	sort.Strings(sorted)

	h := sha256.New()
	fmt.Fprintf(h, "k=%d|seed=%d|coin=%s\n", k, seed, coin)
	for _, uuid := range sorted {
		h.Write([]byte(uuid))
		h.Write([]byte{'\n'})
	}

	// 12 bytes of digest keeps ids short while collision-safe for run counts
	return base58.Encode(h.Sum(nil)[:12])
}
