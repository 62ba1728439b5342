package domain

// ClusterLabelUnassigned is the sentinel for "no cluster assigned yet" and
// for "no explicit label supplied, use the heuristic" in selector input.
// The original tooling was inconsistent between null and -1; -1 is the fixed
// design decision here.
const ClusterLabelUnassigned = -1

// UserKey is one identity row per unique username. When the same username
// appears with conflicting identity values, the first occurrence in record
// order wins.
type UserKey struct {
	OwnerUUID string
	Username  string
	Name      string
	Surname   string
}

// UserProfile aggregates one user's trading behavior over a full run.
// Username is unique within a profile table. Never mutated after aggregation
// except for ClusterLabel, which a clustering run assigns.
type UserProfile struct {
	Username     string
	TxCount      int     // total transactions
	TotalVolume  float64 // sum of amounts
	CoinsTraded  int     // distinct coin symbols
	AvgRating    float64 // mean of the owner's average_rating
	ClusterLabel int     // ClusterLabelUnassigned until clustering runs
}

// FeatureColumns names the per-user numeric features in matrix column order.
var FeatureColumns = [4]string{"total_transactions", "total_volume", "coins_traded", "avg_rating"}

// FeatureRow extracts the numeric feature columns of a profile in
// FeatureColumns order.
func (p *UserProfile) FeatureRow() []float64 {
	return []float64{float64(p.TxCount), p.TotalVolume, float64(p.CoinsTraded), p.AvgRating}
}
