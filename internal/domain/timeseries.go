package domain

// SpreadPoint is one calendar day of a per-user price-spread series.
// Days with no trades on one side carry the fill value 0 and the matching
// Filled flag, so callers can tell "no data for this side" from a true zero.
type SpreadPoint struct {
	Date       string // "2006-01-02"
	SellMean   float64
	BuyMean    float64
	Spread     float64 // SellMean - BuyMean
	SellFilled bool    // no sell trades that day, SellMean is the fill value
	BuyFilled  bool
}

// UserSpreadSeries is the daily spread series of one market maker for one
// coin, reindexed onto the full date range of the filtered data.
type UserSpreadSeries struct {
	Username string
	Coin     string
	Points   []SpreadPoint
}

// VolumePoint is one calendar day of supply (sell) vs demand (buy) volume.
type VolumePoint struct {
	Date   string
	Supply float64 // sell-side summed amount
	Demand float64 // buy-side summed amount
}

// Dominance is a descriptive daily-count summary, not a statistical test.
type Dominance string

const (
	DominanceDemand   Dominance = "DEMAND_EXCEEDS_SUPPLY"
	DominanceSupply   Dominance = "SUPPLY_EXCEEDS_DEMAND"
	DominanceBalanced Dominance = "BALANCED"
)

// VolumeSeries is the daily supply/demand series for one coin. An empty
// Points slice means the coin had no transactions ("nothing to show"), which
// is distinct from a computation failure.
type VolumeSeries struct {
	Coin      string
	Points    []VolumePoint
	Dominance Dominance
}
