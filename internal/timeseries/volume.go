package timeseries

import (
	"p2p-maker-lab/internal/domain"
)

// AnalyzeVolume computes the daily sell-side (supply) and buy-side (demand)
// summed amounts for a coin over the full, unfiltered transaction set, outer
// joined on calendar day with missing sides filled as zero. The dominance
// signal counts days where one side strictly exceeds the other; it is a
// descriptive summary, not a statistical test. A coin with no transactions
// yields an empty Points slice and DominanceBalanced.
func AnalyzeVolume(txs []*domain.Transaction, coin string) *domain.VolumeSeries {
	series := &domain.VolumeSeries{Coin: coin, Dominance: domain.DominanceBalanced}

	supply := make(map[string]float64)
	demand := make(map[string]float64)
	var timestamps []int64

	for _, tx := range txs {
		if tx.Coin != coin {
			continue
		}
		day := dayOf(tx.CreatedAtMs)
		switch tx.Type {
		case domain.TxTypeSell:
			supply[day] += tx.Amount
		case domain.TxTypeBuy:
			demand[day] += tx.Amount
		default:
			continue
		}
		timestamps = append(timestamps, tx.CreatedAtMs)
	}

	if len(timestamps) == 0 {
		return series
	}

	first, last := boundsOf(timestamps)
	var demandDays, supplyDays int

	for _, day := range dateRange(first, last) {
		point := domain.VolumePoint{
			Date:   day,
			Supply: supply[day],
			Demand: demand[day],
		}
		series.Points = append(series.Points, point)

		if point.Demand > point.Supply {
			demandDays++
		} else if point.Supply > point.Demand {
			supplyDays++
		}
	}

	switch {
	case demandDays > supplyDays:
		series.Dominance = domain.DominanceDemand
	case supplyDays > demandDays:
		series.Dominance = domain.DominanceSupply
	}

	return series
}
