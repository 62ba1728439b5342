package timeseries

import (
	"sort"
	"strconv"
	"strings"

	"p2p-maker-lab/internal/domain"
)

// SpreadResult holds the per-user daily spread series for one coin.
// An empty Series with TxCount 0 is the explicit "no market maker
// transactions for this coin" outcome, distinct from a failure.
type SpreadResult struct {
	Coin    string
	Series  []*domain.UserSpreadSeries // sorted by username
	TxCount int                        // market maker transactions seen for the coin
	Dropped int                        // rows whose price could not be coerced
}

// AnalyzeSpread computes, for each market maker independently, the daily
// mean sell price minus the daily mean buy price for the given coin. Prices
// are sanitized to numeric by stripping non-numeric characters; rows that
// still fail coercion are dropped and counted. Each user's buy and sell
// series are reindexed onto the full date range of the filtered set, missing
// days filled with zero and flagged, so a fill value is distinguishable from
// a true zero. A user trading only one side gets the other operand pinned to
// the fill value with its flag set.
func AnalyzeSpread(set *domain.MarketMakerSet, coin string) *SpreadResult {
	result := &SpreadResult{Coin: coin}

	type daySide struct {
		sum   float64
		count int
	}
	type userDays struct {
		sell map[string]*daySide
		buy  map[string]*daySide
	}

	byUser := make(map[string]*userDays)
	var timestamps []int64

	for _, tx := range set.Transactions {
		if tx.Coin != coin {
			continue
		}
		result.TxCount++

		price, ok := sanitizePrice(tx.CoinPrice)
		if !ok {
			result.Dropped++
			continue
		}

		u, exists := byUser[tx.Username]
		if !exists {
			u = &userDays{
				sell: make(map[string]*daySide),
				buy:  make(map[string]*daySide),
			}
			byUser[tx.Username] = u
		}

		day := dayOf(tx.CreatedAtMs)
		timestamps = append(timestamps, tx.CreatedAtMs)

		var side map[string]*daySide
		switch tx.Type {
		case domain.TxTypeSell:
			side = u.sell
		case domain.TxTypeBuy:
			side = u.buy
		default:
			continue
		}

		if s, exists := side[day]; exists {
			s.sum += price
			s.count++
		} else {
			side[day] = &daySide{sum: price, count: 1}
		}
	}

	if len(byUser) == 0 {
		return result
	}

	first, last := boundsOf(timestamps)
	days := dateRange(first, last)

	usernames := make([]string, 0, len(byUser))
	for username := range byUser {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	for _, username := range usernames {
		u := byUser[username]
		series := &domain.UserSpreadSeries{Username: username, Coin: coin}

		for _, day := range days {
			point := domain.SpreadPoint{Date: day}

			if s, exists := u.sell[day]; exists {
				point.SellMean = s.sum / float64(s.count)
			} else {
				point.SellFilled = true
			}
			if b, exists := u.buy[day]; exists {
				point.BuyMean = b.sum / float64(b.count)
			} else {
				point.BuyFilled = true
			}

			point.Spread = point.SellMean - point.BuyMean
			series.Points = append(series.Points, point)
		}

		result.Series = append(result.Series, series)
	}

	return result
}

// sanitizePrice strips everything except digits, the decimal point and a
// leading minus, then coerces. "$1,234.50" parses to 1234.50.
func sanitizePrice(raw string) (float64, bool) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}
