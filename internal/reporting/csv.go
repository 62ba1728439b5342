package reporting

import (
	"fmt"
	"strings"

	"p2p-maker-lab/internal/domain"
)

// RenderUserProfilesCSV renders labeled user profiles as CSV string.
func RenderUserProfilesCSV(profiles []*domain.UserProfile) string {
	var sb strings.Builder

	sb.WriteString("username,total_transactions,total_volume,coins_traded,avg_rating,cluster_label\n")

	for _, p := range profiles {
		sb.WriteString(fmt.Sprintf("%s,%d,%.6f,%d,%.6f,%d\n",
			csvEscape(p.Username), p.TxCount, p.TotalVolume, p.CoinsTraded, p.AvgRating, p.ClusterLabel))
	}

	return sb.String()
}

// RenderTransactionsCSV renders the market maker transaction subset as CSV string.
func RenderTransactionsCSV(txs []*domain.Transaction) string {
	var sb strings.Builder

	sb.WriteString("tx_uuid,type,coin,amount,receive,status,created_at_ms,username,coin_price,avg_rating\n")

	for _, tx := range txs {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%s,%d,%s,%s,%.6f\n",
			csvEscape(tx.TxUUID), tx.Type, csvEscape(tx.Coin),
			tx.Amount, tx.Receive, csvEscape(tx.Status),
			tx.CreatedAtMs, csvEscape(tx.Username), csvEscape(tx.CoinPrice), tx.AvgRating))
	}

	return sb.String()
}

// RenderSpreadCSV renders per-user daily spread series as CSV string.
// Series are concatenated; rows stay grouped by username in input order.
func RenderSpreadCSV(series []*domain.UserSpreadSeries) string {
	var sb strings.Builder

	sb.WriteString("username,coin,date,sell_mean,buy_mean,spread,sell_filled,buy_filled\n")

	for _, sr := range series {
		for _, p := range sr.Points {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%.6f,%t,%t\n",
				csvEscape(sr.Username), csvEscape(sr.Coin), p.Date,
				p.SellMean, p.BuyMean, p.Spread, p.SellFilled, p.BuyFilled))
		}
	}

	return sb.String()
}

// RenderVolumeCSV renders a coin's daily supply/demand series as CSV string.
func RenderVolumeCSV(series *domain.VolumeSeries) string {
	var sb strings.Builder

	sb.WriteString("coin,date,supply,demand\n")

	if series != nil {
		for _, p := range series.Points {
			sb.WriteString(fmt.Sprintf("%s,%s,%.6f,%.6f\n",
				csvEscape(series.Coin), p.Date, p.Supply, p.Demand))
		}
	}

	return sb.String()
}

// csvEscape quotes a field when it contains separators or quotes.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
