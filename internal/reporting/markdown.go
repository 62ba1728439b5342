package reporting

import (
	"fmt"
	"strings"
	"time"

	"p2p-maker-lab/internal/domain"
)

// RenderMarkdown renders a run report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Market Maker Analysis Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Coin: %s | K: %d | Seed: %d\n\n", r.RunID, r.Coin, r.K, r.Seed))

	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Records Fetched | %d |\n", r.RecordsFetched))
	sb.WriteString(fmt.Sprintf("| Rows Dropped | %d |\n", r.RowsDropped))
	sb.WriteString(fmt.Sprintf("| Unique Users | %d |\n", r.UserCount))
	sb.WriteString("\n")

	sb.WriteString("## Clustering Quality\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Inertia | %.4f |\n", r.Quality.Inertia))
	sb.WriteString(fmt.Sprintf("| Silhouette | %.4f |\n", r.Quality.Silhouette))
	sb.WriteString(fmt.Sprintf("| Calinski-Harabasz | %.4f |\n", r.Quality.CalinskiHarabasz))
	sb.WriteString(fmt.Sprintf("| Davies-Bouldin | %.4f |\n", r.Quality.DaviesBouldin))
	sb.WriteString("\n")

	if len(r.Centroids) > 0 {
		sb.WriteString("### Cluster Centroids (original units)\n\n")
		sb.WriteString("| Cluster |")
		for _, col := range domain.FeatureColumns {
			sb.WriteString(fmt.Sprintf(" %s |", col))
		}
		sb.WriteString("\n|---------|")
		for range domain.FeatureColumns {
			sb.WriteString("------|")
		}
		sb.WriteString("\n")
		for label, centroid := range r.Centroids {
			sb.WriteString(fmt.Sprintf("| %d |", label))
			for _, v := range centroid {
				sb.WriteString(fmt.Sprintf(" %.4f |", v))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Market Maker Selection\n\n")
	mode := "heuristic (transactions + volume centroid sum)"
	if r.ExplicitLabel {
		mode = "explicit operator override"
	}
	sb.WriteString(fmt.Sprintf("Selected cluster: **%d** (%s)\n\n", r.SelectedCluster, mode))
	sb.WriteString(fmt.Sprintf("Members: %d | Transactions: %d\n\n", len(r.MakerUsernames), r.MakerTxCount))
	if len(r.MakerUsernames) > 0 {
		sb.WriteString("| Username |\n|----------|\n")
		for _, u := range r.MakerUsernames {
			sb.WriteString(fmt.Sprintf("| %s |\n", u))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Time Series\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Volume Dominance | %s |\n", r.Dominance))
	sb.WriteString(fmt.Sprintf("| Volume Days | %d |\n", r.VolumeDayCount))
	sb.WriteString(fmt.Sprintf("| Spread Series Users | %d |\n", r.SpreadUserCount))
	sb.WriteString(fmt.Sprintf("| Unparseable Prices Dropped | %d |\n", r.SpreadDropped))
	sb.WriteString("\n")

	return sb.String()
}
