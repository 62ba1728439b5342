package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"p2p-maker-lab/internal/domain"
)

// Artifact file names. Coin-scoped series files take the coin as suffix.
const (
	ProfilesFileName     = "user_profiles.csv"
	TransactionsFileName = "market_maker_transactions.csv"
	ReportFileName       = "REPORT.md"
)

// SpreadFileName returns the spread series file name for a coin.
func SpreadFileName(coin string) string {
	return fmt.Sprintf("spread_%s.csv", coin)
}

// VolumeFileName returns the volume series file name for a coin.
func VolumeFileName(coin string) string {
	return fmt.Sprintf("volume_%s.csv", coin)
}

// WriteArtifacts writes all run artifacts into dir, creating it if needed.
func WriteArtifacts(
	dir string,
	report *Report,
	profiles []*domain.UserProfile,
	makerTxs []*domain.Transaction,
	spread []*domain.UserSpreadSeries,
	volume *domain.VolumeSeries,
) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		ProfilesFileName:            RenderUserProfilesCSV(profiles),
		TransactionsFileName:        RenderTransactionsCSV(makerTxs),
		SpreadFileName(report.Coin): RenderSpreadCSV(spread),
		VolumeFileName(report.Coin): RenderVolumeCSV(volume),
		ReportFileName:              RenderMarkdown(report),
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	return nil
}
