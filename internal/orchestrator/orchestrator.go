// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: fetch → flatten → aggregate → cluster → select → time series → report
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"p2p-maker-lab/internal/cluster"
	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/features"
	"p2p-maker-lab/internal/idhash"
	"p2p-maker-lab/internal/normalization"
	"p2p-maker-lab/internal/observability"
	"p2p-maker-lab/internal/reporting"
	"p2p-maker-lab/internal/scaling"
	"p2p-maker-lab/internal/selection"
	"p2p-maker-lab/internal/source"
	"p2p-maker-lab/internal/storage"
	"p2p-maker-lab/internal/timeseries"
)

// Orchestrator coordinates one full analysis run.
type Orchestrator struct {
	src source.TransactionSource

	// Optional persistence; a nil store skips that concern.
	transactionStore  storage.TransactionStore
	userProfileStore  storage.UserProfileStore
	spreadSeriesStore storage.SpreadSeriesStore
	volumeSeriesStore storage.VolumeSeriesStore

	coin          string
	k             int
	seed          int64
	restarts      int
	explicitLabel int
	outputDir     string
	verbose       bool

	now func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required record source
	Source source.TransactionSource

	// Optional stores; nil skips persistence of that artifact
	TransactionStore  storage.TransactionStore
	UserProfileStore  storage.UserProfileStore
	SpreadSeriesStore storage.SpreadSeriesStore
	VolumeSeriesStore storage.VolumeSeriesStore

	// Analysis parameters
	Coin     string
	K        int
	Seed     int64
	Restarts int

	// ExplicitLabel overrides the heuristic cluster selection.
	// Pass domain.ClusterLabelUnassigned to use the heuristic.
	ExplicitLabel int

	// OutputDir receives CSV and Markdown artifacts; empty skips writing
	OutputDir string

	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		src:               opts.Source,
		transactionStore:  opts.TransactionStore,
		userProfileStore:  opts.UserProfileStore,
		spreadSeriesStore: opts.SpreadSeriesStore,
		volumeSeriesStore: opts.VolumeSeriesStore,
		coin:              opts.Coin,
		k:                 opts.K,
		seed:              opts.Seed,
		restarts:          opts.Restarts,
		explicitLabel:     opts.ExplicitLabel,
		outputDir:         opts.OutputDir,
		verbose:           opts.Verbose,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// RunResult contains results from one analysis run.
type RunResult struct {
	RunID          string
	RecordsFetched int
	RowsDropped    int
	UserCount      int

	Partition *domain.ClusterPartition
	MakerSet  *domain.MarketMakerSet
	Spread    *timeseries.SpreadResult
	Volume    *domain.VolumeSeries
	Report    *reporting.Report
}

// Run executes the full pipeline.
// Phases:
//  1. Fetch raw records from the source
//  2. Flatten and aggregate into user profiles
//  3. Standardize features and cluster
//  4. Select the market maker cluster
//  5. Compute spread and volume time series
//  6. Persist and report
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := o.now()
	result, err := o.run(ctx)
	elapsed := o.now().Sub(started).Seconds()

	if err != nil {
		observability.RecordRun("failure")
		return nil, err
	}
	observability.RecordRun("success")
	observability.RecordPhaseDuration("total", elapsed)
	observability.DefaultMetrics.LastSuccessfulRun.Set(float64(o.now().Unix()))
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Fetch
	o.log("Phase 1: Fetching records...")
	records, err := o.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (fetch) failed: %w", err)
	}
	result.RecordsFetched = len(records)
	observability.RecordFetched(len(records))
	o.log("  Fetched %d records", len(records))

	// Phase 2: Flatten + aggregate
	o.log("Phase 2: Aggregating user features...")
	rows := normalization.Flatten(records)
	agg, err := features.Aggregate(rows)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (aggregation) failed: %w", err)
	}
	result.RowsDropped = agg.Dropped
	result.UserCount = len(agg.Profiles)
	observability.RecordDropped("coercion", agg.Dropped)
	observability.DefaultMetrics.UsersProfiled.Add(float64(len(agg.Profiles)))
	o.log("  %d transactions, %d users (%d rows dropped)",
		len(agg.Transactions), len(agg.Profiles), agg.Dropped)

	if len(agg.Profiles) == 0 {
		return nil, fmt.Errorf("phase 2 (aggregation) failed: no usable records")
	}

	uuids := make([]string, len(agg.Transactions))
	for i, tx := range agg.Transactions {
		uuids[i] = tx.TxUUID
	}
	result.RunID = idhash.ComputeRunID(uuids, o.k, o.seed, o.coin)
	o.log("  Run id: %s", result.RunID)

	if o.transactionStore != nil {
		if err := o.persistTransactions(ctx, agg.Transactions); err != nil {
			return nil, fmt.Errorf("persist transactions: %w", err)
		}
	}

	// Phase 3: Standardize + cluster
	o.log("Phase 3: Clustering %d users into k=%d...", len(agg.Profiles), o.k)
	scaled, scaler, err := scaling.FitTransform(agg.FeatureMatrix())
	if err != nil {
		return nil, fmt.Errorf("phase 3 (scaling) failed: %w", err)
	}

	partition, err := cluster.Fit(scaled, cluster.Config{
		K:        o.k,
		Seed:     o.seed,
		Restarts: o.restarts,
	})
	if err != nil {
		return nil, fmt.Errorf("phase 3 (clustering) failed: %w", err)
	}
	result.Partition = partition
	o.log("  Inertia %.4f, silhouette %.4f",
		partition.Quality.Inertia, partition.Quality.Silhouette)

	for i, p := range agg.Profiles {
		p.ClusterLabel = partition.Labels[i]
	}

	if o.userProfileStore != nil {
		if err := o.persistProfiles(ctx, result.RunID, agg.Profiles); err != nil {
			return nil, fmt.Errorf("persist profiles: %w", err)
		}
	}

	// Phase 4: Select market maker cluster
	o.log("Phase 4: Selecting market maker cluster...")
	set, err := selection.NewSelector(nil).Select(
		partition, agg.Profiles, agg.Keys, agg.Transactions, o.explicitLabel)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (selection) failed: %w", err)
	}
	result.MakerSet = set

	mode := "heuristic"
	if o.explicitLabel != domain.ClusterLabelUnassigned {
		mode = "explicit"
	}
	observability.RecordSelection(mode)
	o.log("  Cluster %d: %d members, %d transactions (%s)",
		set.ClusterLabel, len(set.Members), len(set.Transactions), mode)

	// Phase 5: Time series
	o.log("Phase 5: Computing time series for %s...", o.coin)
	result.Spread = timeseries.AnalyzeSpread(set, o.coin)
	result.Volume = timeseries.AnalyzeVolume(agg.Transactions, o.coin)
	o.log("  Spread: %d users (%d prices dropped) | Volume: %d days, %s",
		len(result.Spread.Series), result.Spread.Dropped,
		len(result.Volume.Points), result.Volume.Dominance)

	if o.spreadSeriesStore != nil && len(result.Spread.Series) > 0 {
		if err := o.persistSpread(ctx, result.RunID, result.Spread.Series); err != nil {
			return nil, fmt.Errorf("persist spread series: %w", err)
		}
	}
	if o.volumeSeriesStore != nil && len(result.Volume.Points) > 0 {
		if err := o.persistVolume(ctx, result.RunID, result.Volume); err != nil {
			return nil, fmt.Errorf("persist volume series: %w", err)
		}
	}

	// Phase 6: Report
	o.log("Phase 6: Building report...")
	result.Report = o.buildReport(result, scaler)
	if o.outputDir != "" {
		err := reporting.WriteArtifacts(o.outputDir, result.Report,
			agg.Profiles, set.Transactions, result.Spread.Series, result.Volume)
		if err != nil {
			return nil, fmt.Errorf("phase 6 (report) failed: %w", err)
		}
		observability.DefaultMetrics.ReportsWritten.Inc()
		o.log("  Artifacts written to %s", o.outputDir)
	}

	o.log("Run %s completed: %d users, cluster %d, dominance %s",
		result.RunID, result.UserCount, set.ClusterLabel, result.Volume.Dominance)

	return result, nil
}

// persistTransactions stores the coerced transactions. A duplicate batch
// means the same data set was ingested by an earlier run; not an error.
func (o *Orchestrator) persistTransactions(ctx context.Context, txs []*domain.Transaction) error {
	err := o.transactionStore.InsertBulk(ctx, txs)
	if errors.Is(err, storage.ErrDuplicateKey) {
		o.log("  Transactions already ingested, skipping")
		return nil
	}
	if err == nil {
		observability.RecordStored(len(txs))
	}
	return err
}

func (o *Orchestrator) persistProfiles(ctx context.Context, runID string, profiles []*domain.UserProfile) error {
	err := o.userProfileStore.InsertBulk(ctx, runID, profiles)
	if errors.Is(err, storage.ErrDuplicateKey) {
		o.log("  Profiles for run %s already stored, skipping", runID)
		return nil
	}
	return err
}

func (o *Orchestrator) persistSpread(ctx context.Context, runID string, series []*domain.UserSpreadSeries) error {
	err := o.spreadSeriesStore.InsertBulk(ctx, runID, series)
	if errors.Is(err, storage.ErrDuplicateKey) {
		o.log("  Spread series for run %s already stored, skipping", runID)
		return nil
	}
	return err
}

func (o *Orchestrator) persistVolume(ctx context.Context, runID string, series *domain.VolumeSeries) error {
	err := o.volumeSeriesStore.Insert(ctx, runID, series)
	if errors.Is(err, storage.ErrDuplicateKey) {
		o.log("  Volume series for run %s already stored, skipping", runID)
		return nil
	}
	return err
}

// buildReport assembles the run report. Centroids are mapped back to
// original feature units so the report is readable without the scaler.
func (o *Orchestrator) buildReport(result *RunResult, scaler *scaling.StandardScaler) *reporting.Report {
	return &reporting.Report{
		GeneratedAt:     o.now(),
		RunID:           result.RunID,
		Coin:            o.coin,
		K:               o.k,
		Seed:            o.seed,
		RecordsFetched:  result.RecordsFetched,
		RowsDropped:     result.RowsDropped,
		UserCount:       result.UserCount,
		Quality:         result.Partition.Quality,
		Centroids:       scaler.InverseTransform(result.Partition.Centroids),
		SelectedCluster: result.MakerSet.ClusterLabel,
		ExplicitLabel:   o.explicitLabel != domain.ClusterLabelUnassigned,
		MakerUsernames:  result.MakerSet.Usernames,
		MakerTxCount:    len(result.MakerSet.Transactions),
		Dominance:       result.Volume.Dominance,
		SpreadDropped:   result.Spread.Dropped,
		VolumeDayCount:  len(result.Volume.Points),
		SpreadUserCount: len(result.Spread.Series),
	}
}

func (o *Orchestrator) log(format string, args ...any) {
	if o.verbose {
		log.Printf(format, args...)
	}
}
