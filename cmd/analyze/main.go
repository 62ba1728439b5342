// Package main runs the full market maker analysis pipeline.
// Executes: fetch → aggregate → cluster → select → time series → report
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"p2p-maker-lab/internal/domain"
	"p2p-maker-lab/internal/observability"
	"p2p-maker-lab/internal/orchestrator"
	"p2p-maker-lab/internal/source"
	"p2p-maker-lab/internal/storage"
	"p2p-maker-lab/internal/storage/clickhouse"
	"p2p-maker-lab/internal/storage/memory"
	"p2p-maker-lab/internal/storage/migrations"
	pgstore "p2p-maker-lab/internal/storage/postgres"
)

// Env holds credentials and connection strings taken from the environment,
// never from flags, so they stay out of shell history.
type Env struct {
	APIToken      string `envconfig:"API_TOKEN"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN"`
}

func main() {
	srcKind := flag.String("source", "file", "Record source: api, file, or ws")
	apiURL := flag.String("api-url", "", "Exchange API transactions endpoint")
	filePath := flag.String("file", "", "JSON file with pre-fetched records")
	wsEndpoint := flag.String("ws-endpoint", "", "Websocket feed endpoint")
	coin := flag.String("coin", "MLC", "Coin symbol for time series analysis")
	k := flag.Int("k", 4, "Number of clusters")
	seed := flag.Int64("seed", 42, "Clustering random seed")
	restarts := flag.Int("restarts", 10, "Independent clustering restarts")
	clusterLabel := flag.Int("cluster", domain.ClusterLabelUnassigned,
		"Explicit market maker cluster label (-1 = heuristic)")
	outputDir := flag.String("output-dir", "out", "Output directory for artifacts")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[analyze] ", log.LstdFlags)

	var env Env
	if err := envconfig.Process("p2p", &env); err != nil {
		logger.Fatalf("Read environment: %v", err)
	}

	if *metricsAddr != "" {
		go serveMetrics(logger, *metricsAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling run...", sig)
		cancel()
	}()

	src, err := buildSource(*srcKind, *apiURL, *filePath, *wsEndpoint, env.APIToken)
	if err != nil {
		logger.Fatalf("Source: %v", err)
	}

	stores, closeStores, err := buildStores(ctx, *useMemory, env)
	if err != nil {
		logger.Fatalf("Storage: %v", err)
	}
	defer closeStores()

	orch := orchestrator.New(orchestrator.Options{
		Source:            src,
		TransactionStore:  stores.transactions,
		UserProfileStore:  stores.profiles,
		SpreadSeriesStore: stores.spread,
		VolumeSeriesStore: stores.volume,
		Coin:              *coin,
		K:                 *k,
		Seed:              *seed,
		Restarts:          *restarts,
		ExplicitLabel:     *clusterLabel,
		OutputDir:         *outputDir,
		Verbose:           *verbose,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		logger.Fatalf("Run: %v", err)
	}

	fmt.Printf("Run %s completed:\n", result.RunID)
	fmt.Printf("  Records: %d (%d dropped)\n", result.RecordsFetched, result.RowsDropped)
	fmt.Printf("  Users: %d in %d clusters\n", result.UserCount, result.Partition.K)
	fmt.Printf("  Silhouette: %.4f | Inertia: %.4f\n",
		result.Partition.Quality.Silhouette, result.Partition.Quality.Inertia)
	fmt.Printf("  Market maker cluster: %d (%d members, %d transactions)\n",
		result.MakerSet.ClusterLabel, len(result.MakerSet.Members), len(result.MakerSet.Transactions))
	fmt.Printf("  Volume dominance: %s\n", result.Volume.Dominance)
	if *outputDir != "" {
		fmt.Printf("  Artifacts: %s\n", *outputDir)
	}
}

// buildSource creates the record source selected by flags.
func buildSource(kind, apiURL, filePath, wsEndpoint, token string) (source.TransactionSource, error) {
	switch kind {
	case "api":
		if apiURL == "" {
			return nil, fmt.Errorf("source api requires --api-url")
		}
		return source.NewHTTPSource(apiURL, token), nil
	case "file":
		if filePath == "" {
			return nil, fmt.Errorf("source file requires --file")
		}
		return source.NewFileSource(filePath), nil
	case "ws":
		if wsEndpoint == "" {
			return nil, fmt.Errorf("source ws requires --ws-endpoint")
		}
		return source.NewWSSource(wsEndpoint), nil
	default:
		return nil, fmt.Errorf("unknown source %q", kind)
	}
}

// storeSet groups the stores the orchestrator needs.
type storeSet struct {
	transactions storage.TransactionStore
	profiles     storage.UserProfileStore
	spread       storage.SpreadSeriesStore
	volume       storage.VolumeSeriesStore
}

// buildStores wires memory or database-backed stores. Databases are optional
// one by one: a missing DSN just skips that persistence concern.
func buildStores(ctx context.Context, useMemory bool, env Env) (*storeSet, func(), error) {
	if useMemory {
		return &storeSet{
			transactions: memory.NewTransactionStore(),
			profiles:     memory.NewUserProfileStore(),
			spread:       memory.NewSpreadSeriesStore(),
			volume:       memory.NewVolumeSeriesStore(),
		}, func() {}, nil
	}

	stores := &storeSet{}
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if env.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, env.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}

		stores.transactions = pgstore.NewTransactionStore(pool)
		stores.profiles = pgstore.NewUserProfileStore(pool)
	}

	if env.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, env.ClickhouseDSN)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })

		stores.spread = clickhouse.NewSpreadSeriesStore(conn)
		stores.volume = clickhouse.NewVolumeSeriesStore(conn)
	}

	return stores, closeAll, nil
}

func serveMetrics(logger *log.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Printf("Starting metrics server on %s", addr)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("Metrics server error: %v", err)
	}
}
