// Package main ingests exchange transaction records into PostgreSQL.
// Executes: fetch → flatten → coerce → store
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"p2p-maker-lab/internal/features"
	"p2p-maker-lab/internal/normalization"
	"p2p-maker-lab/internal/observability"
	"p2p-maker-lab/internal/source"
	"p2p-maker-lab/internal/storage"
	"p2p-maker-lab/internal/storage/migrations"
	pgstore "p2p-maker-lab/internal/storage/postgres"
)

// Env holds credentials and connection strings taken from the environment.
type Env struct {
	APIToken    string `envconfig:"API_TOKEN"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" required:"true"`
}

func main() {
	srcKind := flag.String("source", "api", "Record source: api, file, or ws")
	apiURL := flag.String("api-url", "", "Exchange API transactions endpoint")
	filePath := flag.String("file", "", "JSON file with pre-fetched records")
	wsEndpoint := flag.String("ws-endpoint", "", "Websocket feed endpoint")
	wsMaxRecords := flag.Int("ws-max-records", 0, "Stop the ws feed after this many records (0 = until close)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags)

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
		logger.Printf("Received signal %v, cancelling ingestion...", sig)
		cancel()
	}()

	src, err := buildSource(*srcKind, *apiURL, *filePath, *wsEndpoint, *wsMaxRecords, env.APIToken)
	if err != nil {
		logger.Fatalf("Source: %v", err)
	}

	pool, err := pgstore.NewPool(ctx, env.PostgresDSN)
	if err != nil {
		logger.Fatalf("Postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Migrations: %v", err)
	}

	logger.Printf("Fetching records from %s source...", *srcKind)
	records, err := src.Fetch(ctx)
	if err != nil {
		logger.Fatalf("Fetch: %v", err)
	}
	observability.RecordFetched(len(records))
	logger.Printf("Fetched %d records", len(records))

	rows := normalization.Flatten(records)
	agg, err := features.Aggregate(rows)
	if err != nil {
		logger.Fatalf("Coerce: %v", err)
	}
	observability.RecordDropped("coercion", agg.Dropped)
	logger.Printf("Coerced %d transactions (%d rows dropped)", len(agg.Transactions), agg.Dropped)

	store := pgstore.NewTransactionStore(pool)
	stored := 0
	for _, tx := range agg.Transactions {
		if err := ctx.Err(); err != nil {
			logger.Fatalf("Cancelled: %v", err)
		}
		// Per-row insert so re-ingesting an overlapping window only
		// skips the rows that already exist.
		err := store.Insert(ctx, tx)
		switch {
		case err == nil:
			stored++
		case errors.Is(err, storage.ErrDuplicateKey):
			// already present, skip
		default:
			logger.Fatalf("Insert %s: %v", tx.TxUUID, err)
		}
	}
	observability.RecordStored(stored)

	fmt.Printf("Ingestion completed: %d fetched, %d stored, %d already present, %d dropped\n",
		len(records), stored, len(agg.Transactions)-stored, agg.Dropped)
}

// buildSource creates the record source selected by flags.
func buildSource(kind, apiURL, filePath, wsEndpoint string, wsMaxRecords int, token string) (source.TransactionSource, error) {
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
		return source.NewWSSource(wsEndpoint, source.WithMaxRecords(wsMaxRecords)), nil
	default:
		return nil, fmt.Errorf("unknown source %q", kind)
	}
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
