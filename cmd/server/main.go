// Package main runs the chat relay: it receives the ledger node's
// settlement webhook, validates paid message blocks, persists them and
// fans them out to websocket subscribers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"banano-chat-relay/internal/banano"
	"banano-chat-relay/internal/fees"
	"banano-chat-relay/internal/hub"
	"banano-chat-relay/internal/ingest"
	"banano-chat-relay/internal/server"
	"banano-chat-relay/internal/storage"
	chstore "banano-chat-relay/internal/storage/clickhouse"
	"banano-chat-relay/internal/storage/memory"
	"banano-chat-relay/internal/storage/migrations"
	pgstore "banano-chat-relay/internal/storage/postgres"
)

// Default fees: 0.01 BAN standard, 0.1 BAN premium (1 BAN = 10^29 raw).
const (
	defaultFeeRaw        = "1000000000000000000000000000"
	defaultPremiumFeeRaw = "10000000000000000000000000000"
)

func main() {
	// Load .env file if exists
	godotenv.Load()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("BANANO_RPC_ENDPOINT"), "Banano node RPC endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables the ingest audit archive)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	feeRaw := flag.String("fee-raw", envOr("FEE_RAW", defaultFeeRaw), "Standard message fee in raw")
	premiumFeeRaw := flag.String("premium-fee-raw", envOr("PREMIUM_FEE_RAW", defaultPremiumFeeRaw), "Premium message fee in raw")
	verifySignatures := flag.Bool("verify-signatures", true, "Reject blocks whose signature does not verify")
	queueSize := flag.Int("ws-queue-size", hub.DefaultQueueSize, "Per-subscriber websocket buffer")
	fetchTimeout := flag.Duration("fetch-timeout", ingest.DefaultFetchTimeout, "Timeout for node block lookups")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	schedule, err := fees.NewSchedule(*feeRaw, *premiumFeeRaw)
	if err != nil {
		logger.Fatalf("Invalid fee configuration: %v", err)
	}
	provider := fees.NewProvider(schedule)
	logger.Printf("Fee schedule: standard=%s raw, premium=%s raw", schedule.FeeRaw(), schedule.PremiumFeeRaw())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messageStore, auditStore, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	h := hub.New(hub.Options{
		QueueSize: *queueSize,
		Logger:    log.New(os.Stdout, "[hub] ", log.LstdFlags),
	})

	pipeline := ingest.New(ingest.Options{
		RPC:          banano.NewHTTPClient(*rpcEndpoint),
		Validator:    ingest.NewValidator(provider, *verifySignatures),
		Store:        messageStore,
		Hub:          h,
		Audit:        auditStore,
		FetchTimeout: *fetchTimeout,
		Logger:       log.New(os.Stdout, "[ingest] ", log.LstdFlags),
	})

	srv := server.New(server.Options{
		Pipeline:   pipeline,
		Store:      messageStore,
		Fees:       provider,
		Hub:        h,
		ListenAddr: *listenAddr,
		Logger:     logger,
	})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	if err := srv.Run(ctx); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createStores wires the message store and the optional audit archive.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.MessageStore, storage.IngestEventStore, func(), error) {
	if useMemory {
		return memory.NewMessageStore(), memory.NewIngestEventStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	cleanup := func() { pool.Close() }
	var audit storage.IngestEventStore

	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			conn.Close()
			pool.Close()
			return nil, nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		audit = chstore.NewIngestEventStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return pgstore.NewMessageStore(pool), audit, cleanup, nil
}

// envOr returns the environment value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
