package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/patrickwarner/bidderadmin/internal/analytics"
	"github.com/patrickwarner/bidderadmin/internal/config"
	"github.com/patrickwarner/bidderadmin/internal/observability"
)

func main() {
	logger, err := observability.InitLoggerWithService("query-edits")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var bidder string
	var limit int
	var dsn string
	flag.StringVar(&bidder, "bidder", "", "bidder code (optional)")
	flag.IntVar(&limit, "limit", 50, "maximum number of edits")
	flag.StringVar(&dsn, "dsn", "", "ClickHouse DSN")
	flag.Parse()

	if dsn == "" {
		cfg := config.Load()
		dsn = cfg.ClickHouseDSN
	}
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "dsn required (flag or CLICKHOUSE_DSN)")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := analytics.InitClickHouse(ctx, dsn, 2, 1, 5*time.Minute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	edits, err := a.RecentEdits(ctx, bidder, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query edits: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(edits); err != nil {
		fmt.Fprintf(os.Stderr, "encode edits: %v\n", err)
		os.Exit(1)
	}
}
