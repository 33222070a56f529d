package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/patrickwarner/bidderadmin/internal/analytics"
	"github.com/patrickwarner/bidderadmin/internal/api"
	"github.com/patrickwarner/bidderadmin/internal/config"
	"github.com/patrickwarner/bidderadmin/internal/db"
	"github.com/patrickwarner/bidderadmin/internal/observability"
	"github.com/patrickwarner/bidderadmin/internal/pages"
)

func newLogger() (*zap.Logger, error) {
	// stdout carries the MCP stream, so logs go to stderr
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.NameKey = "logger"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("bidderadmin-mcp").With(zap.String("service", "bidderadmin-mcp")), nil
}

func newMCPServer(tools *AdminTools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "bidderadmin",
		Version: "1.0.0",
	}, nil)
	tools.register(server)
	return server
}

func main() {
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	if os.Getenv("POSTGRES_DSN") == "" {
		logger.Fatal("POSTGRES_DSN environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime, false)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()
	logger.Info("Connected to PostgreSQL")

	// Edits made through the agent are announced and audited like UI edits.
	var notifier api.Notifier
	if cfg.RedisAddr != "" {
		rdb, err := db.InitRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("Redis unavailable, update notifications disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			notifier = rdb
			logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
		}
	}

	var audit analytics.EditRecorder
	if cfg.ClickHouseDSN != "" {
		ch, err := analytics.InitClickHouse(ctx, cfg.ClickHouseDSN, 5, 1, 5*time.Minute)
		if err != nil {
			logger.Warn("ClickHouse unavailable, edit audit disabled", zap.Error(err))
		} else {
			defer ch.Close()
			audit = ch
			logger.Info("ClickHouse connected for edit audit")
		}
	}

	srv := api.NewServer(logger, pg, notifier, audit, observability.NewNoOpRegistry(), pages.Defaults{
		Geo:              cfg.DefaultGeo,
		Device:           cfg.DefaultDevice,
		PageTypePriority: cfg.PageTypePriority,
	})
	server := newMCPServer(&AdminTools{srv: srv, logger: logger})

	var logBuffer bytes.Buffer
	loggingTransport := &mcp.LoggingTransport{
		Transport: &mcp.StdioTransport{},
		Writer:    &logBuffer,
	}

	logger.Info("MCP Server running via stdio")

	if err := server.Run(ctx, loggingTransport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}
