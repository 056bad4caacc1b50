package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sharkhunterr/mcparr-sub000/internal/audit"
	"github.com/sharkhunterr/mcparr-sub000/internal/capability"
	"github.com/sharkhunterr/mcparr-sub000/internal/catalog"
	"github.com/sharkhunterr/mcparr-sub000/internal/chain"
	"github.com/sharkhunterr/mcparr-sub000/internal/config"
	"github.com/sharkhunterr/mcparr-sub000/internal/protocol"
	"github.com/sharkhunterr/mcparr-sub000/internal/registry"
	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serverName    = "mcparr"
	serverVersion = "0.3.0"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Env overrides for deploy-time settings
	if v := os.Getenv("MCPARR_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("MCPARR_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = config.LogLevel(v)
	}
	if v := os.Getenv("MCPARR_POSTGRES_DSN"); v != "" {
		cfg.Audit.PostgresDSN = v
	}
	if v := os.Getenv("MCPARR_CLICKHOUSE_DSN"); v != "" {
		cfg.Audit.ClickHouseDSN = v
	}

	logger := mustBuildLogger(string(cfg.Server.LogLevel))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("starting mcparr server",
		zap.String("version", serverVersion),
		zap.String("listen", cfg.Server.Listen),
	)

	// Database — Postgres if DSN provided, otherwise embedded SQLite.
	// Shared by the audit record store and the SQL chain rule store.
	var db *sql.DB
	var dialect chain.Dialect
	if cfg.Audit.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.Audit.PostgresDSN)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(context.Background()); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		dialect = chain.DialectPostgres
		logger.Info("postgres connected")
	} else {
		db, err = audit.OpenSQLite(cfg.Audit.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open sqlite", zap.String("path", cfg.Audit.SQLitePath), zap.Error(err))
		}
		dialect = chain.DialectSQLite
		logger.Info("sqlite opened", zap.String("path", cfg.Audit.SQLitePath))
	}
	defer func() { _ = db.Close() }()

	// Audit record store
	var store audit.RecordStore
	if !cfg.Audit.Disabled {
		if dialect == chain.DialectPostgres {
			store = audit.NewPostgresStore(db)
		} else {
			store, err = audit.NewSQLiteStore(db)
			if err != nil {
				logger.Fatal("failed to init audit store", zap.Error(err))
			}
		}
	} else {
		logger.Info("auditing disabled, call records will not be persisted")
	}

	// Event sink — ClickHouse or log fallback
	var events audit.EventWriter
	if cfg.Audit.ClickHouseDSN != "" {
		chWriter, err := audit.NewClickHouseWriter(cfg.Audit.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer", zap.Error(err))
			events = audit.NewLogWriter(logger)
		} else {
			events = chWriter
			logger.Info("clickhouse event writer connected")
		}
	} else {
		events = audit.NewLogWriter(logger)
	}
	defer events.Close()

	auditor := audit.NewAuditor(store, events, logger)

	// Tool registry — one static catalog per enabled capability
	reg := registry.New(logger)
	if cfg.Server.StrictArgs {
		reg.EnableStrictArgs()
	}
	registerCatalogs(cfg, reg, logger)

	// Chain rules — YAML file or the shared database
	var engine *chain.Engine
	if !cfg.Chains.Disabled {
		rules, err := buildRuleStore(cfg, db, dialect, reg, logger)
		if err != nil {
			logger.Fatal("failed to load chain rules", zap.Error(err))
		}
		engine = chain.NewEngine(rules, reg, events, chain.Config{
			Budget:   time.Duration(cfg.Chains.BudgetSeconds) * time.Second,
			MaxDepth: cfg.Chains.MaxDepth,
		}, logger)
	}

	srv := protocol.NewServer(reg, auditor, engine, serverName, serverVersion, logger)

	if cfg.Server.Listen == "stdio" {
		// Protocol frames own stdout; logs go to stderr.
		if err := srv.ServeStream(context.Background(), os.Stdin, os.Stdout); err != nil {
			logger.Fatal("stdio stream failed", zap.Error(err))
		}
		return
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		srv.Shutdown()
	}()

	if err := srv.ListenAndServe(cfg.Server.Listen); err != nil {
		logger.Fatal("protocol server failed", zap.Error(err))
	}
}

// registerCatalogs builds a capability client and registers the compiled-in
// catalog for every enabled capability. Connection failures are warnings:
// the service may simply not be up yet.
func registerCatalogs(cfg *config.Config, reg *registry.Registry, logger *zap.Logger) {
	type catalogEntry struct {
		opts  capability.Options
		build func(*capability.Client) ([]tools.Definition, tools.Handler)
	}
	catalogs := map[string]catalogEntry{
		"overseerr": {catalog.OverseerrOptions(), catalog.Overseerr},
		"radarr":    {catalog.RadarrOptions(), catalog.Radarr},
		"sonarr":    {catalog.SonarrOptions(), catalog.Sonarr},
		"plex":      {catalog.PlexOptions(), catalog.Plex},
		"sabnzbd":   {catalog.SABnzbdOptions(), catalog.SABnzbd},
	}

	for _, name := range config.KnownCapabilities {
		capCfg, ok := cfg.Capabilities[name]
		if !ok || !capCfg.Enabled {
			continue
		}
		entry := catalogs[name]
		client := capability.NewClient(name, capCfg, entry.opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.TestConnection(ctx); err != nil {
			logger.Warn("capability connection test failed",
				zap.String("capability", name),
				zap.Error(err),
			)
		}
		cancel()

		defs, handler := entry.build(client)
		if err := reg.Register(defs, handler, name); err != nil {
			logger.Fatal("tool registration failed", zap.String("capability", name), zap.Error(err))
		}
	}
}

func buildRuleStore(cfg *config.Config, db *sql.DB, dialect chain.Dialect, reg *registry.Registry, logger *zap.Logger) (chain.RuleStore, error) {
	if cfg.Chains.File != "" {
		chains, err := chain.LoadFile(cfg.Chains.File)
		if err != nil {
			return nil, err
		}
		if err := chain.ValidateAgainstRegistry(chains, reg, logger); err != nil {
			return nil, err
		}
		logger.Info("chain rules loaded from file",
			zap.String("file", cfg.Chains.File),
			zap.Int("chains", len(chains)),
		)
		return chain.NewMemoryRuleStore(chains), nil
	}

	return chain.NewSQLRuleStore(chain.SQLRuleStoreConfig{
		DB:       db,
		Dialect:  dialect,
		CacheTTL: time.Duration(cfg.Chains.CacheTTLSeconds) * time.Second,
		Logger:   logger,
	})
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zap.NewProductionEncoderConfig(),
		// stdout carries protocol frames in stdio mode; logs go to stderr.
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
