// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

// plansyncd is the MoneyPlan sync daemon. It opens the local offline store,
// wires the coordinator to the remote backend, and keeps the store converged
// through startup, interval and signal-driven triggers. SIGHUP requests a
// manual sync pass; SIGINT/SIGTERM shut down.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/thosapor1/moneyplan-ai-sub001/planremote"
	"github.com/thosapor1/moneyplan-ai-sub001/plansqlite"
	"github.com/thosapor1/moneyplan-ai-sub001/plansync"
)

type daemonConfig struct {
	DBPath       string
	ServerURL    string
	Token        string
	LogFile      string
	SyncInterval time.Duration
	SkipOffline  bool
}

func loadConfig() *daemonConfig {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := &daemonConfig{
		DBPath:       envOr("MONEYPLAN_DB_PATH", "moneyplan.db"),
		ServerURL:    envOr("MONEYPLAN_SERVER_URL", "http://localhost:8080"),
		Token:        os.Getenv("MONEYPLAN_TOKEN"),
		LogFile:      os.Getenv("MONEYPLAN_LOG_FILE"),
		SyncInterval: 2 * time.Minute,
		SkipOffline:  false,
	}
	if v := os.Getenv("MONEYPLAN_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SyncInterval = d
		}
	}
	if v := os.Getenv("MONEYPLAN_SKIP_OFFLINE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SkipOffline = b
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(cfg *daemonConfig) *slog.Logger {
	var w io.Writer = os.Stdout
	if cfg.LogFile != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		}
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

func run() error {
	cfg := loadConfig()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := plansqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open offline store: %w", err)
	}
	defer store.Close()

	token := func(ctx context.Context) (string, error) { return cfg.Token, nil }
	gateway := planremote.NewGateway(cfg.ServerURL, token, logger)
	probe := planremote.NewProbe(cfg.ServerURL + "/healthz")
	sessions := planremote.NewTokenSessionProvider(token)

	bus := plansync.NewBus()
	bus.OnSyncComplete(func(r plansync.Report) {
		if r.Total > 0 && r.Success == r.Total {
			logger.Info("All records synced", "count", r.Success, "trigger", r.Trigger)
		} else if r.Total > 0 {
			logger.Warn("Partial sync, will retry remaining records",
				"success", r.Success, "total", r.Total, "trigger", r.Trigger)
		}
	})
	bus.OnSyncError(func(e plansync.SyncError) {
		logger.Error("Sync pass error", "message", e.Message)
	})

	syncCfg := plansync.DefaultConfig()
	syncCfg.SkipWhenOffline = cfg.SkipOffline

	coordinator, err := plansync.NewCoordinator(store, gateway, probe, sessions, bus, syncCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}

	notifier := plansync.NewNotifier()
	notifier.Notify(plansync.TriggerStartup)
	go notifier.NotifyEvery(ctx, cfg.SyncInterval, plansync.TriggerInterval)
	go coordinator.Run(ctx, notifier)

	logger.Info("plansyncd started",
		"db", cfg.DBPath, "server", cfg.ServerURL, "interval", cfg.SyncInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for sig := range sigCh {
		switch sig {
		case syscall.SIGHUP:
			logger.Info("Manual sync requested")
			notifier.Notify(plansync.TriggerManual)
		case syscall.SIGINT, syscall.SIGTERM:
			logger.Info("Shutting down", "signal", sig.String())
			cancel()
			return nil
		}
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "plansyncd: %v\n", err)
		os.Exit(1)
	}
}
