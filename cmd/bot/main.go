package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gamewatch/internal/bot"
	"gamewatch/internal/classifier"
	"gamewatch/internal/config"
	"gamewatch/internal/engine"
	"gamewatch/internal/fetcher"
	"gamewatch/internal/resolver"
	"gamewatch/internal/scheduler"
	"gamewatch/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	var blender *classifier.Blender
	if cfg.ClassifierURL != "" {
		client := classifier.NewClient(cfg.ClassifierURL, http.DefaultClient, cfg.ClassifierTimeout)
		blender = classifier.NewBlender(client, log)
	}

	var res *resolver.Client
	if cfg.ResolverURL != "" {
		res = resolver.New(cfg.ResolverURL, http.DefaultClient, cfg.ResolverTimeout, cfg.ResolverConcurrency)
	}

	engCfg := engine.DefaultConfig()
	engCfg.AutoApproveThreshold = cfg.AutoApproveThreshold
	engCfg.AutoTrackSequels = cfg.AutoTrackSequels
	eng := engine.New(engCfg, blender, log)

	f := fetcher.New(http.DefaultClient, log)

	sched := scheduler.New(store, f, eng, res, b, log, cfg.ReleaseFeeds, cfg.AvoidRepacks, cfg.CheckInterval)
	b.SetChecker(sched)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "feeds", len(cfg.ReleaseFeeds), "interval", cfg.CheckInterval)

	go sched.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
