// Command scardb starts the engine against a data directory and idles,
// ready for an embedding caller (a REPL or network front-end, both out of
// scope here) to drive it through the executor package.
package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/scardb/scardb/internal/config"
	"github.com/scardb/scardb/internal/engine"
)

func main() {
	configPath := pflag.String("config", "", "path to a scardb.yaml config file")
	dataDir := pflag.String("data-dir", "", "data directory for table and catalog files (overrides config)")
	logLevel := pflag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("scardb: load config: %v", err)
		}
		cfg = loaded
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	})))

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		log.Fatalf("scardb: resolve data dir: %v", err)
	}

	eng, err := engine.Open(absDataDir, cfg.Cache.PageCapacity)
	if err != nil {
		log.Fatalf("scardb: open engine: %v", err)
	}
	defer eng.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("scardb: shutting down", "signal", sig)
		eng.Close()
		os.Exit(0)
	}()

	slog.Info("scardb: started", "data_dir", absDataDir, "page_cache_capacity", cfg.Cache.PageCapacity)
	select {}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
