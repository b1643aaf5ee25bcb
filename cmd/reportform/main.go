package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/butthurt/reportform/internal/analytics"
	"github.com/butthurt/reportform/internal/assets"
	"github.com/butthurt/reportform/internal/config"
	"github.com/butthurt/reportform/internal/export"
	"github.com/butthurt/reportform/internal/httpserver"
	"github.com/butthurt/reportform/internal/raster"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsDebug() {
		logger.Debug("starting", zap.String("config", cfg.String()))
	}

	store, err := assets.NewStore(cfg.AssetsDirectory)
	if err != nil {
		logger.Fatal("assets unavailable", zap.Error(err))
	}
	catalog, err := store.Translations()
	if err != nil {
		logger.Fatal("translations unavailable", zap.Error(err))
	}
	onValues, err := store.OnValues()
	if err != nil {
		logger.Fatal("on-value table unavailable", zap.Error(err))
	}

	var renderer raster.PageRenderer
	if r, err := raster.NewPdftoppm(cfg.Pdftoppm); err != nil {
		logger.Warn("JPEG export disabled", zap.Error(err))
		renderer = raster.Unavailable{Err: err}
	} else {
		renderer = r
	}

	recorder := analytics.NewLogger(logger)
	defer recorder.Close()

	pipeline := export.New(store, catalog, onValues, renderer, recorder, logger, export.Options{
		Workers: cfg.Workers,
		Raster:  raster.Options{DPI: cfg.DPI, Quality: cfg.Quality},
	})

	server, err := httpserver.New(catalog, pipeline, recorder, logger, cfg.Language)
	if err != nil {
		logger.Fatal("server setup failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.Address()); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Hurt Feelings Report Service\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
