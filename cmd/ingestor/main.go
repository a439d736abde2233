package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"xarb-scanner/internal/app"
	"xarb-scanner/internal/config"
	"xarb-scanner/internal/logging"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	metricsAddr := flag.String("metrics-addr", "", "override the ops server address")
	flag.Parse()

	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Address = *metricsAddr
	}
	log := logging.New(cfg.Log, "ingestor")
	defer func() { _ = log.Sync() }()
	log.Info("config loaded", zap.String("path", *configPath))

	ingestor, err := app.NewIngestor(cfg, log)
	if err != nil {
		log.Error("failed to initialize ingestor", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ingestor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("ingestor terminated", zap.Error(err))
		os.Exit(1)
	}
	log.Info("ingestor stopped")
}
