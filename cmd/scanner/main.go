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
	flag.Parse()

	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.Log, "scanner")
	defer func() { _ = log.Sync() }()
	log.Info("config loaded", zap.String("path", *configPath))

	scanner, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize scanner", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("scanner terminated", zap.Error(err))
		os.Exit(1)
	}
	log.Info("scanner stopped")
}
