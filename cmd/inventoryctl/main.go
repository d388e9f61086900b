package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rl1809/inventory-console/internal/config"
	"github.com/rl1809/inventory-console/internal/console"
	"github.com/rl1809/inventory-console/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if cfg.LogFile != "" {
		if _, err := logger.New(cfg.IsProduction(), cfg.LogFile); err != nil {
			fmt.Fprintln(os.Stderr, "init logger:", err)
			os.Exit(1)
		}
	} else {
		logger.Quiet()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := console.Execute(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
