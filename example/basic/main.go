package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	dashboard "github.com/UAlberta-EcoCar/Sally-Dashboard"
)

func main() {
	cfg, err := dashboard.LoadConfig("../../data/dashboard.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rt, err := dashboard.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("dashboard runtime exited: %v", err)
	}
}
