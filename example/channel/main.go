package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	dashboard "github.com/UAlberta-EcoCar/Sally-Dashboard"
)

func main() {
	cfg, err := dashboard.LoadConfig("../../data/dashboard.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	presenter, frames, closeFrames := dashboard.NewChannelPresenter("fanout", 4)
	defer closeFrames()

	go displayWorker("display", frames)

	rt, err := dashboard.NewRuntime(cfg, dashboard.WithPresenter(presenter))
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func displayWorker(name string, frames <-chan dashboard.RenderFrame) {
	for frame := range frames {
		fmt.Printf("[%s] frame with %d signals, %d alerts at %s\n",
			name, len(frame.Signals), len(frame.Alerts), time.Now().Format(time.RFC3339))
	}
}
