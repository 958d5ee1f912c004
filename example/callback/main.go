package main

import (
	"context"
	"fmt"
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

	presenter := dashboard.NewCallbackPresenter("stdout", func(frame dashboard.RenderFrame) error {
		sev, any := frame.Highest()
		status := "ok"
		if any {
			status = sev.String()
		}
		fmt.Printf("%s status=%s alerts=%d\n",
			frame.Timestamp.Format("15:04:05.000"), status, len(frame.Alerts))
		for id, st := range frame.Signals {
			if st.Valid {
				fmt.Printf("  %s=%.2f\n", id, st.Last.Value)
			}
		}
		return nil
	})

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
