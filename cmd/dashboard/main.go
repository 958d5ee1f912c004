package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	dashboard "github.com/UAlberta-EcoCar/Sally-Dashboard"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "watch":
		err = watchCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("dashboard %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/dashboard.yaml", "Path to dashboard configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := dashboard.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rt, err := dashboard.NewRuntime(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/dashboard.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := dashboard.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good: %d signals, %d alert rules\n",
		*cfgPath, len(cfg.Signals), len(cfg.Alerts.Rules))
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"dash_frames_received_total": 0,
		"dash_samples_applied_total": 0,
		"dash_queue_length":          0,
		"dash_stale_signals":         0,
		"dash_active_alerts":         0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] frames=%.0f samples=%.0f queue=%.0f stale=%.0f alerts=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets["dash_frames_received_total"],
		targets["dash_samples_applied_total"],
		targets["dash_queue_length"],
		targets["dash_stale_signals"],
		targets["dash_active_alerts"],
	)
	return nil
}

func printUsage() {
	fmt.Printf(`Sally-Dashboard CLI

Usage:
  dashboard <command> [flags]

Commands:
  run        Start the dashboard core using the provided config
  watch      Start the core and show the live terminal dashboard
  validate   Load and validate a config file without starting anything
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  dashboard run -config ./data/dashboard.yaml
  dashboard watch -config ./data/dashboard.yaml
  dashboard validate -config ./data/dashboard.yaml
  dashboard stats -url http://localhost:9100/metrics -interval 1s
`)
}
