// ABOUTME: Entry point for the authbridge server
// ABOUTME: Serves the session-cookie issuer and protected-resource guard endpoints

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/2389/authbridge/internal/bridge"
	"github.com/2389/authbridge/internal/config"
	"github.com/2389/authbridge/internal/identity"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: authbridge <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve     Start the bridge server")
		fmt.Println("  health    Check bridge health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if !cfg.IsConfigured() {
		logger.Warn("no identity backend configured, serving degraded",
			"hint", config.EnvBackendURL+" and "+config.EnvBackendKey+" are unset")
	}

	backend := identity.NewClient(cfg.Backend.URL, cfg.Backend.Key, nil, logger)
	b := bridge.New(cfg, backend, logger)

	return b.Start(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	url := "http://" + cfg.Server.HTTPAddr + "/health/ready"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	fmt.Printf("%d %s", resp.StatusCode, body)
	return nil
}

// loadConfig prefers an explicit config file, falling back to environment
// variables. Either way an absent backend degrades instead of erroring.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("AUTHBRIDGE_CONFIG"); path != "" {
		return config.Load(path)
	}
	return config.FromEnv(), nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
