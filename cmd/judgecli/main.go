// Command judgecli is a terminal front end for the NJOJ judge API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"njoj_client/internal/platform/config"
	"njoj_client/internal/platform/storage"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// 1. Load Configuration
	cfg := config.Load()
	rest, err := config.ParseFlags(cfg, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Debug("Configuration loaded.", "api", cfg.APIBaseURL, "storage", cfg.StorageDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open session storage
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open session storage", "driver", cfg.StorageDriver, "error", err)
		return 1
	}
	defer store.Close()

	// 3. Wire the client and run the command
	a := newApp(cfg, store, os.Stdin, os.Stdout)
	if err := a.run(ctx, rest); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		// The root error carries the server's detail when there is one.
		msg := a.root.Error()
		if msg == "" {
			msg = err.Error()
		}
		slog.Debug("Command failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", msg)
		return 1
	}
	return 0
}
